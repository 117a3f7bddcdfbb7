package task

import (
	"github.com/blues/hns/internal/config"
	"github.com/blues/hns/internal/ethereum"
	"github.com/blues/hns/internal/logger"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// TaskManager 任务管理器
type TaskManager struct {
	scheduler gocron.Scheduler
	db        *gorm.DB
	ethClient *ethereum.Client
	config    *config.Config
}

// NewTaskManager 创建新的任务管理器
func NewTaskManager(db *gorm.DB, ethClient *ethereum.Client, cfg *config.Config) (*TaskManager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &TaskManager{
		scheduler: s,
		db:        db,
		ethClient: ethClient,
		config:    cfg,
	}, nil
}

// Start 启动任务管理器
func Start(db *gorm.DB, ethClient *ethereum.Client, cfg *config.Config) (*TaskManager, error) {
	manager, err := NewTaskManager(db, ethClient, cfg)
	if err != nil {
		return nil, err
	}

	manager.RegisterJobs()
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager, nil
}

// RegisterJobs 注册所有任务
func (m *TaskManager) RegisterJobs() {
	// 对账任务按配置开关
	if m.config.Task.SyncInterval > 0 {
		m.RegisterNftSyncJob()
	}
}

// RegisterNftSyncJob 注册NFT状态对账任务
func (m *TaskManager) RegisterNftSyncJob() {
	job := NewNftSyncJob(m.db, m.config, m.ethClient)

	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *TaskManager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
