package task

import (
	"context"
	"sync"
	"time"

	"github.com/blues/hns/internal/config"
	"github.com/blues/hns/internal/ethereum"
	"github.com/blues/hns/internal/logger"
	"github.com/blues/hns/internal/logic"
	"github.com/blues/hns/internal/model"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// 对账任务查询并发上限
const syncPoolSize = 8

// NftSyncJob NFT状态对账任务。
// 本地nft_minted为假但链上isProjectMinted为真的项目说明mint确认后
// 落库失败（本地记录滞后）。任务从链上取回tokenId修复本地记录，
// 不会产生任何链上写操作。
type NftSyncJob struct {
	projectLogic *logic.ProjectLogic
	ethClient    *ethereum.Client
	config       *config.Config
}

// NewNftSyncJob 创建NFT状态对账任务
func NewNftSyncJob(db *gorm.DB, cfg *config.Config, ethClient *ethereum.Client) *NftSyncJob {
	return &NftSyncJob{
		projectLogic: logic.NewProjectLogic(db),
		ethClient:    ethClient,
		config:       cfg,
	}
}

// GetName 获取任务名称
func (j *NftSyncJob) GetName() string {
	return "nft_status_sync"
}

// GetSchedule 获取调度配置
func (j *NftSyncJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.SyncInterval) * time.Second)
}

// Execute 执行任务
func (j *NftSyncJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	projects, err := j.projectLogic.GetUnmintedProjects(ctx)
	if err != nil {
		logger.Error("Failed to fetch projects for NFT sync: %v", err)
		return
	}
	if len(projects) == 0 {
		return
	}

	pool, err := ants.NewPool(syncPoolSize)
	if err != nil {
		logger.Error("Failed to create worker pool: %v", err)
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var mu sync.Mutex
	repaired := 0

	for i := range projects {
		project := projects[i]
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			if j.syncProject(ctx, &project) {
				mu.Lock()
				repaired++
				mu.Unlock()
			}
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit sync task for project %s: %v", project.Id, err)
		}
	}
	wg.Wait()

	if repaired > 0 {
		logger.Info("NFT sync task repaired %d diverged projects (checked %d)", repaired, len(projects))
	}
}

// syncProject 核对单个项目的链上状态，返回是否修复了本地记录
func (j *NftSyncJob) syncProject(ctx context.Context, project *model.ProjectModel) bool {
	minted, err := j.ethClient.IsProjectMinted(ctx, project.Id)
	if err != nil {
		logger.Warn("Failed to query mint status for project %s: %v", project.Id, err)
		return false
	}
	if !minted {
		return false
	}

	// 链上已mint但本地未记录：取回tokenId修复
	var tokenId *string
	info, err := j.ethClient.ProjectInfo(ctx, project.Id)
	if err != nil {
		logger.Warn("Failed to query project info for %s: %v", project.Id, err)
	} else if info.TokenId != nil && info.TokenId.Sign() > 0 {
		s := info.TokenId.String()
		tokenId = &s
	}

	if err := j.projectLogic.SetMintResult(ctx, project.Id, tokenId); err != nil {
		logger.Error("Failed to repair mint record for project %s: %v", project.Id, err)
		return false
	}

	logger.Info("Repaired diverged mint record for project %s (token %v)", project.Id, tokenId)
	return true
}
