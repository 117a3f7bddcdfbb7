package main

import (
	"log"

	"github.com/blues/hns/internal/config"
	"github.com/blues/hns/internal/database"
	"github.com/blues/hns/internal/ethereum"
	"github.com/blues/hns/internal/logger"
	"github.com/blues/hns/internal/pinata"
	"github.com/blues/hns/internal/router"
	"github.com/blues/hns/internal/task"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.Setup(cfg.Log); err != nil {
		log.Fatalf("Failed to setup logger: %v", err)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化以太坊客户端
	ethClient, err := ethereum.Init(cfg.Chain)
	if err != nil {
		logger.Fatal("Failed to initialize ethereum client: %v", err)
	}
	defer ethClient.Close()

	// 初始化Pinata客户端
	pinataClient := pinata.NewClient(cfg.Pinata)
	if cfg.Pinata.ApiKey == "" || cfg.Pinata.SecretKey == "" {
		logger.Warn("Pinata api keys not configured, metadata publishing will fail")
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, ethClient, pinataClient)

	// 启动定时任务
	manager, err := task.Start(db, ethClient, cfg)
	if err != nil {
		logger.Fatal("Failed to start task manager: %v", err)
	}
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
