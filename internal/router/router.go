package router

import (
	"github.com/blues/hns/internal/ethereum"
	"github.com/blues/hns/internal/handler"
	"github.com/blues/hns/internal/nft"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, ethClient *ethereum.Client, publisher nft.Publisher) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "hackathon-nft-service",
		})
	})

	projectHandler := handler.NewProjectHandler(db, nft.NewVerifier(ethClient))
	nftHandler := handler.NewNftHandler(db, ethClient, publisher)

	// 项目相关路由
	projects := r.Group("/projects")
	{
		projects.POST("", projectHandler.CreateProject)
		projects.GET("", projectHandler.GetProjects)
		projects.GET("/:id", projectHandler.GetProject)
		projects.POST("/:id/mint", nftHandler.MintNFT)
		projects.PUT("/:id/update-nft", nftHandler.UpdateNFT)
	}

	// NFT相关路由
	nfts := r.Group("/nfts")
	{
		nfts.GET("", projectHandler.GetMintedNFTs)
		nfts.POST("/:tokenId/transfer", nftHandler.TransferNFT)
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
