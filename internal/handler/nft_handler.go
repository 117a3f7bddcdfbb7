package handler

import (
	"errors"
	"net/http"

	"github.com/blues/hns/internal/ethereum"
	"github.com/blues/hns/internal/logic"
	"github.com/blues/hns/internal/nft"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type NftHandler struct {
	projectLogic *logic.ProjectLogic
	minter       *nft.Minter
	transferor   *nft.Transferor
	ethClient    *ethereum.Client
}

func NewNftHandler(db *gorm.DB, ethClient *ethereum.Client, publisher nft.Publisher) *NftHandler {
	projectLogic := logic.NewProjectLogic(db)
	return &NftHandler{
		projectLogic: projectLogic,
		minter:       nft.NewMinter(projectLogic, publisher, ethClient),
		transferor:   nft.NewTransferor(ethClient),
		ethClient:    ethClient,
	}
}

// MintNFT 发起mint流程。
// 默认只执行准备阶段（前置校验+元数据发布），链上调用由前端钱包完成；
// 请求指定execute时服务端代为执行完整流程，要求已配置签名私钥。
func (h *NftHandler) MintNFT(c *gin.Context) {
	var req MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	chainId := req.ChainId
	if chainId == 0 {
		chainId = h.ethClient.ChainId()
	}

	args := nft.MintArgs{
		ProjectId:     c.Param("id"),
		WalletAddress: req.WalletAddress,
		ChainId:       chainId,
	}

	if req.Execute {
		if !h.ethClient.CanSign() {
			ErrorResponse(c, http.StatusBadRequest, "服务端未配置签名私钥，无法代为执行mint")
			return
		}
		outcome, err := h.minter.Mint(c.Request.Context(), args)
		if err != nil {
			respondOrchestration(c, err)
			return
		}
		SuccessResponse(c, http.StatusOK, "NFT mint成功", outcome)
		return
	}

	result, err := h.minter.Prepare(c.Request.Context(), args)
	if err != nil {
		respondOrchestration(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "元数据上传成功，可以调用合约mint了", result)
}

// UpdateNFT mint结果落库（流程的持久化步骤）
func (h *NftHandler) UpdateNFT(c *gin.Context) {
	var req UpdateNftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	// 软成功（tokenId未知）之外，tokenId必填
	if (req.TokenId == nil || *req.TokenId == "") && !req.TokenIdUnknown {
		ErrorResponse(c, http.StatusBadRequest, "缺少tokenId")
		return
	}

	id := c.Param("id")
	project, err := h.projectLogic.GetProject(c.Request.Context(), id)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	if project == nil {
		ErrorResponse(c, http.StatusNotFound, "项目不存在")
		return
	}

	tokenId := req.TokenId
	if tokenId != nil && *tokenId == "" {
		tokenId = nil
	}
	if err := h.projectLogic.SetMintResult(c.Request.Context(), id, tokenId); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	updated, err := h.projectLogic.GetProject(c.Request.Context(), id)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "NFT状态更新成功", updated)
}

// TransferNFT 服务端代为执行NFT转移（仅当服务端私钥为当前持有者时可用）
func (h *NftHandler) TransferNFT(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	from := req.From
	if from == "" && h.ethClient.CanSign() {
		from = h.ethClient.SignerAddress().Hex()
	}

	chainId := req.ChainId
	if chainId == 0 {
		chainId = h.ethClient.ChainId()
	}

	outcome, err := h.transferor.Transfer(c.Request.Context(), nft.TransferArgs{
		TokenId: c.Param("tokenId"),
		From:    from,
		To:      req.To,
		ChainId: chainId,
	})
	if err != nil {
		respondOrchestration(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "NFT转移成功", outcome)
}

// respondOrchestration 将编排器的结构化失败映射为HTTP响应。
// 链上已成功仅落库失败的分歧结果单独成形，提示对账而不是重试mint。
func respondOrchestration(c *gin.Context, err error) {
	var oerr *nft.Error
	if !errors.As(err, &oerr) {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	if oerr.NeedsReconciliation() {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":              false,
			"message":              oerr.Message,
			"kind":                 oerr.Kind,
			"needs_reconciliation": true,
			"outcome":              oerr.Outcome,
		})
		return
	}

	c.JSON(statusForKind(oerr.Kind), gin.H{
		"success": false,
		"message": oerr.Message,
		"kind":    oerr.Kind,
	})
}

// statusForKind 失败分类到HTTP状态码的映射
func statusForKind(kind nft.FailureKind) int {
	switch kind {
	case nft.KindNotFound:
		return http.StatusNotFound
	case nft.KindNotTeamMember, nft.KindNotOwner:
		return http.StatusForbidden
	case nft.KindAlreadyMinted, nft.KindNoWallet, nft.KindWrongNetwork,
		nft.KindInvalidRecipient, nft.KindSelfTransfer:
		return http.StatusBadRequest
	case nft.KindInProgress:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
