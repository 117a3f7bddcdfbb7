package handler

import (
	"math/big"
	"net/http"

	"github.com/blues/hns/internal/logic"
	"github.com/blues/hns/internal/model"
	"github.com/blues/hns/internal/nft"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	projectLogic *logic.ProjectLogic
	verifier     *nft.Verifier
}

func NewProjectHandler(db *gorm.DB, verifier *nft.Verifier) *ProjectHandler {
	return &ProjectHandler{
		projectLogic: logic.NewProjectLogic(db),
		verifier:     verifier,
	}
}

// CreateProject 创建项目
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	project := model.ProjectModel{
		Name:        req.Name,
		Tagline:     req.Tagline,
		Description: req.Description,
		Category:    req.Category,
		GithubURL:   req.GithubURL,
		DemoURL:     req.DemoURL,
		ImageURL:    req.ImageURL,
		FundingGoal: req.FundingGoal,
	}
	for _, member := range req.Team {
		project.Team = append(project.Team, model.TeamMemberModel{
			Name:    member.Name,
			Role:    member.Role,
			Address: member.WalletAddress,
		})
	}

	if err := h.projectLogic.CreateProject(c.Request.Context(), &project); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	SuccessResponse(c, http.StatusCreated, "项目创建成功", project)
}

// GetProjects 获取项目列表
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	category := c.Query("category")

	projects, err := h.projectLogic.GetProjects(c.Request.Context(), category)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "", projects)
}

// GetProject 获取单个项目详情
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.projectLogic.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	if project == nil {
		ErrorResponse(c, http.StatusNotFound, "项目不存在")
		return
	}

	SuccessResponse(c, http.StatusOK, "", project)
}

// GetMintedNFTs 获取已mint的项目列表，可按当前链上持有者过滤。
// 查询不到持有者的token（已销毁/非法）静默跳过，不使整个列表失败。
func (h *ProjectHandler) GetMintedNFTs(c *gin.Context) {
	owner := c.Query("owner")

	projects, err := h.projectLogic.GetMintedProjects(c.Request.Context())
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	if owner == "" {
		SuccessResponse(c, http.StatusOK, "", projects)
		return
	}

	owned := make([]model.ProjectModel, 0)
	for _, project := range projects {
		if project.NftTokenId == nil {
			continue
		}
		tokenId, ok := new(big.Int).SetString(*project.NftTokenId, 10)
		if !ok {
			continue
		}
		if h.verifier.IsOwnedBy(c.Request.Context(), tokenId, owner) {
			owned = append(owned, project)
		}
	}

	SuccessResponse(c, http.StatusOK, "", owned)
}
