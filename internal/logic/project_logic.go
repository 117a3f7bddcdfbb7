package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blues/hns/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProjectLogic 项目业务逻辑
type ProjectLogic struct {
	db *gorm.DB
}

// NewProjectLogic 创建项目业务逻辑
func NewProjectLogic(db *gorm.DB) *ProjectLogic {
	return &ProjectLogic{db: db}
}

// CreateProject 创建项目及其团队成员
func (p *ProjectLogic) CreateProject(ctx context.Context, project *model.ProjectModel) error {
	if err := p.validateProject(project); err != nil {
		return err
	}

	project.Id = uuid.NewString()
	project.NftMinted = false
	project.NftTokenId = nil
	for i := range project.Team {
		project.Team[i].ProjectId = project.Id
	}

	if err := p.db.WithContext(ctx).Create(project).Error; err != nil {
		return fmt.Errorf("创建项目失败: %w", err)
	}

	return nil
}

// GetProjects 获取项目列表（团队预加载，按创建时间倒序）
func (p *ProjectLogic) GetProjects(ctx context.Context, category string) ([]model.ProjectModel, error) {
	var projects []model.ProjectModel

	query := p.db.WithContext(ctx).Preload("Team").Order("created_at DESC")
	if category != "" {
		query = query.Where("category = ?", category)
	}

	if err := query.Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("获取项目列表失败: %w", err)
	}

	return projects, nil
}

// GetMintedProjects 获取已mint的项目列表
func (p *ProjectLogic) GetMintedProjects(ctx context.Context) ([]model.ProjectModel, error) {
	var projects []model.ProjectModel

	err := p.db.WithContext(ctx).Preload("Team").
		Where("nft_minted = ?", true).
		Order("updated_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("获取已mint项目列表失败: %w", err)
	}

	return projects, nil
}

// GetUnmintedProjects 获取未mint的项目列表（对账任务使用）
func (p *ProjectLogic) GetUnmintedProjects(ctx context.Context) ([]model.ProjectModel, error) {
	var projects []model.ProjectModel

	err := p.db.WithContext(ctx).
		Where("nft_minted = ?", false).
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("获取未mint项目列表失败: %w", err)
	}

	return projects, nil
}

// GetProject 获取项目详情（含团队），不存在时返回 (nil, nil)
func (p *ProjectLogic) GetProject(ctx context.Context, id string) (*model.ProjectModel, error) {
	var project model.ProjectModel
	err := p.db.WithContext(ctx).Preload("Team").First(&project, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("获取项目详情失败: %w", err)
	}

	return &project, nil
}

// SetMintResult 记录mint结果：nft_minted置真、tokenId（可为空）、刷新更新时间
func (p *ProjectLogic) SetMintResult(ctx context.Context, id string, tokenId *string) error {
	updates := map[string]interface{}{
		"nft_minted":   true,
		"nft_token_id": tokenId,
		"updated_at":   time.Now(),
	}

	result := p.db.WithContext(ctx).Model(&model.ProjectModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("更新mint结果失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("项目不存在")
	}

	return nil
}

// DeleteProject 删除项目（团队成员级联删除）
func (p *ProjectLogic) DeleteProject(ctx context.Context, id string) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&model.TeamMemberModel{}).Error; err != nil {
			return fmt.Errorf("删除团队成员失败: %w", err)
		}
		if err := tx.Delete(&model.ProjectModel{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("删除项目失败: %w", err)
		}
		return nil
	})
}

// validateProject 验证项目数据
func (p *ProjectLogic) validateProject(project *model.ProjectModel) error {
	if project.Name == "" {
		return errors.New("项目名称不能为空")
	}
	if project.Tagline == "" {
		return errors.New("项目标语不能为空")
	}
	if project.Description == "" {
		return errors.New("项目描述不能为空")
	}
	if project.Category == "" {
		return errors.New("项目分类不能为空")
	}
	if project.GithubURL == "" {
		return errors.New("GitHub仓库地址不能为空")
	}
	if len(project.Team) == 0 {
		return errors.New("至少需要一名团队成员")
	}
	for _, member := range project.Team {
		if member.Name == "" || member.Role == "" || member.Address == "" {
			return errors.New("团队成员的姓名、角色和钱包地址不能为空")
		}
	}
	return nil
}
