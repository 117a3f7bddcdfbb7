package model

import (
	"strings"
	"time"
)

// ProjectModel 黑客松项目模型
type ProjectModel struct {
	Id        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Name        string `json:"name" gorm:"not null" binding:"required"`
	Tagline     string `json:"tagline" gorm:"not null" binding:"required"`
	Description string `json:"description" gorm:"type:text" binding:"required"`
	Category    string `json:"category" gorm:"not null" binding:"required"`

	// 资源链接
	GithubURL string `json:"github_url" gorm:"not null" binding:"required"`
	DemoURL   string `json:"demo_url"`
	ImageURL  string `json:"image_url"`

	// 众筹信息
	FundingGoal int64 `json:"funding_goal" gorm:"default:0"`
	FundsRaised int64 `json:"funds_raised" gorm:"default:0"`

	// NFT信息
	NftMinted  bool    `json:"nft_minted" gorm:"default:false"`
	NftTokenId *string `json:"nft_token_id"`

	// 关联
	Team []TeamMemberModel `json:"team,omitempty" gorm:"foreignKey:ProjectId;constraint:OnDelete:CASCADE"`
}

// TableName 自定义表名
func (ProjectModel) TableName() string {
	return "project"
}

// HasTeamMember 判断地址是否为项目团队成员（地址比较不区分大小写）
func (p *ProjectModel) HasTeamMember(address string) bool {
	for _, member := range p.Team {
		if strings.EqualFold(member.Address, address) {
			return true
		}
	}
	return false
}
