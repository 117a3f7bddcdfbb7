package model

import (
	"time"
)

// TeamMemberModel 项目团队成员
type TeamMemberModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId string `json:"project_id" gorm:"size:36;not null;index"`
	Name      string `json:"name" gorm:"not null" binding:"required"`
	Role      string `json:"role" gorm:"not null" binding:"required"` // developer, designer, pm, ...
	Address   string `json:"wallet_address" gorm:"not null" binding:"required"`
}

// TableName 自定义表名
func (TeamMemberModel) TableName() string {
	return "team_member"
}
