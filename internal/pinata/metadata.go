package pinata

import (
	"fmt"
	"time"

	"github.com/blues/hns/internal/model"
)

// DefaultImageURL 项目未上传图片时使用的占位图
const DefaultImageURL = "https://via.placeholder.com/400x300/6366f1/ffffff?text=Hackathon+Project"

// Attribute NFT元数据属性（OpenSea标准）
type Attribute struct {
	TraitType string      `json:"trait_type"`
	Value     interface{} `json:"value"`
}

// Metadata NFT元数据文档（OpenSea标准）
type Metadata struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	ExternalURL string      `json:"external_url"`
	Attributes  []Attribute `json:"attributes"`
}

// ComposeMetadata 由项目记录生成NFT元数据文档。
// 纯函数：相同输入产生完全相同的文档，时间属性取项目创建时间而非当前时间。
func ComposeMetadata(project *model.ProjectModel) (*Metadata, error) {
	if project == nil {
		return nil, fmt.Errorf("compose metadata: project is nil")
	}
	if len(project.Team) == 0 {
		return nil, fmt.Errorf("compose metadata: project %s has no team members", project.Id)
	}

	demoURL := project.DemoURL
	if demoURL == "" {
		demoURL = "N/A"
	}

	attributes := []Attribute{
		{TraitType: "Category", Value: project.Category},
		{TraitType: "Tagline", Value: project.Tagline},
		{TraitType: "Team Size", Value: len(project.Team)},
		{TraitType: "Funding Goal", Value: project.FundingGoal},
		{TraitType: "Funds Raised", Value: project.FundsRaised},
		{TraitType: "GitHub Repository", Value: project.GithubURL},
		{TraitType: "Demo URL", Value: demoURL},
		{TraitType: "Created At", Value: project.CreatedAt.UTC().Format(time.RFC3339)},
		{TraitType: "Project ID", Value: project.Id},
	}

	// 团队成员属性按团队顺序排列
	for i, member := range project.Team {
		attributes = append(attributes, Attribute{
			TraitType: fmt.Sprintf("Team Member %d", i+1),
			Value:     fmt.Sprintf("%s (%s)", member.Name, member.Role),
		})
	}
	for i, member := range project.Team {
		attributes = append(attributes, Attribute{
			TraitType: fmt.Sprintf("Team Member %d Wallet", i+1),
			Value:     member.Address,
		})
	}

	image := project.ImageURL
	if image == "" {
		image = DefaultImageURL
	}

	return &Metadata{
		Name:        project.Name,
		Description: project.Description,
		Image:       image,
		ExternalURL: project.GithubURL,
		Attributes:  attributes,
	}, nil
}
