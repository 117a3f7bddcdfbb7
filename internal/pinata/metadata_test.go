package pinata_test

import (
	"testing"
	"time"

	"github.com/blues/hns/internal/model"
	"github.com/blues/hns/internal/pinata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProject() *model.ProjectModel {
	return &model.ProjectModel{
		Id:          "proj-1",
		CreatedAt:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Name:        "DeFi Tracker",
		Tagline:     "Track everything",
		Description: "A tracker for DeFi positions",
		Category:    "DeFi",
		GithubURL:   "https://github.com/example/defi-tracker",
		DemoURL:     "https://demo.example.com",
		FundingGoal: 10000,
		FundsRaised: 2500,
		Team: []model.TeamMemberModel{
			{Name: "Alice", Role: "Developer", Address: "0x1111111111111111111111111111111111111abc"},
			{Name: "Bob", Role: "Designer", Address: "0x2222222222222222222222222222222222222222"},
		},
	}
}

func TestComposeMetadata(t *testing.T) {
	metadata, err := pinata.ComposeMetadata(sampleProject())
	require.NoError(t, err)

	assert.Equal(t, "DeFi Tracker", metadata.Name)
	assert.Equal(t, "A tracker for DeFi positions", metadata.Description)
	assert.Equal(t, "https://github.com/example/defi-tracker", metadata.ExternalURL)
	assert.Equal(t, pinata.DefaultImageURL, metadata.Image)

	traits := make([]string, len(metadata.Attributes))
	for i, attr := range metadata.Attributes {
		traits[i] = attr.TraitType
	}
	assert.Equal(t, []string{
		"Category", "Tagline", "Team Size", "Funding Goal", "Funds Raised",
		"GitHub Repository", "Demo URL", "Created At", "Project ID",
		"Team Member 1", "Team Member 2",
		"Team Member 1 Wallet", "Team Member 2 Wallet",
	}, traits)

	assert.Equal(t, 2, metadata.Attributes[2].Value)
	assert.Equal(t, "Alice (Developer)", metadata.Attributes[9].Value)
	assert.Equal(t, "0x2222222222222222222222222222222222222222", metadata.Attributes[12].Value)
}

func TestComposeMetadataDeterministic(t *testing.T) {
	project := sampleProject()

	first, err := pinata.ComposeMetadata(project)
	require.NoError(t, err)
	second, err := pinata.ComposeMetadata(project)
	require.NoError(t, err)

	// 时间属性取项目创建时间，两次调用产生完全相同的文档
	assert.Equal(t, first, second)

	var createdAt interface{}
	for _, attr := range first.Attributes {
		if attr.TraitType == "Created At" {
			createdAt = attr.Value
		}
	}
	assert.Equal(t, "2024-06-01T12:00:00Z", createdAt)
}

func TestComposeMetadataDefaults(t *testing.T) {
	project := sampleProject()
	project.DemoURL = ""
	project.ImageURL = ""

	metadata, err := pinata.ComposeMetadata(project)
	require.NoError(t, err)

	assert.Equal(t, pinata.DefaultImageURL, metadata.Image)
	for _, attr := range metadata.Attributes {
		if attr.TraitType == "Demo URL" {
			assert.Equal(t, "N/A", attr.Value)
		}
	}
}

func TestComposeMetadataCustomImage(t *testing.T) {
	project := sampleProject()
	project.ImageURL = "https://example.com/image.png"

	metadata, err := pinata.ComposeMetadata(project)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/image.png", metadata.Image)
}

func TestComposeMetadataErrors(t *testing.T) {
	_, err := pinata.ComposeMetadata(nil)
	assert.Error(t, err)

	project := sampleProject()
	project.Team = nil
	_, err = pinata.ComposeMetadata(project)
	assert.Error(t, err)
}
