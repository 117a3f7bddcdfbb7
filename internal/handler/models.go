package handler

// 请求模型

// TeamMemberRequest 团队成员请求模型
type TeamMemberRequest struct {
	Name          string `json:"name" binding:"required"`
	Role          string `json:"role" binding:"required"`
	WalletAddress string `json:"wallet_address" binding:"required"`
}

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Name        string              `json:"name" binding:"required"`
	Tagline     string              `json:"tagline" binding:"required"`
	Description string              `json:"description" binding:"required"`
	Category    string              `json:"category" binding:"required"`
	GithubURL   string              `json:"github_url" binding:"required"`
	DemoURL     string              `json:"demo_url"`
	ImageURL    string              `json:"image_url"`
	FundingGoal int64               `json:"funding_goal"`
	Team        []TeamMemberRequest `json:"team" binding:"required,min=1,dive"`
}

// MintRequest mint请求：调用者身份显式传入
type MintRequest struct {
	WalletAddress string `json:"wallet_address"`
	ChainId       int64  `json:"chain_id"`
	// Execute 为真时服务端代为执行完整mint流程（要求配置了签名私钥），
	// 否则只执行准备阶段（前置校验+元数据发布）并返回元数据URL
	Execute bool `json:"execute"`
}

// UpdateNftRequest mint结果落库请求
type UpdateNftRequest struct {
	TokenId         *string `json:"token_id"`
	TransactionHash string  `json:"transaction_hash"`
	// TokenIdUnknown 软成功标记：mint已确认但tokenId未知，允许空tokenId落库
	TokenIdUnknown bool `json:"token_id_unknown"`
}

// TransferRequest NFT转移请求
type TransferRequest struct {
	From    string `json:"from"`
	To      string `json:"to" binding:"required"`
	ChainId int64  `json:"chain_id"`
}
