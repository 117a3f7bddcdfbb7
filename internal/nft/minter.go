package nft

import (
	"context"
	"math/big"

	"github.com/blues/hns/internal/chain"
	"github.com/blues/hns/internal/logger"
	"github.com/blues/hns/internal/model"
	"github.com/blues/hns/internal/pinata"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/go-playground/validator/v10"
)

// RecordStore 项目记录存储
type RecordStore interface {
	// GetProject 加载项目及其团队成员，不存在时返回 (nil, nil)
	GetProject(ctx context.Context, id string) (*model.ProjectModel, error)
	// SetMintResult 落库mint结果：nft_minted置真、记录tokenId（可为空）
	SetMintResult(ctx context.Context, id string, tokenId *string) error
}

// Publisher 元数据发布器
type Publisher interface {
	Publish(ctx context.Context, metadata *pinata.Metadata) (string, error)
}

// Backend 合约后端
type Backend interface {
	ChainId() int64
	ContractAddress() common.Address
	SubmitMint(ctx context.Context, projectId, metadataUri string) (common.Hash, error)
	SubmitTransfer(ctx context.Context, from, to common.Address, tokenId *big.Int) (common.Hash, error)
	WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	OwnerOf(ctx context.Context, tokenId *big.Int) (common.Address, error)
	ProjectInfo(ctx context.Context, projectId string) (*chain.ProjectInfo, error)
	DecodeLogs(logs []*types.Log) []chain.Event
}

// MintArgs mint调用参数：项目与调用者身份（显式传入，不依赖全局连接状态）
type MintArgs struct {
	ProjectId     string `validate:"required"`
	WalletAddress string
	ChainId       int64
}

// MintOutcome mint流程结果
type MintOutcome struct {
	TxHash      string  `json:"tx_hash"`
	TokenId     *string `json:"token_id"`     // 十进制字符串，未能确定时为空
	BlockNumber uint64  `json:"block_number"` //
	GasUsed     uint64  `json:"gas_used"`     //
	MetadataURL string  `json:"metadata_url"` //
	// TokenIdUnknown 软成功标记：mint已上链确认，但三种提取策略均未取得tokenId
	TokenIdUnknown bool `json:"token_id_unknown"`
}

// PrepareResult 准备阶段结果（前置校验+元数据发布）
type PrepareResult struct {
	MetadataURL     string `json:"metadata_url"`
	ContractAddress string `json:"contract_address"`
	ProjectId       string `json:"project_id"`
}

// Minter mint流程编排器。
// 严格顺序管道：前置校验 → 元数据发布 → 合约调用 → 等待确认 →
// tokenId提取 → 落库。任一失败即终止本次调用，不自动重试。
type Minter struct {
	store     RecordStore
	publisher Publisher
	backend   Backend
	validate  *validator.Validate
	busy      inflight // 并发护栏：同一项目同时只允许一次流程，不同项目互不阻塞
}

// NewMinter 创建mint编排器
func NewMinter(store RecordStore, publisher Publisher, backend Backend) *Minter {
	return &Minter{
		store:     store,
		publisher: publisher,
		backend:   backend,
		validate:  validator.New(),
	}
}

// Prepare 执行前置校验、组装并发布元数据，返回元数据URL。
// 链上步骤由调用方自己的钱包驱动时使用的半程入口。
func (m *Minter) Prepare(ctx context.Context, args MintArgs) (*PrepareResult, error) {
	if !m.busy.acquire(args.ProjectId) {
		return nil, failf(KindInProgress, nil, "该项目已有一次mint流程在执行中")
	}
	defer m.busy.release(args.ProjectId)

	project, ferr := m.checkPreconditions(ctx, args)
	if ferr != nil {
		return nil, ferr
	}

	metadataUrl, ferr := m.publishMetadata(ctx, project)
	if ferr != nil {
		return nil, ferr
	}

	return &PrepareResult{
		MetadataURL:     metadataUrl,
		ContractAddress: m.backend.ContractAddress().Hex(),
		ProjectId:       project.Id,
	}, nil
}

// Mint 执行完整mint流程
func (m *Minter) Mint(ctx context.Context, args MintArgs) (*MintOutcome, error) {
	if !m.busy.acquire(args.ProjectId) {
		return nil, failf(KindInProgress, nil, "该项目已有一次mint流程在执行中")
	}
	defer m.busy.release(args.ProjectId)

	project, ferr := m.checkPreconditions(ctx, args)
	if ferr != nil {
		return nil, ferr
	}

	metadataUrl, ferr := m.publishMetadata(ctx, project)
	if ferr != nil {
		return nil, ferr
	}

	// 合约调用，固定gas上限（见 ethereum.Client）
	txHash, err := m.backend.SubmitMint(ctx, project.Id, metadataUrl)
	if err != nil {
		return nil, classifySubmission(err)
	}

	// 等待上链确认，该步骤可能等待任意长的出块时间
	receipt, err := m.backend.WaitMined(ctx, txHash)
	if err != nil {
		return nil, failf(KindNodeError, err, "等待交易确认失败")
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return nil, failf(KindTransactionReverted, nil, "交易执行已回滚（交易 %s）", txHash.Hex())
	}

	outcome := &MintOutcome{
		TxHash:      txHash.Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
		MetadataURL: metadataUrl,
	}

	// tokenId提取，三级回退
	tokenId := m.extractTokenId(ctx, project.Id, receipt)
	if tokenId != nil {
		s := tokenId.String()
		outcome.TokenId = &s
	} else {
		// 软成功：mint有效但tokenId未知，带着空tokenId落库
		outcome.TokenIdUnknown = true
		logger.Warn("Mint confirmed for project %s but token id could not be determined (tx %s)",
			project.Id, outcome.TxHash)
	}

	// 落库。失败时链上mint不回滚，返回需对账的分歧结果
	if err := m.store.SetMintResult(ctx, project.Id, outcome.TokenId); err != nil {
		return nil, &Error{
			Kind: KindPersistenceFailed,
			Message: "链上mint已成功，但本地记录更新失败；" +
				"请通过后台对账修复记录，不要重新mint",
			Err:     err,
			Outcome: outcome,
		}
	}

	logger.Info("Minted NFT for project %s: tx=%s token=%v", project.Id, outcome.TxHash, outcome.TokenId)
	return outcome, nil
}

// checkPreconditions 前置校验，任何副作用之前执行
func (m *Minter) checkPreconditions(ctx context.Context, args MintArgs) (*model.ProjectModel, *Error) {
	if err := m.validate.Struct(args); err != nil {
		return nil, failf(KindInternal, err, "参数不合法")
	}

	project, err := m.store.GetProject(ctx, args.ProjectId)
	if err != nil {
		return nil, failf(KindInternal, err, "加载项目失败")
	}
	if project == nil {
		return nil, failf(KindNotFound, nil, "项目不存在")
	}

	if project.NftMinted {
		return nil, failf(KindAlreadyMinted, nil, "该项目已经mint过NFT")
	}

	if args.WalletAddress == "" {
		return nil, failf(KindNoWallet, nil, "请先连接钱包")
	}

	if !project.HasTeamMember(args.WalletAddress) {
		return nil, failf(KindNotTeamMember, nil, "只有项目团队成员才能mint NFT")
	}

	if args.ChainId != m.backend.ChainId() {
		return nil, failf(KindWrongNetwork, nil,
			"当前连接的链 %d 与目标链 %d 不一致，请切换网络", args.ChainId, m.backend.ChainId())
	}

	return project, nil
}

// publishMetadata 组装并发布元数据
func (m *Minter) publishMetadata(ctx context.Context, project *model.ProjectModel) (string, *Error) {
	metadata, err := pinata.ComposeMetadata(project)
	if err != nil {
		return "", failf(KindInternal, err, "组装元数据失败")
	}

	metadataUrl, err := m.publisher.Publish(ctx, metadata)
	if err != nil {
		return "", failf(KindPublishFailed, err, "元数据上传失败")
	}
	return metadataUrl, nil
}

// extractTokenId 从确认的回执中提取tokenId，按固定回退顺序：
//  1. mint专属事件的第二个参数，缺失时回退第一个参数（若为数字）
//  2. 零地址转出的Transfer事件的第三个字段
//  3. 合约getProjectInfo只读查询
//
// 三者皆失败返回nil（软成功）。
func (m *Minter) extractTokenId(ctx context.Context, projectId string, receipt *types.Receipt) *big.Int {
	events := m.backend.DecodeLogs(receipt.Logs)

	for _, ev := range events {
		if ev.Kind != chain.EventMinted {
			continue
		}
		if ev.TokenId != nil {
			return ev.TokenId
		}
		if n, ok := new(big.Int).SetString(ev.ProjectId, 10); ok {
			return n
		}
	}

	for _, ev := range events {
		if ev.IsMintTransfer() && ev.TokenId != nil {
			return ev.TokenId
		}
	}

	info, err := m.backend.ProjectInfo(ctx, projectId)
	if err != nil {
		logger.Warn("getProjectInfo fallback failed for project %s: %v", projectId, err)
		return nil
	}
	if info != nil && info.TokenId != nil && info.TokenId.Sign() > 0 {
		return info.TokenId
	}

	return nil
}
