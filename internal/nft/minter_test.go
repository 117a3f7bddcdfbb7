package nft_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/blues/hns/internal/chain"
	"github.com/blues/hns/internal/model"
	"github.com/blues/hns/internal/nft"
	"github.com/blues/hns/internal/pinata"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testChainId    = int64(80002)
	teamAddr       = "0x1111111111111111111111111111111111111abc"
	strangerAddr   = "0x9999999999999999999999999999999999999999"
	testMetadata   = "https://gateway.pinata.cloud/ipfs/QmTest123"
	testContractHx = "0x3b3d58d32a33741a8b44a7f36c9e9759804ff4ad"
)

// fakeStore 内存项目存储
type fakeStore struct {
	mu          sync.Mutex
	project     *model.ProjectModel
	extra       *model.ProjectModel
	getErr      error
	setErr      error
	setCalls    int
	lastSetId   string
	lastTokenId *string
}

func (s *fakeStore) GetProject(ctx context.Context, id string) (*model.ProjectModel, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	for _, p := range []*model.ProjectModel{s.project, s.extra} {
		if p != nil && p.Id == id {
			return p, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) SetMintResult(ctx context.Context, id string, tokenId *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCalls++
	s.lastSetId = id
	s.lastTokenId = tokenId
	if s.setErr != nil {
		return s.setErr
	}
	for _, p := range []*model.ProjectModel{s.project, s.extra} {
		if p != nil && p.Id == id {
			p.NftMinted = true
			p.NftTokenId = tokenId
		}
	}
	return nil
}

// fakePublisher 可注入失败与阻塞的元数据发布器
type fakePublisher struct {
	mu      sync.Mutex
	url     string
	err     error
	calls   int
	entered chan struct{} // 非nil时首次进入Publish后通知，所有调用阻塞至release关闭
	once    sync.Once
	release chan struct{}
}

func (p *fakePublisher) Publish(ctx context.Context, metadata *pinata.Metadata) (string, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.entered != nil {
		p.once.Do(func() { close(p.entered) })
		<-p.release
	}
	if p.err != nil {
		return "", p.err
	}
	return p.url, nil
}

// fakeBackend 可编排返回值的合约后端
type fakeBackend struct {
	contract *chain.Contract

	submitMintErr  error
	transferErr    error
	receipt        *types.Receipt
	waitErr        error
	waitEntered    chan struct{} // 非nil时首次进入WaitMined后通知，所有调用阻塞至waitRelease关闭
	waitOnce       sync.Once
	waitRelease    chan struct{}
	ownerOfAddr    common.Address
	ownerOfErr     error
	projectInfo    *chain.ProjectInfo
	projectInfoErr error

	mu            sync.Mutex
	mintCalls     int
	transferCalls int
	infoCalls     int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	contract, err := chain.NewContract(testContractHx)
	require.NoError(t, err)
	return &fakeBackend{contract: contract}
}

func (b *fakeBackend) ChainId() int64                  { return testChainId }
func (b *fakeBackend) ContractAddress() common.Address { return b.contract.Address() }

func (b *fakeBackend) SubmitMint(ctx context.Context, projectId, metadataUri string) (common.Hash, error) {
	b.mu.Lock()
	b.mintCalls++
	b.mu.Unlock()
	if b.submitMintErr != nil {
		return common.Hash{}, b.submitMintErr
	}
	return common.HexToHash("0xaaaa"), nil
}

func (b *fakeBackend) SubmitTransfer(ctx context.Context, from, to common.Address, tokenId *big.Int) (common.Hash, error) {
	b.mu.Lock()
	b.transferCalls++
	b.mu.Unlock()
	if b.transferErr != nil {
		return common.Hash{}, b.transferErr
	}
	return common.HexToHash("0xbbbb"), nil
}

func (b *fakeBackend) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if b.waitEntered != nil {
		b.waitOnce.Do(func() { close(b.waitEntered) })
		<-b.waitRelease
	}
	if b.waitErr != nil {
		return nil, b.waitErr
	}
	return b.receipt, nil
}

func (b *fakeBackend) OwnerOf(ctx context.Context, tokenId *big.Int) (common.Address, error) {
	if b.ownerOfErr != nil {
		return common.Address{}, b.ownerOfErr
	}
	return b.ownerOfAddr, nil
}

func (b *fakeBackend) ProjectInfo(ctx context.Context, projectId string) (*chain.ProjectInfo, error) {
	b.mu.Lock()
	b.infoCalls++
	b.mu.Unlock()
	if b.projectInfoErr != nil {
		return nil, b.projectInfoErr
	}
	return b.projectInfo, nil
}

func (b *fakeBackend) DecodeLogs(logs []*types.Log) []chain.Event {
	return b.contract.DecodeLogs(logs)
}

// mintedEventLog 构造HackathonNFTMinted日志
func (b *fakeBackend) mintedEventLog(t *testing.T, projectId string, tokenId int64) *types.Log {
	t.Helper()
	event := b.contract.ABI().Events["HackathonNFTMinted"]
	data, err := event.Inputs.NonIndexed().Pack(projectId, "Test Project")
	require.NoError(t, err)
	return &types.Log{
		Topics: []common.Hash{
			event.ID,
			common.BigToHash(big.NewInt(tokenId)),
			common.BytesToHash(common.HexToAddress(teamAddr).Bytes()),
		},
		Data: data,
	}
}

// mintTransferLog 构造零地址转出的Transfer日志
func (b *fakeBackend) mintTransferLog(t *testing.T, tokenId int64) *types.Log {
	t.Helper()
	return &types.Log{
		Topics: []common.Hash{
			b.contract.ABI().Events["Transfer"].ID,
			common.Hash{},
			common.BytesToHash(common.HexToAddress(teamAddr).Bytes()),
			common.BigToHash(big.NewInt(tokenId)),
		},
	}
}

func successReceipt(logs ...*types.Log) *types.Receipt {
	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(12345),
		GasUsed:     180000,
		Logs:        logs,
	}
}

func newProject(id string) *model.ProjectModel {
	return &model.ProjectModel{
		Id:          id,
		CreatedAt:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Name:        "DeFi Tracker",
		Tagline:     "Track everything",
		Description: "A tracker for DeFi positions",
		Category:    "DeFi",
		GithubURL:   "https://github.com/example/defi-tracker",
		FundingGoal: 10000,
		Team: []model.TeamMemberModel{
			{Name: "Alice", Role: "Developer", Address: teamAddr},
		},
	}
}

func newMinterFixture(t *testing.T) (*nft.Minter, *fakeStore, *fakePublisher, *fakeBackend) {
	t.Helper()
	store := &fakeStore{project: newProject("proj-1")}
	publisher := &fakePublisher{url: testMetadata}
	backend := newFakeBackend(t)
	return nft.NewMinter(store, publisher, backend), store, publisher, backend
}

func validArgs() nft.MintArgs {
	return nft.MintArgs{ProjectId: "proj-1", WalletAddress: teamAddr, ChainId: testChainId}
}

func requireKind(t *testing.T, err error, kind nft.FailureKind) *nft.Error {
	t.Helper()
	require.Error(t, err)
	var ferr *nft.Error
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, kind, ferr.Kind)
	return ferr
}

func TestMintHappyPathMintEvent(t *testing.T) {
	minter, store, publisher, backend := newMinterFixture(t)
	backend.receipt = successReceipt(backend.mintedEventLog(t, "proj-1", 7))

	outcome, err := minter.Mint(context.Background(), validArgs())
	require.NoError(t, err)

	require.NotNil(t, outcome.TokenId)
	assert.Equal(t, "7", *outcome.TokenId)
	assert.False(t, outcome.TokenIdUnknown)
	assert.Equal(t, testMetadata, outcome.MetadataURL)
	assert.Equal(t, uint64(12345), outcome.BlockNumber)
	assert.Equal(t, uint64(180000), outcome.GasUsed)

	assert.Equal(t, 1, publisher.calls)
	assert.Equal(t, 1, backend.mintCalls)
	assert.Equal(t, 1, store.setCalls)
	assert.Equal(t, "proj-1", store.lastSetId)
	require.NotNil(t, store.lastTokenId)
	assert.Equal(t, "7", *store.lastTokenId)
	// mint事件在场时不查询合约
	assert.Equal(t, 0, backend.infoCalls)
}

func TestMintFallbackTransferEvent(t *testing.T) {
	minter, store, _, backend := newMinterFixture(t)
	backend.receipt = successReceipt(backend.mintTransferLog(t, 9))

	outcome, err := minter.Mint(context.Background(), validArgs())
	require.NoError(t, err)

	require.NotNil(t, outcome.TokenId)
	assert.Equal(t, "9", *outcome.TokenId)
	assert.False(t, outcome.TokenIdUnknown)
	require.NotNil(t, store.lastTokenId)
	assert.Equal(t, "9", *store.lastTokenId)
}

func TestMintFallbackContractQuery(t *testing.T) {
	minter, _, _, backend := newMinterFixture(t)
	backend.receipt = successReceipt() // 无可识别事件
	backend.projectInfo = &chain.ProjectInfo{TokenId: big.NewInt(11)}

	outcome, err := minter.Mint(context.Background(), validArgs())
	require.NoError(t, err)

	require.NotNil(t, outcome.TokenId)
	assert.Equal(t, "11", *outcome.TokenId)
	assert.Equal(t, 1, backend.infoCalls)
}

func TestMintSoftSuccess(t *testing.T) {
	minter, store, _, backend := newMinterFixture(t)
	backend.receipt = successReceipt()
	backend.projectInfoErr = errors.New("execution reverted")

	outcome, err := minter.Mint(context.Background(), validArgs())
	require.NoError(t, err)

	assert.Nil(t, outcome.TokenId)
	assert.True(t, outcome.TokenIdUnknown)
	assert.NotEmpty(t, outcome.TxHash)
	// 软成功仍然落库，tokenId为空
	assert.Equal(t, 1, store.setCalls)
	assert.Nil(t, store.lastTokenId)
}

func TestMintProjectNotFound(t *testing.T) {
	minter, store, publisher, backend := newMinterFixture(t)
	args := validArgs()
	args.ProjectId = "no-such-project"

	_, err := minter.Mint(context.Background(), args)
	requireKind(t, err, nft.KindNotFound)
	assert.Equal(t, 0, publisher.calls)
	assert.Equal(t, 0, backend.mintCalls)
	assert.Equal(t, 0, store.setCalls)
}

func TestMintAlreadyMinted(t *testing.T) {
	minter, store, publisher, backend := newMinterFixture(t)
	store.project.NftMinted = true

	_, err := minter.Mint(context.Background(), validArgs())
	requireKind(t, err, nft.KindAlreadyMinted)
	assert.Equal(t, 0, publisher.calls)
	assert.Equal(t, 0, backend.mintCalls)
}

func TestMintNoWallet(t *testing.T) {
	minter, _, publisher, _ := newMinterFixture(t)
	args := validArgs()
	args.WalletAddress = ""

	_, err := minter.Mint(context.Background(), args)
	requireKind(t, err, nft.KindNoWallet)
	assert.Equal(t, 0, publisher.calls)
}

func TestMintNotTeamMember(t *testing.T) {
	minter, _, publisher, backend := newMinterFixture(t)
	args := validArgs()
	args.WalletAddress = strangerAddr

	_, err := minter.Mint(context.Background(), args)
	requireKind(t, err, nft.KindNotTeamMember)
	assert.Equal(t, 0, publisher.calls)
	assert.Equal(t, 0, backend.mintCalls)
}

func TestMintTeamMemberCaseInsensitive(t *testing.T) {
	minter, _, _, backend := newMinterFixture(t)
	backend.receipt = successReceipt(backend.mintedEventLog(t, "proj-1", 7))
	args := validArgs()
	args.WalletAddress = "0x1111111111111111111111111111111111111ABC"

	_, err := minter.Mint(context.Background(), args)
	assert.NoError(t, err)
}

func TestMintWrongNetwork(t *testing.T) {
	minter, _, publisher, _ := newMinterFixture(t)
	args := validArgs()
	args.ChainId = 1

	_, err := minter.Mint(context.Background(), args)
	requireKind(t, err, nft.KindWrongNetwork)
	assert.Equal(t, 0, publisher.calls)
}

func TestMintPublishFailed(t *testing.T) {
	minter, store, publisher, backend := newMinterFixture(t)
	publisher.err = &pinata.PublishError{StatusCode: 500, Message: "server error"}

	_, err := minter.Mint(context.Background(), validArgs())
	requireKind(t, err, nft.KindPublishFailed)
	// 发布失败后不得触达合约，也不改动记录
	assert.Equal(t, 0, backend.mintCalls)
	assert.Equal(t, 0, store.setCalls)
}

func TestMintSubmissionClassification(t *testing.T) {
	tests := []struct {
		name   string
		errMsg string
		kind   nft.FailureKind
	}{
		{"user denied", "MetaMask Tx Signature: User denied transaction signature.", nft.KindUserRejected},
		{"action rejected", "ACTION_REJECTED: user rejected action", nft.KindUserRejected},
		{"insufficient funds", "insufficient funds for gas * price + value", nft.KindInsufficientFunds},
		{"node error", "connection refused", nft.KindNodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			minter, store, _, backend := newMinterFixture(t)
			backend.submitMintErr = errors.New(tt.errMsg)

			_, err := minter.Mint(context.Background(), validArgs())
			requireKind(t, err, tt.kind)
			assert.Equal(t, 0, store.setCalls)
		})
	}
}

func TestMintTransactionReverted(t *testing.T) {
	minter, store, _, backend := newMinterFixture(t)
	backend.receipt = &types.Receipt{
		Status:      types.ReceiptStatusFailed,
		BlockNumber: big.NewInt(12345),
	}

	_, err := minter.Mint(context.Background(), validArgs())
	requireKind(t, err, nft.KindTransactionReverted)
	assert.Equal(t, 0, store.setCalls)
}

func TestMintWaitMinedFailed(t *testing.T) {
	minter, _, _, backend := newMinterFixture(t)
	backend.waitErr = errors.New("context deadline exceeded")

	_, err := minter.Mint(context.Background(), validArgs())
	requireKind(t, err, nft.KindNodeError)
}

func TestMintPersistenceFailed(t *testing.T) {
	minter, store, _, backend := newMinterFixture(t)
	backend.receipt = successReceipt(backend.mintedEventLog(t, "proj-1", 7))
	store.setErr = errors.New("database is locked")

	_, err := minter.Mint(context.Background(), validArgs())
	ferr := requireKind(t, err, nft.KindPersistenceFailed)

	// 链上结果随错误返回，供对账使用
	assert.True(t, ferr.NeedsReconciliation())
	require.NotNil(t, ferr.Outcome)
	assert.NotEmpty(t, ferr.Outcome.TxHash)
	require.NotNil(t, ferr.Outcome.TokenId)
	assert.Equal(t, "7", *ferr.Outcome.TokenId)
}

func TestMintBusyPerProject(t *testing.T) {
	minter, store, publisher, backend := newMinterFixture(t)
	store.extra = newProject("proj-2")
	backend.receipt = successReceipt(backend.mintedEventLog(t, "proj-1", 7))
	publisher.entered = make(chan struct{})
	publisher.release = make(chan struct{})

	first := make(chan error, 1)
	go func() {
		_, err := minter.Mint(context.Background(), validArgs())
		first <- err
	}()
	<-publisher.entered

	// 同一项目的并发调用被拒绝
	_, err := minter.Mint(context.Background(), validArgs())
	requireKind(t, err, nft.KindInProgress)

	// 其他项目的流程不被阻塞
	second := make(chan error, 1)
	go func() {
		args := validArgs()
		args.ProjectId = "proj-2"
		_, err := minter.Mint(context.Background(), args)
		second <- err
	}()

	close(publisher.release)
	assert.NoError(t, <-first)
	assert.NoError(t, <-second)

	// 流程结束后槽位释放，重复调用被前置校验拦截
	_, err = minter.Mint(context.Background(), validArgs())
	requireKind(t, err, nft.KindAlreadyMinted)
}

func TestPrepare(t *testing.T) {
	minter, store, publisher, backend := newMinterFixture(t)

	result, err := minter.Prepare(context.Background(), validArgs())
	require.NoError(t, err)

	assert.Equal(t, testMetadata, result.MetadataURL)
	assert.Equal(t, backend.ContractAddress().Hex(), result.ContractAddress)
	assert.Equal(t, "proj-1", result.ProjectId)
	assert.Equal(t, 1, publisher.calls)
	// 准备阶段不上链也不落库
	assert.Equal(t, 0, backend.mintCalls)
	assert.Equal(t, 0, store.setCalls)
}

func TestPrepareChecksPreconditions(t *testing.T) {
	minter, store, publisher, _ := newMinterFixture(t)
	store.project.NftMinted = true

	_, err := minter.Prepare(context.Background(), validArgs())
	requireKind(t, err, nft.KindAlreadyMinted)
	assert.Equal(t, 0, publisher.calls)
}
