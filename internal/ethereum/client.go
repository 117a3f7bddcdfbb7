package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/blues/hns/internal/chain"
	"github.com/blues/hns/internal/config"
	"github.com/blues/hns/internal/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// 回执轮询间隔
const receiptPollInterval = 2 * time.Second

// Client 以太坊客户端封装。
// 固定使用配置中的gas上限而不做动态估算：合约声明接口与实际部署字节码
// 可能不一致，估算结果不可靠。
type Client struct {
	client           *ethclient.Client
	contract         *chain.Contract
	privateKey       *ecdsa.PrivateKey
	chainId          int64
	mintGasLimit     uint64
	transferGasLimit uint64
}

func Init(cfg config.ChainConfig) (*Client, error) {
	// 连接以太坊客户端
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ethereum client: %w", err)
	}

	// 校验RPC节点所属链与配置一致
	chainId, err := client.ChainID(context.Background())
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to query chain id: %w", err)
	}
	if chainId.Int64() != cfg.ChainId {
		client.Close()
		return nil, fmt.Errorf("rpc node chain id %d does not match configured chain id %d",
			chainId.Int64(), cfg.ChainId)
	}

	// 创建合约实例
	contract, err := chain.NewContract(cfg.ContractAddr)
	if err != nil {
		client.Close()
		return nil, err
	}

	// 解析私钥（可选）
	var privateKey *ecdsa.PrivateKey
	if cfg.PrivateKey != "" {
		privateKey, err = crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
	}

	logger.Info("Connected to chain %d, contract %s", cfg.ChainId, contract.Address().Hex())

	return &Client{
		client:           client,
		contract:         contract,
		privateKey:       privateKey,
		chainId:          cfg.ChainId,
		mintGasLimit:     cfg.MintGasLimit,
		transferGasLimit: cfg.TransferGasLimit,
	}, nil
}

// ChainId 获取配置的目标链ID
func (c *Client) ChainId() int64 {
	return c.chainId
}

// Contract 获取合约实例
func (c *Client) Contract() *chain.Contract {
	return c.contract
}

// ContractAddress 获取合约地址
func (c *Client) ContractAddress() common.Address {
	return c.contract.Address()
}

// CanSign 是否配置了签名私钥
func (c *Client) CanSign() bool {
	return c.privateKey != nil
}

// SignerAddress 获取签名账户地址
func (c *Client) SignerAddress() common.Address {
	if c.privateKey == nil {
		return common.Address{}
	}
	return crypto.PubkeyToAddress(c.privateKey.PublicKey)
}

// SubmitMint 提交mintHackathonNFT交易，返回交易哈希
func (c *Client) SubmitMint(ctx context.Context, projectId, metadataUri string) (common.Hash, error) {
	data, err := c.contract.PackMint(projectId, metadataUri)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack mint call: %w", err)
	}
	return c.submit(ctx, data, c.mintGasLimit)
}

// SubmitTransfer 提交transferFrom交易，返回交易哈希
func (c *Client) SubmitTransfer(ctx context.Context, from, to common.Address, tokenId *big.Int) (common.Hash, error) {
	data, err := c.contract.PackTransferFrom(from, to, tokenId)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack transfer call: %w", err)
	}
	return c.submit(ctx, data, c.transferGasLimit)
}

// submit 签名并发送合约交易
func (c *Client) submit(ctx context.Context, data []byte, gasLimit uint64) (common.Hash, error) {
	if c.privateKey == nil {
		return common.Hash{}, errors.New("no signing key configured")
	}

	from := crypto.PubkeyToAddress(c.privateKey.PublicKey)

	nonce, err := c.client.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := c.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get gas price: %w", err)
	}

	contractAddr := c.contract.Address()
	tx := types.NewTransaction(nonce, contractAddr, big.NewInt(0), gasLimit, gasPrice, data)

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(big.NewInt(c.chainId)), c.privateKey)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.client.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, err
	}

	logger.Info("Transaction submitted: %s", signedTx.Hash().Hex())
	return signedTx.Hash(), nil
}

// WaitMined 等待交易上链并返回回执。
// 不设客户端超时，轮询直至节点返回回执或ctx取消。
func (c *Client) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.client.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to fetch receipt for %s: %w", txHash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// OwnerOf 查询token当前持有者
func (c *Client) OwnerOf(ctx context.Context, tokenId *big.Int) (common.Address, error) {
	data, err := c.contract.PackOwnerOf(tokenId)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to pack ownerOf call: %w", err)
	}

	out, err := c.call(ctx, data)
	if err != nil {
		return common.Address{}, err
	}
	return c.contract.UnpackOwnerOf(out)
}

// IsProjectMinted 查询项目是否已在链上mint
func (c *Client) IsProjectMinted(ctx context.Context, projectId string) (bool, error) {
	data, err := c.contract.PackIsProjectMinted(projectId)
	if err != nil {
		return false, fmt.Errorf("failed to pack isProjectMinted call: %w", err)
	}

	out, err := c.call(ctx, data)
	if err != nil {
		return false, err
	}
	return c.contract.UnpackIsProjectMinted(out)
}

// ProjectInfo 查询项目的链上记录
func (c *Client) ProjectInfo(ctx context.Context, projectId string) (*chain.ProjectInfo, error) {
	data, err := c.contract.PackGetProjectInfo(projectId)
	if err != nil {
		return nil, fmt.Errorf("failed to pack getProjectInfo call: %w", err)
	}

	out, err := c.call(ctx, data)
	if err != nil {
		return nil, err
	}
	return c.contract.UnpackProjectInfo(out)
}

// DecodeLogs 按封闭事件集合解码回执日志
func (c *Client) DecodeLogs(logs []*types.Log) []chain.Event {
	return c.contract.DecodeLogs(logs)
}

// call 只读合约调用
func (c *Client) call(ctx context.Context, data []byte) ([]byte, error) {
	contractAddr := c.contract.Address()
	return c.client.CallContract(ctx, ethereum.CallMsg{
		To:   &contractAddr,
		Data: data,
	}, nil)
}

// Close 关闭客户端连接
func (c *Client) Close() {
	c.client.Close()
}
