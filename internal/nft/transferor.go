package nft

import (
	"context"
	"math/big"
	"strings"

	"github.com/blues/hns/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/go-playground/validator/v10"
)

// TransferArgs 转移调用参数
type TransferArgs struct {
	TokenId string `validate:"required"` // 十进制tokenId
	From    string
	To      string
	ChainId int64
}

// TransferOutcome 转移流程结果。转移成功后持有权已隐含在调用成功中，
// 无需再从链上提取状态，只带交易哈希。
type TransferOutcome struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
	GasUsed     uint64 `json:"gas_used"`
}

// Transferor NFT转移编排器，mint编排器的简化同构流程
type Transferor struct {
	verifier *Verifier
	backend  Backend
	validate *validator.Validate
	busy     inflight // 同一token同时只允许一次转移流程
}

// NewTransferor 创建转移编排器
func NewTransferor(backend Backend) *Transferor {
	return &Transferor{
		verifier: NewVerifier(backend),
		backend:  backend,
		validate: validator.New(),
	}
}

// Transfer 执行转移流程：校验持有权 → 提交transferFrom → 等待确认
func (t *Transferor) Transfer(ctx context.Context, args TransferArgs) (*TransferOutcome, error) {
	if !t.busy.acquire(args.TokenId) {
		return nil, failf(KindInProgress, nil, "该NFT已有一次转移流程在执行中")
	}
	defer t.busy.release(args.TokenId)

	if err := t.validate.Struct(args); err != nil {
		return nil, failf(KindInternal, err, "参数不合法")
	}

	tokenId, ok := new(big.Int).SetString(args.TokenId, 10)
	if !ok {
		return nil, failf(KindInternal, nil, "tokenId %q 不是合法的十进制整数", args.TokenId)
	}

	if args.From == "" {
		return nil, failf(KindNoWallet, nil, "请先连接钱包")
	}

	if !common.IsHexAddress(args.To) {
		return nil, failf(KindInvalidRecipient, nil, "接收地址格式非法")
	}

	if strings.EqualFold(args.From, args.To) {
		return nil, failf(KindSelfTransfer, nil, "不能把NFT转给自己")
	}

	if args.ChainId != t.backend.ChainId() {
		return nil, failf(KindWrongNetwork, nil,
			"当前连接的链 %d 与目标链 %d 不一致，请切换网络", args.ChainId, t.backend.ChainId())
	}

	// 持有权校验
	if !t.verifier.IsOwnedBy(ctx, tokenId, args.From) {
		return nil, failf(KindNotOwner, nil, "只有NFT当前持有者才能转移")
	}

	from := common.HexToAddress(args.From)
	to := common.HexToAddress(args.To)

	txHash, err := t.backend.SubmitTransfer(ctx, from, to, tokenId)
	if err != nil {
		return nil, classifySubmission(err)
	}

	receipt, err := t.backend.WaitMined(ctx, txHash)
	if err != nil {
		return nil, failf(KindNodeError, err, "等待交易确认失败")
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return nil, failf(KindTransactionReverted, nil, "交易执行已回滚（交易 %s）", txHash.Hex())
	}

	logger.Info("Transferred token %s from %s to %s: tx=%s",
		args.TokenId, args.From, args.To, txHash.Hex())

	return &TransferOutcome{
		TxHash:      txHash.Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
	}, nil
}
