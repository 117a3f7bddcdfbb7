package nft

import (
	"context"
	"math/big"

	"github.com/blues/hns/internal/logger"
	"github.com/ethereum/go-ethereum/common"
)

// Verifier 持有权校验器，只读查询合约
type Verifier struct {
	backend Backend
}

// NewVerifier 创建持有权校验器
func NewVerifier(backend Backend) *Verifier {
	return &Verifier{backend: backend}
}

// OwnerOf 查询token当前持有者。
// 合约回滚或返回零地址时视为"无当前持有者"而不是错误，
// 列表流程据此静默跳过已销毁/非法的token。
func (v *Verifier) OwnerOf(ctx context.Context, tokenId *big.Int) (common.Address, bool) {
	owner, err := v.backend.OwnerOf(ctx, tokenId)
	if err != nil {
		logger.Debug("ownerOf query failed for token %s: %v", tokenId, err)
		return common.Address{}, false
	}
	if owner == (common.Address{}) {
		return common.Address{}, false
	}
	return owner, true
}

// IsOwnedBy 判断token是否由指定地址持有（地址比较不区分大小写）
func (v *Verifier) IsOwnedBy(ctx context.Context, tokenId *big.Int, address string) bool {
	owner, found := v.OwnerOf(ctx, tokenId)
	if !found {
		return false
	}
	return owner == common.HexToAddress(address)
}
