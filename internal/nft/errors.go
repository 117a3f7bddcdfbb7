package nft

import (
	"fmt"
	"strings"
)

// FailureKind 失败分类
type FailureKind string

const (
	// 校验/前置条件失败（未产生任何副作用）
	KindNotFound      FailureKind = "NOT_FOUND"       // 项目不存在
	KindAlreadyMinted FailureKind = "ALREADY_MINTED"  // 项目已mint
	KindNotTeamMember FailureKind = "NOT_TEAM_MEMBER" // 调用者不是团队成员
	KindNoWallet      FailureKind = "NO_WALLET"       // 未提供钱包地址
	KindWrongNetwork  FailureKind = "WRONG_NETWORK"   // 链ID与目标链不一致

	// 上游服务失败
	KindPublishFailed FailureKind = "PUBLISH_FAILED" // 元数据上传失败

	// 链交互失败
	KindUserRejected        FailureKind = "USER_REJECTED"        // 签名被拒绝
	KindInsufficientFunds   FailureKind = "INSUFFICIENT_FUNDS"   // 余额不足
	KindNodeError           FailureKind = "NODE_ERROR"           // 节点错误
	KindTransactionReverted FailureKind = "TRANSACTION_REVERTED" // 交易执行回滚

	// 链上成功但本地落库失败（需要对账，不能重新mint）
	KindPersistenceFailed FailureKind = "PERSISTENCE_FAILED"

	// 转移流程专属
	KindInvalidRecipient FailureKind = "INVALID_RECIPIENT" // 接收地址格式非法
	KindSelfTransfer     FailureKind = "SELF_TRANSFER"     // 不能转给自己
	KindNotOwner         FailureKind = "NOT_OWNER"         // 调用者不是当前持有者

	// 流程控制
	KindInProgress FailureKind = "IN_PROGRESS" // 已有一次流程在执行中
	KindInternal   FailureKind = "INTERNAL"    // 内部错误
)

// Error 编排流程的结构化失败结果。
// 链上已成功但本地记录未更新时，Outcome携带已确认的链上结果，
// 调用方据此走对账路径而不是重新mint。
type Error struct {
	Kind    FailureKind
	Message string
	Err     error
	Outcome *MintOutcome
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NeedsReconciliation 链上mint已确认但本地记录滞后
func (e *Error) NeedsReconciliation() bool {
	return e.Kind == KindPersistenceFailed
}

func failf(kind FailureKind, err error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// classifySubmission 将交易提交失败归类为用户可处置的子类
func classifySubmission(err error) *Error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "user denied") ||
		strings.Contains(msg, "user rejected") ||
		strings.Contains(msg, "action_rejected"):
		return failf(KindUserRejected, err, "签名请求被拒绝，请在钱包中确认交易")
	case strings.Contains(msg, "insufficient funds"):
		return failf(KindInsufficientFunds, err, "账户余额不足以支付gas费用，请充值后重试")
	default:
		return failf(KindNodeError, err, "节点拒绝了交易，请稍后重试")
	}
}
