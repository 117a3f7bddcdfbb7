package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EventKind 已知事件类型
type EventKind int

const (
	EventUnrecognized EventKind = iota // 未识别的事件
	EventMinted                       // HackathonNFTMinted
	EventTransfer                     // Transfer
)

// Event 按封闭事件集合解码后的日志。
// 未能匹配已知事件签名的日志解码为 EventUnrecognized，而不是报错。
type Event struct {
	Kind EventKind

	// HackathonNFTMinted
	ProjectId   string
	ProjectName string
	Minter      common.Address

	// Transfer
	From common.Address
	To   common.Address

	// 两类事件共有
	TokenId *big.Int
}

// IsMintTransfer 判断是否为零地址转出的Transfer（即mint产生的转移）
func (e *Event) IsMintTransfer() bool {
	return e.Kind == EventTransfer && e.From == (common.Address{})
}

// DecodeLog 将单条日志解码为带类型标签的事件
func (c *Contract) DecodeLog(log types.Log) Event {
	if len(log.Topics) == 0 {
		return Event{Kind: EventUnrecognized}
	}

	switch log.Topics[0] {
	case c.abi.Events["HackathonNFTMinted"].ID:
		return c.decodeMintedEvent(log)
	case c.abi.Events["Transfer"].ID:
		return c.decodeTransferEvent(log)
	default:
		return Event{Kind: EventUnrecognized}
	}
}

// DecodeLogs 解码整个回执的日志集合
func (c *Contract) DecodeLogs(logs []*types.Log) []Event {
	events := make([]Event, 0, len(logs))
	for _, log := range logs {
		if log == nil {
			continue
		}
		events = append(events, c.DecodeLog(*log))
	}
	return events
}

// decodeMintedEvent 解码HackathonNFTMinted事件
// topics: [签名, tokenId, minter]; data: projectId, projectName
func (c *Contract) decodeMintedEvent(log types.Log) Event {
	event := Event{Kind: EventMinted}

	if len(log.Topics) > 1 {
		event.TokenId = new(big.Int).SetBytes(log.Topics[1].Bytes())
	}
	if len(log.Topics) > 2 {
		event.Minter = common.BytesToAddress(log.Topics[2].Bytes())
	}

	if len(log.Data) > 0 {
		if values, err := c.abi.Unpack("HackathonNFTMinted", log.Data); err == nil && len(values) == 2 {
			if v, ok := values[0].(string); ok {
				event.ProjectId = v
			}
			if v, ok := values[1].(string); ok {
				event.ProjectName = v
			}
		}
	}

	return event
}

// decodeTransferEvent 解码标准ERC721 Transfer事件
// topics: [签名, from, to, tokenId]
func (c *Contract) decodeTransferEvent(log types.Log) Event {
	if len(log.Topics) < 4 {
		return Event{Kind: EventUnrecognized}
	}

	return Event{
		Kind:    EventTransfer,
		From:    common.BytesToAddress(log.Topics[1].Bytes()),
		To:      common.BytesToAddress(log.Topics[2].Bytes()),
		TokenId: new(big.Int).SetBytes(log.Topics[3].Bytes()),
	}
}
