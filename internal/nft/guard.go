package nft

import "sync"

// inflight 按键的在途流程护栏。
// 同一个键同时只允许一次流程，不同键互不影响。
type inflight struct {
	keys sync.Map
}

// acquire 占用键对应的槽位，已被占用时返回false
func (g *inflight) acquire(key string) bool {
	_, loaded := g.keys.LoadOrStore(key, struct{}{})
	return !loaded
}

// release 释放键对应的槽位
func (g *inflight) release(key string) {
	g.keys.Delete(key)
}
