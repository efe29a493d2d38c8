package store

import "sync"

// scopeGuard 按scope维护单调递增的请求序号。每次发起fetch领取一个
// 序号，settle时只有持有该scope最新序号的响应才允许落库，晚到的
// 旧响应整体丢弃。借此保证任一scope最终生效的永远是最后发起的那
// 次fetch，切换选中课程或重复触发都不会产生覆盖竞争。
type scopeGuard struct {
	mu  sync.Mutex
	seq map[string]uint64
}

func newScopeGuard() *scopeGuard {
	return &scopeGuard{seq: make(map[string]uint64)}
}

// Next 为scope领取新序号
func (g *scopeGuard) Next(scope string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq[scope]++
	return g.seq[scope]
}

// Latest 判断序号是否仍是该scope的最新一次
func (g *scopeGuard) Latest(scope string, n uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq[scope] == n
}
