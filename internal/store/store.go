package store

import (
	"sync"

	"edu_dashboard_client/pkg/monitoring"
)

// Reducer 纯更新函数：旧快照进，新快照出。禁止原地修改传入值，
// 涉及map/slice的改动必须先拷贝再写。
type Reducer[S any] func(S) S

type task[S any] struct {
	fn      Reducer[S]
	applied chan struct{}
}

// Store 单队列串行化的状态容器。所有更新经由唯一的队列协程施加，
// 两次并发settle落到同一store时表现为两次先后的归约，读取方拿到的
// 永远是不再变动的快照。
type Store[S any] struct {
	name  string
	mu    sync.RWMutex
	state S
	queue chan task[S]
	done  chan struct{}
	once  sync.Once

	watchMu  sync.Mutex
	watchers []chan struct{}
}

func New[S any](name string, initial S, queueSize int) *Store[S] {
	if queueSize <= 0 {
		queueSize = 64
	}
	s := &Store[S]{
		name:  name,
		state: initial,
		queue: make(chan task[S], queueSize),
		done:  make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Store[S]) loop() {
	for {
		select {
		case <-s.done:
			return
		case t := <-s.queue:
			s.mu.Lock()
			s.state = t.fn(s.state)
			s.mu.Unlock()

			monitoring.DispatchCounter.WithLabelValues(s.name).Inc()

			if t.applied != nil {
				close(t.applied)
			}
			s.notify()
		}
	}
}

// Dispatch 异步入队一次归约
func (s *Store[S]) Dispatch(fn Reducer[S]) {
	select {
	case s.queue <- task[S]{fn: fn}:
	case <-s.done:
	}
}

// DispatchSync 入队并等待归约完成，操作需要读到settle后状态时使用
func (s *Store[S]) DispatchSync(fn Reducer[S]) {
	applied := make(chan struct{})
	select {
	case s.queue <- task[S]{fn: fn, applied: applied}:
	case <-s.done:
		return
	}
	select {
	case <-applied:
	case <-s.done:
	}
}

// State 返回当前快照
func (s *Store[S]) State() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Watch 订阅变更通知。通道容量为1，渲染方取最新快照即可，
// 丢通知不丢状态。
func (s *Store[S]) Watch() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.watchMu.Lock()
	s.watchers = append(s.watchers, ch)
	s.watchMu.Unlock()
	return ch
}

func (s *Store[S]) notify() {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store[S]) Close() {
	s.once.Do(func() {
		close(s.done)
	})
}

// Name 打点用的store标识
func (s *Store[S]) Name() string {
	return s.name
}
