package clock

import (
	"context"
	"sync"
	"time"

	"github.com/tsinghua-fib-lab/crossroad-sim/utils/container"
)

type manualTimer struct {
	deadline time.Duration
	ch       chan struct{}
	done     bool // 已触发或已取消
}

// Manual 逻辑时钟
// 功能：只在Advance时推进时间，到期的定时器按截止时间顺序触发
// 说明：待触发定时器保存在以截止时间为优先级的最小堆中；取消的定时器惰性删除
type Manual struct {
	mtx     sync.Mutex
	now     time.Duration
	timers  *container.PriorityQueue[*manualTimer]
	pending int
}

func NewManual() *Manual {
	return &Manual{timers: container.NewPriorityQueue[*manualTimer]()}
}

func (m *Manual) Now() time.Duration {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.now
}

// Pending 尚未触发且未取消的定时器数量
func (m *Manual) Pending() int {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.pending
}

func (m *Manual) After(d time.Duration) <-chan struct{} {
	return m.newTimer(d).ch
}

func (m *Manual) Sleep(ctx context.Context, d time.Duration) error {
	t := m.newTimer(d)
	select {
	case <-t.ch:
		return nil
	case <-ctx.Done():
		m.cancel(t)
		return ctx.Err()
	}
}

// Advance 推进逻辑时间d，并触发截止时间不晚于新时间的全部定时器
func (m *Manual) Advance(d time.Duration) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	target := m.now + d
	for m.timers.Len() > 0 && m.timers.First().deadline <= target {
		t, _ := m.timers.HeapPop()
		if t.done {
			continue
		}
		t.done = true
		m.pending--
		if t.deadline > m.now {
			m.now = t.deadline
		}
		close(t.ch)
	}
	m.now = target
}

func (m *Manual) newTimer(d time.Duration) *manualTimer {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	t := &manualTimer{deadline: m.now + d, ch: make(chan struct{})}
	if d <= 0 {
		t.done = true
		close(t.ch)
		return t
	}
	m.timers.HeapPush(t, float64(t.deadline))
	m.pending++
	return t
}

func (m *Manual) cancel(t *manualTimer) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if !t.done {
		t.done = true
		m.pending--
	}
}
