package signal

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/crossroad-sim/clock"
)

var log = logrus.WithField("module", "signal")

// Signal 相位广播信号
// 功能：互斥锁保护的广播原语，协调器通过它同时唤醒所有停在红灯的信号灯
// 说明：每一代广播对应一个channel，Broadcast关闭当前channel并换上新的一代；
// 挂起者在持锁时取得当前代的channel，释放锁后阻塞，返回前重新持锁登记退出
type Signal struct {
	mtx        sync.Mutex
	gen        chan struct{}
	generation uint64
	waiting    int // 当前代上挂起的调用者数量

	source clock.Source // WaitTimeout使用的时间源
}

// New 创建广播信号
// 参数：source-WaitTimeout计时所用的时间源
func New(source clock.Source) *Signal {
	return &Signal{
		gen:    make(chan struct{}),
		source: source,
	}
}

// Wait 挂起直到下一次广播
// 说明：唤醒后调用者应重新检查自身条件；没有对应意图的唤醒也按正常唤醒处理
func (s *Signal) Wait(ctx context.Context, park func() bool) error {
	ch, ok := s.enter(park)
	if !ok {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		s.leave(ch)
		return ctx.Err()
	}
}

// WaitTimeout 挂起直到下一次广播或经过d
func (s *Signal) WaitTimeout(ctx context.Context, d time.Duration, park func() bool) error {
	ch, ok := s.enter(park)
	if !ok {
		return nil
	}
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	timeout := make(chan error, 1)
	go func() { timeout <- s.source.Sleep(sctx, d) }()

	select {
	case <-ch:
		return nil
	case err := <-timeout:
		s.leave(ch)
		return err
	}
}

// Broadcast 唤醒当前代上的全部挂起者
func (s *Signal) Broadcast() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	log.Tracef("broadcast generation %d to %d waiters", s.generation, s.waiting)
	close(s.gen)
	s.gen = make(chan struct{})
	s.generation++
	s.waiting = 0
}

// Waiting 当前挂起等待广播的调用者数量
func (s *Signal) Waiting() int {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.waiting
}

// Generation 已发生的广播次数
func (s *Signal) Generation() uint64 {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.generation
}

func (s *Signal) enter(park func() bool) (chan struct{}, bool) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if park != nil && !park() {
		return nil, false
	}
	s.waiting++
	return s.gen, true
}

// leave 非广播原因退出时注销；若该代已被广播则计数已清零
func (s *Signal) leave(ch chan struct{}) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if ch == s.gen {
		s.waiting--
	}
}
