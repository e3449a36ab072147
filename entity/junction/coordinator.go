package junction

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
)

// Coordinator 相位协调器
// 功能：周期性广播相位信号，同时放行所有停在红灯的信号灯，作为全路口的心跳
// 说明：只保证同时放行，不保证同一时刻至多一个方向绿灯；
// 各信号灯放行后独立计时，周期时长不一致时会逐渐错开
type Coordinator struct {
	signal entity.IPhaseSignal
	ctx    *entity.Context

	running atomic.Bool
	started atomic.Bool
	done    chan struct{}
	rounds  atomic.Int64 // 已发出的广播次数
}

func NewCoordinator(signal entity.IPhaseSignal, ctx *entity.Context) *Coordinator {
	return &Coordinator{
		signal: signal,
		ctx:    ctx,
		done:   make(chan struct{}),
	}
}

// Rounds 已发出的心跳广播次数
func (c *Coordinator) Rounds() int64 {
	return c.rounds.Load()
}

// Start 在独立协程中运行协调器
func (c *Coordinator) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("coordinator: %w", entity.ErrAlreadyStarted)
	}
	c.running.Store(true)
	go func() {
		defer close(c.done)
		if err := c.run(ctx); err != nil {
			log.Debugf("coordinator exit: %v", err)
		}
	}()
	log.Infof("coordinator started, interval %v", c.ctx.BroadcastInterval())
	return nil
}

// Stop 停止协调器并等待协程退出
// 说明：清除运行标志后再广播一次，既唤醒协调器自身的等待，也放行停在红灯的信号灯
func (c *Coordinator) Stop() {
	if !c.started.Load() {
		return
	}
	c.running.Store(false)
	c.signal.Broadcast()
	<-c.done
	log.Infof("coordinator stopped after %d rounds", c.Rounds())
}

func (c *Coordinator) run(ctx context.Context) error {
	for c.running.Load() {
		c.signal.Broadcast()
		c.rounds.Add(1)
		if err := c.signal.WaitTimeout(ctx, c.ctx.BroadcastInterval(), c.running.Load); err != nil {
			return err
		}
	}
	return nil
}
