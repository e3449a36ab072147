package trafficlight

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crossroad-sim/clock"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/randengine"
)

// Controller 单方向信号灯控制器
// 功能：独立协程中循环执行 GREEN -> YELLOW -> RED，红灯时挂起等待协调器广播
// 说明：相位只由控制器自身协程写入，其他协程通过Phase()读取（单写多读，可能读到上一帧的旧值）
type Controller struct {
	name      string
	direction entity.Direction
	phase     atomic.Int32
	zone      entity.Rect
	position  geometry.Point // 绘制锚点

	ctx       *entity.Context
	signal    entity.IPhaseSignal
	source    clock.Source
	listeners []entity.IPhaseListener

	jitter    float64            // 保持时长的随机附加比例
	generator *randengine.Engine // jitter为0时为nil

	running   atomic.Bool
	started   atomic.Bool
	ready     chan struct{} // 首次在红灯挂起（或放弃挂起）时关闭
	readyOnce sync.Once
	done      chan struct{}
	cycles    atomic.Int64 // 已完成的完整周期数
}

// Option 控制器可选参数
type Option func(*Controller)

// WithName 设置名称，仅用于日志与渲染
func WithName(name string) Option {
	return func(c *Controller) { c.name = name }
}

// WithPosition 设置绘制锚点
func WithPosition(p geometry.Point) Option {
	return func(c *Controller) { c.position = p }
}

// WithListener 添加相位变化监听器
func WithListener(l entity.IPhaseListener) Option {
	return func(c *Controller) { c.listeners = append(c.listeners, l) }
}

// WithJitter 每次绿灯/黄灯保持额外随机延长 [0, fraction*hold)
// 用于复现各方向周期时长不一致导致的相位漂移
func WithJitter(fraction float64, seed uint64) Option {
	return func(c *Controller) {
		c.jitter = lo.Clamp(fraction, 0, 1)
		if c.jitter > 0 {
			c.generator = randengine.New(seed)
		}
	}
}

// NewController 创建信号灯控制器
// 功能：校验方向与停车区并初始化为红灯
// 参数：dir-管辖方向，zone-停车区，ctx-共享上下文，signal-相位广播信号，source-计时时间源
// 返回：控制器实例；方向未知或停车区为空时返回错误
func NewController(
	dir entity.Direction,
	zone entity.Rect,
	ctx *entity.Context,
	signal entity.IPhaseSignal,
	source clock.Source,
	opts ...Option,
) (*Controller, error) {
	if !dir.Valid() {
		return nil, fmt.Errorf("new traffic light: %w: %d", entity.ErrUnknownDirection, dir)
	}
	if !zone.Valid() {
		return nil, fmt.Errorf("new traffic light %v: %w: %v", dir, entity.ErrInvalidRect, zone)
	}
	if ctx == nil || signal == nil || source == nil {
		return nil, errors.New("new traffic light: context, signal and time source are required")
	}
	c := &Controller{
		name:      dir.String(),
		direction: dir,
		zone:      zone,
		ctx:       ctx,
		signal:    signal,
		source:    source,
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
	}
	c.phase.Store(int32(entity.RED))
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Controller) Name() string {
	return c.name
}

func (c *Controller) Direction() entity.Direction {
	return c.direction
}

func (c *Controller) Phase() entity.Phase {
	return entity.Phase(c.phase.Load())
}

func (c *Controller) StopZone() entity.Rect {
	return c.zone
}

func (c *Controller) Position() geometry.Point {
	return c.position
}

// Cycles 已完成的 GREEN -> YELLOW -> RED 周期数
func (c *Controller) Cycles() int64 {
	return c.cycles.Load()
}

// Image 当前相位对应的贴图文件名，形如 n-g.png
func (c *Controller) Image() string {
	return fmt.Sprintf("%s-%s.png", c.direction.Short(), c.Phase().Short())
}

func (c *Controller) String() string {
	return fmt.Sprintf("%s: %v", c.name, c.Phase())
}

// Start 在独立协程中运行控制器
// 说明：只能启动一次；ctx取消会中断正在进行的相位保持，退出前相位置为红灯
func (c *Controller) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("traffic light %s: %w", c.name, entity.ErrAlreadyStarted)
	}
	c.running.Store(true)
	go func() {
		defer close(c.done)
		if err := c.run(ctx); err != nil {
			log.Debugf("%s exit: %v", c.name, err)
		}
	}()
	log.Infof("%s started", c.name)
	return nil
}

// Stop 停止控制器并等待协程退出
// 说明：先清除运行标志再广播一次，保证停在红灯的控制器不会永久挂起；
// 正在绿灯/黄灯保持中的控制器会先完成当前保持
func (c *Controller) Stop() {
	if !c.started.Load() {
		return
	}
	c.running.Store(false)
	c.signal.Broadcast()
	<-c.done
	log.Infof("%s stopped after %d cycles", c.name, c.Cycles())
}

// Ready 控制器首次停在红灯等待广播后关闭
func (c *Controller) Ready() <-chan struct{} {
	return c.ready
}

// Done 协程退出后关闭
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

func (c *Controller) run(ctx context.Context) error {
	for {
		// 红灯：挂起等待广播
		if err := c.signal.Wait(ctx, c.park); err != nil {
			return err
		}
		if !c.running.Load() {
			return nil
		}
		// 无论是否为虚假唤醒，都进入绿灯
		c.set(entity.GREEN)
		if err := c.hold(ctx, c.ctx.GreenHold()); err != nil {
			c.set(entity.RED)
			return err
		}
		c.set(entity.YELLOW)
		if err := c.hold(ctx, c.ctx.YellowHold()); err != nil {
			c.set(entity.RED)
			return err
		}
		c.set(entity.RED)
		c.cycles.Add(1)
	}
}

// park 在相位信号的锁内求值，此后的广播一定能唤醒本控制器
func (c *Controller) park() bool {
	c.readyOnce.Do(func() { close(c.ready) })
	return c.running.Load()
}

func (c *Controller) hold(ctx context.Context, d time.Duration) error {
	if c.generator != nil {
		d += time.Duration(c.generator.Float64Safe() * c.jitter * float64(d))
	}
	return c.source.Sleep(ctx, d)
}

func (c *Controller) set(p entity.Phase) {
	from := entity.Phase(c.phase.Swap(int32(p)))
	log.Debugf("%s: %v -> %v", c.name, from, p)
	for _, l := range c.listeners {
		l.OnPhaseChange(c.direction, from, p)
	}
}

// View 渲染所需的只读快照
type View struct {
	Name      string
	Direction entity.Direction
	Phase     entity.Phase
	Position  geometry.Point
	Zone      entity.Rect
	Image     string
}

func (c *Controller) View() View {
	return View{
		Name:      c.name,
		Direction: c.direction,
		Phase:     c.Phase(),
		Position:  c.position,
		Zone:      c.zone,
		Image:     c.Image(),
	}
}
