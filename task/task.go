package task

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/crossroad-sim/clock"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity/junction"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity/vehicle"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/config"
)

// Context 仿真任务上下文
// 功能：包含一次仿真任务的所有组件和状态，负责进程级的启动与停止
// 说明：由它创建共享上下文、相位信号、四个信号灯与四辆车，并在退出前按顺序停止全部协程
type Context struct {
	// 运行ID
	id string
	// 带运行ID的日志
	log *logrus.Entry

	// 启动/关闭标记
	started atomic.Bool
	closed  atomic.Bool
	// 取消全部信号灯与协调器协程
	cancel context.CancelFunc

	// 帧时钟
	clock *clock.Clock
	// 相位计时时间源
	source clock.Source
	// 共享上下文（只读）
	shared *entity.Context
	// 运行时配置
	runtimeConfig *config.RuntimeConfig

	// 路口管理器
	junctionManager *junction.JunctionManager
	// 车辆管理器
	vehicleManager *vehicle.VehicleManager

	// 渲染协作者
	renderer IRenderer
	// 相位变化记录
	phases *phaseLog
}

// NewContext 创建新的仿真任务上下文
// 功能：根据配置初始化仿真系统的全部组件
// 参数：
//   - c: 配置对象
//   - source: 相位计时时间源，nil表示墙钟
//   - renderer: 渲染协作者，nil表示按心跳间隔输出日志
//
// 返回：初始化完成的Context实例；配置中方向与停车区不一致等构造错误直接返回
func NewContext(c config.Config, source clock.Source, renderer IRenderer) (*Context, error) {
	rc := config.NewRuntimeConfig(c)
	id := uuid.NewString()
	ctx := &Context{
		id:            id,
		log:           log.WithField("run", id),
		runtimeConfig: rc,
		source:        source,
		renderer:      renderer,
	}
	if ctx.source == nil {
		ctx.source = clock.NewReal()
	}
	if ctx.renderer == nil {
		ctx.renderer = NewLogRenderer(ctx.log, rc.C.HeartbeatInterval)
	}
	ctx.phases = newPhaseLog(ctx.log)
	ctx.clock = clock.New(rc.C.FPS, rc.C.Steps)

	shared, err := entity.NewContext(rc.C.Velocity)
	if err != nil {
		return nil, err
	}
	ctx.shared = shared

	ctx.junctionManager, err = junction.NewManager(shared, ctx.source, rc.C, rc.All.Lights, ctx.phases)
	if err != nil {
		return nil, fmt.Errorf("init junction: %w", err)
	}
	ctx.vehicleManager, err = vehicle.NewManager(shared, rc.All.World.Size, rc.All.Vehicles,
		func(dir entity.Direction) (entity.ILightGetter, error) {
			l, err := ctx.junctionManager.GetOrError(dir)
			if err != nil {
				return nil, err
			}
			return l, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("init vehicle: %w", err)
	}
	return ctx, nil
}

func (ctx *Context) ID() string {
	return ctx.id
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) Source() clock.Source {
	return ctx.source
}

func (ctx *Context) Shared() *entity.Context {
	return ctx.shared
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

func (ctx *Context) JunctionManager() *junction.JunctionManager {
	return ctx.junctionManager
}

func (ctx *Context) VehicleManager() *vehicle.VehicleManager {
	return ctx.vehicleManager
}

// PhaseChanges 指定方向的相位变化次数
func (ctx *Context) PhaseChanges(dir entity.Direction) int {
	return ctx.phases.count(dir)
}

// Init 启动全部信号灯，再启动协调器
func (ctx *Context) Init(parent context.Context) error {
	if !ctx.started.CompareAndSwap(false, true) {
		return fmt.Errorf("task %s: %w", ctx.id, entity.ErrAlreadyStarted)
	}
	ctx.clock.Init()
	runCtx, cancel := context.WithCancel(parent)
	ctx.cancel = cancel

	c := ctx.runtimeConfig.C
	ctx.log.Infof("velocity: %v, fps: %d, steps: %d", c.Velocity, c.FPS, c.Steps)
	ctx.log.Infof("Light: %v", len(ctx.junctionManager.Lights()))
	ctx.log.Infof("Vehicle: %v", len(ctx.vehicleManager.Vehicles()))

	if err := ctx.junctionManager.Start(runCtx); err != nil {
		return fmt.Errorf("start junction: %w", err)
	}
	return nil
}

// Close 停止协调器与全部信号灯并等待协程退出，可重复调用
// 说明：先取消上下文中断正在进行的相位保持，再按协调器、信号灯的顺序停止并等待
func (ctx *Context) Close() {
	if !ctx.closed.CompareAndSwap(false, true) {
		return
	}
	if ctx.cancel != nil {
		ctx.cancel()
	}
	start := time.Now()
	ctx.junctionManager.Stop()
	ctx.log.Infof("all lights stopped in %v", time.Since(start))
}
