package junction

import (
	"context"
	"fmt"

	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crossroad-sim/clock"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity/junction/signal"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity/junction/trafficlight"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/config"
)

// JunctionManager 路口管理器
// 功能：持有相位信号、协调器与四个方向的信号灯，负责它们的创建、启动与停止
type JunctionManager struct {
	ctx    *entity.Context
	source clock.Source

	signal      *signal.Signal
	coordinator *Coordinator

	data   map[entity.Direction]*trafficlight.Controller
	lights []*trafficlight.Controller
}

// NewManager 创建路口管理器
// 功能：根据配置创建每个方向的信号灯，校验方向与停车区一一对应
// 参数：ctx-共享上下文，source-计时时间源，c-控制配置，pbs-信号灯配置，listeners-相位变化监听器
// 返回：路口管理器；方向未知、重复、缺失或停车区无效时返回错误
func NewManager(
	ctx *entity.Context,
	source clock.Source,
	c config.Control,
	pbs []config.Light,
	listeners ...entity.IPhaseListener,
) (*JunctionManager, error) {
	m := &JunctionManager{
		ctx:    ctx,
		source: source,
		signal: signal.New(source),
		data:   make(map[entity.Direction]*trafficlight.Controller),
		lights: make([]*trafficlight.Controller, 0, len(pbs)),
	}
	m.coordinator = NewCoordinator(m.signal, ctx)

	for _, pb := range pbs {
		dir, err := entity.ParseDirection(pb.Direction)
		if err != nil {
			return nil, fmt.Errorf("traffic light %q: %w", pb.Name, err)
		}
		if _, ok := m.data[dir]; ok {
			return nil, fmt.Errorf("traffic light %q: %w: %v", pb.Name, entity.ErrDuplicateDirection, dir)
		}
		opts := []trafficlight.Option{
			trafficlight.WithPosition(geometry.Point{X: pb.Position.X, Y: pb.Position.Y}),
			trafficlight.WithJitter(c.Jitter, c.Seed+uint64(dir)),
		}
		if pb.Name != "" {
			opts = append(opts, trafficlight.WithName(pb.Name))
		}
		for _, l := range listeners {
			opts = append(opts, trafficlight.WithListener(l))
		}
		zone := entity.Rect{X: pb.Zone.X, Y: pb.Zone.Y, W: pb.Zone.W, H: pb.Zone.H}
		l, err := trafficlight.NewController(dir, zone, ctx, m.signal, source, opts...)
		if err != nil {
			return nil, err
		}
		m.data[dir] = l
		m.lights = append(m.lights, l)
	}
	for _, dir := range entity.Directions {
		if _, ok := m.data[dir]; !ok {
			return nil, fmt.Errorf("%w: %v", entity.ErrMissingStopZone, dir)
		}
	}
	return m, nil
}

// Get 根据方向获取信号灯，如果不存在则panic
func (m *JunctionManager) Get(dir entity.Direction) *trafficlight.Controller {
	if l, ok := m.data[dir]; !ok {
		log.Panicf("no traffic light for direction %v", dir)
		return nil
	} else {
		return l
	}
}

// GetOrError 根据方向获取信号灯（带错误处理）
func (m *JunctionManager) GetOrError(dir entity.Direction) (*trafficlight.Controller, error) {
	if l, ok := m.data[dir]; !ok {
		return nil, fmt.Errorf("%w: %v", entity.ErrMissingStopZone, dir)
	} else {
		return l, nil
	}
}

// Lights 全部信号灯，按配置顺序
func (m *JunctionManager) Lights() []*trafficlight.Controller {
	return m.lights
}

func (m *JunctionManager) Signal() *signal.Signal {
	return m.signal
}

func (m *JunctionManager) Coordinator() *Coordinator {
	return m.coordinator
}

// Start 先启动全部信号灯，等它们都停在红灯后再启动协调器，使第一次广播同时放行全部方向
func (m *JunctionManager) Start(ctx context.Context) error {
	for _, l := range m.lights {
		if err := l.Start(ctx); err != nil {
			return err
		}
	}
	for _, l := range m.lights {
		select {
		case <-l.Ready():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return m.coordinator.Start(ctx)
}

// Stop 先停止协调器，再并行停止全部信号灯并等待退出
func (m *JunctionManager) Stop() {
	m.coordinator.Stop()
	parallel.GoFor(m.lights, func(l *trafficlight.Controller) { l.Stop() })
}

// Snapshot 渲染所需的信号灯快照
func (m *JunctionManager) Snapshot() []trafficlight.View {
	return lo.Map(m.lights, func(l *trafficlight.Controller, _ int) trafficlight.View {
		return l.View()
	})
}

// Phases 各方向当前相位
func (m *JunctionManager) Phases() map[entity.Direction]entity.Phase {
	return lo.MapValues(m.data, func(l *trafficlight.Controller, _ entity.Direction) entity.Phase {
		return l.Phase()
	})
}
