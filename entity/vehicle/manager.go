package vehicle

import (
	"fmt"

	"git.fiblab.net/general/common/v2/geometry"
	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim/utils/config"
)

// LightLookup 按方向查找信号灯
type LightLookup func(dir entity.Direction) (entity.ILightGetter, error)

// VehicleManager 车辆管理器
type VehicleManager struct {
	data     map[string]*Vehicle
	vehicles []*Vehicle
}

// NewManager 根据配置创建全部车辆并绑定信号灯
// 参数：ctx-共享上下文，world-世界边长，pbs-车辆配置，lookup-信号灯查找
func NewManager(ctx *entity.Context, world float64, pbs []config.Vehicle, lookup LightLookup) (*VehicleManager, error) {
	m := &VehicleManager{
		vehicles: make([]*Vehicle, 0, len(pbs)),
	}
	for _, pb := range pbs {
		dir, err := entity.ParseDirection(pb.Light)
		if err != nil {
			return nil, fmt.Errorf("vehicle %q: %w", pb.Name, err)
		}
		light, err := lookup(dir)
		if err != nil {
			return nil, fmt.Errorf("vehicle %q: %w", pb.Name, err)
		}
		v, err := NewVehicle(
			pb.Name,
			geometry.Point{X: pb.Start.X, Y: pb.Start.Y},
			geometry.Point{X: pb.Direction.X, Y: pb.Direction.Y},
			pb.Size.W, pb.Size.H,
			world, ctx, light,
		)
		if err != nil {
			return nil, err
		}
		v.sprite = pb.Sprite
		m.vehicles = append(m.vehicles, v)
	}
	m.data = lo.SliceToMap(m.vehicles, func(v *Vehicle) (string, *Vehicle) {
		return v.name, v
	})
	return m, nil
}

// Get 根据名称获取车辆，如果不存在则panic
func (m *VehicleManager) Get(name string) *Vehicle {
	if v, ok := m.data[name]; !ok {
		log.Panicf("no vehicle named %q", name)
		return nil
	} else {
		return v
	}
}

func (m *VehicleManager) Vehicles() []*Vehicle {
	return m.vehicles
}

// Update 推进一帧，各车辆之间互不依赖，并行更新
func (m *VehicleManager) Update() {
	parallel.GoFor(m.vehicles, func(v *Vehicle) { v.Update() })
}

// Snapshot 渲染所需的车辆快照
func (m *VehicleManager) Snapshot() []View {
	return lo.Map(m.vehicles, func(v *Vehicle, _ int) View {
		return v.View()
	})
}

// StoppedCount 上一帧停车等待的车辆数
func (m *VehicleManager) StoppedCount() int {
	return lo.CountBy(m.vehicles, func(v *Vehicle) bool { return v.stopped })
}
