package vehicle

import (
	"fmt"
	"math"

	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
)

// Vehicle 沿固定方向行驶的车辆
// 功能：每帧根据绑定信号灯的相位与停车区决定前进或原地等待，驶出世界后回到起点
// 说明：绑定的信号灯与方向在构造后不变；只由渲染循环协程调用Update
type Vehicle struct {
	name   string
	sprite string

	start    geometry.Point // 起点（中心）
	position geometry.Point // 当前位置（中心）
	dir      geometry.Point // 单位方向向量
	w, h     float64        // 包围盒尺寸
	world    float64        // 世界边长

	ctx   *entity.Context
	light entity.ILightGetter

	stopped bool // 上一帧是否因红灯停车
	laps    int  // 回到起点的次数
}

// NewVehicle 创建车辆
// 参数：name-名称，start-起点，dir-方向（自动归一化），w/h-包围盒尺寸，world-世界边长，ctx-共享上下文，light-绑定的信号灯
// 返回：车辆实例；方向为零向量、尺寸无效或未绑定信号灯时返回错误
func NewVehicle(
	name string,
	start geometry.Point,
	dir geometry.Point,
	w, h float64,
	world float64,
	ctx *entity.Context,
	light entity.ILightGetter,
) (*Vehicle, error) {
	if light == nil {
		return nil, fmt.Errorf("vehicle %q: %w", name, entity.ErrUnboundLight)
	}
	norm := math.Hypot(dir.X, dir.Y)
	if norm == 0 {
		return nil, fmt.Errorf("vehicle %q: %w", name, entity.ErrZeroDirection)
	}
	if !(w > 0 && h > 0) {
		return nil, fmt.Errorf("vehicle %q: %w: %vx%v", name, entity.ErrInvalidRect, w, h)
	}
	if ctx == nil {
		return nil, fmt.Errorf("vehicle %q: nil context", name)
	}
	return &Vehicle{
		name:     name,
		start:    start,
		position: start,
		dir:      geometry.Point{X: dir.X / norm, Y: dir.Y / norm},
		w:        w,
		h:        h,
		world:    world,
		ctx:      ctx,
		light:    light,
	}, nil
}

func (v *Vehicle) Name() string {
	return v.name
}

func (v *Vehicle) Position() geometry.Point {
	return v.position
}

func (v *Vehicle) Start() geometry.Point {
	return v.start
}

func (v *Vehicle) Dir() geometry.Point {
	return v.dir
}

// Rect 当前包围盒
func (v *Vehicle) Rect() entity.Rect {
	return entity.RectFromCenter(v.position, v.w, v.h)
}

func (v *Vehicle) Light() entity.ILightGetter {
	return v.light
}

// Stopped 上一帧是否因红灯原地等待
func (v *Vehicle) Stopped() bool {
	return v.stopped
}

// Laps 回到起点的次数
func (v *Vehicle) Laps() int {
	return v.laps
}

// Update 推进一帧
// 算法说明：
// 1. 回绕：包围盒越过起点对侧的世界边界时，位置重置为起点
// 2. 停车：绑定信号灯为红灯且包围盒与停车区重叠时，本帧不动
// 3. 否则沿方向前进 velocity
func (v *Vehicle) Update() {
	if v.crossedWorld() {
		v.position = v.start
		v.laps++
	}
	if v.light.Phase() == entity.RED && v.light.StopZone().Intersects(v.Rect()) {
		v.stopped = true
		return
	}
	v.stopped = false
	speed := v.ctx.Velocity()
	v.position = geometry.Point{
		X: v.position.X + v.dir.X*speed,
		Y: v.position.Y + v.dir.Y*speed,
	}
}

// crossedWorld 是否已越过起点对侧的边界
func (v *Vehicle) crossedWorld() bool {
	r := v.Rect()
	return (v.start.X > v.world && r.X < 0) ||
		(v.start.X < 0 && r.X > v.world) ||
		(v.start.Y < 0 && r.Y > v.world) ||
		(v.start.Y > v.world && r.Y < 0)
}

func (v *Vehicle) String() string {
	return fmt.Sprintf("Vehicle{Name=%s, Position=(%.1f, %.1f), Light=%v}", v.name, v.position.X, v.position.Y, v.light.Direction())
}

// View 渲染所需的只读快照
type View struct {
	Name     string
	Sprite   string
	Position geometry.Point
	Rect     entity.Rect
	Stopped  bool
}

func (v *Vehicle) View() View {
	return View{
		Name:     v.name,
		Sprite:   v.sprite,
		Position: v.position,
		Rect:     v.Rect(),
		Stopped:  v.stopped,
	}
}
