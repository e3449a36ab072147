package entity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"git.fiblab.net/general/common/v2/geometry"
)

var (
	ErrUnknownDirection   = errors.New("unknown direction")
	ErrMissingStopZone    = errors.New("no stop zone for direction")
	ErrDuplicateDirection = errors.New("direction already has a traffic light")
	ErrUnboundLight       = errors.New("vehicle is not bound to a traffic light")
	ErrInvalidVelocity    = errors.New("velocity must be positive")
	ErrInvalidRect        = errors.New("rect must have positive width and height")
	ErrZeroDirection      = errors.New("direction vector must be non-zero")
	ErrAlreadyStarted     = errors.New("already started")
)

// 信号灯管辖的进口方向，生命周期内不变
type Direction int32

const (
	NORTH Direction = iota
	SOUTH
	EAST
	WEST
)

// 全部方向，按固定顺序
var Directions = []Direction{NORTH, SOUTH, EAST, WEST}

// ParseDirection 解析方向字符串（north|south|east|west，或n|s|e|w），大小写不敏感
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n":
		return NORTH, nil
	case "south", "s":
		return SOUTH, nil
	case "east", "e":
		return EAST, nil
	case "west", "w":
		return WEST, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

func (d Direction) Valid() bool {
	return d >= NORTH && d <= WEST
}

func (d Direction) String() string {
	switch d {
	case NORTH:
		return "NORTH"
	case SOUTH:
		return "SOUTH"
	case EAST:
		return "EAST"
	case WEST:
		return "WEST"
	}
	return fmt.Sprintf("Direction(%d)", int32(d))
}

// Short 贴图文件名中使用的缩写
func (d Direction) Short() string {
	return strings.ToLower(d.String()[:1])
}

// 信号灯颜色
type Phase int32

const (
	GREEN Phase = iota
	YELLOW
	RED
)

func (p Phase) String() string {
	switch p {
	case GREEN:
		return "GREEN"
	case YELLOW:
		return "YELLOW"
	case RED:
		return "RED"
	}
	return fmt.Sprintf("Phase(%d)", int32(p))
}

// Short 贴图文件名中使用的缩写
func (p Phase) Short() string {
	switch p {
	case GREEN:
		return "g"
	case YELLOW:
		return "y"
	case RED:
		return "r"
	}
	return "?"
}

// Next 固定相位顺序 GREEN -> YELLOW -> RED -> GREEN
func (p Phase) Next() Phase {
	switch p {
	case GREEN:
		return YELLOW
	case YELLOW:
		return RED
	}
	return GREEN
}

// 轴对齐矩形，X/Y为左上角
type Rect struct {
	X, Y, W, H float64
}

// RectFromCenter 以中心点和尺寸构造矩形
func RectFromCenter(c geometry.Point, w, h float64) Rect {
	return Rect{X: c.X - w/2, Y: c.Y - h/2, W: w, H: h}
}

func (r Rect) Valid() bool {
	return r.W > 0 && r.H > 0
}

func (r Rect) Center() geometry.Point {
	return geometry.Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Intersects 判断两个矩形是否重叠
// 说明：仅边界接触不算重叠；宽或高为0的矩形与任何矩形都不重叠
func (r Rect) Intersects(o Rect) bool {
	if !r.Valid() || !o.Valid() {
		return false
	}
	return r.X < o.X+o.W && o.X < r.X+r.W &&
		r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

func (r Rect) String() string {
	return fmt.Sprintf("Rect{X=%v, Y=%v, W=%v, H=%v}", r.X, r.Y, r.W, r.H)
}

// 依赖倒置，车辆对信号灯的只读需求
type ILightGetter interface {
	Direction() Direction // 管辖方向
	Phase() Phase         // 当前相位
	StopZone() Rect       // 停车区
}

// 相位广播信号
// 协调器持有，注入到每个信号灯控制器
// park在持有互斥锁时求值，返回false表示调用者不应再挂起，此时立即返回nil；
// 与Broadcast同锁求值，保证“检查条件-挂起”之间不会丢失唤醒
type IPhaseSignal interface {
	// 挂起直到下一次广播；ctx取消时返回ctx.Err()
	Wait(ctx context.Context, park func() bool) error
	// 唤醒所有正在挂起的调用者，唤醒顺序不确定
	Broadcast()
	// 挂起直到下一次广播或经过d；超时不是错误
	WaitTimeout(ctx context.Context, d time.Duration, park func() bool) error
}

// 相位变化监听器，在信号灯自身协程中同步调用
type IPhaseListener interface {
	OnPhaseChange(dir Direction, from, to Phase)
}
