package entity

import (
	"fmt"
	"math"
	"time"
)

// 黄灯时长相对绿灯时长的比例
const YellowRatio = 0.05

// Context 仿真共享上下文
// 功能：保存仿真的时间尺度velocity，同时作为相位时长（秒）与车辆每帧位移（像素）
// 说明：构造后只读，信号灯、协调器与车辆共享同一实例，无需加锁
type Context struct {
	velocity float64
}

// NewContext 创建共享上下文
// 参数：velocity-时间尺度，必须为正
func NewContext(velocity float64) (*Context, error) {
	if !(velocity > 0) || math.IsInf(velocity, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVelocity, velocity)
	}
	// 相位时长以time.Duration表示，超出int64纳秒范围会溢出为负值
	if velocity*float64(time.Second) >= math.MaxInt64 {
		return nil, fmt.Errorf("%w: %v exceeds max hold %v", ErrInvalidVelocity, velocity, time.Duration(math.MaxInt64))
	}
	return &Context{velocity: velocity}, nil
}

// Velocity 时间尺度
func (c *Context) Velocity() float64 {
	return c.velocity
}

// GreenHold 绿灯保持时长
func (c *Context) GreenHold() time.Duration {
	return seconds(c.velocity)
}

// YellowHold 黄灯保持时长
func (c *Context) YellowHold() time.Duration {
	return seconds(c.velocity * YellowRatio)
}

// BroadcastInterval 协调器两次广播之间的等待时长
func (c *Context) BroadcastInterval() time.Duration {
	return seconds(c.velocity)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
