package clock

import (
	"fmt"
)

// Clock 渲染帧时钟
// 功能：管理渲染循环的帧推进，记录当前帧数与对应的仿真时间
// 说明：只由主循环协程读写；信号灯的相位计时使用Source，不依赖本时钟
type Clock struct {
	DT       float64 // 每帧时间间隔（秒）
	FPS      int32   // 帧率
	END_STEP int32   // 结束帧，0表示不限

	T            float64 // 当前时间（秒）
	InternalStep int32   // 当前帧数
}

// New 根据帧率创建帧时钟
// 参数：fps-帧率，steps-总帧数（0表示不限）
func New(fps int32, steps int32) *Clock {
	if fps <= 0 {
		log.Panicf("fps must be positive, got %d", fps)
	}
	c := &Clock{
		DT:       1 / float64(fps),
		FPS:      fps,
		END_STEP: steps,
	}
	c.Init()
	return c
}

// Init 重置时钟状态
func (c *Clock) Init() {
	c.InternalStep = 0
	c.T = 0
}

// Tick 推进一帧
func (c *Clock) Tick() {
	c.InternalStep++
	c.T = float64(c.InternalStep) * c.DT
}

// Done 是否已到达结束帧
func (c *Clock) Done() bool {
	return c.END_STEP > 0 && c.InternalStep >= c.END_STEP
}

// String 获取时钟的字符串表示
// 功能：将当前时间格式化为可读的字符串
// 返回：格式化的时间字符串（HH:MM:SS）
// 算法说明：
// 1. 将总秒数转换为小时、分钟、秒
// 2. 格式化为标准时间格式
func (c *Clock) String() string {
	t := c.T
	h := int(t / 3600)
	t -= float64(h * 3600)
	m := int(t / 60)
	t -= float64(m * 60)
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// GetHourMinuteSecond 获取当前时间的小时、分钟、秒
// 功能：将当前时间分解为小时、分钟、秒三个部分
// 返回：小时、分钟、秒（秒为浮点数，支持亚秒级精度）
func (c *Clock) GetHourMinuteSecond() (int, int, float64) {
	hour := int(c.T) / 3600
	minute := int(c.T) % 3600 / 60
	second := c.T - float64(hour*3600+minute*60)
	return hour, minute, second
}
