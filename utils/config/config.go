package config

import (
	"fmt"

	"gopkg.in/yaml.v2"
)

const (
	DefaultVelocity          = 5.0
	DefaultFPS               = 30
	DefaultHeartbeatInterval = 30
	DefaultWorldSize         = 528.0
)

// RuntimeConfig 运行时配置
// 功能：存储仿真运行时的配置信息
// 说明：构造后只读，所有组件共享同一实例
type RuntimeConfig struct {
	All Config  // 全部配置
	C   Control // 全局控制配置
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：创建运行时配置对象，补全缺省值
// 参数：config-原始配置对象
// 返回：初始化的运行时配置指针
func NewRuntimeConfig(config Config) *RuntimeConfig {
	config.fillDefaults()
	return &RuntimeConfig{
		All: config,
		C:   config.Control,
	}
}

// Parse 解析YAML配置
// 说明：使用严格模式，未知字段视为错误；未设置的控制参数使用缺省值
func Parse(data []byte) (Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	c.fillDefaults()
	return c, nil
}

func (c *Config) fillDefaults() {
	if c.Control.Velocity == 0 {
		c.Control.Velocity = DefaultVelocity
	}
	if c.Control.FPS <= 0 {
		c.Control.FPS = DefaultFPS
	}
	if c.Control.HeartbeatInterval <= 0 {
		c.Control.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.World.Size <= 0 {
		c.World.Size = DefaultWorldSize
	}
}

// Default 内置的十字路口布局
// 功能：返回一个完整可运行的配置，包含四个方向的信号灯与四辆车
// 说明：坐标基于528x528的地图贴图
func Default() Config {
	c := Config{
		Control: Control{
			Velocity:          DefaultVelocity,
			FPS:               DefaultFPS,
			HeartbeatInterval: DefaultHeartbeatInterval,
		},
		World: World{Size: DefaultWorldSize},
		Lights: []Light{
			{Name: "semaphore1", Direction: "north", Position: Point{275, 280}, Zone: Rect{200, 220, 120, 20}},
			{Name: "semaphore2", Direction: "south", Position: Point{140, 130}, Zone: Rect{120, 120, 60, 20}},
			{Name: "semaphore3", Direction: "east", Position: Point{140, 280}, Zone: Rect{120, 200, 20, 120}},
			{Name: "semaphore4", Direction: "west", Position: Point{275, 130}, Zone: Rect{240, 150, 40, 120}},
		},
		Vehicles: []Vehicle{
			{Name: "horizontal_up", Sprite: "horizontal_up.png", Start: Point{650, 131}, Direction: Point{-1, 0}, Size: Size{64, 48}, Light: "west"},
			{Name: "horizontal_down", Sprite: "horizontal_down.png", Start: Point{-48, 200}, Direction: Point{1, 0}, Size: Size{64, 48}, Light: "east"},
			{Name: "vertical_left", Sprite: "vertical_left.png", Start: Point{170, -32}, Direction: Point{0, 1}, Size: Size{24, 48}, Light: "south"},
			{Name: "vertical_right", Sprite: "vertical_right.png", Start: Point{250, 560}, Direction: Point{0, -1}, Size: Size{24, 48}, Light: "north"},
		},
	}
	return c
}
