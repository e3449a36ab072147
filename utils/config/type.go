package config

// Point 二维坐标（像素）
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Size 矩形尺寸（像素）
type Size struct {
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// Rect 轴对齐矩形，X/Y为左上角
type Rect struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// Control 模拟器控制配置
// 功能：定义仿真系统的核心控制参数
// 说明：velocity是核心唯一的可调参数，同时决定相位时长与车辆每帧位移
type Control struct {
	Velocity          float64 `yaml:"velocity"`                     // 时间尺度：绿灯保持秒数、车辆每帧像素位移
	FPS               int32   `yaml:"fps,omitempty"`                // 渲染帧率
	Steps             int32   `yaml:"steps,omitempty"`              // 总帧数，0表示直到外部中断
	HeartbeatInterval int32   `yaml:"heartbeat_interval,omitempty"` // 心跳日志间隔帧数
	Jitter            float64 `yaml:"jitter,omitempty"`             // 相位保持的随机附加比例，[0, jitter*hold)
	Seed              uint64  `yaml:"seed,omitempty"`               // jitter随机种子
}

// World 世界范围
type World struct {
	Size float64 `yaml:"size"` // 正方形世界边长，用于车辆回绕判定
}

// Light 信号灯配置
type Light struct {
	Name      string `yaml:"name"`
	Direction string `yaml:"direction"` // north|south|east|west
	Position  Point  `yaml:"position"`  // 绘制锚点（中心）
	Zone      Rect   `yaml:"zone"`      // 停车区，红灯时车辆不得进入
}

// Vehicle 车辆配置
type Vehicle struct {
	Name      string `yaml:"name"`
	Sprite    string `yaml:"sprite,omitempty"` // 贴图文件名，仅供渲染使用
	Start     Point  `yaml:"start"`            // 起点（中心）
	Direction Point  `yaml:"direction"`        // 运动方向，无需归一化
	Size      Size   `yaml:"size"`             // 包围盒尺寸
	Light     string `yaml:"light"`            // 绑定信号灯的方向
}

// Config YAML配置文件的根结构
// 功能：定义整个仿真系统的配置结构
// 说明：包含控制参数、世界范围、信号灯与车辆布置
type Config struct {
	Control  Control   `yaml:"control"`  // 模拟过程控制
	World    World     `yaml:"world"`    // 世界范围
	Lights   []Light   `yaml:"lights"`   // 信号灯
	Vehicles []Vehicle `yaml:"vehicles"` // 车辆
}
