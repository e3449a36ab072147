package task

import (
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity/junction/trafficlight"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity/vehicle"
)

// Frame 一帧的渲染数据
type Frame struct {
	Step     int32
	Time     string
	Lights   []trafficlight.View
	Vehicles []vehicle.View
}

// IRenderer 渲染/显示协作者
// 每帧从主循环协程调用一次，只读取快照，不向仿真核心回写
type IRenderer interface {
	Draw(frame Frame)
}

// LogRenderer 以日志形式输出帧，每interval帧一次
type LogRenderer struct {
	log      *logrus.Entry
	interval int32
}

func NewLogRenderer(log *logrus.Entry, interval int32) *LogRenderer {
	if interval <= 0 {
		interval = 1
	}
	return &LogRenderer{log: log, interval: interval}
}

func (r *LogRenderer) Draw(f Frame) {
	if f.Step%r.interval != 0 {
		return
	}
	var b strings.Builder
	for i, l := range f.Lights {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(l.Direction.Short())
		b.WriteString("=")
		b.WriteString(l.Phase.Short())
	}
	stopped := lo.CountBy(f.Vehicles, func(v vehicle.View) bool { return v.Stopped })
	r.log.Infof("FRAME %d (%s) lights[%s] vehicles %d stopped %d", f.Step, f.Time, b.String(), len(f.Vehicles), stopped)
}

// phaseLog 相位变化监听器，记录到调试日志并统计每个方向的变化次数
type phaseLog struct {
	log    *logrus.Entry
	mtx    sync.Mutex
	counts map[entity.Direction]int
}

func newPhaseLog(log *logrus.Entry) *phaseLog {
	return &phaseLog{log: log, counts: make(map[entity.Direction]int)}
}

func (p *phaseLog) OnPhaseChange(dir entity.Direction, from, to entity.Phase) {
	p.mtx.Lock()
	p.counts[dir]++
	p.mtx.Unlock()
	p.log.WithField("direction", dir.String()).Debugf("%v -> %v", from, to)
}

func (p *phaseLog) count(dir entity.Direction) int {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	return p.counts[dir]
}
