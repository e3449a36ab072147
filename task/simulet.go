package task

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tsinghua-fib-lab/crossroad-sim/entity"
)

// Step 推进一帧
// 功能：渲染循环的单帧处理，不阻塞在相位信号上
// 算法说明：
// 1. 更新帧时钟
// 2. 心跳日志：定期输出帧数与仿真时间
// 3. 车辆读取各自信号灯的相位与停车区，决定前进或等待
// 4. 将信号灯与车辆快照交给渲染协作者
func (ctx *Context) Step() {
	ctx.clock.Tick()

	if ctx.clock.InternalStep%ctx.runtimeConfig.C.HeartbeatInterval == 0 {
		hour, minute, second := ctx.clock.GetHourMinuteSecond()
		ctx.log.Infof(
			"STEP: %d(%d:%d:%.2f) stopped vehicles: %d",
			ctx.clock.InternalStep,
			hour, minute, second,
			ctx.vehicleManager.StoppedCount(),
		)
	}

	ctx.vehicleManager.Update()

	frame := Frame{
		Step:     ctx.clock.InternalStep,
		Time:     ctx.clock.String(),
		Lights:   ctx.junctionManager.Snapshot(),
		Vehicles: ctx.vehicleManager.Snapshot(),
	}
	if ctx.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		for _, v := range frame.Vehicles {
			ctx.log.Tracef("step %d: %s at (%.1f, %.1f) stopped=%v", frame.Step, v.Name, v.Position.X, v.Position.Y, v.Stopped)
		}
	}
	ctx.renderer.Draw(frame)
}

// Run 运行
// 功能：启动信号灯与协调器，按帧率推进直到外部取消或达到总帧数，最后停止全部协程
func (ctx *Context) Run(parent context.Context) error {
	if err := ctx.Init(parent); err != nil {
		// 已由其他调用启动时不能关闭正在运行的任务
		if !errors.Is(err, entity.ErrAlreadyStarted) {
			ctx.Close()
		}
		return err
	}
	defer ctx.Close()

	ticker := time.NewTicker(time.Duration(ctx.clock.DT * float64(time.Second)))
	defer ticker.Stop()
	for !ctx.clock.Done() {
		select {
		case <-parent.Done():
			ctx.log.Infof("interrupted at step %d", ctx.clock.InternalStep)
			return nil
		case <-ticker.C:
		}
		ctx.Step()
	}
	ctx.log.Infof("engine complete")
	return nil
}
