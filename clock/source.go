package clock

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "clock")

// Source 相位计时所用的时间源
// 功能：为信号灯保持与协调器等待提供可取消的定时器
// 说明：Real对应墙钟，Manual为逻辑时钟，测试中可手动快进
type Source interface {
	// 自时间源创建以来经过的时长
	Now() time.Duration
	// 经过d后关闭返回的channel
	After(d time.Duration) <-chan struct{}
	// 阻塞d；到期返回nil，ctx先取消则返回ctx.Err()
	Sleep(ctx context.Context, d time.Duration) error
}

// Real 墙钟时间源
type Real struct {
	start time.Time
}

func NewReal() *Real {
	return &Real{start: time.Now()}
}

func (r *Real) Now() time.Duration {
	return time.Since(r.start)
}

func (r *Real) After(d time.Duration) <-chan struct{} {
	ch := make(chan struct{})
	if d <= 0 {
		close(ch)
		return ch
	}
	time.AfterFunc(d, func() { close(ch) })
	return ch
}

func (r *Real) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
