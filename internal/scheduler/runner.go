package scheduler

import (
	"context"
	"time"

	"finch/internal/logger"
)

// Runner 按固定间隔执行任务，直到 ctx 被取消。
type Runner struct {
	Name           string
	Interval       time.Duration
	RunImmediately bool
}

// Start 阻塞运行。task panic 会被吞掉并记日志，不中断循环。
func (r Runner) Start(ctx context.Context, task func(context.Context)) {
	if task == nil || r.Interval <= 0 {
		logger.Warnf("scheduler %s: invalid task or interval, exit", r.Name)
		return
	}
	if r.RunImmediately {
		r.invoke(ctx, task)
	}
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Infof("scheduler %s: stopped", r.Name)
			return
		case <-ticker.C:
			r.invoke(ctx, task)
		}
	}
}

func (r Runner) invoke(ctx context.Context, task func(context.Context)) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Errorf("scheduler %s: task panic: %v", r.Name, rec)
		}
	}()
	task(ctx)
}
