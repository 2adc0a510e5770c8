package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"finch/internal/agent"
	"finch/internal/analysis/visual"
	fincfg "finch/internal/config"
	"finch/internal/gateway/notifier"
	"finch/internal/logger"
	"finch/internal/market"
	"finch/internal/render"
	"finch/internal/scheduler"
	"finch/internal/store/verdictlog"
	advisehttp "finch/internal/transport/http"
)

// App 持有装配完成的全部组件，Run 之后随 ctx 取消而退出。
type App struct {
	cfg      *fincfg.Config
	service  *agent.Service
	http     *advisehttp.Server
	store    *verdictlog.Store
	source   market.Source
	telegram *notifier.Telegram
}

// Run 启动 HTTP 服务与（可选的）定时巡检，阻塞到 ctx 取消或任一组件出错。
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("HTTP 服务启动: %s", a.http.Addr())
		return a.http.Start(ctx)
	})

	if a.cfg.Schedule.Enabled {
		interval, ok := scheduler.ParseIntervalDuration(a.cfg.Schedule.Interval)
		if !ok {
			return fmt.Errorf("非法的巡检间隔: %s", a.cfg.Schedule.Interval)
		}
		g.Go(func() error {
			scheduler.Runner{
				Name:           "advise",
				Interval:       interval,
				RunImmediately: a.cfg.Schedule.RunImmediately,
			}.Start(ctx, a.runScheduled)
			return nil
		})
		logger.Infof("定时巡检已启用: every %s, symbols=%v", a.cfg.Schedule.Interval, a.cfg.Schedule.Symbols)
	}

	err := g.Wait()
	a.close()
	return err
}

// runScheduled 对配置的每个标的跑一轮建议。单个标的失败只记日志，
// 不影响后续标的。
func (a *App) runScheduled(ctx context.Context) {
	for _, symbol := range a.cfg.Schedule.Symbols {
		if ctx.Err() != nil {
			return
		}
		report, err := a.service.Advise(ctx, agent.Request{
			Symbol:   symbol,
			UserText: a.cfg.Schedule.IntentText,
		})
		if err != nil {
			logger.Errorf("巡检 %s 失败: %v", symbol, err)
			continue
		}
		logger.Infof("巡检 %s 完成: %s", symbol, report.Verdict.Decision)
		if a.cfg.Chart.Enabled {
			a.sendChart(ctx, report)
		}
	}
}

// sendChart 渲染日线走势图：落盘到 output_dir，并在 Telegram 配置允许时随图推送。
// 渲染失败只降级为日志，不影响建议本身。
func (a *App) sendChart(ctx context.Context, report render.Report) {
	if err := visual.EnsureHeadlessAvailable(ctx); err != nil {
		logger.Warnf("渲染环境不可用，跳过图表: %v", err)
		return
	}
	candles, err := a.source.FetchHistory(ctx, report.Symbol, a.cfg.Analysis.Daily.Interval, a.cfg.Analysis.Daily.Limit)
	if err != nil {
		logger.Warnf("图表取数失败 %s: %v", report.Symbol, err)
		return
	}
	img, err := visual.Render(visual.Input{
		Context:  ctx,
		Symbol:   report.Symbol,
		Interval: a.cfg.Analysis.Daily.Interval,
		Candles:  candles,
		Regime:   string(report.Regime.Regime),
		Pattern:  report.Volume.Label,
		SMAWindows: []int{
			a.cfg.Analysis.Weekly.ShortWindow,
			a.cfg.Analysis.Weekly.LongWindow,
		},
	})
	if err != nil {
		logger.Warnf("图表渲染失败 %s: %v", report.Symbol, err)
		return
	}
	if dir := a.cfg.Chart.OutputDir; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err == nil {
			name := fmt.Sprintf("%s_%s.png", report.Symbol, time.Now().Format("20060102_150405"))
			if werr := os.WriteFile(filepath.Join(dir, name), img.Bytes, 0o644); werr != nil {
				logger.Warnf("图表落盘失败 %s: %v", report.Symbol, werr)
			}
		}
	}
	if a.telegram != nil && a.cfg.Notify.Telegram.SendChart {
		if err := a.telegram.SendPhoto(render.Text(report), img.Bytes); err != nil {
			logger.Warnf("图表推送失败 %s: %v", report.Symbol, err)
		}
	}
}

func (a *App) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warnf("关闭建议日志失败: %v", err)
		}
	}
	if a.source != nil {
		_ = a.source.Close()
	}
}
