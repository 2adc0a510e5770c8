package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"finch/internal/advisor"
	"finch/internal/analysis/regime"
	"finch/internal/analysis/volume"
	"finch/internal/gateway/notifier"
	"finch/internal/gateway/provider"
	"finch/internal/intent"
	"finch/internal/logger"
	"finch/internal/market"
	"finch/internal/render"
	"finch/internal/store/verdictlog"
)

// Options 控制一轮建议的取数与分析参数。
type Options struct {
	WeeklyInterval string
	WeeklyLimit    int
	DailyInterval  string
	DailyLimit     int
	Weekly         regime.Settings
	Daily          volume.Settings
}

func (o Options) withDefaults() Options {
	if o.WeeklyInterval == "" {
		o.WeeklyInterval = "1w"
	}
	if o.WeeklyLimit <= 0 {
		o.WeeklyLimit = 200
	}
	if o.DailyInterval == "" {
		o.DailyInterval = "1d"
	}
	if o.DailyLimit <= 0 {
		o.DailyLimit = 120
	}
	return o
}

// Request 是一次建议请求。Symbol 必填，UserText 可为空（视为一般建议）。
type Request struct {
	Symbol   string
	UserText string
}

// WeightSource 提供当前生效的意图权重表。
type WeightSource interface {
	Table() advisor.WeightTable
}

// Service 串起行情、分析、三位分析師与经理人总结。
type Service struct {
	source    market.Source
	analysts  map[advisor.Role]provider.ModelProvider
	manager   provider.ModelProvider
	weights   WeightSource
	store     *verdictlog.Store
	notify    notifier.TextNotifier
	opts      Options
}

// New 构造 Service。store 与 notify 可为 nil（不持久化/不推送）。
func New(source market.Source, analysts map[advisor.Role]provider.ModelProvider, manager provider.ModelProvider, weights WeightSource, store *verdictlog.Store, notify notifier.TextNotifier, opts Options) (*Service, error) {
	if source == nil {
		return nil, fmt.Errorf("agent: market source 不能为空")
	}
	if weights == nil {
		return nil, fmt.Errorf("agent: weight source 不能为空")
	}
	return &Service{
		source:   source,
		analysts: analysts,
		manager:  manager,
		weights:  weights,
		store:    store,
		notify:   notify,
		opts:     opts.withDefaults(),
	}, nil
}

// Advise 执行完整建议流程并返回展示报告。
// 行情取数失败与权重配置错误是仅有的硬失败；分析師失败走降级计票。
func (s *Service) Advise(ctx context.Context, req Request) (render.Report, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return render.Report{}, fmt.Errorf("symbol 不能为空")
	}
	traceID := uuid.NewString()
	it := intent.Parse(req.UserText)
	logger.Infof("[advise] trace=%s symbol=%s intent=%s", traceID, symbol, it)

	weekly, daily, err := s.fetchSeries(ctx, symbol)
	if err != nil {
		return render.Report{}, err
	}

	feat := regime.Classify(weekly, s.opts.Weekly)
	pat := volume.Analyze(daily, s.opts.Daily)
	logger.Infof("[advise] trace=%s regime=%s pattern=%s", traceID, feat.Regime, pat.Label)

	baseCtx := BuildBaseContext(req.UserText, symbol, it, feat, s.opts.Weekly, pat, daily)
	opinions := s.runAnalysts(ctx, baseCtx)

	verdict, breakdown, err := advisor.Fuse(opinions, it, s.weights.Table())
	if err != nil {
		return render.Report{}, err
	}
	if !breakdown.Fallback {
		verdict = s.managerSummary(ctx, it, opinions, verdict)
	}

	report := render.Report{
		TraceID:     traceID,
		Symbol:      symbol,
		Intent:      it,
		Regime:      feat,
		Volume:      pat,
		Opinions:    opinions,
		Verdict:     verdict,
		Breakdown:   breakdown,
		GeneratedAt: time.Now(),
	}
	s.persist(ctx, report)
	s.push(report)
	return report, nil
}

func (s *Service) fetchSeries(ctx context.Context, symbol string) (weekly, daily market.Candles, err error) {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var ferr error
		weekly, ferr = s.source.FetchHistory(egCtx, symbol, s.opts.WeeklyInterval, s.opts.WeeklyLimit)
		return ferr
	})
	eg.Go(func() error {
		var ferr error
		daily, ferr = s.source.FetchHistory(egCtx, symbol, s.opts.DailyInterval, s.opts.DailyLimit)
		return ferr
	})
	if werr := eg.Wait(); werr != nil {
		return nil, nil, fmt.Errorf("行情数据获取失败: %w", werr)
	}
	return weekly, daily, nil
}

// runAnalysts 并发执行三位分析師；单个失败只降级为不可用意见。
func (s *Service) runAnalysts(ctx context.Context, baseCtx string) []advisor.Opinion {
	roles := advisor.Roles()
	results := make([]advisor.Opinion, len(roles))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, role := range roles {
		i, role := i, role
		eg.Go(func() error {
			results[i] = s.runAnalyst(egCtx, role, baseCtx)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func (s *Service) runAnalyst(ctx context.Context, role advisor.Role, baseCtx string) advisor.Opinion {
	p := s.analysts[role]
	if p == nil || !p.Enabled() {
		return advisor.Unavailable(role, "未配置模型")
	}
	system := AnalystSystemPrompt(role)
	logger.LogLLMRequest(string(role), p.ID(), system, baseCtx)
	raw, err := p.Call(ctx, system, baseCtx)
	logger.LogLLMResponse(string(role), p.ID(), raw, err)
	if err != nil {
		logger.Warnf("[advise] 分析師 %s 调用失败: %v", role, err)
		return advisor.Unavailable(role, err.Error())
	}
	return advisor.ParseOpinion(role, raw)
}

// managerSummary 用经理人模型产出自然中文总结；失败时保留初步 summary。
func (s *Service) managerSummary(ctx context.Context, it intent.Intent, opinions []advisor.Opinion, verdict advisor.Verdict) advisor.Verdict {
	if s.manager == nil || !s.manager.Enabled() {
		return verdict
	}
	user := BuildManagerPrompt(it, opinions, verdict.Decision)
	logger.LogLLMRequest("manager", s.manager.ID(), managerSystemPrompt, user)
	raw, err := s.manager.Call(ctx, managerSystemPrompt, user)
	logger.LogLLMResponse("manager", s.manager.ID(), raw, err)
	if err != nil {
		logger.Warnf("[advise] 经理人总结失败，保留初步 summary: %v", err)
		return verdict
	}
	return advisor.ApplyManagerSummary(verdict, raw)
}

func (s *Service) persist(ctx context.Context, report render.Report) {
	if s.store == nil {
		return
	}
	_, err := s.store.Insert(ctx, verdictlog.Record{
		TraceID:   report.TraceID,
		Timestamp: report.GeneratedAt.Unix(),
		Symbol:    report.Symbol,
		Intent:    report.Intent,
		Regime:    report.Regime.Regime,
		Pattern:   report.Volume.Label,
		Verdict:   report.Verdict,
		Opinions:  report.Opinions,
		Breakdown: report.Breakdown,
	})
	if err != nil {
		logger.Warnf("[advise] trace=%s 持久化失败: %v", report.TraceID, err)
	}
}

func (s *Service) push(report render.Report) {
	if s.notify == nil {
		return
	}
	msg := render.Message(report)
	if err := s.notify.SendText(msg.RenderMarkdown()); err != nil {
		logger.Warnf("[advise] trace=%s 通知推送失败: %v", report.TraceID, err)
	}
}
