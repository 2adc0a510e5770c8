package app

import (
	"fmt"
	"strings"
	"time"

	"finch/internal/advisor"
	"finch/internal/agent"
	"finch/internal/analysis/regime"
	"finch/internal/analysis/volume"
	fincfg "finch/internal/config"
	"finch/internal/gateway/binance"
	"finch/internal/gateway/gate"
	"finch/internal/gateway/notifier"
	"finch/internal/gateway/provider"
	"finch/internal/logger"
	"finch/internal/market"
	"finch/internal/store/verdictlog"
	advisehttp "finch/internal/transport/http"
)

// Builder 把配置装配成可运行的 App。各构造函数可在测试中替换。
type Builder struct {
	cfg *fincfg.Config

	sourceFn  func(fincfg.MarketSource) (market.Source, error)
	weightsFn func(string) (*advisor.WeightRegistry, error)
	storeFn   func(string) (*verdictlog.Store, error)
}

func NewBuilder(cfg *fincfg.Config) *Builder {
	return &Builder{
		cfg:       cfg,
		sourceFn:  buildMarketSource,
		weightsFn: advisor.NewWeightRegistry,
		storeFn:   verdictlog.New,
	}
}

func (b *Builder) Build() (*App, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)

	source, err := b.sourceFn(cfg.Market.ResolveActiveSource())
	if err != nil {
		return nil, fmt.Errorf("初始化行情源失败: %w", err)
	}

	weights, err := b.weightsFn(cfg.Advisor.WeightsPath)
	if err != nil {
		return nil, fmt.Errorf("加载意图权重失败: %w", err)
	}

	var store *verdictlog.Store
	if strings.TrimSpace(cfg.Store.VerdictLogPath) != "" {
		store, err = b.storeFn(cfg.Store.VerdictLogPath)
		if err != nil {
			return nil, fmt.Errorf("初始化建议日志失败: %w", err)
		}
	}

	var tg *notifier.Telegram
	if cfg.Notify.Telegram.Enabled {
		tg = notifier.NewTelegram(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
		logger.Infof("✓ Telegram 通知已启用")
	}

	analysts, manager, err := buildRoleProviders(cfg.AI)
	if err != nil {
		return nil, err
	}

	var textNotifier notifier.TextNotifier
	if tg != nil {
		textNotifier = tg
	}
	svc, err := agent.New(source, analysts, manager, weights, store, textNotifier, agent.Options{
		WeeklyInterval: cfg.Analysis.Weekly.Interval,
		WeeklyLimit:    cfg.Analysis.Weekly.Limit,
		DailyInterval:  cfg.Analysis.Daily.Interval,
		DailyLimit:     cfg.Analysis.Daily.Limit,
		Weekly: regime.Settings{
			ShortWindow: cfg.Analysis.Weekly.ShortWindow,
			LongWindow:  cfg.Analysis.Weekly.LongWindow,
		},
		Daily: volume.Settings{
			Lookback:    cfg.Analysis.Daily.Lookback,
			SpikeFactor: cfg.Analysis.Daily.SpikeFactor,
			DryFactor:   cfg.Analysis.Daily.DryFactor,
		},
	})
	if err != nil {
		return nil, err
	}

	var history advisehttp.HistoryStore
	if store != nil {
		history = store
	}
	httpServer, err := advisehttp.NewServer(advisehttp.ServerConfig{
		Addr:    cfg.App.HTTPAddr,
		Advisor: svc,
		History: history,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		service:  svc,
		http:     httpServer,
		store:    store,
		source:   source,
		telegram: tg,
	}, nil
}

func buildMarketSource(src fincfg.MarketSource) (market.Source, error) {
	timeout := time.Duration(src.TimeoutSeconds) * time.Second
	switch strings.ToLower(strings.TrimSpace(src.Name)) {
	case "binance":
		return binance.New(binance.Config{
			RESTBaseURL:  src.RESTBaseURL,
			HTTPTimeout:  timeout,
			ProxyEnabled: src.Proxy.Enabled,
			RESTProxyURL: src.Proxy.RESTURL,
		})
	case "gate":
		return gate.New(gate.Config{
			RESTBaseURL:  src.RESTBaseURL,
			HTTPTimeout:  timeout,
			ProxyEnabled: src.Proxy.Enabled,
			RESTProxyURL: src.Proxy.RESTURL,
		})
	default:
		return nil, fmt.Errorf("不支持的行情源: %s", src.Name)
	}
}

// buildRoleProviders 把配置里的模型条目实例化，并按角色绑定。
// 未显式绑定的角色回落到首个启用模型。
func buildRoleProviders(cfg fincfg.AIConfig) (map[advisor.Role]provider.ModelProvider, provider.ModelProvider, error) {
	resolved := cfg.MustResolveModelConfigs()
	modelCfgs := make([]provider.ModelCfg, 0, len(resolved))
	for _, m := range resolved {
		modelCfgs = append(modelCfgs, provider.ModelCfg{
			ID:       m.ID,
			Provider: m.Provider,
			APIURL:   m.APIURL,
			APIKey:   m.APIKey,
			Model:    m.Model,
			Enabled:  m.Enabled,
			Headers:  m.Headers,
		})
	}
	providers := provider.BuildProvidersFromConfig(modelCfgs, time.Duration(cfg.TimeoutSeconds)*time.Second)
	if len(providers) == 0 {
		return nil, nil, fmt.Errorf("ai.models 没有可用的模型")
	}
	byID := make(map[string]provider.ModelProvider, len(providers))
	for _, p := range providers {
		byID[p.ID()] = p
	}
	pick := func(id string) provider.ModelProvider {
		id = strings.TrimSpace(id)
		if id == "" {
			return providers[0]
		}
		return byID[id]
	}
	analysts := map[advisor.Role]provider.ModelProvider{
		advisor.RoleWeekly: pick(cfg.Roles.Weekly),
		advisor.RoleDaily:  pick(cfg.Roles.Daily),
		advisor.RoleRisk:   pick(cfg.Roles.Risk),
	}
	manager := pick(cfg.Roles.Manager)
	for role, p := range analysts {
		if p == nil {
			return nil, nil, fmt.Errorf("角色 %s 绑定的模型不存在", role)
		}
		logger.Infof("✓ 分析師 %s → %s", role, p.ID())
	}
	if manager != nil {
		logger.Infof("✓ 经理人 → %s", manager.ID())
	}
	return analysts, manager, nil
}
