package config

import (
	"fmt"
	"strings"
)

// 默认值常量
const (
	defaultAppEnv         = "dev"
	defaultAppLogLevel    = "info"
	defaultAppHTTPAddr    = ":9980"
	defaultAppLogPath     = "/data/logs/finch.log"
	defaultAppLLMLogPath  = "/data/logs/finch-llm.log"
	defaultMarketName     = "binance"
	defaultMarketREST     = "https://api.binance.com"
	defaultMarketTimeout  = 15
	defaultAITimeout      = 60
	defaultWeeklyInterval = "1w"
	defaultWeeklyLimit    = 200
	defaultWeeklyShort    = 50
	defaultWeeklyLong     = 100
	defaultDailyInterval  = "1d"
	defaultDailyLimit     = 120
	defaultDailyLookback  = 20
	defaultDailySpike     = 1.5
	defaultDailyDry       = 0.7
	defaultScheduleEvery  = "1d"
	defaultVerdictLog     = "/data/live/verdicts.db"
	defaultChartOutputDir = "/data/charts"
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.Analysis.applyDefaults(keys)
	c.AI.applyDefaults(keys)
	c.Schedule.applyDefaults(keys)
	c.Store.applyDefaults(keys)
	c.Chart.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
		stringFieldDefault("app.llm_log_path", &a.LLMLog, defaultAppLLMLogPath),
	)
}

func (a *AnalysisConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("analysis.weekly.interval", &a.Weekly.Interval, defaultWeeklyInterval),
		fieldDefault{
			key:   "analysis.weekly.limit",
			need:  func() bool { return a.Weekly.Limit <= 0 },
			apply: func() { a.Weekly.Limit = defaultWeeklyLimit },
		},
		fieldDefault{
			key:   "analysis.weekly.short_window",
			need:  func() bool { return a.Weekly.ShortWindow <= 0 },
			apply: func() { a.Weekly.ShortWindow = defaultWeeklyShort },
		},
		fieldDefault{
			key:   "analysis.weekly.long_window",
			need:  func() bool { return a.Weekly.LongWindow <= 0 },
			apply: func() { a.Weekly.LongWindow = defaultWeeklyLong },
		},
		stringFieldDefault("analysis.daily.interval", &a.Daily.Interval, defaultDailyInterval),
		fieldDefault{
			key:   "analysis.daily.limit",
			need:  func() bool { return a.Daily.Limit <= 0 },
			apply: func() { a.Daily.Limit = defaultDailyLimit },
		},
		fieldDefault{
			key:   "analysis.daily.lookback",
			need:  func() bool { return a.Daily.Lookback <= 0 },
			apply: func() { a.Daily.Lookback = defaultDailyLookback },
		},
		fieldDefault{
			key:   "analysis.daily.spike_factor",
			need:  func() bool { return a.Daily.SpikeFactor <= 0 },
			apply: func() { a.Daily.SpikeFactor = defaultDailySpike },
		},
		fieldDefault{
			key:   "analysis.daily.dry_factor",
			need:  func() bool { return a.Daily.DryFactor <= 0 },
			apply: func() { a.Daily.DryFactor = defaultDailyDry },
		},
	)
}

func (a *AIConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	if a.ProviderPresets == nil {
		a.ProviderPresets = make(map[string]ModelPreset)
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "ai.timeout_seconds",
			need:  func() bool { return a.TimeoutSeconds <= 0 },
			apply: func() { a.TimeoutSeconds = defaultAITimeout },
		},
	)
}

func (s *ScheduleConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("schedule.interval", &s.Interval, defaultScheduleEvery),
	)
	out := make([]string, 0, len(s.Symbols))
	seen := make(map[string]bool, len(s.Symbols))
	for _, sym := range s.Symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	s.Symbols = out
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.verdict_log_path", &s.VerdictLogPath, defaultVerdictLog),
	)
}

func (c *ChartConfig) applyDefaults(keys keySet) {
	if c == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("chart.output_dir", &c.OutputDir, defaultChartOutputDir),
	)
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	if len(m.Sources) == 0 {
		m.Sources = []MarketSource{{
			Name:        defaultMarketName,
			Enabled:     true,
			RESTBaseURL: defaultMarketREST,
		}}
	}
	for i := range m.Sources {
		src := &m.Sources[i]
		src.Proxy.normalize()
		if strings.TrimSpace(src.Name) == "" {
			if i == 0 {
				src.Name = defaultMarketName
			} else {
				src.Name = fmt.Sprintf("market_%d", i)
			}
		}
		if src.RESTBaseURL == "" {
			src.RESTBaseURL = defaultMarketREST
		}
		if src.TimeoutSeconds <= 0 {
			src.TimeoutSeconds = defaultMarketTimeout
		}
	}
	if strings.TrimSpace(m.ActiveSource) == "" {
		m.ActiveSource = firstEnabledMarket(m.Sources)
	}
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func firstEnabledMarket(sources []MarketSource) string {
	for _, src := range sources {
		name := strings.TrimSpace(src.Name)
		if src.Enabled && name != "" {
			return name
		}
	}
	if len(sources) > 0 {
		if name := strings.TrimSpace(sources[0].Name); name != "" {
			return name
		}
	}
	return defaultMarketName
}
