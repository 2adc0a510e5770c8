package config

import (
	"fmt"
	"strings"
)

// Config 是 Finch 的主配置载体。
type Config struct {
	App      AppConfig      `toml:"app"`
	Market   MarketConfig   `toml:"market"`
	Analysis AnalysisConfig `toml:"analysis"`
	AI       AIConfig       `toml:"ai"`
	Advisor  AdvisorConfig  `toml:"advisor"`
	Notify   NotifyConfig   `toml:"notify"`
	Schedule ScheduleConfig `toml:"schedule"`
	Store    StoreConfig    `toml:"store"`
	Chart    ChartConfig    `toml:"chart"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	HTTPAddr string `toml:"http_addr"`
	LogPath  string `toml:"log_path"`
	LLMLog   string `toml:"llm_log_path"`
	LLMDump  bool   `toml:"llm_dump_payload"`
}

// AnalysisConfig 汇总周线分级与日线量价分析的参数。
type AnalysisConfig struct {
	Weekly WeeklyConfig `toml:"weekly"`
	Daily  DailyConfig  `toml:"daily"`
}

type WeeklyConfig struct {
	Interval    string `toml:"interval"`
	Limit       int    `toml:"limit"`
	ShortWindow int    `toml:"short_window"`
	LongWindow  int    `toml:"long_window"`
}

type DailyConfig struct {
	Interval    string  `toml:"interval"`
	Limit       int     `toml:"limit"`
	Lookback    int     `toml:"lookback"`
	SpikeFactor float64 `toml:"spike_factor"`
	DryFactor   float64 `toml:"dry_factor"`
}

// AdvisorConfig 指向意图权重档案；留空则使用内置权重。
type AdvisorConfig struct {
	WeightsPath string `toml:"weights_path"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `toml:"telegram"`
}

type TelegramConfig struct {
	Enabled   bool   `toml:"enabled"`
	BotToken  string `toml:"bot_token"`
	ChatID    string `toml:"chat_id"`
	SendChart bool   `toml:"send_chart"`
}

// ScheduleConfig 控制定时巡检：按 interval 对 symbols 逐个产出建议。
type ScheduleConfig struct {
	Enabled        bool     `toml:"enabled"`
	Interval       string   `toml:"interval"`
	RunImmediately bool     `toml:"run_immediately"`
	Symbols        []string `toml:"symbols"`
	IntentText     string   `toml:"intent_text"`
}

type StoreConfig struct {
	VerdictLogPath string `toml:"verdict_log_path"`
}

// ChartConfig 控制走势图渲染（chromedp 截图，可整体关闭）。
type ChartConfig struct {
	Enabled   bool   `toml:"enabled"`
	OutputDir string `toml:"output_dir"`
}

// AIConfig 包含模型连接与角色绑定的所有设置。
type AIConfig struct {
	TimeoutSeconds  int                    `toml:"timeout_seconds"`
	ProviderPresets map[string]ModelPreset `toml:"provider_presets"`
	Models          []AIModelConfig        `toml:"models"`
	Roles           RoleBindings           `toml:"roles"`
}

// ModelPreset 描述可复用的 API 连接配置。
type ModelPreset struct {
	APIURL  string            `toml:"api_url"`
	APIKey  string            `toml:"api_key"`
	Headers map[string]string `toml:"headers"`
}

// AIModelConfig 代表一个可被角色引用的模型条目。
type AIModelConfig struct {
	ID       string            `toml:"id"`
	Provider string            `toml:"provider"`
	Preset   string            `toml:"preset"`
	Enabled  bool              `toml:"enabled"`
	APIURL   string            `toml:"api_url"`
	APIKey   string            `toml:"api_key"`
	Model    string            `toml:"model"`
	Headers  map[string]string `toml:"headers"`
}

// RoleBindings 把分析师角色绑定到模型 ID。留空的角色回落到首个启用模型。
type RoleBindings struct {
	Weekly  string `toml:"weekly"`
	Daily   string `toml:"daily"`
	Risk    string `toml:"risk"`
	Manager string `toml:"manager"`
}

// ResolvedModelConfig 是合并预设后的最终模型配置。
type ResolvedModelConfig struct {
	ID       string
	Provider string
	Enabled  bool
	APIURL   string
	APIKey   string
	Model    string
	Headers  map[string]string
}

// ResolveModelConfigs 合并预设并生成缺省 ID，返回全部条目（含未启用的）。
func (a *AIConfig) ResolveModelConfigs() ([]ResolvedModelConfig, error) {
	out := make([]ResolvedModelConfig, 0, len(a.Models))
	seen := make(map[string]bool, len(a.Models))
	for i, m := range a.Models {
		r := ResolvedModelConfig{
			ID:       strings.TrimSpace(m.ID),
			Provider: strings.TrimSpace(m.Provider),
			Enabled:  m.Enabled,
			APIURL:   strings.TrimSpace(m.APIURL),
			APIKey:   strings.TrimSpace(m.APIKey),
			Model:    strings.TrimSpace(m.Model),
			Headers:  map[string]string{},
		}
		if preset := strings.TrimSpace(m.Preset); preset != "" {
			p, ok := a.ProviderPresets[preset]
			if !ok {
				return nil, fmt.Errorf("ai.models[%d] references unknown preset %q", i, preset)
			}
			if r.APIURL == "" {
				r.APIURL = strings.TrimSpace(p.APIURL)
			}
			if r.APIKey == "" {
				r.APIKey = strings.TrimSpace(p.APIKey)
			}
			for k, v := range p.Headers {
				r.Headers[k] = v
			}
		}
		for k, v := range m.Headers {
			r.Headers[k] = v
		}
		if r.ID == "" {
			base := r.Provider
			if base == "" {
				base = "provider"
			}
			if r.Model != "" {
				r.ID = base + ":" + r.Model
			} else {
				r.ID = base
			}
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("ai.models contains duplicate id %q", r.ID)
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out, nil
}

// MustResolveModelConfigs 供已经通过 validate 的配置使用。
func (a *AIConfig) MustResolveModelConfigs() []ResolvedModelConfig {
	models, err := a.ResolveModelConfigs()
	if err != nil {
		panic(err)
	}
	return models
}

type MarketConfig struct {
	ActiveSource string         `toml:"active_source"`
	Sources      []MarketSource `toml:"sources"`
}

type MarketSource struct {
	Name           string      `toml:"name"`
	Enabled        bool        `toml:"enabled"`
	RESTBaseURL    string      `toml:"rest_base_url"`
	TimeoutSeconds int         `toml:"timeout_seconds"`
	Proxy          ProxyConfig `toml:"proxy"`
}

type ProxyConfig struct {
	Enabled bool   `toml:"enabled"`
	RESTURL string `toml:"rest_url"`
}

func (p *ProxyConfig) normalize() {
	if p == nil {
		return
	}
	p.RESTURL = strings.TrimSpace(p.RESTURL)
}

func (m MarketConfig) ResolveActiveSource() MarketSource {
	if len(m.Sources) == 0 {
		return MarketSource{
			Name:        defaultMarketName,
			Enabled:     true,
			RESTBaseURL: defaultMarketREST,
		}
	}
	active := strings.ToLower(strings.TrimSpace(m.ActiveSource))
	var fallback MarketSource
	for _, src := range m.Sources {
		if fallback.Name == "" {
			fallback = src
		}
		if !src.Enabled {
			continue
		}
		if active == "" || strings.ToLower(src.Name) == active {
			return src
		}
	}
	return fallback
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
