package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.AI.validate(); err != nil {
		return err
	}
	if err := c.Analysis.validate(); err != nil {
		return err
	}
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	if err := c.Schedule.validate(); err != nil {
		return err
	}
	return nil
}

func (a *AIConfig) validate() error {
	models, err := a.ResolveModelConfigs()
	if err != nil {
		return err
	}
	enabled := make(map[string]struct{})
	for _, m := range models {
		if strings.TrimSpace(m.Model) == "" {
			return fmt.Errorf("ai.models contains entry without model (id=%s)", m.ID)
		}
		if strings.TrimSpace(m.APIURL) == "" {
			return fmt.Errorf("ai.models.%s missing api_url (can inherit from preset)", m.ID)
		}
		if strings.TrimSpace(m.Provider) == "" {
			return fmt.Errorf("ai.models.%s missing provider", m.ID)
		}
		if m.Enabled {
			enabled[m.ID] = struct{}{}
		}
	}
	if len(enabled) == 0 {
		return fmt.Errorf("ai.models requires at least one enabled model")
	}
	for role, id := range map[string]string{
		"ai.roles.weekly":  a.Roles.Weekly,
		"ai.roles.daily":   a.Roles.Daily,
		"ai.roles.risk":    a.Roles.Risk,
		"ai.roles.manager": a.Roles.Manager,
	} {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := enabled[id]; !ok {
			return fmt.Errorf("%s references disabled or unknown model id: %s", role, id)
		}
	}
	return nil
}

func (a *AnalysisConfig) validate() error {
	if !IsValidInterval(a.Weekly.Interval) {
		return fmt.Errorf("analysis.weekly.interval invalid: %s", a.Weekly.Interval)
	}
	if !IsValidInterval(a.Daily.Interval) {
		return fmt.Errorf("analysis.daily.interval invalid: %s", a.Daily.Interval)
	}
	if a.Weekly.ShortWindow >= a.Weekly.LongWindow {
		return fmt.Errorf("analysis.weekly.short_window must be < long_window")
	}
	if a.Weekly.Limit < a.Weekly.LongWindow+5 {
		return fmt.Errorf("analysis.weekly.limit must be >= long_window+5")
	}
	if a.Daily.Limit < a.Daily.Lookback+2 {
		return fmt.Errorf("analysis.daily.limit must be >= lookback+2")
	}
	if a.Daily.DryFactor >= a.Daily.SpikeFactor {
		return fmt.Errorf("analysis.daily.dry_factor must be < spike_factor")
	}
	return nil
}

func (m *MarketConfig) validate() error {
	if len(m.Sources) == 0 {
		return fmt.Errorf("market.sources requires at least one source")
	}
	activeName := strings.ToLower(strings.TrimSpace(m.ActiveSource))
	enabled := 0
	activeFound := false
	for _, src := range m.Sources {
		if !src.Enabled {
			continue
		}
		enabled++
		if strings.TrimSpace(src.RESTBaseURL) == "" {
			return fmt.Errorf("market source %s missing rest_base_url", src.Name)
		}
		if src.Proxy.Enabled && src.Proxy.RESTURL == "" {
			return fmt.Errorf("market source %s has proxy enabled but no rest_url", src.Name)
		}
		name := strings.ToLower(strings.TrimSpace(src.Name))
		if activeName == "" || name == activeName {
			activeFound = true
		}
	}
	if enabled == 0 {
		return fmt.Errorf("market.sources requires at least one enabled source")
	}
	if !activeFound {
		return fmt.Errorf("enabled market.active_source=%s not found", m.ActiveSource)
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if n.Telegram.Enabled {
		if n.Telegram.BotToken == "" || n.Telegram.ChatID == "" {
			return fmt.Errorf("telegram notification enabled but missing bot_token or chat_id")
		}
	}
	return nil
}

func (s *ScheduleConfig) validate() error {
	if !s.Enabled {
		return nil
	}
	if !IsValidInterval(s.Interval) {
		return fmt.Errorf("schedule.interval invalid: %s", s.Interval)
	}
	if len(s.Symbols) == 0 {
		return fmt.Errorf("schedule.symbols requires at least one symbol when enabled")
	}
	return nil
}

// IsValidInterval 简易校验：以数字开头，以 m/h/d/w 结尾
func IsValidInterval(s string) bool {
	if s == "" {
		return false
	}
	suf := s[len(s)-1]
	if suf != 'm' && suf != 'h' && suf != 'd' && suf != 'w' {
		return false
	}
	for i := 0; i < len(s)-1; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
