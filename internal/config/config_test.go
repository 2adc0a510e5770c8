package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalYAML = `
ai:
  models:
    - provider: deepseek
      model: deepseek-chat
      api_url: https://api.deepseek.com/v1
      api_key: sk-test
      enabled: true
`

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", minimalYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "1w", cfg.Analysis.Weekly.Interval)
	assert.Equal(t, 50, cfg.Analysis.Weekly.ShortWindow)
	assert.Equal(t, 100, cfg.Analysis.Weekly.LongWindow)
	assert.Equal(t, 20, cfg.Analysis.Daily.Lookback)
	assert.InDelta(t, 1.5, cfg.Analysis.Daily.SpikeFactor, 1e-9)
	assert.InDelta(t, 0.7, cfg.Analysis.Daily.DryFactor, 1e-9)
	assert.Equal(t, 60, cfg.AI.TimeoutSeconds)

	src := cfg.Market.ResolveActiveSource()
	assert.Equal(t, "binance", src.Name)
	assert.Equal(t, "https://api.binance.com", src.RESTBaseURL)
}

func TestLoadResolvesPresets(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
ai:
  provider_presets:
    ds:
      api_url: https://api.deepseek.com/v1
      api_key: sk-preset
  models:
    - provider: deepseek
      preset: ds
      model: deepseek-chat
      enabled: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	models := cfg.AI.MustResolveModelConfigs()
	require.Len(t, models, 1)
	assert.Equal(t, "deepseek:deepseek-chat", models[0].ID)
	assert.Equal(t, "https://api.deepseek.com/v1", models[0].APIURL)
	assert.Equal(t, "sk-preset", models[0].APIKey)
}

func TestLoadRejectsUnknownPreset(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
ai:
  models:
    - provider: deepseek
      preset: nope
      model: deepseek-chat
      enabled: true
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown preset")
}

func TestLoadRejectsRoleBoundToUnknownModel(t *testing.T) {
	path := writeConfig(t, "config.yaml", minimalYAML+`
  roles:
    weekly: missing-model
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "ai.roles.weekly")
}

func TestLoadRejectsBadAnalysisWindows(t *testing.T) {
	path := writeConfig(t, "config.yaml", minimalYAML+`
analysis:
  weekly:
    short_window: 120
    long_window: 100
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "short_window")
}

func TestLoadMergesIncludes(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.yaml")
	main := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(base, []byte(minimalYAML), 0o644))
	require.NoError(t, os.WriteFile(main, []byte(`
include:
  - base.yaml
app:
  log_level: debug
`), 0o644))

	cfg, err := Load(main)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Len(t, cfg.AI.Models, 1)
}

func TestLoadRejectsIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	require.NoError(t, os.WriteFile(a, []byte("include: [b.yaml]\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("include: [a.yaml]\n"), 0o644))

	_, err := Load(a)
	assert.ErrorContains(t, err, "include cycle")
}

func TestScheduleValidation(t *testing.T) {
	path := writeConfig(t, "config.yaml", minimalYAML+`
schedule:
  enabled: true
  interval: 4x
  symbols: [btcusdt]
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "schedule.interval")
}

func TestScheduleNormalizesSymbols(t *testing.T) {
	path := writeConfig(t, "config.yaml", minimalYAML+`
schedule:
  enabled: true
  interval: 1d
  symbols: [btcusdt, " ethusdt ", BTCUSDT]
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Schedule.Symbols)
}

func TestIsValidInterval(t *testing.T) {
	assert.True(t, IsValidInterval("15m"))
	assert.True(t, IsValidInterval("1w"))
	assert.False(t, IsValidInterval(""))
	assert.False(t, IsValidInterval("1M"))
	assert.False(t, IsValidInterval("x1"))
}
