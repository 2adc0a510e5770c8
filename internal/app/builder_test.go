package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finch/internal/advisor"
	fincfg "finch/internal/config"
)

func testAIConfig() fincfg.AIConfig {
	return fincfg.AIConfig{
		TimeoutSeconds: 30,
		Models: []fincfg.AIModelConfig{
			{ID: "fast", Provider: "openai", APIURL: "https://api.example.com/v1", APIKey: "k1", Model: "gpt-4o-mini", Enabled: true},
			{ID: "deep", Provider: "openai", APIURL: "https://api.example.com/v1", APIKey: "k2", Model: "gpt-4o", Enabled: true},
		},
		Roles: fincfg.RoleBindings{Risk: "deep", Manager: "deep"},
	}
}

func TestBuildRoleProvidersBindings(t *testing.T) {
	analysts, manager, err := buildRoleProviders(testAIConfig())
	require.NoError(t, err)

	// 未显式绑定的角色回落到首个启用模型
	assert.Equal(t, "fast", analysts[advisor.RoleWeekly].ID())
	assert.Equal(t, "fast", analysts[advisor.RoleDaily].ID())
	assert.Equal(t, "deep", analysts[advisor.RoleRisk].ID())
	assert.Equal(t, "deep", manager.ID())
}

func TestBuildRoleProvidersNoEnabledModels(t *testing.T) {
	cfg := testAIConfig()
	for i := range cfg.Models {
		cfg.Models[i].Enabled = false
	}
	_, _, err := buildRoleProviders(cfg)
	assert.Error(t, err)
}

func TestBuildRoleProvidersUnknownBinding(t *testing.T) {
	cfg := testAIConfig()
	cfg.Roles.Weekly = "no-such-model"
	_, _, err := buildRoleProviders(cfg)
	assert.Error(t, err)
}

func TestBuildMarketSourceUnsupported(t *testing.T) {
	_, err := buildMarketSource(fincfg.MarketSource{Name: "kraken"})
	assert.Error(t, err)
}

func TestBuildMarketSourceGate(t *testing.T) {
	src, err := buildMarketSource(fincfg.MarketSource{Name: "gate", TimeoutSeconds: 5})
	require.NoError(t, err)
	assert.NoError(t, src.Close())
}
