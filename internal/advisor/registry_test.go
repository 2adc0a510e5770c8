package advisor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finch/internal/intent"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weights.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestWeightRegistryDefaultsWithoutPath(t *testing.T) {
	r, err := NewWeightRegistry("")
	require.NoError(t, err)
	assert.Equal(t, DefaultWeights(), r.Table())
}

func TestWeightRegistryOverridesIntent(t *testing.T) {
	path := writeProfile(t, `
intent_weights:
  take_profit:
    weekly: 1.0
    daily: 0.8
    risk: 1.5
`)
	r, err := NewWeightRegistry(path)
	require.NoError(t, err)

	table := r.Table()
	w, err := table.ForIntent(intent.TakeProfit)
	require.NoError(t, err)
	assert.Equal(t, 1.5, w.Risk)
	// 未覆盖的意图保持默认。
	w, err = table.ForIntent(intent.GeneralAdvice)
	require.NoError(t, err)
	assert.Equal(t, RoleWeights{Weekly: 1, Daily: 1, Risk: 1}, w)
}

func TestWeightRegistryRejectsBadProfile(t *testing.T) {
	path := writeProfile(t, `
intent_weights:
  general_advice:
    weekly: 3.0
    daily: 1.0
    risk: 1.0
`)
	_, err := NewWeightRegistry(path)
	assert.Error(t, err)

	path = writeProfile(t, `
intent_weights:
  moon_mode:
    weekly: 1.0
    daily: 1.0
    risk: 1.0
`)
	_, err = NewWeightRegistry(path)
	assert.Error(t, err)
}

func TestWeightRegistryMissingFile(t *testing.T) {
	_, err := NewWeightRegistry(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
