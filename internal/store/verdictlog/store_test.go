package verdictlog

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finch/internal/advisor"
	"finch/internal/analysis/regime"
	"finch/internal/intent"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "verdicts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecord(trace, symbol string) Record {
	return Record{
		TraceID: trace,
		Symbol:  symbol,
		Intent:  intent.GeneralAdvice,
		Regime:  regime.Bull,
		Pattern: "high-volume rally",
		Verdict: advisor.Verdict{
			Decision: advisor.Buy,
			Summary:  "週線多頭；放量上攻",
			Risk:     []string{"槓桿過熱"},
		},
		Opinions: []advisor.Opinion{
			{Role: advisor.RoleWeekly, OK: true, Decision: "buy", Summary: "週線多頭"},
		},
		Breakdown: advisor.VoteBreakdown{
			Tallies: []advisor.VoteTally{{Decision: advisor.Buy, Weight: 2, Roles: []advisor.Role{advisor.RoleWeekly}}},
			Valid:   1,
		},
	}
}

func TestInsertAndGetByTraceID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, sampleRecord("t-1", "btcusdt"))
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	rec, err := s.GetByTraceID(ctx, "t-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "BTCUSDT", rec.Symbol)
	assert.Equal(t, advisor.Buy, rec.Verdict.Decision)
	assert.Equal(t, []string{"槓桿過熱"}, rec.Verdict.Risk)
	require.Len(t, rec.Opinions, 1)
	assert.Equal(t, advisor.RoleWeekly, rec.Opinions[0].Role)
	assert.Equal(t, 1, rec.Breakdown.Valid)
}

func TestOpenAppliesWALAndBusyTimeout(t *testing.T) {
	s := newTestStore(t)

	var mode string
	require.NoError(t, s.db.Raw("PRAGMA journal_mode").Scan(&mode).Error)
	assert.Equal(t, "wal", strings.ToLower(mode))

	var busy int
	require.NoError(t, s.db.Raw("PRAGMA busy_timeout").Scan(&busy).Error)
	assert.Equal(t, 5000, busy)
}

func TestGetByTraceIDMissing(t *testing.T) {
	s := newTestStore(t)
	rec, err := s.GetByTraceID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestInsertRejectsEmptyTraceID(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Insert(context.Background(), Record{Symbol: "BTCUSDT"})
	assert.Error(t, err)
}

func TestInsertRejectsDuplicateTraceID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.Insert(ctx, sampleRecord("dup", "BTCUSDT"))
	require.NoError(t, err)
	_, err = s.Insert(ctx, sampleRecord("dup", "ETHUSDT"))
	assert.Error(t, err)
}

func TestListFiltersBySymbol(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.Insert(ctx, sampleRecord("t-1", "BTCUSDT"))
	require.NoError(t, err)
	_, err = s.Insert(ctx, sampleRecord("t-2", "ETHUSDT"))
	require.NoError(t, err)

	recs, err := s.List(ctx, Query{Symbol: "ethusdt"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "t-2", recs[0].TraceID)

	all, err := s.List(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListHonorsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, trace := range []string{"a", "b", "c"} {
		_, err := s.Insert(ctx, sampleRecord(trace, "BTCUSDT"))
		require.NoError(t, err)
	}
	recs, err := s.List(ctx, Query{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}
