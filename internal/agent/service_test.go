package agent

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finch/internal/advisor"
	"finch/internal/analysis/regime"
	"finch/internal/analysis/volume"
	"finch/internal/gateway/provider"
	"finch/internal/intent"
	"finch/internal/market"
)

type stubSource struct {
	weekly market.Candles
	daily  market.Candles
	err    error
}

func (s *stubSource) FetchHistory(_ context.Context, _ string, interval string, _ int) (market.Candles, error) {
	if s.err != nil {
		return nil, s.err
	}
	if interval == "1w" {
		return s.weekly, nil
	}
	return s.daily, nil
}

func (s *stubSource) Close() error { return nil }

type stubProvider struct {
	id    string
	reply string
	err   error
	calls atomic.Int64
}

func (p *stubProvider) ID() string    { return p.id }
func (p *stubProvider) Enabled() bool { return true }

func (p *stubProvider) Call(_ context.Context, _, _ string) (string, error) {
	p.calls.Add(1)
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func seriesFromCloses(closes []float64, vol float64) market.Candles {
	out := make(market.Candles, 0, len(closes))
	for i, c := range closes {
		open := int64(i) * 86400000
		out = append(out, market.Candle{
			OpenTime:  open,
			CloseTime: open + 86400000 - 1,
			Open:      c,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    vol,
		})
	}
	return out
}

func bullWeekly() market.Candles {
	closes := make([]float64, 110)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	return seriesFromCloses(closes, 1000)
}

func quietDaily() market.Candles {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	return seriesFromCloses(closes, 1000)
}

func opinionJSON(decision, summary, note string) string {
	return fmt.Sprintf(`{"ok": true, "decision": %q, "summary": %q, "confidence": "high", "notes": [%q]}`, decision, summary, note)
}

type fixture struct {
	source  *stubSource
	weekly  *stubProvider
	daily   *stubProvider
	risk    *stubProvider
	manager *stubProvider
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		source:  &stubSource{weekly: bullWeekly(), daily: quietDaily()},
		weekly:  &stubProvider{id: "m-weekly", reply: opinionJSON("buy", "週線多頭", "留意回撤")},
		daily:   &stubProvider{id: "m-daily", reply: opinionJSON("buy", "放量上攻", "量能偏熱")},
		risk:    &stubProvider{id: "m-risk", reply: opinionJSON("sell", "風險偏高", "建議減倉")},
		manager: &stubProvider{id: "m-manager", reply: "經理人總結：維持買入，注意風險。"},
	}
	weights, err := advisor.NewWeightRegistry("")
	require.NoError(t, err)
	analysts := map[advisor.Role]provider.ModelProvider{
		advisor.RoleWeekly: f.weekly,
		advisor.RoleDaily:  f.daily,
		advisor.RoleRisk:   f.risk,
	}
	svc, err := New(f.source, analysts, f.manager, weights, nil, nil, Options{})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestAdviseMajorityBuy(t *testing.T) {
	f := newFixture(t)
	report, err := f.svc.Advise(context.Background(), Request{Symbol: "btcusdt", UserText: "現在該怎麼看？"})
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", report.Symbol)
	assert.Equal(t, intent.GeneralAdvice, report.Intent)
	assert.Equal(t, regime.Bull, report.Regime.Regime)
	assert.Equal(t, advisor.Buy, report.Verdict.Decision)
	assert.Equal(t, "經理人總結：維持買入，注意風險。", report.Verdict.Summary)
	assert.Equal(t, 3, report.Breakdown.Valid)
	assert.False(t, report.Breakdown.Fallback)
	require.Len(t, report.Opinions, 3)
	assert.Equal(t, advisor.RoleWeekly, report.Opinions[0].Role)
	assert.Equal(t, int64(1), f.manager.calls.Load())
}

func TestAdviseIntentShiftsVerdict(t *testing.T) {
	f := newFixture(t)
	f.daily.reply = opinionJSON("hold", "量能平淡", "觀望")

	// risk_averse 權重 0.5/1/1.5：sell 1.5 勝過 buy 0.5 與 hold 1。
	report, err := f.svc.Advise(context.Background(), Request{Symbol: "BTCUSDT", UserText: "怕跌，想保守一點"})
	require.NoError(t, err)

	assert.Equal(t, intent.RiskAverse, report.Intent)
	assert.Equal(t, advisor.Sell, report.Verdict.Decision)
}

func TestAdviseAllAnalystsFailFallsBack(t *testing.T) {
	f := newFixture(t)
	fail := fmt.Errorf("upstream down")
	f.weekly.err = fail
	f.daily.err = fail
	f.risk.err = fail

	report, err := f.svc.Advise(context.Background(), Request{Symbol: "BTCUSDT"})
	require.NoError(t, err)

	assert.True(t, report.Breakdown.Fallback)
	assert.Equal(t, advisor.Hold, report.Verdict.Decision)
	assert.Equal(t, "市場資訊不足或模型解析失敗，請再試一次。", report.Verdict.Summary)
	assert.Equal(t, []string{"無有效分析師輸出"}, report.Verdict.Risk)
	// 降级路径不应打扰经理人。
	assert.Equal(t, int64(0), f.manager.calls.Load())
}

func TestAdviseManagerFailureKeepsPreliminarySummary(t *testing.T) {
	f := newFixture(t)
	f.manager.err = fmt.Errorf("manager down")

	report, err := f.svc.Advise(context.Background(), Request{Symbol: "BTCUSDT"})
	require.NoError(t, err)

	assert.Equal(t, advisor.Buy, report.Verdict.Decision)
	assert.Equal(t, "週線多頭；放量上攻；風險偏高", report.Verdict.Summary)
}

func TestAdviseShortSeriesStillProducesVerdict(t *testing.T) {
	f := newFixture(t)
	short := seriesFromCloses([]float64{100, 101, 99, 102, 98, 103, 97, 104, 96, 105}, 1000)
	f.source.weekly = short
	f.source.daily = short

	report, err := f.svc.Advise(context.Background(), Request{Symbol: "BTCUSDT"})
	require.NoError(t, err)

	// 行情不够长只降级特征，不中断流程：三位分析师照常被问到。
	assert.Equal(t, regime.Unknown, report.Regime.Regime)
	assert.Equal(t, volume.StatusInsufficient, report.Volume.Status)
	assert.Equal(t, int64(1), f.weekly.calls.Load())
	assert.Equal(t, int64(1), f.daily.calls.Load())
	assert.Equal(t, int64(1), f.risk.calls.Load())

	assert.Equal(t, advisor.Buy, report.Verdict.Decision)
	assert.NotEmpty(t, report.Verdict.Summary)
	assert.Equal(t, 3, report.Breakdown.Valid)
	assert.False(t, report.Breakdown.Fallback)
	require.Len(t, report.Opinions, 3)
}

func TestAdviseFetchErrorPropagates(t *testing.T) {
	f := newFixture(t)
	f.source.err = fmt.Errorf("rate limited")

	_, err := f.svc.Advise(context.Background(), Request{Symbol: "BTCUSDT"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "行情数据获取失败")
}

func TestAdviseRejectsEmptySymbol(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Advise(context.Background(), Request{Symbol: "   "})
	assert.Error(t, err)
}

func TestAdviseUnconfiguredAnalystDegrades(t *testing.T) {
	f := newFixture(t)
	f.svc.analysts[advisor.RoleRisk] = nil

	report, err := f.svc.Advise(context.Background(), Request{Symbol: "BTCUSDT"})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Breakdown.Valid)
	assert.Equal(t, advisor.Buy, report.Verdict.Decision)
	require.Len(t, report.Opinions, 3)
	assert.False(t, report.Opinions[2].OK)
}
