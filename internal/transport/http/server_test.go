package advisehttp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"finch/internal/advisor"
	"finch/internal/agent"
	"finch/internal/render"
	"finch/internal/store/verdictlog"
)

type stubAdvisor struct {
	report render.Report
	err    error
	gotReq agent.Request
}

func (s *stubAdvisor) Advise(_ context.Context, req agent.Request) (render.Report, error) {
	s.gotReq = req
	if s.err != nil {
		return render.Report{}, s.err
	}
	return s.report, nil
}

type stubHistory struct {
	records []verdictlog.Record
}

func (s *stubHistory) List(_ context.Context, q verdictlog.Query) ([]verdictlog.Record, error) {
	out := make([]verdictlog.Record, 0, len(s.records))
	for _, rec := range s.records {
		if q.Symbol != "" && rec.Symbol != strings.ToUpper(q.Symbol) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *stubHistory) GetByTraceID(_ context.Context, traceID string) (*verdictlog.Record, error) {
	for _, rec := range s.records {
		if rec.TraceID == traceID {
			r := rec
			return &r, nil
		}
	}
	return nil, nil
}

func newTestServer(t *testing.T, adv *stubAdvisor, hist HistoryStore) *Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{Advisor: adv, History: hist})
	require.NoError(t, err)
	return srv
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &stubAdvisor{}, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", gjson.Get(w.Body.String(), "status").String())
}

func TestAdviseEndpoint(t *testing.T) {
	adv := &stubAdvisor{report: render.Report{
		TraceID: "t-1",
		Symbol:  "BTCUSDT",
		Verdict: advisor.Verdict{Decision: advisor.Buy, Summary: "週線多頭"},
	}}
	srv := newTestServer(t, adv, nil)

	body := strings.NewReader(`{"symbol": "btcusdt", "user_text": "想抄底"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/advise", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "btcusdt", adv.gotReq.Symbol)
	assert.Equal(t, "想抄底", adv.gotReq.UserText)
	out := w.Body.String()
	assert.Equal(t, "buy", gjson.Get(out, "report.verdict.decision").String())
	assert.Contains(t, gjson.Get(out, "text").String(), "BTCUSDT")
}

func TestAdviseRejectsMissingSymbol(t *testing.T) {
	srv := newTestServer(t, &stubAdvisor{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/advise", strings.NewReader(`{"user_text": "hello"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdvisePropagatesUpstreamFailure(t *testing.T) {
	srv := newTestServer(t, &stubAdvisor{err: fmt.Errorf("行情数据获取失败: rate limited")}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/advise", strings.NewReader(`{"symbol": "BTCUSDT"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestVerdictHistoryEndpoints(t *testing.T) {
	hist := &stubHistory{records: []verdictlog.Record{
		{TraceID: "t-1", Symbol: "BTCUSDT"},
		{TraceID: "t-2", Symbol: "ETHUSDT"},
	}}
	srv := newTestServer(t, &stubAdvisor{}, hist)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/verdicts?symbol=ethusdt", nil))
	require.Equal(t, http.StatusOK, w.Code)
	list := gjson.Get(w.Body.String(), "verdicts")
	require.Equal(t, int64(1), int64(len(list.Array())))
	assert.Equal(t, "t-2", list.Array()[0].Get("trace_id").String())

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/verdicts/t-1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "BTCUSDT", gjson.Get(w.Body.String(), "symbol").String())

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/verdicts/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerdictHistoryHiddenWithoutStore(t *testing.T) {
	srv := newTestServer(t, &stubAdvisor{}, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/verdicts", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerdictsRejectsBadLimit(t *testing.T) {
	srv := newTestServer(t, &stubAdvisor{}, &stubHistory{})
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/verdicts?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
