package gate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/antihax/optional"
	gateapi "github.com/gateio/gateapi-go/v7"

	"finch/internal/market"
	symbolpkg "finch/internal/pkg/symbol"
	"finch/internal/scheduler"
)

const (
	gateMaxHistoryLimit = 1000
	defaultGateREST     = "https://api.gateio.ws/api/v4"
)

// Source 基于 Gate.io 现货公共接口实现 market.Source，
// 作为 Binance 被墙时的候补行情源。拉取公开 K 线不需要 API key。
type Source struct {
	cfg  Config
	rest *gateapi.APIClient
}

func New(cfg Config) (*Source, error) {
	final := cfg.withDefaults()
	rest, err := newRESTClient(final)
	if err != nil {
		return nil, err
	}
	return &Source{cfg: final, rest: rest}, nil
}

func newRESTClient(cfg Config) (*gateapi.APIClient, error) {
	conf := gateapi.NewConfiguration()
	conf.BasePath = cfg.RESTBaseURL

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	if cfg.ProxyEnabled && cfg.RESTProxyURL != "" {
		proxyURL, err := url.Parse(cfg.RESTProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid gate REST proxy url: %w", err)
		}
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok || baseTransport == nil {
			return nil, fmt.Errorf("http DefaultTransport is not *http.Transport")
		}
		transport := baseTransport.Clone()
		transport.Proxy = http.ProxyURL(proxyURL)
		httpClient.Transport = transport
	}
	conf.HTTPClient = httpClient
	return gateapi.NewAPIClient(conf), nil
}

// FetchHistory 拉取最近 limit 根现货 K 线并去掉未收盘的最后一根。
// Gate 的周线粒度写作 "7d"，调用方仍传 "1w"。
func (s *Source) FetchHistory(ctx context.Context, symbol, interval string, limit int) (market.Candles, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > gateMaxHistoryLimit {
		limit = gateMaxHistoryLimit
	}
	pair := toGatePair(symbol)
	if pair == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return nil, fmt.Errorf("interval is required")
	}

	kls, _, err := s.rest.SpotApi.ListCandlesticks(ctx, pair, &gateapi.ListCandlesticksOpts{
		Limit:    optional.NewInt32(int32(limit)),
		Interval: optional.NewString(toGateInterval(interval)),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s klines failed: %w", symbol, interval, err)
	}

	out := parseSpotCandles(kls, interval)
	if dur, ok := scheduler.ParseIntervalDuration(interval); ok {
		out = scheduler.DropUnclosedKline(out, dur)
	}
	return out, nil
}

// parseSpotCandles 解析现货 K 线数组：
// [时间戳(秒), 计价币成交额, 收, 高, 低, 开, 基础币成交量, 是否收盘]
func parseSpotCandles(kls [][]string, interval string) market.Candles {
	dur, hasDur := scheduler.ParseIntervalDuration(interval)
	out := make(market.Candles, 0, len(kls))
	for _, kl := range kls {
		if len(kl) < 7 {
			continue
		}
		openSec, err := strconv.ParseInt(strings.TrimSpace(kl[0]), 10, 64)
		if err != nil {
			continue
		}
		openTime := openSec * 1000
		closeTime := openTime
		if hasDur {
			closeTime = openTime + dur.Milliseconds()
		}
		out = append(out, market.Candle{
			OpenTime:  openTime,
			CloseTime: closeTime,
			Open:      parseFloat(kl[5]),
			High:      parseFloat(kl[3]),
			Low:       parseFloat(kl[4]),
			Close:     parseFloat(kl[2]),
			Volume:    parseFloat(kl[6]),
		})
	}
	return out
}

func (s *Source) Close() error { return nil }

// toGatePair 把 "BTCUSDT" / "BTC/USDT" 转成 Gate 的 "BTC_USDT"。
func toGatePair(symbol string) string {
	sym := symbolpkg.Parse(symbol)
	if sym.Base == "" || sym.Quote == "" {
		return ""
	}
	return sym.Base + "_" + sym.Quote
}

func toGateInterval(interval string) string {
	if interval == "1w" {
		return "7d"
	}
	return interval
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}
