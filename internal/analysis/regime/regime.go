package regime

import (
	"math"

	"github.com/markcheno/go-talib"

	"finch/internal/market"
)

// 中文说明：
// 周线趋势分级：基于收盘价与短/长周期 SMA 的相对位置判定 bull/bear/warning/neutral。
// 数据不足或均线未形成时返回 unknown，调用方按"无周线信号"处理。

type Label string

const (
	Bull    Label = "bull"
	Bear    Label = "bear"
	Warning Label = "warning"
	Neutral Label = "neutral"
	Unknown Label = "unknown"
)

// Settings 描述周线分级所需的均线窗口。
type Settings struct {
	ShortWindow int
	LongWindow  int
}

func (s Settings) withDefaults() Settings {
	if s.ShortWindow <= 0 {
		s.ShortWindow = 50
	}
	if s.LongWindow <= 0 {
		s.LongWindow = 100
	}
	return s
}

// minRows 返回可出分级结论的最小序列长度。
func (s Settings) minRows() int {
	return s.LongWindow + 5
}

// Feature 是分级结果加最新一行的数值，供下游 prompt 构造使用。
type Feature struct {
	Regime   Label   `json:"regime"`
	Close    float64 `json:"close,omitempty"`
	SMAShort float64 `json:"sma_short,omitempty"`
	SMALong  float64 `json:"sma_long,omitempty"`
}

// Classify 对按 close_time 升序排列的周线序列分级。
// 序列未排序属于调用方违约，不在此处检查。
func Classify(candles market.Candles, cfg Settings) Feature {
	cfg = cfg.withDefaults()
	if len(candles) < cfg.minRows() {
		return Feature{Regime: Unknown}
	}

	closes := candles.Closes()
	smaShort := talib.Sma(closes, cfg.ShortWindow)
	smaLong := talib.Sma(closes, cfg.LongWindow)

	last := len(closes) - 1
	prev := last - 1
	if !defined(smaShort, last, cfg.ShortWindow) || !defined(smaLong, last, cfg.LongWindow) {
		return Feature{Regime: Unknown}
	}

	feat := Feature{
		Close:    closes[last],
		SMAShort: smaShort[last],
		SMALong:  smaLong[last],
	}

	switch {
	case belowShort(closes, smaShort, last, 2) &&
		closes[last] < smaShort[last]*0.98 &&
		closes[last] < smaLong[last]:
		feat.Regime = Bear

	case aboveShort(closes, smaShort, last, 3) &&
		closes[last] > smaShort[last]*1.02 &&
		smaShort[last] > smaLong[last]:
		feat.Regime = Bull

	default:
		justBrokeDown := closes[last] < smaShort[last] && closes[prev] >= smaShort[prev]
		aroundSMA := smaShort[last] > 0 &&
			math.Abs(closes[last]-smaShort[last])/smaShort[last] < 0.01
		if justBrokeDown || aroundSMA {
			feat.Regime = Warning
		} else {
			feat.Regime = Neutral
		}
	}
	return feat
}

// defined 判断 talib 滚动均线在 idx 处是否已形成（前导填充为 0）。
func defined(series []float64, idx, window int) bool {
	return idx >= window-1 && idx < len(series) && !math.IsNaN(series[idx])
}

func belowShort(closes, sma []float64, last, n int) bool {
	for i := last - n + 1; i <= last; i++ {
		if closes[i] >= sma[i] {
			return false
		}
	}
	return true
}

func aboveShort(closes, sma []float64, last, n int) bool {
	for i := last - n + 1; i <= last; i++ {
		if closes[i] <= sma[i] {
			return false
		}
	}
	return true
}
