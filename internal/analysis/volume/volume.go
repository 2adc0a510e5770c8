package volume

import (
	"finch/internal/market"
)

// 中文说明：
// 日线量价结构分析：最新收盘相对前一日的方向 × 最新量相对近 N 日均量的量能状态。
// 序列长度不足时返回 insufficient_data，调用方按"无日线信号"处理。

type Status string

const (
	StatusOK           Status = "ok"
	StatusInsufficient Status = "insufficient_data"
)

type PriceDir string

const (
	DirUp   PriceDir = "up"
	DirDown PriceDir = "down"
	DirFlat PriceDir = "flat"
)

type VolState string

const (
	VolHigh    VolState = "high"
	VolLow     VolState = "low"
	VolNormal  VolState = "normal"
	VolUnknown VolState = "unknown"
)

// Settings 描述量价分析参数。
type Settings struct {
	Lookback    int
	SpikeFactor float64
	DryFactor   float64
}

func (s Settings) withDefaults() Settings {
	if s.Lookback <= 0 {
		s.Lookback = 20
	}
	if s.SpikeFactor <= 0 {
		s.SpikeFactor = 1.5
	}
	if s.DryFactor <= 0 {
		s.DryFactor = 0.7
	}
	return s
}

// Pattern 是一次日线量价分析的完整输出。
type Pattern struct {
	Status    Status   `json:"status"`
	PriceDir  PriceDir `json:"price_dir,omitempty"`
	VolState  VolState `json:"vol_state,omitempty"`
	Label     string   `json:"pattern,omitempty"`
	CloseLast float64  `json:"close_last,omitempty"`
	ClosePrev float64  `json:"close_prev,omitempty"`
	VolLast   float64  `json:"vol_last,omitempty"`
	AvgVol    float64  `json:"avg_vol,omitempty"`
	VolRatio  float64  `json:"vol_ratio,omitempty"`
}

// NoSignal 报告该结果是否应被当作缺失的日线信号。
func (p Pattern) NoSignal() bool {
	return p.Status != StatusOK
}

// Analyze 对按 close_time 升序排列的日线序列做量价分析。
func Analyze(candles market.Candles, cfg Settings) Pattern {
	cfg = cfg.withDefaults()
	if len(candles) < cfg.Lookback+2 {
		return Pattern{Status: StatusInsufficient}
	}

	last := candles[len(candles)-1]
	prev := candles[len(candles)-2]

	out := Pattern{
		Status:    StatusOK,
		CloseLast: last.Close,
		ClosePrev: prev.Close,
		VolLast:   last.Volume,
	}

	switch {
	case last.Close > prev.Close:
		out.PriceDir = DirUp
	case last.Close < prev.Close:
		out.PriceDir = DirDown
	default:
		out.PriceDir = DirFlat
	}

	// 均量窗口取最新一根之前的 lookback 根。
	hist := candles[len(candles)-cfg.Lookback-1 : len(candles)-1]
	sum := 0.0
	for _, c := range hist {
		sum += c.Volume
	}
	out.AvgVol = sum / float64(len(hist))

	if out.AvgVol > 0 {
		out.VolRatio = last.Volume / out.AvgVol
		switch {
		case out.VolRatio >= cfg.SpikeFactor:
			out.VolState = VolHigh
		case out.VolRatio <= cfg.DryFactor:
			out.VolState = VolLow
		default:
			out.VolState = VolNormal
		}
	} else {
		out.VolState = VolUnknown
	}

	out.Label = patternLabel(out.PriceDir, out.VolState)
	return out
}

func patternLabel(dir PriceDir, vol VolState) string {
	switch {
	case dir == DirUp && vol == VolHigh:
		return "high-volume rally"
	case dir == DirUp && vol == VolLow:
		return "low-volume drift-up"
	case dir == DirDown && vol == VolHigh:
		return "high-volume selloff"
	case dir == DirDown && vol == VolLow:
		return "low-volume drift-down"
	case dir == DirFlat && vol == VolHigh:
		return "high-volume consolidation"
	case dir == DirFlat && vol == VolLow:
		return "low-volume consolidation"
	default:
		return "ordinary price/volume action"
	}
}
