package market

import "time"

type Candle struct {
	OpenTime  int64   `json:"open_time"`
	CloseTime int64   `json:"close_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	Trades    int64   `json:"trades"`
}

func (c Candle) CloseDate() string {
	if c.CloseTime <= 0 {
		return "-"
	}
	return time.UnixMilli(c.CloseTime).UTC().Format("2006-01-02")
}

// Candles 是按 close_time 升序排列的 K 线序列。
type Candles []Candle

// Closes 抽取收盘价序列，供指标计算使用。
func (cs Candles) Closes() []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Close
	}
	return out
}

// Volumes 抽取成交量序列。
func (cs Candles) Volumes() []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Volume
	}
	return out
}

// Tail 返回最近 n 根 K 线（不复制底层数组）。
func (cs Candles) Tail(n int) Candles {
	if n <= 0 || len(cs) == 0 {
		return nil
	}
	if n >= len(cs) {
		return cs
	}
	return cs[len(cs)-n:]
}

// Sorted 报告序列是否按 close_time 严格升序。重复 close_time 视为无序。
func (cs Candles) Sorted() bool {
	for i := 1; i < len(cs); i++ {
		if cs[i].CloseTime <= cs[i-1].CloseTime {
			return false
		}
	}
	return true
}
