package scheduler

import (
	"time"

	"finch/internal/market"
)

const defaultKlineGrace = 10 * time.Second

// DropUnclosedKline 去掉序列末尾仍在进行中的 K 线。
// Binance 风格：最后一根可能是当前未收盘的 candle，分级逻辑只吃已收盘数据。
func DropUnclosedKline(klines market.Candles, interval time.Duration) market.Candles {
	return dropUnclosedKlineAt(klines, interval, time.Now().UTC(), defaultKlineGrace)
}

func dropUnclosedKlineAt(klines market.Candles, interval time.Duration, now time.Time, grace time.Duration) market.Candles {
	if len(klines) == 0 || interval <= 0 {
		return klines
	}
	if grace < 0 {
		grace = 0
	}
	last := klines[len(klines)-1]
	if last.OpenTime <= 0 {
		return klines
	}
	closeAtMs := last.OpenTime + interval.Milliseconds()
	if now.UnixMilli() < closeAtMs+grace.Milliseconds() {
		return klines[:len(klines)-1]
	}
	return klines
}
