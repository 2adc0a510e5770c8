package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"finch/internal/market"
)

func TestParseIntervalDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"15m": 15 * time.Minute,
		"1h":  time.Hour,
		"1d":  24 * time.Hour,
		"1w":  7 * 24 * time.Hour,
	}
	for in, want := range cases {
		got, ok := ParseIntervalDuration(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "d", "0d", "-1h", "10x", "1M"} {
		_, ok := ParseIntervalDuration(in)
		assert.False(t, ok, in)
	}
}

func TestDropUnclosedKline(t *testing.T) {
	day := 24 * time.Hour
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	klines := market.Candles{
		{OpenTime: base.UnixMilli()},
		{OpenTime: base.Add(day).UnixMilli()},
	}

	// 当前时间落在第二根 K 线内：应丢掉最后一根。
	now := base.Add(day + time.Hour)
	out := dropUnclosedKlineAt(klines, day, now, 0)
	assert.Len(t, out, 1)

	// 第二根已收盘：保留。
	now = base.Add(2*day + time.Minute)
	out = dropUnclosedKlineAt(klines, day, now, 0)
	assert.Len(t, out, 2)

	// 宽限期内仍视为未收盘。
	now = base.Add(2 * day).Add(5 * time.Second)
	out = dropUnclosedKlineAt(klines, day, now, 10*time.Second)
	assert.Len(t, out, 1)
}
