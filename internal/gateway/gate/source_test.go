package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToGatePair(t *testing.T) {
	assert.Equal(t, "BTC_USDT", toGatePair("BTCUSDT"))
	assert.Equal(t, "BTC_USDT", toGatePair("btc/usdt"))
	assert.Empty(t, toGatePair("NOTAPAIR"))
	assert.Empty(t, toGatePair(""))
}

func TestToGateInterval(t *testing.T) {
	assert.Equal(t, "7d", toGateInterval("1w"))
	assert.Equal(t, "1d", toGateInterval("1d"))
	assert.Equal(t, "4h", toGateInterval("4h"))
}

func TestParseSpotCandles(t *testing.T) {
	rows := [][]string{
		{"1700000000", "123456.7", "105", "110", "95", "100", "42.5", "true"},
		{"bad-ts", "0", "0", "0", "0", "0", "0"},
		{"1700086400", "1.0", "106"}, // 字段不足，丢弃
	}
	got := parseSpotCandles(rows, "1d")
	assert.Len(t, got, 1)
	c := got[0]
	assert.Equal(t, int64(1700000000000), c.OpenTime)
	assert.Equal(t, int64(1700000000000+24*3600*1000), c.CloseTime)
	assert.Equal(t, 100.0, c.Open)
	assert.Equal(t, 110.0, c.High)
	assert.Equal(t, 95.0, c.Low)
	assert.Equal(t, 105.0, c.Close)
	assert.Equal(t, 42.5, c.Volume)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	final := cfg.withDefaults()
	assert.Equal(t, defaultGateREST, final.RESTBaseURL)
	assert.Positive(t, final.HTTPTimeout)
}
