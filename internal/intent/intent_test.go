package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDefault(t *testing.T) {
	assert.Equal(t, GeneralAdvice, Parse(""))
	assert.Equal(t, GeneralAdvice, Parse("BTC 投資建議"))
	assert.Equal(t, GeneralAdvice, Parse("what do you think about ETH"))
}

func TestParseKeywords(t *testing.T) {
	cases := map[string]Intent{
		"現在能抄底嗎":                 BottomFishing,
		"is this the bottom?":    BottomFishing,
		"怕回撤，想保守一點":              RiskAverse,
		"I'm risk averse here":   RiskAverse,
		"想賣出獲利了結":                TakeProfit,
		"should I take profit":   TakeProfit,
		"要不要加倉":                  HeavyPosition,
		"thinking of heavy position": HeavyPosition,
	}
	for text, want := range cases {
		assert.Equal(t, want, Parse(text), "text=%q", text)
	}
}

func TestParseCaseInsensitive(t *testing.T) {
	assert.Equal(t, BottomFishing, Parse("BUY THE DIP"))
	assert.Equal(t, TakeProfit, Parse("TAKE PROFIT now"))
}

func TestParsePriorityOrder(t *testing.T) {
	// 同时包含抄底与加仓关键词时，抄底优先。
	assert.Equal(t, BottomFishing, Parse("想抄底順便加倉"))
	// 风险词优先于止盈词。
	assert.Equal(t, RiskAverse, Parse("怕跌，要不要卖出"))
}

func TestParseDeterministic(t *testing.T) {
	text := "抄底 加仓 卖出 保守"
	first := Parse(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Parse(text))
	}
}

func TestValid(t *testing.T) {
	for _, it := range All() {
		assert.True(t, Valid(it))
	}
	assert.False(t, Valid(Intent("yolo")))
}
