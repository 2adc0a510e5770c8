package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOpinionWellFormed(t *testing.T) {
	raw := `{"ok": true, "focus": "weekly", "decision": "buy",
		"summary": "週線多頭結構", "confidence": "high",
		"notes": ["跌破 SMA50 需重新評估"]}`
	op := ParseOpinion(RoleWeekly, raw)
	assert.True(t, op.OK)
	assert.Equal(t, RoleWeekly, op.Role)
	assert.Equal(t, "buy", op.Decision)
	assert.Equal(t, "週線多頭結構", op.Summary)
	assert.Equal(t, []string{"跌破 SMA50 需重新評估"}, op.Notes)
	assert.Equal(t, "high", op.Confidence)
}

func TestParseOpinionFencedOutput(t *testing.T) {
	raw := "分析如下：\n```json\n{\"ok\": true, \"decision\": \"hold\", \"summary\": \"觀望\"}\n```"
	op := ParseOpinion(RoleDaily, raw)
	assert.True(t, op.OK)
	assert.Equal(t, "hold", op.Decision)
}

func TestParseOpinionNotesAsSingleString(t *testing.T) {
	raw := `{"ok": true, "decision": "sell", "notes": "量能持續放大下跌需留意"}`
	op := ParseOpinion(RoleRisk, raw)
	assert.True(t, op.OK)
	assert.Equal(t, []string{"量能持續放大下跌需留意"}, op.Notes)
}

func TestParseOpinionOkFalse(t *testing.T) {
	op := ParseOpinion(RoleWeekly, `{"ok": false, "decision": "buy"}`)
	assert.False(t, op.OK)
	assert.NotEmpty(t, op.Err)
}

func TestParseOpinionMalformed(t *testing.T) {
	cases := []string{
		"",
		"模型超時，無輸出",
		`{"ok": "yes"}`,          // ok 不是布尔
		`{"decision": "buy"}`,    // 缺少 ok
		`{"ok": true, "notes": 42}`, // notes 类型非法
	}
	for _, raw := range cases {
		op := ParseOpinion(RoleDaily, raw)
		assert.False(t, op.OK, "raw=%q", raw)
		assert.NotEmpty(t, op.Err, "raw=%q", raw)
	}
}

func TestParseOpinionNonCanonicalDecisionKept(t *testing.T) {
	// 解析阶段不限制 decision 值，由计票阶段按零票处理。
	op := ParseOpinion(RoleDaily, `{"ok": true, "decision": "moon"}`)
	assert.True(t, op.OK)
	assert.Equal(t, "moon", op.Decision)
	_, canonical := CanonicalDecision(op.Decision)
	assert.False(t, canonical)
}

func TestParseOpinionNumericConfidence(t *testing.T) {
	op := ParseOpinion(RoleRisk, `{"ok": true, "decision": "hold", "confidence": 0.8}`)
	assert.True(t, op.OK)
	assert.Equal(t, "0.8", op.Confidence)
}
