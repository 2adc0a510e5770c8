package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finch/internal/advisor"
	"finch/internal/analysis/regime"
	"finch/internal/analysis/volume"
	"finch/internal/gateway/notifier"
	"finch/internal/intent"
)

// Report 汇总一轮建议的全部展示素材。
type Report struct {
	TraceID     string                `json:"trace_id"`
	Symbol      string                `json:"symbol"`
	Intent      intent.Intent         `json:"intent"`
	Regime      regime.Feature        `json:"regime"`
	Volume      volume.Pattern        `json:"volume"`
	Opinions    []advisor.Opinion     `json:"opinions,omitempty"`
	Verdict     advisor.Verdict       `json:"verdict"`
	Breakdown   advisor.VoteBreakdown `json:"breakdown"`
	GeneratedAt time.Time             `json:"generated_at"`
}

var decisionIcons = map[advisor.Decision]string{
	advisor.Buy:  "🟢",
	advisor.Hold: "🟡",
	advisor.Sell: "🔴",
}

var decisionNames = map[advisor.Decision]string{
	advisor.Buy:  "买入",
	advisor.Hold: "持有",
	advisor.Sell: "卖出",
}

var roleNames = map[advisor.Role]string{
	advisor.RoleWeekly: "周线分析师",
	advisor.RoleDaily:  "日线分析师",
	advisor.RoleRisk:   "风险分析师",
}

// Message 生成推送用的结构化消息。
func Message(r Report) notifier.StructuredMessage {
	msg := notifier.StructuredMessage{
		Icon:      decisionIcons[r.Verdict.Decision],
		Title:     fmt.Sprintf("%s 建议：%s", r.Symbol, decisionNames[r.Verdict.Decision]),
		Timestamp: r.GeneratedAt,
	}

	ctxLines := []string{
		"周线分级：" + string(r.Regime.Regime),
		"意图：" + string(r.Intent),
	}
	if r.Regime.Close > 0 {
		ctxLines = append(ctxLines, fmt.Sprintf("收盘 %s, SMA%s/%s",
			formatPrice(r.Regime.Close), formatPrice(r.Regime.SMAShort), formatPrice(r.Regime.SMALong)))
	}
	if !r.Volume.NoSignal() {
		line := "量价形态：" + r.Volume.Label
		if r.Volume.VolRatio > 0 {
			line += fmt.Sprintf("（量比 %s）", formatRatio(r.Volume.VolRatio))
		}
		ctxLines = append(ctxLines, line)
	}
	msg.Sections = append(msg.Sections, notifier.MessageSection{Title: "市场背景", Lines: ctxLines})

	var opLines []string
	for _, op := range r.Opinions {
		name := roleNames[op.Role]
		if name == "" {
			name = string(op.Role)
		}
		if !op.OK {
			opLines = append(opLines, fmt.Sprintf("%s：无有效输出", name))
			continue
		}
		line := fmt.Sprintf("%s：%s", name, strings.TrimSpace(op.Summary))
		if d, ok := advisor.CanonicalDecision(op.Decision); ok {
			line = fmt.Sprintf("%s：[%s] %s", name, decisionNames[d], strings.TrimSpace(op.Summary))
		}
		opLines = append(opLines, line)
	}
	msg.Sections = append(msg.Sections, notifier.MessageSection{Title: "分析师意见", Lines: opLines})

	if len(r.Verdict.Risk) > 0 {
		msg.Sections = append(msg.Sections, notifier.MessageSection{Title: "风险提示", Lines: r.Verdict.Risk})
	}

	if tl := tallyLine(r.Breakdown); tl != "" {
		msg.Footer = tl
	}
	return msg
}

// Text 生成单行文本结论，供 HTTP 响应与日志使用。
func Text(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s：%s", r.Symbol, decisionNames[r.Verdict.Decision], r.Verdict.Summary)
	if len(r.Verdict.Risk) > 0 {
		b.WriteString("（风险：")
		b.WriteString(strings.Join(r.Verdict.Risk, "；"))
		b.WriteString("）")
	}
	return b.String()
}

func tallyLine(bd advisor.VoteBreakdown) string {
	if bd.Fallback {
		return "计票：降级（无有效意见）"
	}
	if len(bd.Tallies) == 0 {
		return ""
	}
	parts := make([]string, 0, len(bd.Tallies))
	for _, t := range bd.Tallies {
		parts = append(parts, fmt.Sprintf("%s %s", decisionNames[t.Decision], formatRatio(t.Weight)))
	}
	return "计票：" + strings.Join(parts, " / ")
}

// formatPrice 用 decimal 裁掉二进制浮点噪音，最多保留 4 位小数。
func formatPrice(f float64) string {
	return decimal.NewFromFloat(f).Round(4).String()
}

func formatRatio(f float64) string {
	return decimal.NewFromFloat(f).Round(2).String()
}
