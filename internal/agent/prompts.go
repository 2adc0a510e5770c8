package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"finch/internal/advisor"
	"finch/internal/analysis/regime"
	"finch/internal/analysis/volume"
	"finch/internal/intent"
	"finch/internal/market"
)

// 中文说明：
// 三位分析師共用同一份市場背景（base context），各自疊加角色指令；
// 經理人 prompt 負責把結構化意見翻譯成自然中文總結。

const candleWindow = 35

var analystRoleNames = map[advisor.Role]string{
	advisor.RoleWeekly: "週線趨勢分析師",
	advisor.RoleDaily:  "日線量價分析師",
	advisor.RoleRisk:   "風險控管分析師",
}

var analystSystemPrompts = map[advisor.Role]string{
	advisor.RoleWeekly: `你是%s。
請依週線資訊做判斷，請回傳嚴格 JSON：
{
  "ok": true/false,
  "focus": "weekly",
  "decision": "...(buy/hold/sell)...",
  "summary": "...",
  "confidence": "...(high/medium/low)...",
  "key_levels": {"support":"...", "resistance":"..."},
  "notes": "...",
  "missing": []
}`,
	advisor.RoleDaily: `你是%s。
請依日線量價與 candles 做判斷，只回傳 JSON：
{
  "ok": true/false,
  "focus": "daily",
  "decision": "...",
  "summary": "...",
  "confidence": "...(high/medium/low)...",
  "key_levels": {"support":"...", "resistance":"..."},
  "notes": "...",
  "missing": []
}`,
	advisor.RoleRisk: `你是%s。
請結合使用者提問與市場資訊提出風險控管 + 倉位 plan，只回傳 JSON：
{
  "ok": true/false,
  "focus": "risk",
  "decision": "...",
  "summary": "...",
  "confidence": "...(high/medium/low)...",
  "key_levels": {"support":"...", "resistance":"..."},
  "notes": "...",
  "missing": []
}`,
}

// AnalystSystemPrompt 返回指定角色的系統指令。
func AnalystSystemPrompt(role advisor.Role) string {
	tpl, ok := analystSystemPrompts[role]
	if !ok {
		return ""
	}
	return fmt.Sprintf(tpl, analystRoleNames[role])
}

type candleRow struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

func serializeCandles(candles market.Candles, n int) string {
	tail := candles.Tail(n)
	rows := make([]candleRow, 0, len(tail))
	for _, c := range tail {
		rows = append(rows, candleRow{
			Date:   c.CloseDate(),
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
		})
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// BuildBaseContext 組裝三位分析師共用的市場背景。
func BuildBaseContext(userText, symbol string, it intent.Intent, feat regime.Feature, wcfg regime.Settings, pat volume.Pattern, daily market.Candles) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[使用者提問]\n%s\n\n", strings.TrimSpace(userText))
	fmt.Fprintf(&b, "[交易標的]\n%s\n\n", symbol)
	fmt.Fprintf(&b, "[週線資訊]\n- regime: %s\n- close: %v\n- sma%d: %v\n- sma%d: %v\n\n",
		feat.Regime, feat.Close, wcfg.ShortWindow, feat.SMAShort, wcfg.LongWindow, feat.SMALong)
	fmt.Fprintf(&b, "[日線概況]\n- close_dir: %s\n- vol_ratio: %v\n\n", pat.PriceDir, pat.VolRatio)
	fmt.Fprintf(&b, "[日線 candles (近 %d 天)]\n%s\n\n", candleWindow, serializeCandles(daily, candleWindow))
	fmt.Fprintf(&b, "使用者意圖: %s。請特別根據此意圖給出判斷重點。", it)
	return b.String()
}

const managerSystemPrompt = `你現在是一位資深的加密貨幣現貨投資經理（human-level in Chinese）。
以下是三位分析師根據市場資料的結構化分析（包含 decision / summary / notes），再加上系統的初步決策(preliminary decision)。

請你扮演「經理人」：
- 統整三位分析師的分析結果
- 不只是重述，而是清楚地解釋原因
- 給出一個一致的最終策略（BUY / HOLD / SELL）
- 並提出最重要的 2–3 個投資人應該注意的風險或行動建議
- 在開頭可以講到使用者意圖是何種，與給建議適不適合做意圖的事情
- 內容中可以再總結出分析師提到的週線、日線量價的趨勢內容，也可總結分析師提到的技術信號或指標，注意要使用繁體中文

意圖轉換表：
- general_advice：一般建議 / 目前看法
- bottom_fishing：想抄底
- risk_averse：怕回撤 / 想保守
- take_profit：想賣出 / 獲利了結
- heavy_position：想重倉 / 想加倉

**注意：**
🔹 不要輸出 JSON
🔹 不要逐條列原始分析師文字
🔹 不要使用 key:value 結構
🔹 最後的結論段要明確指出總結與理由
🔹 使用自然、專業的中文，英文名詞或英文指標詞語等等都要盡量翻譯成繁體中文`

// BuildManagerPrompt 組裝經理人總結的 user prompt。
func BuildManagerPrompt(it intent.Intent, opinions []advisor.Opinion, prelim advisor.Decision) string {
	byRole := make(map[advisor.Role]advisor.Opinion, len(opinions))
	for _, op := range opinions {
		if _, ok := byRole[op.Role]; !ok {
			byRole[op.Role] = op
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "使用者意圖是：%s（請先根據意圖轉換表變換過後再判斷），請特別根據此意圖給出判斷重點，提到的意圖也要轉換後再輸出到給出的內容中。\n\n", it)
	fmt.Fprintf(&b, "====== 使用者意圖 ======\n%s\n\n", it)
	for _, role := range advisor.Roles() {
		op := byRole[role]
		fmt.Fprintf(&b, "====== %s ======\nDecision: %s\nSummary: %s\nNotes: %s\n\n",
			analystRoleNames[role], op.Decision, op.Summary, strings.Join(op.Notes, "；"))
	}
	fmt.Fprintf(&b, "====== 系統初步決策 ======\n%s\n\n---\n\n", prelim)
	b.WriteString(`請你撰寫一段「可直接給使用者看」的投資經理總結：

▶ 首先一句話給出你的**最終決策與最重要理由**
▶ 接著用 2–3 句描述三位分析師的共識或分歧重點
▶ 最後給出 2–3 個風險控制或行動建議（客觀中立）`)
	return b.String()
}
