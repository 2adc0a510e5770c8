package intent

import "strings"

// 中文说明：
// 用户意图解析：对自由文本做大小写不敏感的子串匹配。
// 关键词集合之间可能重叠（例如"加仓"与泛多头词），因此匹配顺序本身就是
// 设计好的优先级，调整顺序会改变结果。

type Intent string

const (
	GeneralAdvice Intent = "general_advice"
	BottomFishing Intent = "bottom_fishing"
	RiskAverse    Intent = "risk_averse"
	TakeProfit    Intent = "take_profit"
	HeavyPosition Intent = "heavy_position"
)

// All 按固定声明顺序列出全部意图。
func All() []Intent {
	return []Intent{GeneralAdvice, BottomFishing, RiskAverse, TakeProfit, HeavyPosition}
}

// Valid 报告 v 是否为已知意图。
func Valid(v Intent) bool {
	for _, it := range All() {
		if it == v {
			return true
		}
	}
	return false
}

// keywordRule 绑定一个意图与触发它的关键词集合。
type keywordRule struct {
	intent   Intent
	keywords []string
}

// 匹配优先级从上到下，首个命中即返回。
var defaultRules = []keywordRule{
	{BottomFishing, []string{"抄底", "底部", "bottom", "dip buy", "buy the dip"}},
	{RiskAverse, []string{"怕回撤", "怕回落", "怕跌", "保守", "risk averse", "drawdown", "conservative"}},
	{TakeProfit, []string{"賣出", "卖出", "停利", "止盈", "想賣", "想卖", "take profit", "sell"}},
	{HeavyPosition, []string{"重倉", "重仓", "加倉", "加仓", "heavy position", "add position", "all in"}},
}

// Parse 把用户文本映射为一个意图，无法识别时返回 general_advice。
// 全函数：任何输入（含空串）都有确定结果。
func Parse(text string) Intent {
	lowered := strings.ToLower(text)
	for _, rule := range defaultRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return rule.intent
			}
		}
	}
	return GeneralAdvice
}
