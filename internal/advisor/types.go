package advisor

import "strings"

// 中文说明：
// 分析师意见与最终裁决的数据结构。意见来自外部模型，字段一律视为不可信输入，
// 通过 OK 标签显式区分"可用/不可用"，融合阶段据此做穷举处理。

// Role 标识三类分析师。
type Role string

const (
	RoleWeekly Role = "weekly"
	RoleDaily  Role = "daily"
	RoleRisk   Role = "risk"
)

// Roles 按固定读取顺序列出全部角色（weekly → daily → risk）。
func Roles() []Role {
	return []Role{RoleWeekly, RoleDaily, RoleRisk}
}

// Decision 是规范化后的方向结论。
type Decision string

const (
	Buy  Decision = "buy"
	Hold Decision = "hold"
	Sell Decision = "sell"
)

// Decisions 按声明顺序列出规范值；该顺序同时是计票平手时的裁决顺序。
func Decisions() []Decision {
	return []Decision{Buy, Hold, Sell}
}

// CanonicalDecision 把原始 decision 字段规范化为三个合法值之一。
// 不在集合内的输入返回 ("", false)，投票时按零票处理。
func CanonicalDecision(raw string) (Decision, bool) {
	switch Decision(strings.ToLower(strings.TrimSpace(raw))) {
	case Buy:
		return Buy, true
	case Hold:
		return Hold, true
	case Sell:
		return Sell, true
	default:
		return "", false
	}
}

// Opinion 是单个分析师的结构化意见。
// OK=false 表示模型失败或输出无法解析，此时其余字段无意义，仅 Err 供日志参考。
type Opinion struct {
	Role       Role     `json:"role"`
	OK         bool     `json:"ok"`
	Decision   string   `json:"decision,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	Notes      []string `json:"notes,omitempty"`
	Confidence string   `json:"confidence,omitempty"`
	Err        string   `json:"error,omitempty"`
}

// Unavailable 构造一条不可用意见。
func Unavailable(role Role, reason string) Opinion {
	return Opinion{Role: role, OK: false, Err: reason}
}

// Verdict 是一次融合的最终产物。Decision 恒为 buy/hold/sell 之一。
type Verdict struct {
	Decision Decision `json:"decision"`
	Summary  string   `json:"summary"`
	Risk     []string `json:"risk,omitempty"`
}

// VoteTally 记录单个方向的累计权重与贡献角色，供日志与通知展示。
type VoteTally struct {
	Decision Decision `json:"decision"`
	Weight   float64  `json:"weight"`
	Roles    []Role   `json:"roles,omitempty"`
}

// VoteBreakdown 汇总一次计票过程。Fallback=true 表示走了降级路径。
type VoteBreakdown struct {
	Fallback bool        `json:"fallback"`
	Tallies  []VoteTally `json:"tallies,omitempty"`
	Valid    int         `json:"valid_opinions"`
}
