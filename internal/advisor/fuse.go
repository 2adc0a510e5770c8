package advisor

import (
	"strings"

	"finch/internal/intent"
)

// 中文说明：
// 加权投票融合：按意图权重把至多三条分析师意见并成一个裁决。
// 任意意见缺失/失败都不报错；全部失败走固定降级结论。

const (
	// FallbackSummary 是全部分析师失败时的固定降级文案。
	FallbackSummary = "市場資訊不足或模型解析失敗，請再試一次。"
	// FallbackRiskNote 是降级结论携带的唯一风险提示。
	FallbackRiskNote = "無有效分析師輸出"

	summarySeparator = "；"
	maxRiskNotes     = 3
)

// Fuse 执行一次融合。opinions 可乱序、可缺角色；计票与拼接一律按固定角色顺序。
// 仅当权重表或意图不可用时返回错误（配置缺陷）；任何意见组合都不会报错。
func Fuse(opinions []Opinion, it intent.Intent, table WeightTable) (Verdict, VoteBreakdown, error) {
	if err := table.Validate(); err != nil {
		return Verdict{}, VoteBreakdown{}, err
	}
	weights, err := table.ForIntent(it)
	if err != nil {
		return Verdict{}, VoteBreakdown{}, err
	}

	valid := orderByRole(opinions)
	if len(valid) == 0 {
		return Verdict{
				Decision: Hold,
				Summary:  FallbackSummary,
				Risk:     []string{FallbackRiskNote},
			}, VoteBreakdown{Fallback: true}, nil
	}

	score := map[Decision]float64{}
	contributors := map[Decision][]Role{}
	for _, op := range valid {
		d, ok := CanonicalDecision(op.Decision)
		if !ok {
			// 非法 decision 不计票，也不视为错误。
			continue
		}
		score[d] += weights.For(op.Role)
		contributors[d] = append(contributors[d], op.Role)
	}

	// 平手按 buy → hold → sell 的声明顺序裁决：先声明者赢。
	winner := Hold
	best := -1.0
	for _, d := range Decisions() {
		if score[d] > best {
			best = score[d]
			winner = d
		}
	}

	verdict := Verdict{
		Decision: winner,
		Summary:  mergeSummaries(valid),
		Risk:     mergeNotes(valid),
	}

	breakdown := VoteBreakdown{Valid: len(valid)}
	for _, d := range Decisions() {
		if len(contributors[d]) == 0 && score[d] == 0 {
			continue
		}
		breakdown.Tallies = append(breakdown.Tallies, VoteTally{
			Decision: d,
			Weight:   score[d],
			Roles:    contributors[d],
		})
	}
	return verdict, breakdown, nil
}

// ApplyManagerSummary 用外部生成的自然语言总结替换 Summary。
// 空文本保留初步总结；Decision 与 Risk 永不改动。
func ApplyManagerSummary(v Verdict, text string) Verdict {
	if t := strings.TrimSpace(text); t != "" {
		v.Summary = t
	}
	return v
}

// orderByRole 过滤出 OK 的意见并按固定角色顺序重排；同角色保留先到的一条。
func orderByRole(opinions []Opinion) []Opinion {
	out := make([]Opinion, 0, len(Roles()))
	for _, role := range Roles() {
		for _, op := range opinions {
			if op.Role == role && op.OK {
				out = append(out, op)
				break
			}
		}
	}
	return out
}

func mergeSummaries(valid []Opinion) string {
	parts := make([]string, 0, len(valid))
	for _, op := range valid {
		if s := strings.TrimSpace(op.Summary); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, summarySeparator)
}

func mergeNotes(valid []Opinion) []string {
	var out []string
	for _, op := range valid {
		for _, note := range op.Notes {
			if n := strings.TrimSpace(note); n != "" {
				out = append(out, n)
			}
			if len(out) >= maxRiskNotes {
				return out
			}
		}
	}
	return out
}
