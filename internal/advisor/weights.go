package advisor

import (
	"fmt"

	"finch/internal/intent"
)

// RoleWeights 是单个意图下三个角色的投票权重。
type RoleWeights struct {
	Weekly float64 `yaml:"weekly" json:"weekly"`
	Daily  float64 `yaml:"daily" json:"daily"`
	Risk   float64 `yaml:"risk" json:"risk"`
}

// For 返回指定角色的权重，未知角色权重为 0。
func (w RoleWeights) For(role Role) float64 {
	switch role {
	case RoleWeekly:
		return w.Weekly
	case RoleDaily:
		return w.Daily
	case RoleRisk:
		return w.Risk
	default:
		return 0
	}
}

// WeightTable 把意图映射到角色权重。
type WeightTable map[intent.Intent]RoleWeights

// DefaultWeights 返回内置权重表。
func DefaultWeights() WeightTable {
	return WeightTable{
		intent.GeneralAdvice: {Weekly: 1.0, Daily: 1.0, Risk: 1.0},
		intent.BottomFishing: {Weekly: 0.5, Daily: 1.5, Risk: 1.0},
		intent.RiskAverse:    {Weekly: 0.5, Daily: 1.0, Risk: 1.5},
		intent.TakeProfit:    {Weekly: 1.0, Daily: 0.8, Risk: 1.4},
		intent.HeavyPosition: {Weekly: 1.0, Daily: 1.2, Risk: 0.8},
	}
}

const (
	minRoleWeight = 0.5
	maxRoleWeight = 1.5
)

// Validate 检查权重表是否可用：覆盖全部意图且每个权重落在合法区间。
// 表不可用属于配置缺陷，直接报错。
func (t WeightTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("weight table is empty")
	}
	for _, it := range intent.All() {
		w, ok := t[it]
		if !ok {
			return fmt.Errorf("weight table missing intent %q", it)
		}
		for _, role := range Roles() {
			v := w.For(role)
			if v < minRoleWeight || v > maxRoleWeight {
				return fmt.Errorf("weight for intent %q role %q out of range [%v, %v]: %v",
					it, role, minRoleWeight, maxRoleWeight, v)
			}
		}
	}
	return nil
}

// ForIntent 取意图对应的权重；未知意图属于配置/编程缺陷。
func (t WeightTable) ForIntent(it intent.Intent) (RoleWeights, error) {
	w, ok := t[it]
	if !ok {
		return RoleWeights{}, fmt.Errorf("unknown intent %q in weight table", it)
	}
	return w, nil
}
