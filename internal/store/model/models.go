package model

import "gorm.io/datatypes"

// VerdictModel 持久化一轮建议的完整产物，方便后续排查与回看。
type VerdictModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	TraceID       string         `gorm:"column:trace_id;uniqueIndex"`
	Symbol        string         `gorm:"column:symbol;index"`
	Intent        string         `gorm:"column:intent"`
	Regime        string         `gorm:"column:regime"`
	Pattern       string         `gorm:"column:pattern"`
	Decision      string         `gorm:"column:decision"`
	Summary       string         `gorm:"column:summary"`
	RiskJSON      datatypes.JSON `gorm:"column:risk_json;type:TEXT"`
	OpinionsJSON  datatypes.JSON `gorm:"column:opinions_json;type:TEXT"`
	BreakdownJSON datatypes.JSON `gorm:"column:breakdown_json;type:TEXT"`
	Fallback      bool           `gorm:"column:fallback"`
	CreatedAtUnix int64          `gorm:"column:created_at;index"`
}

func (VerdictModel) TableName() string { return "verdicts" }
