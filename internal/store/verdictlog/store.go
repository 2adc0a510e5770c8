package verdictlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"finch/internal/advisor"
	"finch/internal/analysis/regime"
	"finch/internal/intent"
	storemodel "finch/internal/store/model"
)

type verdictModel = storemodel.VerdictModel

// Record 是一次建议的持久化视图。
type Record struct {
	ID        int64                 `json:"id"`
	TraceID   string                `json:"trace_id"`
	Timestamp int64                 `json:"ts"`
	Symbol    string                `json:"symbol"`
	Intent    intent.Intent         `json:"intent"`
	Regime    regime.Label          `json:"regime"`
	Pattern   string                `json:"pattern,omitempty"`
	Verdict   advisor.Verdict       `json:"verdict"`
	Opinions  []advisor.Opinion     `json:"opinions,omitempty"`
	Breakdown advisor.VoteBreakdown `json:"breakdown"`
}

// Query 用于筛选历史建议。
type Query struct {
	Symbol string
	Since  int64
	Limit  int
}

// Store implements verdict persistence using Gorm + SQLite.
type Store struct {
	db *gorm.DB
}

// New opens (and migrates) the verdict database at path.
func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("verdict store: 日志路径不能为空")
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	// mattn 驱动的参数写法：_journal_mode/_busy_timeout（`_pragma=` 会被静默忽略）。
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&verdictModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: allow a small amount of parallelism for concurrent HTTP reads
	// while keeping lock contention low.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Insert 写入一条建议记录。TraceID 冲突视为调用方错误，直接返回。
func (s *Store) Insert(ctx context.Context, rec Record) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("verdict store 未初始化")
	}
	if strings.TrimSpace(rec.TraceID) == "" {
		return 0, fmt.Errorf("verdict store: trace_id 不能为空")
	}
	ts := rec.Timestamp
	if ts == 0 {
		ts = time.Now().Unix()
	}
	row := verdictModel{
		TraceID:       rec.TraceID,
		Symbol:        strings.ToUpper(strings.TrimSpace(rec.Symbol)),
		Intent:        string(rec.Intent),
		Regime:        string(rec.Regime),
		Pattern:       rec.Pattern,
		Decision:      string(rec.Verdict.Decision),
		Summary:       rec.Verdict.Summary,
		RiskJSON:      mustJSON(rec.Verdict.Risk),
		OpinionsJSON:  mustJSON(rec.Opinions),
		BreakdownJSON: mustJSON(rec.Breakdown),
		Fallback:      rec.Breakdown.Fallback,
		CreatedAtUnix: ts,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("写入建议记录失败: %w", err)
	}
	return row.ID, nil
}

// List 按时间倒序返回历史建议。
func (s *Store) List(ctx context.Context, q Query) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("verdict store 未初始化")
	}
	limit := q.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	tx := s.db.WithContext(ctx).Model(&verdictModel{}).Order("created_at DESC, id DESC").Limit(limit)
	if sym := strings.ToUpper(strings.TrimSpace(q.Symbol)); sym != "" {
		tx = tx.Where("symbol = ?", sym)
	}
	if q.Since > 0 {
		tx = tx.Where("created_at >= ?", q.Since)
	}
	var rows []verdictModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询建议记录失败: %w", err)
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToRecord(row))
	}
	return out, nil
}

// GetByTraceID 按 trace_id 读取单条记录；未找到返回 (nil, nil)。
func (s *Store) GetByTraceID(ctx context.Context, traceID string) (*Record, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("verdict store 未初始化")
	}
	traceID = strings.TrimSpace(traceID)
	if traceID == "" {
		return nil, fmt.Errorf("trace_id 不能为空")
	}
	var row verdictModel
	err := s.db.WithContext(ctx).Where("trace_id = ?", traceID).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec := rowToRecord(row)
	return &rec, nil
}

func rowToRecord(row verdictModel) Record {
	rec := Record{
		ID:        row.ID,
		TraceID:   row.TraceID,
		Timestamp: row.CreatedAtUnix,
		Symbol:    row.Symbol,
		Intent:    intent.Intent(row.Intent),
		Regime:    regime.Label(row.Regime),
		Pattern:   row.Pattern,
		Verdict: advisor.Verdict{
			Decision: advisor.Decision(row.Decision),
			Summary:  row.Summary,
		},
	}
	_ = json.Unmarshal(row.RiskJSON, &rec.Verdict.Risk)
	_ = json.Unmarshal(row.OpinionsJSON, &rec.Opinions)
	_ = json.Unmarshal(row.BreakdownJSON, &rec.Breakdown)
	return rec
}

func mustJSON(v any) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("null")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
