package market

import "context"

// Source 抽象行情来源。实现方必须在拉取失败时返回显式错误，
// 不允许静默返回空序列。
type Source interface {
	// FetchHistory 按 interval（如 "1d"、"1w"）拉取最近 limit 根已收盘 K 线，
	// 返回序列按 close_time 升序。
	FetchHistory(ctx context.Context, symbol, interval string, limit int) (Candles, error)

	Close() error
}
