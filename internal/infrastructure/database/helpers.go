package database

import (
	"context"
	"time"

	"fulfillment-backend/pkg/logger"
)

// PoolStats is a snapshot of the pool, exposed on the health endpoint.
type PoolStats struct {
	AcquiredConns        int32         `json:"acquired_conns"`
	IdleConns            int32         `json:"idle_conns"`
	TotalConns           int32         `json:"total_conns"`
	MaxConns             int32         `json:"max_conns"`
	AcquireCount         int64         `json:"acquire_count"`
	CanceledAcquireCount int64         `json:"canceled_acquire_count"`
	AvgAcquireDuration   time.Duration `json:"avg_acquire_duration"`
}

func (db *PostgresDB) Stats() *PoolStats {
	if db.Pool == nil {
		return &PoolStats{}
	}
	raw := db.Pool.Stat()
	return &PoolStats{
		AcquiredConns:        raw.AcquiredConns(),
		IdleConns:            raw.IdleConns(),
		TotalConns:           raw.TotalConns(),
		MaxConns:             raw.MaxConns(),
		AcquireCount:         raw.AcquireCount(),
		CanceledAcquireCount: raw.CanceledAcquireCount(),
		AvgAcquireDuration:   avgDuration(raw.AcquireDuration(), raw.AcquireCount()),
	}
}

func avgDuration(total time.Duration, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return total / time.Duration(count)
}

// MonitorPoolHealth logs a warning when the pool runs hot. Run it in its own goroutine.
func (db *PostgresDB) MonitorPoolHealth(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats := db.Stats()
			if stats.MaxConns == 0 {
				continue
			}
			utilization := float64(stats.AcquiredConns) / float64(stats.MaxConns) * 100
			if utilization > 80 {
				logger.Warn("high database pool utilization", map[string]interface{}{
					"utilization_pct": utilization,
					"acquired":        stats.AcquiredConns,
					"max":             stats.MaxConns,
				})
			}
			if stats.AvgAcquireDuration > 100*time.Millisecond {
				logger.Warn("high database acquire latency", map[string]interface{}{
					"avg_acquire": stats.AvgAcquireDuration.String(),
				})
			}
		case <-ctx.Done():
			return
		}
	}
}

func (db *PostgresDB) Close() {
	if db.Pool == nil {
		return
	}
	db.Pool.Close()
	db.Pool = nil
	logger.Info("database pool closed", nil)
}
