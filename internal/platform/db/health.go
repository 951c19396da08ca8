package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats is the connection pool snapshot reported by the health endpoint.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
	Healthy         bool   `json:"healthy"`
}

// GetPoolStats snapshots the pool counters.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
		Healthy:         stat.TotalConns() > 0,
	}
}

func healthPayload(pingErr error, stats *PoolStats) (int, map[string]interface{}) {
	if pingErr != nil {
		stats.Healthy = false
		return http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "unhealthy",
			"error":    pingErr.Error(),
			"database": stats,
		}
	}
	return http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"database": stats,
	}
}

// HealthHandler serves the liveness endpoint: a bounded ping plus the pool
// counters, 503 when the database is unreachable.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		status, body := healthPayload(pool.Ping(ctx), GetPoolStats(pool))
		return c.JSON(status, body)
	}
}
