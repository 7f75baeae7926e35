package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
}

// GetPoolStats returns connection pool statistics.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
	}
}

// Check is a named dependency check reported by the health endpoint.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// CheckResults runs every check and returns per-check status plus an overall
// verdict. Failure detail stays server-side; clients only see "down".
func CheckResults(ctx context.Context, checks []Check) (map[string]string, bool) {
	results := make(map[string]string, len(checks))
	healthy := true
	for _, chk := range checks {
		if err := chk.Ping(ctx); err != nil {
			results[chk.Name] = "down"
			healthy = false
			continue
		}
		results[chk.Name] = "up"
	}
	return results, healthy
}

// HealthHandler pings the database and any extra dependencies.
func HealthHandler(pool *pgxpool.Pool, extra ...Check) echo.HandlerFunc {
	checks := append([]Check{{Name: "database", Ping: pool.Ping}}, extra...)

	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		results, healthy := CheckResults(ctx, checks)
		body := map[string]interface{}{
			"checks": results,
			"pool":   GetPoolStats(pool),
		}

		if !healthy {
			body["status"] = "unhealthy"
			return c.JSON(http.StatusServiceUnavailable, body)
		}
		body["status"] = "healthy"
		return c.JSON(http.StatusOK, body)
	}
}
