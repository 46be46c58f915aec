package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"snowid/internal/core/snowflake"
)

// Version is reported by /health/info. Overridden at build time.
var Version = "0.1.0"

// AllocatorStats exposes allocator counters to health checks.
type AllocatorStats interface {
	Stats() snowflake.Stats
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	allocator AllocatorStats
	clock     snowflake.Clock
	startedAt time.Time
}

// NewHealthHandler creates a new health handler. A nil clock uses the system clock.
func NewHealthHandler(allocator AllocatorStats, clock snowflake.Clock) *HealthHandler {
	if clock == nil {
		clock = snowflake.SystemClock
	}
	return &HealthHandler{
		allocator: allocator,
		clock:     clock,
		startedAt: time.Now(),
	}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe: the node can only allocate while its clock
// is not behind the last issued timestamp.
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	stats := h.allocator.Stats()
	now := h.clock.NowMillis() - snowflake.Epoch

	if stats.LastTimestamp >= 0 && now < stats.LastTimestamp {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"clock": "unhealthy: behind last issued id",
			},
			"behind_ms": stats.LastTimestamp - now,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"clock": "healthy",
		},
	})
}

// Info returns application information and allocator counters.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	stats := h.allocator.Stats()

	lastIssued := ""
	if stats.LastTimestamp >= 0 {
		lastIssued = time.UnixMilli(stats.LastTimestamp + snowflake.Epoch).UTC().Format(time.RFC3339Nano)
	}

	c.JSON(http.StatusOK, gin.H{
		"app":     "snowid",
		"version": Version,
		"uptime":  time.Since(h.startedAt).Round(time.Second).String(),
		"node_id": stats.NodeID,
		"epoch":   time.UnixMilli(snowflake.Epoch).UTC().Format(time.RFC3339),
		"allocator": map[string]any{
			"allocated":      stats.Allocated,
			"exhausted":      stats.Exhausted,
			"clock_backward": stats.ClockBackward,
			"last_issued":    lastIssued,
		},
	})
}
