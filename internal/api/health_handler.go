package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker is implemented by dependencies the liveness probe checks
type HealthChecker interface {
	HealthCheck() error
}

// HealthHandler serves the liveness probe
type HealthHandler struct {
	db      HealthChecker
	started time.Time
	version string
}

// NewHealthHandler creates a health handler. db may be nil when history is
// kept in memory.
func NewHealthHandler(db HealthChecker, version string) *HealthHandler {
	return &HealthHandler{db: db, started: time.Now(), version: version}
}

// Health reports liveness and database reachability
func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":         "healthy",
		"version":        h.version,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"timestamp":      time.Now().UTC(),
		"database":       "disabled",
	}

	if h.db != nil {
		if err := h.db.HealthCheck(); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = "unavailable"
		} else {
			body["database"] = "ok"
		}
	}

	c.JSON(status, body)
}
