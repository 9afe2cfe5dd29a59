package handler

import (
	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping() error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	BaseHandler
	db      Pinger
	version string
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db Pinger, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// Health handles GET /health. It reports degraded rather than failing when
// the database is down, because ingestion can still accept and reject work.
func (h *HealthHandler) Health(c *gin.Context) {
	status := "ok"
	dbStatus := "ok"
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			status = "degraded"
			dbStatus = "unavailable"
		}
	}
	c.JSON(200, gin.H{
		"status":   status,
		"version":  h.version,
		"database": dbStatus,
	})
}
