package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db *sqlx.DB
}

// NewHealthHandler creates a new HealthHandler. db is nil when usage is not
// stored in Postgres.
func NewHealthHandler(db *sqlx.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Liveness handles GET /api/health
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	RespondOK(c, HealthResponse{OK: true, Time: time.Now().UnixMilli()})
}

// Readiness handles GET /api/ready
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} ReadyResponse
// @Failure 503 {object} ErrorResponse "Usage database not reachable"
// @Router /ready [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	if h.db != nil {
		if err := h.db.PingContext(c.Request.Context()); err != nil {
			RespondError(c, http.StatusServiceUnavailable, "database not reachable")
			return
		}
	}
	RespondOK(c, ReadyResponse{OK: true})
}
