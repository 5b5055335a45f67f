package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/fundimport/internal/logger"
)

// readyTimeout bounds a single readiness check.
const readyTimeout = 2 * time.Second

// HealthHandler provides liveness and readiness endpoints for the service.
//
// Responsibilities:
//   - /healthz: liveness, always 200 while the process serves requests.
//   - /readyz: readiness, 200 only when the database is reachable and migrated.
type HealthHandler struct {
	ready func(ctx context.Context) error
}

// NewHealthHandler constructs a HealthHandler around a readiness check.
//
// Parameters:
//   - ready: reports whether the service can take traffic, typically
//     storage.Ready bound to the application's *sql.DB. A nil check is
//     always ready.
func NewHealthHandler(ready func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{ready: ready}
}

// Register mounts the health and readiness endpoints into the provided Gin router.
func (h *HealthHandler) Register(r *gin.Engine) {
	// @Summary      Liveness check
	// @Description  Always returns OK if the service is running
	// @Tags         health
	// @Produce      json
	// @Success      200  {object}  map[string]string
	// @Router       /healthz [get]
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// @Summary      Readiness check
	// @Description  Returns ready once the database is reachable and its schema is migrated
	// @Tags         health
	// @Produce      json
	// @Success      200  {object}  map[string]string
	// @Failure      503  {object}  map[string]string
	// @Router       /readyz [get]
	r.GET("/readyz", func(c *gin.Context) {
		if h.ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
			defer cancel()
			if err := h.ready(ctx); err != nil {
				logger.L().Warn().Err(err).Msg("readiness check failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
}
