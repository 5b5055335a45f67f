package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/fundimport/internal/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterOptions carries the request limits of the router.
type RouterOptions struct {
	MaxUpload int64 // upload size limit in bytes; 0 disables it
	RateLimit int   // requests per minute per client IP; 0 disables it
}

// NewRouter creates a Gin engine with routes configured.
// It receives a Handler instance with all business logic already injected.
//
// Responsibilities:
//   - Registers global middlewares (RequestID, Logger, Recovery, RateLimiter).
//   - Adds request timeout handling (10 seconds).
//   - Mounts Swagger docs (/swagger/*any).
//   - Configures API v1 routes (/api/v1): the import session lifecycle and the holdings list.
//   - Caps upload bodies at opts.MaxUpload bytes (0 disables the cap).
//
// Note:
//   - Health and readiness endpoints (/healthz, /readyz) are registered in app.InitializeApp().
//
// Parameters:
//   - handler (*Handler): The HTTP handler with business logic.
//   - opts (RouterOptions): Upload size and rate limits.
//
// Returns:
//   - *gin.Engine: Configured Gin router.
func NewRouter(handler *Handler, opts RouterOptions) *gin.Engine {
	router := gin.New()

	// ─── Middlewares ───────────────────────────────
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
		middleware.RateLimiter(opts.RateLimit, time.Minute),
	)

	// ─── Timeout ──────────────────────────────────
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	// ─── Swagger ──────────────────────────────────
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// ─── API v1 ───────────────────────────────────
	v1 := router.Group("/api/v1")
	{
		imports := v1.Group("/imports")
		imports.POST("", middleware.BodyLimit(opts.MaxUpload), handler.CreateImport)
		imports.GET("/:id", handler.GetImport)
		imports.PUT("/:id/mapping", handler.UpdateMapping)
		imports.POST("/:id/commit", handler.CommitImport)
		imports.DELETE("/:id", handler.DeleteImport)
		imports.GET("/:id/audit", handler.GetAudit)

		v1.GET("/holdings", handler.ListHoldings)
	}

	return router
}
