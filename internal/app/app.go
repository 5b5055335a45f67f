package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/fundimport/config"
	"github.com/guttosm/fundimport/internal/api"
	"github.com/guttosm/fundimport/internal/service"
	"github.com/guttosm/fundimport/internal/storage"
)

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Connects to PostgreSQL using InitPostgres().
//   - Initializes the repository layer (HoldingsRepository).
//   - Creates the import service that owns the upload sessions.
//   - Configures the Gin router with all API routes and request limits.
//   - Registers health and readiness checks (readiness checks the schema).
//   - Provides a cleanup function that cancels running imports and closes the DB.
//
// Returns:
//   - *gin.Engine: the configured Gin HTTP router.
//   - func(): cleanup function to be executed on shutdown.
//   - error: any initialization error that occurred.
func InitializeApp() (*gin.Engine, func(), error) {
	// Load global configuration
	cfg := config.AppConfig

	// Connect to PostgreSQL
	// indirection for unit testing
	db, err := postgresOpener(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	// Initialize repository layer (responsible for DB access)
	repo := storage.NewHoldingsRepository(db)

	// Initialize service layer (import sessions)
	svc := service.NewImportService(repo, ServiceOptions(cfg.Import))

	// Initialize HTTP handler layer (business logic to HTTP mapping)
	handler := api.NewHandler(svc)

	// Setup Gin router with routes
	router := api.NewRouter(handler, api.RouterOptions{
		MaxUpload: cfg.Import.MaxFileBytes(),
		RateLimit: cfg.Server.RateLimit,
	})

	// Register health and readiness checks; readiness needs the migrated schema
	healthHandler := api.NewHealthHandler(func(ctx context.Context) error {
		return storage.Ready(ctx, db)
	})
	healthHandler.Register(router)

	// Cleanup resources on shutdown
	cleanup := func() {
		svc.Shutdown()
		_ = db.Close()
	}

	return router, cleanup, nil
}
