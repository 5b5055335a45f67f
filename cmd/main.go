package main

//
//  @title           fundimport API
//  @version         1.0
//  @description     Fund holdings import service: upload a CSV/XLSX export, review the inferred column mapping, commit.
//  @termsOfService  https://github.com/guttosm/fundimport
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/fundimport
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        imports
//  @tag.description Upload, map and commit holdings files
//
//  @tag.name        holdings
//  @tag.description Stored fund holdings
//
//  @tag.name        health
//  @tag.description Liveness and readiness checks

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guttosm/fundimport/config"
	_ "github.com/guttosm/fundimport/docs" // swagger docs
	"github.com/guttosm/fundimport/internal/app"
	"github.com/guttosm/fundimport/internal/ingestion"
	"github.com/guttosm/fundimport/internal/logger"
	"github.com/guttosm/fundimport/internal/storage"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// importFlags are the options of the import mode.
type importFlags struct {
	file     string
	dir      string
	force    bool
	parallel int
}

// runImport imports a single file or every supported file of a directory
// into repo and returns one report per file.
func runImport(ctx context.Context, f importFlags, repo ingestion.Repository, cfg ingestion.Config) ([]ingestion.FileReport, error) {
	switch {
	case f.file != "" && f.dir != "":
		return nil, errors.New("--file and --dir are mutually exclusive")
	case f.file != "":
		rep, err := ingestion.ImportFile(ctx, f.file, repo, cfg, f.force)
		return []ingestion.FileReport{rep}, err
	case f.dir != "":
		return ingestion.ProcessDirectory(ctx, f.dir, repo, ingestion.DirOptions{
			Parallel: f.parallel,
			Force:    f.force,
			Config:   cfg,
		})
	default:
		return nil, errors.New("one of --file or --dir is required")
	}
}

// summary totals the reports of an import run.
type summary struct {
	Files, Imported, AlreadyImported, Rejected int
	Success, Failed, Skipped                   int
}

func summarize(reports []ingestion.FileReport) summary {
	s := summary{Files: len(reports)}
	for _, r := range reports {
		switch {
		case r.Skipped:
			s.AlreadyImported++
		case r.Err != nil:
			s.Rejected++
		case r.Result != nil:
			s.Imported++
			s.Success += r.Result.Success
			s.Failed += r.Result.Failed
			s.Skipped += r.Result.Skipped
		}
	}
	return s
}

// logReports writes one line per rejected row and a final summary.
func logReports(reports []ingestion.FileReport) summary {
	for _, r := range reports {
		if r.Err != nil {
			logger.L().Warn().Str("file", r.File).Err(r.Err).Msg("file rejected")
		}
		if r.Result == nil {
			continue
		}
		for _, e := range r.Result.Errors {
			logger.L().Warn().Str("file", r.File).Int("line", e.Line).Str("field", e.Field).Msg(e.Message)
		}
	}
	s := summarize(reports)
	logger.L().Info().
		Int("files", s.Files).
		Int("imported", s.Imported).
		Int("already_imported", s.AlreadyImported).
		Int("rejected", s.Rejected).
		Int("success", s.Success).
		Int("failed", s.Failed).
		Int("skipped", s.Skipped).
		Msg("import summary")
	return s
}

// main is the entry point of the fundimport application.
//
// Modes (selected via --mode flag):
//   - api:     Starts the REST API for interactive uploads.
//   - import:  Imports a file (--file) or a directory (--dir) from the command line.
//   - migrate: Applies the embedded database migrations and exits.
//
// Flags:
//   - --mode:     Execution mode ("api", "import" or "migrate"). Default: "api".
//   - --file:     Single file to import.
//   - --dir:      Directory of .csv/.tsv/.txt/.xlsx files to import.
//   - --force:    Re-import files whose checksum was already imported.
//   - --dry-run:  Import into an in-memory store; nothing is written to Postgres.
//   - --parallel: Concurrent file reads in directory mode (0=auto up to CPU, max 7).
//   - --port:     Port for the API server. Defaults to value from config (SERVER_PORT).
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration from environment or .env file
	config.LoadConfig()

	// Initialize JSON logger
	logger.Init()

	// Parse CLI flags (override config defaults if provided)
	mode := flag.String("mode", "api", "Mode: api, import or migrate")
	file := flag.String("file", "", "Single file to import")
	dir := flag.String("dir", "", "Directory with holdings files")
	parallel := flag.Int("parallel", 0, "How many files to read concurrently (0=auto up to CPU, max 7)")
	force := flag.Bool("force", false, "Re-import files even if their checksum was already imported")
	dryRun := flag.Bool("dry-run", false, "Run the import against an in-memory store")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	switch *mode {
	case "import":
		logger.L().Info().Bool("dry_run", *dryRun).Msg("running import")

		var repo ingestion.Repository
		if *dryRun {
			repo = storage.NewMemoryRepository()
		} else {
			db, err := app.InitPostgres(config.AppConfig)
			if err != nil {
				logger.L().Fatal().Err(err).Msg("db connect error")
			}
			defer func() { _ = db.Close() }()
			if err := app.Migrate(db); err != nil {
				logger.L().Fatal().Err(err).Msg("migration failed")
			}
			repo = storage.NewHoldingsRepository(db)
		}

		flags := importFlags{file: *file, dir: *dir, force: *force, parallel: *parallel}
		reports, err := runImport(ctx, flags, repo, app.PipelineConfig(config.AppConfig.Import))
		s := logReports(reports)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("import failed")
		}
		fmt.Printf("files=%d imported=%d already_imported=%d rejected=%d success=%d failed=%d skipped=%d\n",
			s.Files, s.Imported, s.AlreadyImported, s.Rejected, s.Success, s.Failed, s.Skipped)

	case "migrate":
		db, err := app.InitPostgres(config.AppConfig)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("db connect error")
		}
		defer func() { _ = db.Close() }()
		if err := app.Migrate(db); err != nil {
			logger.L().Fatal().Err(err).Msg("migration failed")
		}
		logger.L().Info().Msg("migrations applied")

	case "api":
		// API mode: start the HTTP server
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(context.Background(), server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
