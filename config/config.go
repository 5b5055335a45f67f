package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// It is composed of smaller structs that represent different concerns of the system:
// HTTP server settings, the Postgres holdings store, and the tunables of the import pipeline.
//
// Example ENV equivalent:
//
//	SERVER_PORT=8080
//	SERVER_RATE_LIMIT=600
//	POSTGRES_HOST=localhost
//	POSTGRES_PORT=5432
//	POSTGRES_USER=admin
//	POSTGRES_PASSWORD=secret
//	POSTGRES_DB=fundimport
//	POSTGRES_SSLMODE=disable
//	IMPORT_HEADER_SCAN_ROWS=5
//	IMPORT_CONTENT_SAMPLE_ROWS=5
//	IMPORT_CONTENT_MIN_SCORE_PER_ROW=2
//	IMPORT_PREVIEW_ROWS=10
//	IMPORT_AUDIT_CAPACITY=1000
//	IMPORT_MAX_FILE_MB=20
//	IMPORT_SESSION_TTL=30m
type Config struct {
	Server   ServerConfig   // HTTP server configuration
	Postgres PostgresConfig // PostgreSQL connection settings
	Import   ImportConfig   // Import pipeline tunables
}

// ServerConfig holds HTTP server settings such as the port to listen on.
type ServerConfig struct {
	Port      string // The TCP port the HTTP server will listen on (e.g., "8080")
	RateLimit int    // requests per minute per client IP; 0 disables the limiter
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host: hostname of the database server.
//   - Port: port number of the database server (default 5432).
//   - User: username for authentication.
//   - Password: password for authentication.
//   - DBName: target database name.
//   - SSLMode: SSL mode (e.g., "disable", "require").
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string
}

// ImportConfig carries the heuristics of the import pipeline.
//
// The content-scoring values are empirically chosen and meant to be tuned
// against real exports rather than treated as fixed constants.
type ImportConfig struct {
	HeaderScanRows        int           // physical rows inspected when locating a spreadsheet header
	ContentSampleRows     int           // data rows sampled per column by the content pass
	ContentMinScorePerRow int           // points required per sampled row for a content match
	PreviewRows           int           // rows normalized for the preview
	AuditCapacity         int           // entries kept by the audit log before the oldest are dropped
	MaxFileMB             int           // upload size limit
	SessionTTL            time.Duration // how long an idle API import session is kept
}

// MaxFileBytes returns the upload size limit in bytes.
func (c ImportConfig) MaxFileBytes() int64 {
	return int64(c.MaxFileMB) * 1024 * 1024
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Fatal exit:
//   - If required variables are missing, validateConfig() will terminate the app
//     with a descriptive log message.
func LoadConfig() {
	// Default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_RATE_LIMIT", 600)

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "fundimport")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	viper.SetDefault("IMPORT_HEADER_SCAN_ROWS", 5)
	viper.SetDefault("IMPORT_CONTENT_SAMPLE_ROWS", 5)
	viper.SetDefault("IMPORT_CONTENT_MIN_SCORE_PER_ROW", 2)
	viper.SetDefault("IMPORT_PREVIEW_ROWS", 10)
	viper.SetDefault("IMPORT_AUDIT_CAPACITY", 1000)
	viper.SetDefault("IMPORT_MAX_FILE_MB", 20)
	viper.SetDefault("IMPORT_SESSION_TTL", "30m")

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	// Read environment variables automatically
	viper.AutomaticEnv()

	// Populate global config instance
	AppConfig = Config{
		Server: ServerConfig{
			Port:      viper.GetString("SERVER_PORT"),
			RateLimit: viper.GetInt("SERVER_RATE_LIMIT"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
		Import: ImportConfig{
			HeaderScanRows:        viper.GetInt("IMPORT_HEADER_SCAN_ROWS"),
			ContentSampleRows:     viper.GetInt("IMPORT_CONTENT_SAMPLE_ROWS"),
			ContentMinScorePerRow: viper.GetInt("IMPORT_CONTENT_MIN_SCORE_PER_ROW"),
			PreviewRows:           viper.GetInt("IMPORT_PREVIEW_ROWS"),
			AuditCapacity:         viper.GetInt("IMPORT_AUDIT_CAPACITY"),
			MaxFileMB:             viper.GetInt("IMPORT_MAX_FILE_MB"),
			SessionTTL:            viper.GetDuration("IMPORT_SESSION_TTL"),
		},
	}

	// Construct Postgres DSN (used by database/sql)
	AppConfig.Postgres.URL = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		AppConfig.Postgres.User,
		AppConfig.Postgres.Password,
		AppConfig.Postgres.Host,
		AppConfig.Postgres.Port,
		AppConfig.Postgres.DBName,
		AppConfig.Postgres.SSLMode,
	)

	// Validate critical fields
	validateConfig()
}

// validateConfig ensures required variables are present and terminates
// the application if they are missing.
//
// Import tunables are range-checked as well: a zero sample size or preview
// window would silently disable parts of the pipeline.
func validateConfig() {
	var missing []string

	if AppConfig.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if AppConfig.Postgres.Host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}
	if AppConfig.Postgres.Port == 0 {
		missing = append(missing, "POSTGRES_PORT")
	}
	if AppConfig.Postgres.User == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if AppConfig.Postgres.Password == "" {
		missing = append(missing, "POSTGRES_PASSWORD")
	}
	if AppConfig.Postgres.DBName == "" {
		missing = append(missing, "POSTGRES_DB")
	}
	if AppConfig.Import.HeaderScanRows < 1 {
		missing = append(missing, "IMPORT_HEADER_SCAN_ROWS")
	}
	if AppConfig.Import.ContentSampleRows < 1 {
		missing = append(missing, "IMPORT_CONTENT_SAMPLE_ROWS")
	}
	if AppConfig.Import.ContentMinScorePerRow < 1 {
		missing = append(missing, "IMPORT_CONTENT_MIN_SCORE_PER_ROW")
	}
	if AppConfig.Import.PreviewRows < 1 {
		missing = append(missing, "IMPORT_PREVIEW_ROWS")
	}
	if AppConfig.Import.AuditCapacity < 1 {
		missing = append(missing, "IMPORT_AUDIT_CAPACITY")
	}
	if AppConfig.Import.MaxFileMB < 1 {
		missing = append(missing, "IMPORT_MAX_FILE_MB")
	}
	if AppConfig.Import.SessionTTL <= 0 {
		missing = append(missing, "IMPORT_SESSION_TTL")
	}

	if len(missing) > 0 {
		log.Fatalf("❌ Missing or invalid environment variables: %v\n", missing)
	}
}
