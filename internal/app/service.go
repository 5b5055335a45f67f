package app

import (
	"github.com/guttosm/fundimport/config"
	"github.com/guttosm/fundimport/internal/ingestion"
	"github.com/guttosm/fundimport/internal/mapping"
	"github.com/guttosm/fundimport/internal/service"
	"github.com/guttosm/fundimport/internal/tabular"
)

// PipelineConfig translates the import tunables into the session config
// shared by the API and the command-line importer.
func PipelineConfig(cfg config.ImportConfig) ingestion.Config {
	out := ingestion.DefaultConfig()
	out.Reader = tabular.Options{HeaderScanRows: cfg.HeaderScanRows}
	out.Mapper = mapping.Config{
		SampleRows:     cfg.ContentSampleRows,
		MinScorePerRow: cfg.ContentMinScorePerRow,
	}
	if cfg.PreviewRows > 0 {
		out.PreviewRows = cfg.PreviewRows
	}
	if cfg.AuditCapacity > 0 {
		out.AuditCapacity = cfg.AuditCapacity
	}
	return out
}

// ServiceOptions builds the import service options from cfg.
func ServiceOptions(cfg config.ImportConfig) service.Options {
	return service.Options{
		Pipeline:   PipelineConfig(cfg),
		SessionTTL: cfg.SessionTTL,
		MaxBytes:   cfg.MaxFileBytes(),
	}
}
