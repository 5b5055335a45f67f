// Package ingestion runs uploaded files through normalization, validation,
// deduplication and commit. A Session holds one file; ProcessDirectory and
// ImportFile drive sessions from the command line.
package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/fundimport/internal/domain/models"
	"github.com/guttosm/fundimport/internal/logger"
	"github.com/guttosm/fundimport/internal/tabular"
)

const maxParallelReads = 7

// supportedExt lists the file extensions picked up by ProcessDirectory.
var supportedExt = map[string]bool{
	".csv":  true,
	".tsv":  true,
	".txt":  true,
	".xlsx": true,
	".xlsm": true,
}

// ImportLog records which files were already imported, keyed by checksum.
type ImportLog interface {
	HasImport(ctx context.Context, checksum string) (bool, error)
	RecordImport(ctx context.Context, entry models.ImportLogEntry) error
}

// Repository is the store used by the command-line importers.
type Repository interface {
	Store
	ImportLog
}

// FileReport is the outcome of one file.
type FileReport struct {
	File     string
	Checksum string
	Skipped  bool                 // already imported and not forced
	Result   *models.ImportResult // nil when skipped or rejected
	Err      error                // format or mapping problem of this file
}

// DirOptions tunes ProcessDirectory.
type DirOptions struct {
	Parallel int // concurrent file reads, clamped to 1..7; 0 means min(7, NumCPU)
	Force    bool
	Config   Config
}

// ImportFile imports a single file from disk.
func ImportFile(ctx context.Context, path string, repo Repository, cfg Config, force bool) (FileReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileReport{File: path}, fmt.Errorf("read %s: %w", path, err)
	}
	return ImportSource(ctx, Source{Name: filepath.Base(path), Data: data}, repo, cfg, force)
}

// ImportSource runs src through a fresh session and records the import.
//
// A file whose checksum is already logged is skipped unless force is set.
// Format and mapping problems are reported on the FileReport; store errors
// are returned.
func ImportSource(ctx context.Context, src Source, repo Repository, cfg Config, force bool) (FileReport, error) {
	sum := sha256.Sum256(src.Data)
	rep := FileReport{File: src.Name, Checksum: hex.EncodeToString(sum[:])}

	exists, err := repo.HasImport(ctx, rep.Checksum)
	if err != nil {
		return rep, fmt.Errorf("file %s: check import log: %w", src.Name, err)
	}
	if exists && !force {
		logger.L().Info().Str("file", src.Name).Bool("skipped", true).Msg("already imported")
		rep.Skipped = true
		return rep, nil
	}

	s := NewSession(cfg)
	if err := s.Load(ctx, src); err != nil {
		var fe *tabular.FormatError
		if errors.As(err, &fe) {
			rep.Err = err
			return rep, nil
		}
		return rep, err
	}

	res, err := s.Import(ctx, repo, nil)
	if err != nil {
		var me *MappingError
		if errors.As(err, &me) {
			logger.L().Warn().Str("file", src.Name).Strs("missing", me.Missing).Msg("file not imported")
			rep.Err = err
			return rep, nil
		}
		return rep, fmt.Errorf("file %s: %w", src.Name, err)
	}
	rep.Result = res

	entry := models.ImportLogEntry{
		Checksum:   rep.Checksum,
		FileName:   src.Name,
		Success:    res.Success,
		Failed:     res.Failed,
		Skipped:    res.Skipped,
		ImportedAt: time.Now().UTC(),
	}
	if err := repo.RecordImport(ctx, entry); err != nil {
		return rep, fmt.Errorf("file %s: record import: %w", src.Name, err)
	}
	return rep, nil
}

// ProcessDirectory imports every supported file in dir.
//
// Files are read concurrently with at most opts.Parallel readers, then
// imported one at a time in name order so that later files see the holdings
// committed by earlier ones. The first read or store error cancels the run.
func ProcessDirectory(ctx context.Context, dir string, repo Repository, opts DirOptions) ([]FileReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !supportedExt[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("no importable files in %s", dir)
	}

	maxParallel := maxParallelReads
	if opts.Parallel > 0 {
		maxParallel = min(opts.Parallel, maxParallelReads)
	} else if c := runtime.NumCPU(); c < maxParallel {
		maxParallel = c
	}
	logger.L().Info().Int("files", len(files)).Str("dir", dir).Int("max_parallel", maxParallel).Msg("import start")

	sources := make([]Source, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", f, err)
			}
			sources[i] = Source{Name: filepath.Base(f), Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	reports := make([]FileReport, 0, len(sources))
	for i, src := range sources {
		start := time.Now()
		rep, err := ImportSource(ctx, src, repo, opts.Config, opts.Force)
		reports = append(reports, rep)
		if err != nil {
			logger.L().Error().Str("file", src.Name).Err(err).Msg("file failed")
			return reports, err
		}
		ev := logger.L().Info().Int("idx", i+1).Int("total", len(sources)).Str("file", src.Name).Dur("elapsed", time.Since(start))
		if rep.Result != nil {
			ev = ev.Int("success", rep.Result.Success).Int("failed", rep.Result.Failed).Int("skipped", rep.Result.Skipped)
		}
		if rep.Err != nil {
			ev = ev.AnErr("rejected", rep.Err)
		}
		ev.Bool("already_imported", rep.Skipped).Msg("file done")
	}
	return reports, nil
}
