package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/guttosm/fundimport/internal/audit"
	"github.com/guttosm/fundimport/internal/domain/models"
	"github.com/guttosm/fundimport/internal/ingestion"
	"github.com/guttosm/fundimport/internal/logger"
	"github.com/guttosm/fundimport/internal/mapping"
	"github.com/guttosm/fundimport/internal/storage"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("import session not found")

// ErrFileTooLarge is returned when an upload exceeds the configured limit.
var ErrFileTooLarge = errors.New("file too large")

// ClearColumn passed to Remap unbinds the field.
const ClearColumn = -1

// ImportService defines business logic for interactive imports.
type ImportService interface {
	Start(ctx context.Context, name string, data []byte) (ingestion.Snapshot, error)
	Get(id string) (ingestion.Snapshot, error)
	Remap(id, field string, column int) (ingestion.Snapshot, error)
	Commit(id string) (ingestion.Snapshot, error)
	Discard(id string) error
	Audit(id string) ([]audit.Entry, error)
	Holdings(ctx context.Context) ([]models.Holding, error)
	Shutdown()
}

// Options tunes the import service.
type Options struct {
	Pipeline   ingestion.Config
	SessionTTL time.Duration
	MaxBytes   int64
}

// sessionEntry is the cache value of one session. mu serializes commits,
// remaps and every cache write of the entry.
type sessionEntry struct {
	s *ingestion.Session

	mu      sync.Mutex
	started bool
	running bool // pinned in the cache until the import returns
	cancel  context.CancelFunc
}

type importService struct {
	repo     storage.HoldingsRepository
	opts     Options
	sessions *cache.Cache
	wg       sync.WaitGroup
}

func NewImportService(repo storage.HoldingsRepository, opts Options) ImportService {
	s := &importService{
		repo:     repo,
		opts:     opts,
		sessions: cache.New(opts.SessionTTL, opts.SessionTTL/2),
	}
	s.sessions.OnEvicted(func(id string, v interface{}) {
		e := v.(*sessionEntry)
		e.mu.Lock()
		if e.cancel != nil {
			e.cancel()
		}
		e.mu.Unlock()
		logger.L().Debug().Str("import_id", id).Msg("import session evicted")
	})
	return s
}

// Start loads an uploaded file into a new session. Format errors are
// returned and the session is not kept.
func (s *importService) Start(ctx context.Context, name string, data []byte) (ingestion.Snapshot, error) {
	if s.opts.MaxBytes > 0 && int64(len(data)) > s.opts.MaxBytes {
		return ingestion.Snapshot{}, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, len(data), s.opts.MaxBytes)
	}
	sess := ingestion.NewSession(s.opts.Pipeline)
	if err := sess.Load(ctx, ingestion.Source{Name: name, Data: data}); err != nil {
		return ingestion.Snapshot{}, err
	}
	s.sessions.SetDefault(sess.ID(), &sessionEntry{s: sess})
	return sess.Snapshot(), nil
}

func (s *importService) Get(id string) (ingestion.Snapshot, error) {
	e, err := s.entry(id)
	if err != nil {
		return ingestion.Snapshot{}, err
	}
	return e.s.Snapshot(), nil
}

// Remap binds field to column, or clears it when column is ClearColumn.
// The mapping is frozen once a commit was accepted.
func (s *importService) Remap(id, field string, column int) (ingestion.Snapshot, error) {
	e, err := s.entry(id)
	if err != nil {
		return ingestion.Snapshot{}, err
	}
	f, ok := mapping.ParseField(field)
	if !ok {
		return ingestion.Snapshot{}, fmt.Errorf("%w: %s", mapping.ErrUnknownField, field)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return ingestion.Snapshot{}, fmt.Errorf("%w: remap after commit", ingestion.ErrInvalidState)
	}
	if column == ClearColumn {
		err = e.s.Clear(f)
	} else {
		err = e.s.Assign(f, column)
	}
	if err != nil {
		return ingestion.Snapshot{}, err
	}
	return e.s.Snapshot(), nil
}

// Commit moves the session to Importing and runs the import in the
// background. The request context is not used: the import outlives the
// request and is cancelled only by Discard or Shutdown. While it runs the
// session does not expire.
func (s *importService) Commit(id string) (ingestion.Snapshot, error) {
	e, err := s.entry(id)
	if err != nil {
		return ingestion.Snapshot{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		snap := e.s.Snapshot()
		return snap, fmt.Errorf("%w: commit from %s", ingestion.ErrInvalidState, snap.State)
	}
	if err := e.s.Begin(); err != nil {
		return e.s.Snapshot(), err
	}
	// Replace fails once a discard or expiry removed the entry.
	if err := s.sessions.Replace(id, e, cache.NoExpiration); err != nil {
		return ingestion.Snapshot{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.started = true
	e.running = true
	e.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.run(ctx, e.s)

		e.mu.Lock()
		e.running = false
		// fails when the session was discarded meanwhile
		_ = s.sessions.Replace(id, e, cache.DefaultExpiration)
		e.mu.Unlock()
	}()

	return e.s.Snapshot(), nil
}

func (s *importService) run(ctx context.Context, sess *ingestion.Session) {
	lg := logger.ForImport(sess.ID(), sess.FileName())
	res, err := sess.Run(ctx, s.repo, nil)
	if err != nil {
		lg.Error().Err(err).Msg("import failed")
		return
	}
	entry := models.ImportLogEntry{
		Checksum:   sess.Checksum(),
		FileName:   sess.FileName(),
		Success:    res.Success,
		Failed:     res.Failed,
		Skipped:    res.Skipped,
		ImportedAt: time.Now().UTC(),
	}
	if err := s.repo.RecordImport(context.Background(), entry); err != nil {
		lg.Error().Err(err).Msg("record import failed")
	}
}

// Discard cancels a running import and forgets the session.
func (s *importService) Discard(id string) error {
	if _, err := s.entry(id); err != nil {
		return err
	}
	s.sessions.Delete(id)
	return nil
}

func (s *importService) Audit(id string) ([]audit.Entry, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	return e.s.Audit().Entries(), nil
}

func (s *importService) Holdings(ctx context.Context) ([]models.Holding, error) {
	return s.repo.ListHoldings(ctx)
}

// Shutdown cancels running imports and waits for them to return.
func (s *importService) Shutdown() {
	for _, item := range s.sessions.Items() {
		e := item.Object.(*sessionEntry)
		e.mu.Lock()
		if e.cancel != nil {
			e.cancel()
		}
		e.mu.Unlock()
	}
	s.wg.Wait()
}

// entry looks up a session and extends its lifetime. Running sessions
// stay pinned.
func (s *importService) entry(id string) (*sessionEntry, error) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	e := v.(*sessionEntry)
	e.mu.Lock()
	if !e.running {
		s.sessions.SetDefault(id, e)
	}
	e.mu.Unlock()
	return e, nil
}
