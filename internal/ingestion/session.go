package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/guttosm/fundimport/internal/audit"
	"github.com/guttosm/fundimport/internal/domain/models"
	"github.com/guttosm/fundimport/internal/logger"
	"github.com/guttosm/fundimport/internal/mapping"
	"github.com/guttosm/fundimport/internal/tabular"
)

const (
	duplicateField   = "重复记录"
	duplicateMessage = "已存在相同的持仓记录，已跳过"
	commitField      = "批量添加"
)

// State is the lifecycle position of a Session.
type State int32

const (
	StateIdle State = iota
	StateReading
	StateMapping
	StatePreviewing
	StateImporting
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StateMapping:
		return "mapping"
	case StatePreviewing:
		return "previewing"
	case StateImporting:
		return "importing"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == StateCompleted || s == StateAborted }

// Source is an uploaded file.
type Source struct {
	Name string
	Data []byte
}

// Store is the holdings collaborator of an import.
type Store interface {
	ListHoldings(ctx context.Context) ([]models.Holding, error)
	CommitBatch(ctx context.Context, holdings []models.Holding) (models.CommitResult, error)
}

// Config tunes a Session.
type Config struct {
	Reader        tabular.Options
	Mapper        mapping.Config
	PreviewRows   int
	AuditCapacity int
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() Config {
	return Config{
		Reader:        tabular.DefaultOptions(),
		Mapper:        mapping.DefaultConfig(),
		PreviewRows:   10,
		AuditCapacity: 1000,
	}
}

// Progress is a point-in-time view of the row counters.
type Progress struct {
	Current int64 `json:"current"`
	Total   int64 `json:"total"`
}

// Percent returns Current/Total rounded down, 0 when nothing is known yet.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return int(p.Current * 100 / p.Total)
}

// ProgressFunc is called after every processed row. It runs on the import
// goroutine and must not call back into the session's mutating methods.
type ProgressFunc func(Progress)

// Snapshot is a consistent copy of a session's observable state.
type Snapshot struct {
	ID             string
	FileName       string
	Checksum       string
	Format         tabular.Format
	State          State
	Headers        []string
	Rows           int
	Fields         []mapping.FieldSpec
	RequiredMapped int
	RequiredTotal  int
	Suggestions    []mapping.Suggestion
	Preview        []models.Holding
	Progress       Progress
	Result         *models.ImportResult
	Err            error
	CreatedAt      time.Time
}

// Session drives one file through read, mapping, preview and import.
//
// Transitions are serialized by mu. The progress counters are atomics so
// they can be sampled while an import runs without taking the lock.
type Session struct {
	id        string
	cfg       Config
	now       func() time.Time
	newID     func() string
	lg        *zerolog.Logger
	audit     *audit.Log
	mapper    *mapping.Mapper
	createdAt time.Time

	mu       sync.Mutex
	state    State
	name     string
	checksum string
	table    *tabular.RawTable
	mp       *mapping.Mapping
	preview  []models.Holding
	result   *models.ImportResult
	err      error
	running  bool

	current atomic.Int64
	total   atomic.Int64
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source used for NAV dates, the future-date
// rule and audit timestamps.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// WithIDGenerator overrides the record id source.
func WithIDGenerator(newID func() string) Option { return func(s *Session) { s.newID = newID } }

// WithID fixes the session id.
func WithID(id string) Option { return func(s *Session) { s.id = id } }

// WithLogger replaces the session logger.
func WithLogger(lg zerolog.Logger) Option { return func(s *Session) { s.lg = &lg } }

// NewSession returns an idle session.
func NewSession(cfg Config, opts ...Option) *Session {
	s := &Session{
		cfg:   cfg,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.lg == nil {
		lg := logger.ForImport(s.id, "")
		s.lg = &lg
	}
	s.createdAt = s.now()
	s.audit = audit.New(cfg.AuditCapacity, audit.WithClock(s.now), audit.WithMirror(s.lg))
	s.mapper = mapping.New(cfg.Mapper, nil)
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Audit returns the session's audit log.
func (s *Session) Audit() *audit.Log { return s.audit }

// Load reads src, infers the mapping and builds the preview. It is only
// allowed on an idle session. A FormatError aborts the session.
func (s *Session) Load(ctx context.Context, src Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return fmt.Errorf("%w: load from %s", ErrInvalidState, s.state)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := s.now()
	sum := sha256.Sum256(src.Data)
	s.name = src.Name
	s.checksum = hex.EncodeToString(sum[:])
	*s.lg = s.lg.With().Str("file", src.Name).Logger()
	s.state = StateReading
	s.audit.Addf(audit.StageSession, "load %q (%d bytes)", src.Name, len(src.Data))

	table, err := tabular.Read(src.Name, src.Data, s.cfg.Reader)
	if err != nil {
		s.abort(err)
		return fmt.Errorf("read %s: %w", src.Name, err)
	}
	s.table = table
	s.audit.Addf(audit.StageRead, "format=%s encoding=%s columns=%d rows=%d", table.Format, table.Encoding, len(table.Headers), len(table.Rows))
	s.audit.Addf(audit.StageHeader, "header at line %d: %v", table.HeaderLine, table.Headers)

	s.state = StateMapping
	s.mp = s.mapper.Infer(table.Headers, table.Rows, s.audit)
	s.refreshPreview()

	s.lg.Info().
		Str("format", string(table.Format)).
		Int("rows", len(table.Rows)).
		Int("mapped", s.mp.MappedCount()).
		Dur("elapsed", s.now().Sub(start)).
		Msg("file loaded")
	return nil
}

// Assign overrides the column of one field and rebuilds the preview.
func (s *Session) Assign(id mapping.FieldID, col int) error {
	return s.remap(func(mp *mapping.Mapping) error {
		if err := mp.Assign(id, col); err != nil {
			return err
		}
		s.audit.Addf(audit.StageMapping, "manual: %s -> column %d %q", mapping.Label(id), col+1, mp.Headers()[col])
		return nil
	})
}

// Clear unbinds one field and rebuilds the preview.
func (s *Session) Clear(id mapping.FieldID) error {
	return s.remap(func(mp *mapping.Mapping) error {
		if err := mp.Clear(id); err != nil {
			return err
		}
		s.audit.Addf(audit.StageMapping, "manual: %s cleared", mapping.Label(id))
		return nil
	})
}

func (s *Session) remap(change func(*mapping.Mapping) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePreviewing {
		return fmt.Errorf("%w: remap in %s", ErrInvalidState, s.state)
	}
	s.state = StateMapping
	if err := change(s.mp); err != nil {
		s.state = StatePreviewing
		return err
	}
	s.refreshPreview()
	return nil
}

// refreshPreview normalizes the leading rows once every required field is
// mapped and moves the session to Previewing. Callers hold mu.
func (s *Session) refreshPreview() {
	s.preview = nil
	if !s.mp.AllRequiredMapped() {
		s.audit.Addf(audit.StagePreview, "no preview, missing %v", s.mp.MissingRequired())
		s.state = StatePreviewing
		return
	}
	n := min(s.cfg.PreviewRows, len(s.table.Rows))
	norm := NewNormalizer(s.now, s.newID)
	s.preview = make([]models.Holding, 0, n)
	for i := 0; i < n; i++ {
		s.preview = append(s.preview, norm.Normalize(s.table.Rows[i], s.table.Lines[i], s.mp).Holding)
	}
	s.audit.Addf(audit.StagePreview, "%d of %d rows", n, len(s.table.Rows))
	s.state = StatePreviewing
}

// Preview returns the normalized leading rows, nil while required fields
// are unmapped.
func (s *Session) Preview() []models.Holding {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Holding(nil), s.preview...)
}

// Import validates, deduplicates and commits every row. It is Begin
// followed by Run.
func (s *Session) Import(ctx context.Context, store Store, onProgress ProgressFunc) (*models.ImportResult, error) {
	if err := s.Begin(); err != nil {
		return nil, err
	}
	return s.Run(ctx, store, onProgress)
}

// Begin moves a previewing session to Importing. It fails with
// ErrInvalidState outside Previewing and with a MappingError, leaving the
// state unchanged, while a required field is unmapped. Once Begin succeeds
// the mapping is frozen.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePreviewing {
		return fmt.Errorf("%w: import from %s", ErrInvalidState, s.state)
	}
	if !s.mp.AllRequiredMapped() {
		return &MappingError{Missing: s.mp.MissingRequired()}
	}
	s.state = StateImporting
	s.current.Store(0)
	s.total.Store(int64(len(s.table.Rows)))
	return nil
}

// Run processes the rows of a session started with Begin. The context is
// checked between rows; cancellation before the commit aborts the session
// without writing anything.
func (s *Session) Run(ctx context.Context, store Store, onProgress ProgressFunc) (*models.ImportResult, error) {
	s.mu.Lock()
	if s.state != StateImporting || s.running {
		st := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: run from %s", ErrInvalidState, st)
	}
	s.running = true
	table, mp := s.table, s.mp
	s.mu.Unlock()

	start := s.now()
	s.audit.Addf(audit.StageSession, "import started, %d rows", len(table.Rows))

	existing, err := store.ListHoldings(ctx)
	if err != nil {
		return nil, s.fail(fmt.Errorf("list holdings: %w", err))
	}
	dedup := NewDeduplicator(existing)
	s.audit.Addf(audit.StageDedup, "%d stored keys", dedup.Stored())

	norm := NewNormalizer(s.now, s.newID)
	val := NewValidator(s.now)
	res := &models.ImportResult{}
	var pending []models.Holding
	var pendingLines []int

	for i, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			s.audit.Addf(audit.StageSession, "cancelled at row %d of %d", i, len(table.Rows))
			return nil, s.fail(err)
		}
		c := norm.Normalize(row, table.Lines[i], mp)
		if errs := val.Validate(c); len(errs) > 0 {
			res.Failed++
			res.Errors = append(res.Errors, errs...)
			s.audit.Addf(audit.StageValidate, "line %d: %d rule(s) failed", c.Line, len(errs))
		} else if !dedup.Admit(c.Holding) {
			res.Skipped++
			res.Errors = append(res.Errors, models.RowError{Line: c.Line, Field: duplicateField, Message: duplicateMessage})
			s.audit.Addf(audit.StageDedup, "line %d: duplicate %s", c.Line, c.Holding.NaturalKey())
		} else {
			pending = append(pending, c.Holding)
			pendingLines = append(pendingLines, c.Line)
		}
		cur := s.current.Add(1)
		if onProgress != nil {
			onProgress(Progress{Current: cur, Total: int64(len(table.Rows))})
		}
	}

	if err := ctx.Err(); err != nil {
		s.audit.Add(audit.StageSession, "cancelled before commit")
		return nil, s.fail(err)
	}

	if len(pending) > 0 {
		cr, err := store.CommitBatch(ctx, pending)
		if err != nil {
			return nil, s.fail(fmt.Errorf("commit batch: %w", err))
		}
		res.Success += cr.Success
		res.Failed += cr.Failed
		for _, f := range cr.Errors {
			line := 0
			if f.Index >= 0 && f.Index < len(pendingLines) {
				line = pendingLines[f.Index]
			}
			res.Errors = append(res.Errors, models.RowError{Line: line, Field: commitField, Message: f.Message})
		}
		s.audit.Addf(audit.StageCommit, "%d committed, %d failed", cr.Success, cr.Failed)
	}

	s.mu.Lock()
	s.state = StateCompleted
	s.result = res
	s.mu.Unlock()

	s.audit.Addf(audit.StageSession, "done: success=%d failed=%d skipped=%d", res.Success, res.Failed, res.Skipped)
	s.lg.Info().
		Int("rows", len(table.Rows)).
		Int("success", res.Success).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Dur("elapsed", s.now().Sub(start)).
		Msg("import done")

	out := *res
	return &out, nil
}

// Progress samples the row counters without locking.
func (s *Session) Progress() Progress {
	return Progress{Current: s.current.Load(), Total: s.total.Load()}
}

// Result returns the import outcome, nil until the session completes.
func (s *Session) Result() *models.ImportResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	out := *s.result
	return &out
}

// Err returns the error that aborted the session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Checksum returns the sha256 of the loaded file, hex encoded.
func (s *Session) Checksum() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checksum
}

// FileName returns the name the file was loaded under.
func (s *Session) FileName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// Snapshot returns a copy of everything a caller may want to render.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:        s.id,
		FileName:  s.name,
		Checksum:  s.checksum,
		State:     s.state,
		Progress:  s.Progress(),
		Err:       s.err,
		CreatedAt: s.createdAt,
		Preview:   append([]models.Holding(nil), s.preview...),
	}
	if s.table != nil {
		snap.Format = s.table.Format
		snap.Headers = append([]string(nil), s.table.Headers...)
		snap.Rows = len(s.table.Rows)
	}
	if s.mp != nil {
		snap.Fields = s.mp.Fields()
		snap.RequiredMapped = s.mp.RequiredMapped()
		snap.RequiredTotal = s.mp.RequiredTotal()
		snap.Suggestions = s.mapper.Suggestions(s.mp)
	} else {
		snap.Fields = mapping.Fields()
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	return snap
}

// abort moves to Aborted. Callers hold mu.
func (s *Session) abort(err error) {
	s.state = StateAborted
	s.err = err
	s.audit.Addf(audit.StageSession, "aborted: %v", err)
	s.lg.Error().Err(err).Msg("import aborted")
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.abort(err)
	s.mu.Unlock()
	return err
}
