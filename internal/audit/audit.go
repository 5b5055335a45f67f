// Package audit keeps the ordered, bounded trace of decisions an import makes.
package audit

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Stage names the pipeline step that produced an entry.
type Stage string

const (
	StageRead     Stage = "read"
	StageHeader   Stage = "header"
	StageMapping  Stage = "mapping"
	StagePreview  Stage = "preview"
	StageValidate Stage = "validate"
	StageDedup    Stage = "dedup"
	StageCommit   Stage = "commit"
	StageSession  Stage = "session"
)

// Entry is one audit line.
type Entry struct {
	Time    time.Time `json:"time"`
	Stage   Stage     `json:"stage"`
	Message string    `json:"message"`
}

// Log is an append-only ring of entries. Once full, the oldest entries are
// dropped. It is safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	entries []Entry
	start   int
	size    int
	dropped int
	now     func() time.Time
	mirror  *zerolog.Logger
}

// Option configures a Log.
type Option func(*Log)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

// WithMirror copies every entry to lg at debug level.
func WithMirror(lg *zerolog.Logger) Option {
	return func(l *Log) { l.mirror = lg }
}

// New returns a Log holding at most capacity entries.
func New(capacity int, opts ...Option) *Log {
	if capacity < 1 {
		capacity = 1
	}
	l := &Log{entries: make([]Entry, capacity), now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Add appends an entry.
func (l *Log) Add(stage Stage, msg string) {
	e := Entry{Time: l.now(), Stage: stage, Message: msg}

	l.mu.Lock()
	idx := (l.start + l.size) % len(l.entries)
	l.entries[idx] = e
	if l.size < len(l.entries) {
		l.size++
	} else {
		l.start = (l.start + 1) % len(l.entries)
		l.dropped++
	}
	l.mu.Unlock()

	if l.mirror != nil {
		l.mirror.Debug().Str("stage", string(stage)).Msg(msg)
	}
}

// Addf appends a formatted entry.
func (l *Log) Addf(stage Stage, format string, args ...any) {
	l.Add(stage, fmt.Sprintf(format, args...))
}

// Entries returns a copy of the retained entries, oldest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, l.size)
	for i := 0; i < l.size; i++ {
		out[i] = l.entries[(l.start+i)%len(l.entries)]
	}
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// Dropped returns how many entries were evicted.
func (l *Log) Dropped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}
