package mapping

import (
	"errors"
	"fmt"
	"strings"

	"github.com/guttosm/fundimport/internal/audit"
)

var (
	ErrUnknownField     = errors.New("unknown field")
	ErrColumnOutOfRange = errors.New("column out of range")
)

const (
	suggestionSampleRows = 3
	maxSuggestions       = 3
)

// Config holds the content-pass thresholds.
type Config struct {
	SampleRows     int // body rows sampled per column
	MinScorePerRow int // a column matches when score >= sampled rows * MinScorePerRow
}

// DefaultConfig returns the content-pass defaults.
func DefaultConfig() Config {
	return Config{SampleRows: 5, MinScorePerRow: 2}
}

// Mapper runs the inference passes with a fixed rule table.
type Mapper struct {
	rules []Rule
	cfg   Config
}

// New returns a Mapper over rules. A nil rules slice selects DefaultRules.
func New(cfg Config, rules []Rule) *Mapper {
	if rules == nil {
		rules = DefaultRules
	}
	if cfg.SampleRows < 1 {
		cfg.SampleRows = DefaultConfig().SampleRows
	}
	if cfg.MinScorePerRow < 1 {
		cfg.MinScorePerRow = DefaultConfig().MinScorePerRow
	}
	return &Mapper{rules: rules, cfg: cfg}
}

// Infer binds fields to columns of headers, using rows for the content pass.
// Every decision is appended to log when it is non-nil.
func (m *Mapper) Infer(headers []string, rows [][]string, log *audit.Log) *Mapping {
	mp := newMapping(headers, rows)
	note := func(format string, args ...any) {
		if log != nil {
			log.Addf(audit.StageMapping, format, args...)
		}
	}
	note("auto-mapping %d columns", len(headers))

	m.headerPass(mp, "exact match", m.exactMatch, note)
	m.headerPass(mp, "keyword match", m.keywordMatch, note)

	if missing := mp.unmappedRequired(); len(missing) > 0 && len(rows) > 0 {
		note("content pass: %d required fields unmapped", len(missing))
		m.contentPass(mp, rows, note)
	}

	if missing := mp.unmappedRequired(); len(missing) > 0 {
		note("positional fallback: %d required fields unmapped", len(missing))
		col := 0
		for _, f := range missing {
			for col < len(headers) && mp.claimed(col) {
				col++
			}
			if col >= len(headers) {
				note("fallback: no free column left for %s", f.Label)
				continue
			}
			mp.bind(f.ID, col)
			note("fallback: %s -> column %d %q", f.Label, col+1, headers[col])
		}
	}

	name, id := mp.field(ClientName), mp.field(ClientID)
	if !name.Mapped() && id.Mapped() {
		mp.bind(ClientName, *id.ColumnIndex)
		mp.alias = true
		note("alias: %s uses the %s column %d", name.Label, id.Label, *id.ColumnIndex+1)
	}

	note("auto-mapping done: %d/%d fields mapped, %d/%d required",
		mp.MappedCount(), len(mp.fields), mp.RequiredMapped(), mp.RequiredTotal())
	return mp
}

type matchFunc func(field FieldID, header string) bool

func (m *Mapper) headerPass(mp *Mapping, pass string, match matchFunc, note func(string, ...any)) {
	for col, raw := range mp.headers {
		if mp.claimed(col) {
			continue
		}
		h := normalizeHeader(raw)
		for i := range mp.fields {
			f := &mp.fields[i]
			if f.Mapped() || !match(f.ID, h) {
				continue
			}
			mp.bind(f.ID, col)
			note("%s: column %d %q -> %s", pass, col+1, raw, f.Label)
			break
		}
	}
}

func (m *Mapper) excluded(field FieldID, h string) bool {
	for _, r := range m.rules {
		if r.Field == field && r.Kind == Exclude && strings.Contains(h, r.Pattern) {
			return true
		}
	}
	return false
}

func (m *Mapper) exactMatch(field FieldID, h string) bool {
	if m.excluded(field, h) {
		return false
	}
	for _, r := range m.rules {
		if r.Field != field {
			continue
		}
		switch r.Kind {
		case Exact:
			if h == r.Pattern {
				return true
			}
		case ExactContains:
			if strings.Contains(h, r.Pattern) {
				return true
			}
		}
	}
	return false
}

func (m *Mapper) keywordMatch(field FieldID, h string) bool {
	if m.excluded(field, h) {
		return false
	}
	for _, r := range m.rules {
		if r.Field == field && r.Kind == Substring && strings.Contains(h, r.Pattern) {
			return true
		}
	}
	return false
}

// contentScore returns the best content weight of field for one sample.
func (m *Mapper) contentScore(field FieldID, sample string) int {
	best := 0
	for _, r := range m.rules {
		if r.Field == field && r.Kind == Content && r.Weight > best && r.Match != nil && r.Match(sample) {
			best = r.Weight
		}
	}
	return best
}

func (m *Mapper) contentPass(mp *Mapping, rows [][]string, note func(string, ...any)) {
	n := m.cfg.SampleRows
	if n > len(rows) {
		n = len(rows)
	}
	threshold := n * m.cfg.MinScorePerRow

	for col := range mp.headers {
		if mp.claimed(col) {
			continue
		}
		for i := range mp.fields {
			f := &mp.fields[i]
			if !f.Required || f.Mapped() {
				continue
			}
			score := 0
			for _, row := range rows[:n] {
				if col >= len(row) {
					continue
				}
				if s := strings.TrimSpace(row[col]); s != "" {
					score += m.contentScore(f.ID, s)
				}
			}
			if score >= threshold {
				mp.bind(f.ID, col)
				note("content match: column %d %q -> %s (score %d, threshold %d)", col+1, mp.headers[col], f.Label, score, threshold)
				break
			}
		}
	}
}

// Suggestions returns up to three hints for required fields that are still
// unmapped, derived from header keywords or the first non-empty sample of
// each free column.
func (m *Mapper) Suggestions(mp *Mapping) []Suggestion {
	var out []Suggestion
	missing := mp.unmappedRequired()
	if len(missing) == 0 {
		return nil
	}
	for col, raw := range mp.headers {
		if len(out) >= maxSuggestions {
			break
		}
		if mp.claimed(col) {
			continue
		}
		h := normalizeHeader(raw)
		sample := mp.firstSample(col)
		for _, f := range missing {
			if m.keywordMatch(f.ID, h) {
				out = append(out, Suggestion{Field: f.ID, Column: col, Message: fmt.Sprintf("将%q映射为%q", raw, f.Label)})
				break
			}
			if sample != "" && m.contentScore(f.ID, sample) >= 3 {
				out = append(out, Suggestion{Field: f.ID, Column: col, Message: fmt.Sprintf("检测到%s格式: %q", f.Label, sample)})
				break
			}
		}
	}
	return out
}

// Suggestion is a mapping hint.
type Suggestion struct {
	Field   FieldID `json:"field"`
	Column  int     `json:"column"`
	Message string  `json:"message"`
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
