package mapping

import (
	"fmt"
	"strings"
)

// Mapping is the field-to-column binding of one table.
//
// It is not safe for concurrent use; the import session serialises access.
type Mapping struct {
	headers []string
	samples [][]string
	fields  []FieldSpec
	alias   bool // client name borrows the client id column
}

func newMapping(headers []string, rows [][]string) *Mapping {
	n := suggestionSampleRows
	if n > len(rows) {
		n = len(rows)
	}
	return &Mapping{
		headers: headers,
		samples: rows[:n],
		fields:  Fields(),
	}
}

// Headers returns the header row the mapping was inferred from.
func (m *Mapping) Headers() []string { return m.headers }

// Fields returns a copy of the field table with the current bindings.
func (m *Mapping) Fields() []FieldSpec {
	out := make([]FieldSpec, len(m.fields))
	for i, f := range m.fields {
		out[i] = f
		if f.ColumnIndex != nil {
			c := *f.ColumnIndex
			out[i].ColumnIndex = &c
		}
	}
	return out
}

// Column returns the column bound to id.
func (m *Mapping) Column(id FieldID) (int, bool) {
	f := m.field(id)
	if f.ColumnIndex == nil {
		return 0, false
	}
	return *f.ColumnIndex, true
}

// Value returns the trimmed cell of row bound to id, or "" when unmapped.
func (m *Mapping) Value(row []string, id FieldID) string {
	col, ok := m.Column(id)
	if !ok || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// Aliased reports whether the client name reuses the client id column.
func (m *Mapping) Aliased() bool { return m.alias }

// AllRequiredMapped reports whether every required field is bound.
func (m *Mapping) AllRequiredMapped() bool {
	return len(m.unmappedRequired()) == 0
}

// RequiredMapped returns the number of bound required fields.
func (m *Mapping) RequiredMapped() int {
	return m.RequiredTotal() - len(m.unmappedRequired())
}

// RequiredTotal returns the number of required fields.
func (m *Mapping) RequiredTotal() int {
	n := 0
	for _, f := range m.fields {
		if f.Required {
			n++
		}
	}
	return n
}

// MappedCount returns the number of bound fields, aliases included.
func (m *Mapping) MappedCount() int {
	n := 0
	for _, f := range m.fields {
		if f.Mapped() {
			n++
		}
	}
	return n
}

// MissingRequired returns the labels of unbound required fields.
func (m *Mapping) MissingRequired() []string {
	var out []string
	for _, f := range m.unmappedRequired() {
		out = append(out, f.Label)
	}
	return out
}

// Assign binds id to col. Any other field holding col is released, except
// an aliased client name, which follows the client id column. Assigning the
// client name to the client id column turns it into an alias.
func (m *Mapping) Assign(id FieldID, col int) error {
	if _, ok := m.index(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, id)
	}
	if col < 0 || col >= len(m.headers) {
		return fmt.Errorf("%w: %d (table has %d columns)", ErrColumnOutOfRange, col, len(m.headers))
	}
	if idCol, ok := m.Column(ClientID); ok && id == ClientName && idCol == col {
		m.alias = true
		m.syncAlias()
		return nil
	}
	for i := range m.fields {
		f := &m.fields[i]
		if f.ID == id || f.ColumnIndex == nil || *f.ColumnIndex != col {
			continue
		}
		if f.ID == ClientName && m.alias {
			continue
		}
		f.ColumnIndex = nil
	}
	if id == ClientName {
		m.alias = false
	}
	m.bind(id, col)
	m.syncAlias()
	return nil
}

// Clear unbinds id.
func (m *Mapping) Clear(id FieldID) error {
	i, ok := m.index(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, id)
	}
	m.fields[i].ColumnIndex = nil
	if id == ClientName {
		m.alias = false
	}
	m.syncAlias()
	return nil
}

func (m *Mapping) syncAlias() {
	if !m.alias {
		return
	}
	ni, _ := m.index(ClientName)
	if col, ok := m.Column(ClientID); ok {
		m.fields[ni].ColumnIndex = &col
		return
	}
	m.fields[ni].ColumnIndex = nil
	m.alias = false
}

func (m *Mapping) index(id FieldID) (int, bool) {
	for i, f := range m.fields {
		if f.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (m *Mapping) field(id FieldID) FieldSpec {
	if i, ok := m.index(id); ok {
		return m.fields[i]
	}
	return FieldSpec{ID: id}
}

func (m *Mapping) bind(id FieldID, col int) {
	if i, ok := m.index(id); ok {
		c := col
		m.fields[i].ColumnIndex = &c
	}
}

// claimed reports whether a non-alias field holds col.
func (m *Mapping) claimed(col int) bool {
	for _, f := range m.fields {
		if f.ColumnIndex == nil || *f.ColumnIndex != col {
			continue
		}
		if f.ID == ClientName && m.alias {
			continue
		}
		return true
	}
	return false
}

func (m *Mapping) unmappedRequired() []FieldSpec {
	var out []FieldSpec
	for _, f := range m.fields {
		if f.Required && !f.Mapped() {
			out = append(out, f)
		}
	}
	return out
}

func (m *Mapping) firstSample(col int) string {
	for _, r := range m.samples {
		if col < len(r) {
			if s := strings.TrimSpace(r[col]); s != "" {
				return s
			}
		}
	}
	return ""
}
