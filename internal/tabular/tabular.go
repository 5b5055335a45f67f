// Package tabular turns uploaded bytes into a RawTable: a header row plus
// equally sized body rows, each remembering the physical line it came from.
//
// Two source families are supported. Delimited text (CSV, TSV, semicolon or
// pipe separated) is decoded through a chain of legacy encodings before being
// split. Spreadsheets are read with excelize; only the first sheet is used and
// the header row is located heuristically, since exports often carry a title
// block above the real header.
package tabular

import "fmt"

// Format identifies the source family of a table.
type Format string

const (
	FormatDelimited   Format = "delimited"
	FormatSpreadsheet Format = "spreadsheet"
)

// RawTable is the untyped grid produced by Read.
//
// Every element of Rows has exactly len(Headers) cells. Lines[i] is the
// 1-based physical line (or sheet row) of Rows[i]; rows that were blank in the
// source are gone from Rows but the numbering of the remaining ones is kept.
type RawTable struct {
	Format     Format
	Encoding   string // decoder that produced the text, delimited sources only
	Delimiter  rune   // delimited sources only
	HeaderLine int    // physical line of the header row
	Headers    []string
	Rows       [][]string
	Lines      []int
}

// Column returns the cells of column idx, top to bottom.
func (t *RawTable) Column(idx int) []string {
	if idx < 0 || idx >= len(t.Headers) {
		return nil
	}
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out
}

// Options tunes the reader.
type Options struct {
	// HeaderScanRows is how many leading non-blank spreadsheet rows compete for the header.
	HeaderScanRows int
}

// DefaultOptions returns the reader defaults.
func DefaultOptions() Options {
	return Options{HeaderScanRows: 5}
}

// FormatError reports a source that cannot be turned into a table at all.
// It is fatal: no row of the file is processed.
type FormatError struct {
	Name   string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unreadable file %q: %s: %v", e.Name, e.Reason, e.Err)
	}
	return fmt.Sprintf("unreadable file %q: %s", e.Name, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// columnName is the placeholder for a blank header cell; n is 1-based.
func columnName(n int) string {
	return fmt.Sprintf("Column %d", n)
}

// shape pads or truncates every row to width cells.
func shape(rows [][]string, width int) [][]string {
	for i, r := range rows {
		switch {
		case len(r) < width:
			padded := make([]string, width)
			copy(padded, r)
			rows[i] = padded
		case len(r) > width:
			rows[i] = r[:width]
		}
	}
	return rows
}

func isBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
