package models

import "time"

// RowError describes why a source row was excluded from an import.
//
// Line is the 1-based physical line (or sheet row) the record came from.
// Field is the user-facing label of the offending field.
type RowError struct {
	Line    int    `json:"line" example:"3"`
	Field   string `json:"field" example:"基金代码"`
	Message string `json:"message" example:"基金代码必须是6位数字"`
}

// ImportResult is the itemized outcome of one import run.
type ImportResult struct {
	Success int        `json:"success"`
	Failed  int        `json:"failed"`
	Skipped int        `json:"skipped"`
	Errors  []RowError `json:"errors"`
}

// Total returns the number of rows accounted for by the result.
func (r ImportResult) Total() int {
	return r.Success + r.Failed + r.Skipped
}

// CommitFailure reports a record the store refused. Index points into the
// slice handed to CommitBatch; Message is the store's text, unmodified.
type CommitFailure struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// CommitResult is returned by a store after a batch commit.
type CommitResult struct {
	Success int             `json:"success"`
	Failed  int             `json:"failed"`
	Errors  []CommitFailure `json:"errors,omitempty"`
}

// ImportLogEntry records a completed import of one source file.
type ImportLogEntry struct {
	Checksum   string    `json:"checksum"`
	FileName   string    `json:"file_name"`
	Success    int       `json:"success"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	ImportedAt time.Time `json:"imported_at"`
}
