package ingestion

import (
	"errors"
	"strings"
)

// ErrInvalidState is returned when an operation is not allowed in the
// session's current state.
var ErrInvalidState = errors.New("invalid session state")

// MappingError means required fields are still unmapped, so the import
// cannot start.
type MappingError struct {
	Missing []string // field labels
}

func (e *MappingError) Error() string {
	return "required fields not mapped: " + strings.Join(e.Missing, ", ")
}
