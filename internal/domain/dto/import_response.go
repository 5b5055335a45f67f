package dto

import (
	"time"

	"github.com/guttosm/fundimport/internal/domain/models"
)

// FieldMappingResponse describes how one semantic field is bound to a source column.
type FieldMappingResponse struct {
	Field    string `json:"field" example:"fundCode"`
	Label    string `json:"label" example:"基金代码"`
	Required bool   `json:"required" example:"true"`
	Column   *int   `json:"column" example:"1"`              // nil when unmapped
	Header   string `json:"header,omitempty" example:"基金代码"` // header text of the bound column
}

// SuggestionResponse is a mapping hint for an unmapped required field.
type SuggestionResponse struct {
	Field   string `json:"field" example:"purchaseDate"`
	Column  int    `json:"column" example:"4"`
	Message string `json:"message" example:"列 \"时间\" 可能是 购买日期"`
}

// ProgressResponse mirrors the session's progress counters.
type ProgressResponse struct {
	Current int64 `json:"current" example:"42"`
	Total   int64 `json:"total" example:"100"`
	Percent int   `json:"percent" example:"42"`
}

// ImportSessionResponse is returned by the import session endpoints.
type ImportSessionResponse struct {
	ID             string                 `json:"id" example:"7d1f5a0c-2f9e-4c55-a2ce-8d3f4f1b9b10"`
	FileName       string                 `json:"file_name" example:"holdings.xlsx"`
	Format         string                 `json:"format" example:"spreadsheet"`
	State          string                 `json:"state" example:"previewing"`
	Headers        []string               `json:"headers"`
	Rows           int                    `json:"rows" example:"120"`
	Mapping        []FieldMappingResponse `json:"mapping"`
	RequiredMapped int                    `json:"required_mapped" example:"5"`
	RequiredTotal  int                    `json:"required_total" example:"5"`
	Suggestions    []SuggestionResponse   `json:"suggestions,omitempty"`
	Preview        []models.Holding       `json:"preview"`
	Progress       ProgressResponse       `json:"progress"`
	Result         *models.ImportResult   `json:"result,omitempty"`
	Error          string                 `json:"error,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// MappingUpdateRequest is the body of PUT /api/v1/imports/{id}/mapping.
// A Column of -1 clears the field.
type MappingUpdateRequest struct {
	Field  string `json:"field" binding:"required" example:"fundCode"`
	Column *int   `json:"column" binding:"required" example:"2"`
}

// AuditEntryResponse is one line of an import's audit trail.
type AuditEntryResponse struct {
	Time    time.Time `json:"time"`
	Stage   string    `json:"stage" example:"mapping"`
	Message string    `json:"message" example:"exact match: column 1 (基金代码) -> fundCode"`
}

// HoldingsResponse wraps the stored holdings list.
type HoldingsResponse struct {
	Count    int              `json:"count" example:"2"`
	Holdings []models.Holding `json:"holdings"`
}
