package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/fundimport/internal/domain/dto"
	"github.com/guttosm/fundimport/internal/domain/models"
	"github.com/guttosm/fundimport/internal/ingestion"
	"github.com/guttosm/fundimport/internal/mapping"
	"github.com/guttosm/fundimport/internal/middleware"
	"github.com/guttosm/fundimport/internal/service"
	"github.com/guttosm/fundimport/internal/tabular"
)

// Handler provides HTTP handlers for the holdings import endpoints.
//
// Responsibilities:
//   - Accept uploads and manual mapping overrides
//   - Delegate to the import service
//   - Translate sessions and pipeline errors into response DTOs and status codes
type Handler struct {
	svc service.ImportService
}

// NewHandler constructs a new Handler instance.
//
// Parameters:
//   - svc (service.ImportService): Service dependency that owns the import sessions.
//
// Returns:
//   - *Handler: A handler ready to be registered with the router.
func NewHandler(svc service.ImportService) *Handler {
	return &Handler{svc: svc}
}

// CreateImport godoc
// @Summary      Upload a holdings file
// @Description  Reads a CSV/TSV/XLSX file, infers the column mapping and returns a preview session
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Holdings file"
// @Success      201   {object}  dto.ImportSessionResponse  "Created"
// @Failure      400   {object}  dto.ErrorResponse          "Bad Request"
// @Failure      413   {object}  dto.ErrorResponse          "File too large"
// @Failure      422   {object}  dto.ErrorResponse          "Unreadable file"
// @Failure      500   {object}  dto.ErrorResponse          "Internal Error"
// @Router       /api/v1/imports [post]
func (h *Handler) CreateImport(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.AbortWithError(c, http.StatusRequestEntityTooLarge, "file too large", err)
			return
		}
		middleware.AbortWithError(c, http.StatusBadRequest, "multipart field \"file\" is required", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "cannot open upload", err)
		return
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "cannot read upload", err)
		return
	}

	snap, err := h.svc.Start(c.Request.Context(), fh.Filename, data)
	if err != nil {
		h.fail(c, "failed to read file", err)
		return
	}
	c.JSON(http.StatusCreated, toSessionResponse(snap))
}

// GetImport godoc
// @Summary      Get an import session
// @Description  Returns state, mapping, preview, progress and, once finished, the result
// @Tags         imports
// @Produce      json
// @Param        id   path      string  true  "Session id"
// @Success      200  {object}  dto.ImportSessionResponse  "Success"
// @Failure      404  {object}  dto.ErrorResponse          "Not Found"
// @Router       /api/v1/imports/{id} [get]
func (h *Handler) GetImport(c *gin.Context) {
	snap, err := h.svc.Get(c.Param("id"))
	if err != nil {
		h.fail(c, "import session not found", err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(snap))
}

// UpdateMapping godoc
// @Summary      Override a field mapping
// @Description  Binds a field to a column index; column -1 clears the field
// @Tags         imports
// @Accept       json
// @Produce      json
// @Param        id    path      string                    true  "Session id"
// @Param        body  body      dto.MappingUpdateRequest  true  "Field and column"
// @Success      200   {object}  dto.ImportSessionResponse "Success"
// @Failure      400   {object}  dto.ErrorResponse         "Bad Request"
// @Failure      404   {object}  dto.ErrorResponse         "Not Found"
// @Failure      409   {object}  dto.ErrorResponse         "Session not editable"
// @Router       /api/v1/imports/{id}/mapping [put]
func (h *Handler) UpdateMapping(c *gin.Context) {
	var req dto.MappingUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid mapping request", err)
		return
	}
	snap, err := h.svc.Remap(c.Param("id"), req.Field, *req.Column)
	if err != nil {
		h.fail(c, "failed to update mapping", err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(snap))
}

// CommitImport godoc
// @Summary      Start the import
// @Description  Validates, deduplicates and commits the rows in the background; poll GET /imports/{id} for progress
// @Tags         imports
// @Produce      json
// @Param        id   path      string  true  "Session id"
// @Success      202  {object}  dto.ImportSessionResponse  "Accepted"
// @Failure      404  {object}  dto.ErrorResponse          "Not Found"
// @Failure      409  {object}  dto.ErrorResponse          "Already started"
// @Failure      422  {object}  dto.ErrorResponse          "Required fields unmapped"
// @Router       /api/v1/imports/{id}/commit [post]
func (h *Handler) CommitImport(c *gin.Context) {
	snap, err := h.svc.Commit(c.Param("id"))
	if err != nil {
		h.fail(c, "failed to start import", err)
		return
	}
	c.JSON(http.StatusAccepted, toSessionResponse(snap))
}

// DeleteImport godoc
// @Summary      Discard an import session
// @Description  Cancels a running import and forgets the session
// @Tags         imports
// @Param        id   path  string  true  "Session id"
// @Success      204  "No Content"
// @Failure      404  {object}  dto.ErrorResponse  "Not Found"
// @Router       /api/v1/imports/{id} [delete]
func (h *Handler) DeleteImport(c *gin.Context) {
	if err := h.svc.Discard(c.Param("id")); err != nil {
		h.fail(c, "import session not found", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetAudit godoc
// @Summary      Get the audit trail of an import
// @Tags         imports
// @Produce      json
// @Param        id   path      string  true  "Session id"
// @Success      200  {array}   dto.AuditEntryResponse  "Success"
// @Failure      404  {object}  dto.ErrorResponse       "Not Found"
// @Router       /api/v1/imports/{id}/audit [get]
func (h *Handler) GetAudit(c *gin.Context) {
	entries, err := h.svc.Audit(c.Param("id"))
	if err != nil {
		h.fail(c, "import session not found", err)
		return
	}
	out := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.AuditEntryResponse{Time: e.Time, Stage: string(e.Stage), Message: e.Message})
	}
	c.JSON(http.StatusOK, out)
}

// ListHoldings godoc
// @Summary      List stored holdings
// @Tags         holdings
// @Produce      json
// @Success      200  {object}  dto.HoldingsResponse  "Success"
// @Failure      500  {object}  dto.ErrorResponse     "Internal Error"
// @Router       /api/v1/holdings [get]
func (h *Handler) ListHoldings(c *gin.Context) {
	holdings, err := h.svc.Holdings(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to fetch holdings", err)
		return
	}
	if holdings == nil {
		holdings = []models.Holding{}
	}
	c.JSON(http.StatusOK, dto.HoldingsResponse{Count: len(holdings), Holdings: holdings})
}

// fail maps service and pipeline errors to HTTP status codes.
func (h *Handler) fail(c *gin.Context, msg string, err error) {
	var (
		fe *tabular.FormatError
		me *ingestion.MappingError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrFileTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, ingestion.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, mapping.ErrUnknownField), errors.Is(err, mapping.ErrColumnOutOfRange):
		status = http.StatusBadRequest
	case errors.As(err, &fe), errors.As(err, &me):
		status = http.StatusUnprocessableEntity
	}
	middleware.AbortWithError(c, status, msg, err)
}

func toSessionResponse(s ingestion.Snapshot) dto.ImportSessionResponse {
	resp := dto.ImportSessionResponse{
		ID:             s.ID,
		FileName:       s.FileName,
		Format:         string(s.Format),
		State:          s.State.String(),
		Headers:        s.Headers,
		Rows:           s.Rows,
		RequiredMapped: s.RequiredMapped,
		RequiredTotal:  s.RequiredTotal,
		Preview:        s.Preview,
		Progress: dto.ProgressResponse{
			Current: s.Progress.Current,
			Total:   s.Progress.Total,
			Percent: s.Progress.Percent(),
		},
		Result:    s.Result,
		CreatedAt: s.CreatedAt,
	}
	if s.Err != nil {
		resp.Error = s.Err.Error()
	}
	for _, f := range s.Fields {
		m := dto.FieldMappingResponse{
			Field:    string(f.ID),
			Label:    f.Label,
			Required: f.Required,
			Column:   f.ColumnIndex,
		}
		if f.ColumnIndex != nil && *f.ColumnIndex < len(s.Headers) {
			m.Header = s.Headers[*f.ColumnIndex]
		}
		resp.Mapping = append(resp.Mapping, m)
	}
	for _, sg := range s.Suggestions {
		resp.Suggestions = append(resp.Suggestions, dto.SuggestionResponse{
			Field:   string(sg.Field),
			Column:  sg.Column,
			Message: sg.Message,
		})
	}
	return resp
}
