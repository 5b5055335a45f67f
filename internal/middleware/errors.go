package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/fundimport/internal/domain/dto"
	"github.com/guttosm/fundimport/internal/logger"
)

// ErrorHandler turns errors attached with c.Error into a JSON ErrorResponse
// when the handler did not write a response itself. The status already set
// on the writer is kept if it is an error status, otherwise 500 is used.
var ErrorHandler gin.HandlerFunc = func(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}
	err := c.Errors.Last().Err
	status := c.Writer.Status()
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	rid, _ := c.Get(RequestIDKey)
	logger.L().Error().Err(err).Str("request_id", toString(rid)).Int("status", status).Msg("request failed")
	c.JSON(status, dto.NewErrorResponse(http.StatusText(status), err))
}

// AbortWithError stops the chain and writes a JSON ErrorResponse.
func AbortWithError(c *gin.Context, status int, msg string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(msg, err))
}
