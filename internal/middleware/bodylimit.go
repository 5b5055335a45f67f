package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimit caps the request body at max bytes. Requests announcing a larger
// Content-Length are rejected with 413 before the body is read; others fail
// while reading once the limit is crossed.
func BodyLimit(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if max <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > max {
			AbortWithError(c, http.StatusRequestEntityTooLarge, "request body too large", nil)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		c.Next()
	}
}
