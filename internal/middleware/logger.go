package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/fundimport/internal/logger"
)

// RequestLogger is a Gin middleware that logs method, route, status code,
// request latency, request ID (if available) and the import session id of
// /imports/:id routes.
//
// Behavior:
//   - Captures start time before request handling.
//   - After request is processed, calculates latency.
//   - Logs method, path, status, latency in ms, and request_id (if injected by RequestID()).
//
// Usage:
//
//	router := gin.New()
//	router.Use(middleware.RequestID(), middleware.RequestLogger())
//
// Example log output:
//
//	request_id=123e4567-e89b-12d3-a456-426614174000 method=GET path=/api/v1/imports/7d1f.. status=200 latency_ms=15 import_id=7d1f..
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Start timer
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path

		// Process request
		c.Next()

		// Compute latency and get status
		latency := time.Since(start)
		status := c.Writer.Status()

		// Get request_id if available
		rid, _ := c.Get(RequestIDKey)

		// Structured JSON log
		ev := logger.L().Info()
		if status >= http.StatusInternalServerError {
			ev = logger.L().Error()
		}
		if id := c.Param("id"); id != "" {
			ev = ev.Str("import_id", id)
		}
		ev.Str("request_id", toString(rid)).
			Str("method", method).
			Str("path", path).
			Str("route", c.FullPath()).
			Int("status", status).
			Int64("latency_ms", latency.Milliseconds()).
			Int("bytes_in", int(c.Request.ContentLength)).
			Str("client_ip", c.ClientIP()).
			Msg("http_request")
	}
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
