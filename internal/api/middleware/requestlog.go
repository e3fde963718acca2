package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// probePaths are polled by orchestrators. Only their first success after
// startup or after a failure is logged; failures are always logged at WARN.
var probePaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
}

// RequestLog returns Echo middleware that logs requests with structured fields.
// It generates a request ID if none is provided and propagates it through
// the response header and echo context.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	var (
		mu      sync.Mutex
		healthy = make(map[string]bool)
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			c.Set(requestIDKey, reqID)
			c.Response().Header().Set(requestIDHeader, reqID)

			err := next(c)

			path := c.Request().URL.Path
			status := statusOf(c, err)
			level := slog.LevelInfo

			if _, probe := probePaths[path]; probe {
				ok := status >= http.StatusOK && status < http.StatusMultipleChoices
				mu.Lock()
				wasHealthy := healthy[path]
				healthy[path] = ok
				mu.Unlock()

				if ok && wasHealthy {
					return err
				}
				if !ok {
					level = slog.LevelWarn
				}
			}

			attrs := []any{
				"method", c.Request().Method,
				"path", path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
			}
			if id := c.Param("id"); id != "" {
				attrs = append(attrs, "target", id)
			}
			log.Log(c.Request().Context(), level, "request", attrs...)

			return err
		}
	}
}
