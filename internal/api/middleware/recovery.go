package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/slot-watcher/internal/metrics"
)

// Recovery turns a handler panic into a 500 and counts it per route. A
// panic during a manual check never reaches the scheduler, which keeps
// running its own cycles.
func Recovery(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				route := c.Path()
				if route == "" {
					route = unmatchedRoute
				}
				metrics.HTTPPanicsTotal.WithLabelValues(route).Inc()

				attrs := []any{
					"error", fmt.Sprint(r),
					"method", c.Request().Method,
					"path", c.Request().URL.Path,
					"request_id", c.Get(requestIDKey),
					"stack", string(debug.Stack()),
				}
				if id := c.Param("id"); id != "" {
					attrs = append(attrs, "target", id)
				}
				log.Error("panic recovered", attrs...)

				if c.Response().Committed {
					err = nil
					return
				}
				err = c.JSON(http.StatusInternalServerError, map[string]string{
					"error": "internal server error",
				})
			}()
			return next(c)
		}
	}
}
