// Package middleware provides Echo middleware for the slot-watcher API.
package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/donaldgifford/slot-watcher/internal/metrics"
)

// unmatchedRoute labels requests that hit no registered route, so probing
// random URLs cannot grow the label set.
const unmatchedRoute = "unmatched"

// probeGauges maps the probe endpoints to their up/down gauge. Probes and
// scrapes are kept out of the request counter and histogram.
var probeGauges = map[string]prometheus.Gauge{
	"/healthz": metrics.HealthzUp,
	"/readyz":  metrics.ReadyzUp,
}

func operational(route string) bool {
	if _, ok := probeGauges[route]; ok {
		return true
	}
	return route == "/metrics" || strings.HasPrefix(route, "/swagger")
}

// Metrics returns Echo middleware that records request duration and status
// per route template. Target IDs stay out of the labels because the route
// is /api/v1/targets/:id rather than the request path.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if route == "" {
				route = unmatchedRoute
			}

			if operational(route) {
				err := next(c)
				if g, ok := probeGauges[route]; ok {
					g.Set(boolGauge(statusOf(c, err) < http.StatusMultipleChoices))
				}
				return err
			}

			start := time.Now()
			err := next(c)

			status := strconv.Itoa(statusOf(c, err))
			method := c.Request().Method

			metrics.HTTPRequestDuration.
				WithLabelValues(method, route, status).
				Observe(time.Since(start).Seconds())
			metrics.HTTPRequestsTotal.
				WithLabelValues(method, route, status).
				Inc()

			return err
		}
	}
}

// statusOf returns the status the client will see. An error returned by
// the handler is only written by Echo's error handler after the middleware
// chain unwinds.
func statusOf(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

func boolGauge(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}
