package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"authgate/internal/platform/metrics"
)

// Latency records request durations into the process-level histogram. A nil
// metrics value disables recording, which keeps test wiring minimal.
// Requests are labeled by chi route pattern, not raw path, so unmatched or
// parameterized URLs cannot grow the label space without bound.
func Latency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			next.ServeHTTP(w, r)
			m.ObserveRequest(r.Method, routePattern(r), start)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
