package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	identityhandler "authgate/internal/identity/handler"
	"authgate/internal/platform/metrics"
	"authgate/internal/platform/middleware"
	"authgate/internal/transport/http/shared"
)

// HealthChecker reports whether a backing resource is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router mounts. Nil health checkers are skipped
// (dev mode runs without Neo4j or Redis).
type Deps struct {
	Identity *identityhandler.Handler
	Sessions middleware.SessionReader
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Health   []HealthChecker
}

// NewRouter wires all public endpoints: the identity surface under /api, the
// protected task placeholders, and the operational endpoints.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Latency(deps.Metrics))

	r.Route("/api", func(api chi.Router) {
		deps.Identity.Register(api)

		api.Group(func(protected chi.Router) {
			protected.Use(middleware.RequireSession(deps.Sessions, deps.Logger))
			protected.Post("/task/submit", handleTaskSubmit)
			protected.Get("/task/monitor", handleTaskMonitor)
		})
	})

	r.Get("/healthz", handleHealth(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// handleTaskSubmit acknowledges a task submission for the authenticated
// identity. Scheduling semantics live elsewhere; this route only proves the
// session gate.
func handleTaskSubmit(w http.ResponseWriter, _ *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Task submitted successfully!",
	})
}

func handleTaskMonitor(w http.ResponseWriter, _ *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Monitoring task status...",
	})
}

func handleHealth(checks []HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for _, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(ctx); err != nil {
				shared.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
				})
				return
			}
		}
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
