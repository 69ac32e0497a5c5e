// Package httpapi assembles the public HTTP surface: platform middleware, health and
// metrics endpoints, and the authenticated procedure API.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	platformmetrics "engageflow/internal/platform/metrics"
	"engageflow/internal/platform/tracing"
	"engageflow/internal/procedure/handler"
	"engageflow/pkg/platform/httputil"
	authmw "engageflow/pkg/platform/middleware/auth"
	"engageflow/pkg/platform/middleware/metadata"
	"engageflow/pkg/platform/middleware/request"
	"engageflow/pkg/platform/middleware/requesttime"
)

const healthTimeout = 2 * time.Second

// HealthCheck reports whether one backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Dependencies are the collaborators the router mounts. Metrics and Gatherer may be nil.
type Dependencies struct {
	Procedures *handler.Handler
	Validator  authmw.JWTValidator
	Metrics    *platformmetrics.Metrics
	Gatherer   prometheus.Gatherer
	Health     map[string]HealthCheck
	Logger     *slog.Logger
}

// NewRouter wires all public endpoints behind the platform middleware chain.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(tracing.Middleware)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	r.Get("/healthz", healthHandler(deps.Health))
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(deps.Validator, deps.Logger))
		deps.Procedures.Register(r)
	})
	return r
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
		}
		results := make([]string, len(names))
		g, gctx := errgroup.WithContext(ctx)
		for i, name := range names {
			check := checks[name]
			g.Go(func() error {
				results[i] = "ok"
				if err := check(gctx); err != nil {
					results[i] = err.Error()
				}
				return nil
			})
		}
		_ = g.Wait()

		resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
		status := http.StatusOK
		for i, name := range names {
			resp.Checks[name] = results[i]
			if results[i] != "ok" {
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
		}
		httputil.WriteJSON(w, status, resp)
	}
}
