// Package httptransport assembles the HTTP surface: middleware, public
// routes, and the admin group guarded by the shared admin token.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"cloakswap/pkg/platform/middleware/admin"
	"cloakswap/pkg/platform/middleware/metadata"
	"cloakswap/pkg/platform/middleware/request"
	"cloakswap/pkg/platform/middleware/requesttime"
)

// Routes is implemented by handlers exposing public endpoints.
type Routes interface {
	Register(r chi.Router)
}

// AdminRoutes is implemented by handlers exposing privileged endpoints.
type AdminRoutes interface {
	RegisterAdmin(r chi.Router)
}

// Deps lists everything the router mounts.
type Deps struct {
	// ServiceName names the server spans; defaults to "cloakswap".
	ServiceName    string
	Logger         *slog.Logger
	AdminToken     string
	RequestMetrics *request.Metrics
	MetricsHandler http.Handler
	// Clock pins the per-request time; defaults to time.Now.
	Clock func() time.Time

	Public []Routes
	Admin  []AdminRoutes
}

// NewRouter wires middleware and every handler.
func NewRouter(d Deps) http.Handler {
	clock := d.Clock
	if clock == nil {
		clock = time.Now
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(d.Logger))
	r.Use(request.RequestID)
	r.Use(tracing(d.ServiceName))
	r.Use(requesttime.WithClock(clock))
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(d.Logger))
	r.Use(request.LatencyMiddleware(d.RequestMetrics))
	r.Use(request.ContentTypeJSON)

	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}
	for _, h := range d.Public {
		h.Register(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(d.AdminToken, d.Logger))
		for _, h := range d.Admin {
			h.RegisterAdmin(r)
		}
	})

	return r
}

// tracing starts a server span per request and renames it to the matched
// route pattern once chi has routed, so identities never end up in span names.
func tracing(serviceName string) func(http.Handler) http.Handler {
	if serviceName == "" {
		serviceName = "cloakswap"
	}
	return func(next http.Handler) http.Handler {
		named := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					trace.SpanFromContext(r.Context()).SetName(r.Method + " " + pattern)
				}
			}
		})
		return otelhttp.NewHandler(named, serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method
			}),
		)
	}
}
