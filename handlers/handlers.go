package handlers

import (
	"net/http"

	"kunena-discord/metrics"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// NewProxyRouter serves the forum through the detection hooks. The route hook
// wraps the render hook, so a submission's deferred check starts only after
// the render check is over.
func NewProxyRouter(forum http.Handler, hooks *Hooks) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(hooks.RouteCheck)
	r.Use(hooks.RenderCheck)
	r.Handle("/*", forum)
	return r
}

// NewOpsRouter serves /metrics and /healthz. ready reports whether the
// notifier can reach its dependencies.
func NewOpsRouter(gatherer prometheus.Gatherer, ready func() error) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil {
			if err := ready(); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	})
	return r
}
