package transport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker reports backing-store health. Nil checkers are skipped, which
// keeps the endpoint meaningful when redis is not configured.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// NewRouter mounts every endpoint.
func NewRouter(h *Handler, checks ...HealthChecker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/lawsuits/{cnj}/notify", h.HandleNotifyByCNJ)
	r.Post("/notifications/run", h.HandleRunPending)
	r.Post("/notifications/{id}/send", h.HandleSendNotification)
	r.Get("/executions", h.HandleListExecutions)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		for _, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(req.Context()); err != nil {
				writeError(w, http.StatusServiceUnavailable, err.Error())
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
