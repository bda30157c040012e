package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gestao-municipal/gestao/internal/amendments"
	"github.com/gestao-municipal/gestao/internal/contracts"
	"github.com/gestao-municipal/gestao/internal/notifications"
	"github.com/gestao-municipal/gestao/internal/observability"
	"github.com/gestao-municipal/gestao/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger    *slog.Logger
	Config    *Config
	Metrics   *observability.Metrics
	Readiness func(r *http.Request) error

	ContractHandler     *contracts.Handler
	AmendmentHandler    *amendments.Handler
	NotificationHandler *notifications.Handler
	JobHandler          *jobs.Handler
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	if !InTestMode() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Readiness != nil {
			if err := params.Readiness(r); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/contracts", func(r chi.Router) {
		if params.ContractHandler != nil {
			params.ContractHandler.MountRoutes(r)
		}
		if params.AmendmentHandler != nil {
			params.AmendmentHandler.MountContractRoutes(r)
		}
	})
	if params.AmendmentHandler != nil {
		r.Route("/amendments", params.AmendmentHandler.MountRoutes)
	}
	if params.NotificationHandler != nil {
		r.Route("/settings/notifications", params.NotificationHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	return r
}
