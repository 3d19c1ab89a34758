package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/access"
	audithttp "github.com/idorenyinbassey/vip-ride-platform-sub004/internal/audit/http"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/auth"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/identity"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/monitor"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/observability"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/rides"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/shared"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	SessionManager  *shared.SessionManager
	CSRFManager     *shared.CSRFManager
	PrincipalSource identity.PrincipalSource
	Guard           access.Guard
	AuthHandler     *auth.Handler
	IdentityHandler *identity.Handler
	RidesHandler    *rides.Handler
	AuditHandler    *audithttp.Handler
	MonitorHandler  *monitor.Handler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with platform defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:          params.Logger,
		Config:          params.Config,
		SessionManager:  params.SessionManager,
		CSRFManager:     params.CSRFManager,
		PrincipalSource: params.PrincipalSource,
		Metrics:         params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	// JSON clients fetch the CSRF token here and echo it back in the
	// X-CSRF-Token header on mutating requests.
	r.Get("/csrf", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		token, err := params.CSRFManager.EnsureToken(r.Context(), sess)
		if err != nil {
			params.Logger.Error("issue csrf token", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"csrf_token":"` + token + `"}`))
	})

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/principals", func(r chi.Router) {
			params.IdentityHandler.MountRoutes(r, params.Guard)
		})
		r.Route("/rides", func(r chi.Router) {
			params.RidesHandler.MountRoutes(r, params.Guard)
		})
		r.Route("/audit", func(r chi.Router) {
			params.AuditHandler.MountRoutes(r, params.Guard)
		})
		r.Route("/security", func(r chi.Router) {
			params.MonitorHandler.MountRoutes(r, params.Guard)
		})
		if params.JobHandler != nil {
			r.Route("/jobs", func(r chi.Router) {
				params.JobHandler.MountRoutes(r, params.Guard)
			})
		}
	})

	return r
}
