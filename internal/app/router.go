package app

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/govdesk/govdesk/internal/auth"
	"github.com/govdesk/govdesk/internal/observability"
	"github.com/govdesk/govdesk/internal/rbac"
	"github.com/govdesk/govdesk/internal/session"
	"github.com/govdesk/govdesk/internal/shared"
	"github.com/govdesk/govdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Guard          session.Guard
	CSRFManager    *shared.CSRFManager
	AuthHandler    *auth.Handler
	CatalogHandler *rbac.CatalogHandler
	JobHandler     *jobs.Handler
	RBACMiddleware rbac.Middleware
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with govdesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:      params.Logger,
		Config:      params.Config,
		Guard:       params.Guard,
		CSRFManager: params.CSRFManager,
		Metrics:     params.Metrics,
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

	r.Route("/auth", params.AuthHandler.MountRoutes)

	// Administrative tree: the guard already enforced a valid session for
	// everything below; handlers add their own capability checks.
	r.Route("/panel", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			identity := session.IdentityFromContext(req.Context())
			writeJSON(params.Logger, w, map[string]any{
				"id":       identity.ID,
				"name":     identity.Name,
				"username": identity.Username,
				"role":     identity.Role,
			})
		})

		r.Route("/yetki", params.CatalogHandler.MountRoutes)

		r.With(params.RBACMiddleware.RequireAny(rbac.PermRandevu)).Get("/randevu", stubSection(params.Logger, "randevu"))
		r.With(params.RBACMiddleware.RequireAny(rbac.PermEnvanter)).Get("/envanter", stubSection(params.Logger, "envanter"))
		r.With(params.RBACMiddleware.RequireAny(rbac.PermArac)).Get("/arac", stubSection(params.Logger, "arac"))

		if params.JobHandler != nil {
			r.Route("/gorevler", func(r chi.Router) {
				r.Use(params.RBACMiddleware.RequireAny(rbac.PermRapor))
				params.JobHandler.MountRoutes(r)
			})
		}
	})

	// Data endpoints live outside the guarded tree and perform their own
	// per-request session check, answering 401 instead of redirecting.
	r.Group(func(r chi.Router) {
		r.Use(params.Guard.RequireIdentity)
		r.Get("/api/kimlik", func(w http.ResponseWriter, req *http.Request) {
			identity := session.IdentityFromContext(req.Context())
			writeJSON(params.Logger, w, map[string]any{
				"id":       identity.ID,
				"username": identity.Username,
				"role":     identity.Role,
			})
		})
	})

	return r
}

func stubSection(logger *slog.Logger, section string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(logger, w, map[string]string{"bolum": section, "durum": "hazir"})
	}
}

func writeJSON(logger *slog.Logger, w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Error("encode response", slog.Any("error", err))
	}
}
