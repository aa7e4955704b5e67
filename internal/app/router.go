package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/posledger/posledger/internal/accounting"
	"github.com/posledger/posledger/internal/accounting/accounts"
	"github.com/posledger/posledger/internal/accounting/vouchers"
	"github.com/posledger/posledger/internal/auth"
	"github.com/posledger/posledger/internal/observability"
	"github.com/posledger/posledger/internal/platform/httpx"
	"github.com/posledger/posledger/internal/rbac"
	"github.com/posledger/posledger/internal/shared"
	"github.com/posledger/posledger/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	SessionManager  *shared.SessionManager
	CSRFManager     *shared.CSRFManager
	AuthHandler     *auth.Handler
	LedgerHandler   *accounting.Handler
	VoucherHandler  *vouchers.Handler
	AccountsHandler *accounts.Handler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
	RBACMiddleware  rbac.Middleware
}

// NewRouter constructs the chi.Router serving the ledger API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	if !InTestMode() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountRoutes)
		}
		r.Group(func(r chi.Router) {
			r.Use(params.RBACMiddleware.RequireAuthenticated())
			if params.LedgerHandler != nil {
				r.Route("/ledger", params.LedgerHandler.MountRoutes)
			}
			if params.VoucherHandler != nil {
				r.Route("/vouchers", params.VoucherHandler.MountRoutes)
			}
		})
		if params.AccountsHandler != nil {
			r.Route("/accounts", func(r chi.Router) {
				r.Use(params.RBACMiddleware.RequireRole(rbac.RoleAdmin))
				params.AccountsHandler.MountRoutes(r)
			})
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, http.StatusText(http.StatusNotFound), "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), "")
	})

	return r
}
