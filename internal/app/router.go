package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taopiaopiao/boxoffice/internal/admin"
	"github.com/taopiaopiao/boxoffice/internal/auth"
	"github.com/taopiaopiao/boxoffice/internal/observability"
	"github.com/taopiaopiao/boxoffice/internal/platform/httpx"
	"github.com/taopiaopiao/boxoffice/internal/shared"
	"github.com/taopiaopiao/boxoffice/internal/storefront"
	"github.com/taopiaopiao/boxoffice/jobs"
	"github.com/taopiaopiao/boxoffice/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SessionManager    *shared.SessionManager
	RememberManager   *shared.SessionManager
	CSRFManager       *shared.CSRFManager
	AuthHandler       *auth.Handler
	AdminHandler      *admin.Handler
	StorefrontHandler *storefront.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with box office defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:          params.Logger,
		Config:          params.Config,
		SessionManager:  params.SessionManager,
		RememberManager: params.RememberManager,
		CSRFManager:     params.CSRFManager,
		Metrics:         params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if params.StorefrontHandler != nil {
		params.StorefrontHandler.MountRoutes(r)
	}

	r.Route("/admin", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
		if params.AdminHandler != nil {
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireLogin)
				params.AdminHandler.MountRoutes(r)
			})
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
