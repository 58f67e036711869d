package app

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taopiaopiao/boxoffice/internal/apiclient"
	"github.com/taopiaopiao/boxoffice/internal/auth"
	"github.com/taopiaopiao/boxoffice/internal/observability"
	"github.com/taopiaopiao/boxoffice/internal/shared"
	"github.com/taopiaopiao/boxoffice/internal/storefront"
	"github.com/taopiaopiao/boxoffice/internal/view"
	"github.com/taopiaopiao/boxoffice/jobs"
	_ "github.com/taopiaopiao/boxoffice/testing"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &Config{AppEnv: "test", AppRequestTimeout: 5 * time.Second}
	templates, err := view.NewEngine()
	require.NoError(t, err)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":200,"msg":"ok","data":{"list":[],"total":0}}`))
	}))
	t.Cleanup(upstream.Close)

	csrf := shared.NewCSRFManager("csrf-secret")
	adminAPI := apiclient.New(upstream.URL + "/api/admin")
	catalog := storefront.NewCatalog(apiclient.New(upstream.URL+"/api/client"), storefront.NewCache(client, time.Minute, nil), 20)

	return NewRouter(RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    shared.NewSessionManager(client, "boxoffice_session", "session-secret", time.Hour, false),
		CSRFManager:       csrf,
		AuthHandler:       auth.NewHandler(logger, auth.NewService(adminAPI), adminAPI, templates, csrf),
		StorefrontHandler: storefront.NewHandler(logger, catalog, templates, 20),
		JobHandler:        jobs.NewHandler(nil, logger),
		Metrics:           observability.NewMetrics(),
	})
}

func TestRouterHealth(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterServesStorefrontWithSecurityHeaders(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No shows in this category yet.")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRouterGuardsAdmin(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/logout", strings.NewReader("")))
	assert.Equal(t, http.StatusForbidden, rec.Code, "logout without a CSRF token")
}

func TestRouterServesStaticAssets(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/js/storefront.js", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
}

func TestNewLoggerHonoursFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{LogFormat: "json", LogLevel: "warn"})
	logger.Info("hidden")
	logger.Warn("shown", slog.String("path", "/admin/events"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"path":"/admin/events"`)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SESSION_SECRET", "s")
	t.Setenv("CSRF_SECRET", "c")
	t.Setenv("API_BASE_URL", "http://api.example.com/api/")
	t.Setenv("ADMIN_PAGE_SIZE", "0")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://api.example.com/api/admin", cfg.AdminAPI())
	assert.Equal(t, "http://api.example.com/api/client", cfg.ClientAPI())
	assert.Equal(t, 10, cfg.AdminPageSize)
	assert.Equal(t, 20, cfg.StorefrontPageSize)
	assert.Equal(t, 15*time.Second, cfg.APITimeout)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("CSRF_SECRET", "c")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestTestModeFromImport(t *testing.T) {
	assert.True(t, InTestMode())
}
