package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/taopiaopiao/boxoffice/internal/admin"
	"github.com/taopiaopiao/boxoffice/internal/apiclient"
	"github.com/taopiaopiao/boxoffice/internal/app"
	"github.com/taopiaopiao/boxoffice/internal/auth"
	"github.com/taopiaopiao/boxoffice/internal/authstore"
	"github.com/taopiaopiao/boxoffice/internal/observability"
	"github.com/taopiaopiao/boxoffice/internal/platform/cache"
	"github.com/taopiaopiao/boxoffice/internal/platform/db"
	"github.com/taopiaopiao/boxoffice/internal/shared"
	"github.com/taopiaopiao/boxoffice/internal/storefront"
	"github.com/taopiaopiao/boxoffice/internal/view"
	"github.com/taopiaopiao/boxoffice/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	sessionManager := shared.NewSessionManager(redisClient, "boxoffice_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction(),
		shared.WithBrowserSessionCookie())
	rememberManager := shared.NewSessionManager(redisClient, "boxoffice_remember", cfg.SessionSecret, cfg.RememberTTL, cfg.IsProduction(),
		shared.WithKeyPrefix("remember:"))
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	adminAPI := apiclient.New(cfg.AdminAPI(),
		apiclient.WithTimeout(cfg.APITimeout),
		apiclient.WithTokenSource(apiclient.TokenFunc(authstore.TokenFromContext)),
		apiclient.WithAuthExpiredHook(authstore.ClearFromContext),
		apiclient.WithObserver(metrics),
		apiclient.WithLogger(logger),
	)
	publicAPI := apiclient.New(cfg.ClientAPI(),
		apiclient.WithTimeout(cfg.APITimeout),
		apiclient.WithObserver(metrics),
		apiclient.WithLogger(logger),
	)

	var auditor shared.Auditor = shared.NewLogAuditor(logger)
	if cfg.PGDSN != "" {
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		auditLogger := shared.NewAuditLogger(pool)
		if err := auditLogger.EnsureSchema(ctx); err != nil {
			logger.Error("prepare audit schema", slog.Any("error", err))
			os.Exit(1)
		}
		auditor = auditLogger
	}

	redisOpts := jobs.RedisOpt(redisClient.Options())
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	catalogCache := storefront.NewCache(redisClient, cfg.CatalogCacheTTL, metrics)
	if err := catalogCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("subscribe catalogue invalidation", slog.Any("error", err))
	}
	catalog := storefront.NewCatalog(publicAPI, catalogCache, cfg.StorefrontPageSize,
		storefront.WithWarmupQueue(jobClient),
		storefront.WithLogger(logger),
	)

	authHandler := auth.NewHandler(logger, auth.NewService(adminAPI), adminAPI, templates, csrfManager)
	adminHandler := admin.NewHandler(logger, adminAPI, templates, csrfManager, auditor, catalog, cfg.AdminPageSize)
	storefrontHandler := storefront.NewHandler(logger, catalog, templates, cfg.StorefrontPageSize)
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		RememberManager:   rememberManager,
		CSRFManager:       csrfManager,
		AuthHandler:       authHandler,
		AdminHandler:      adminHandler,
		StorefrontHandler: storefrontHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("api", cfg.APIBaseURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
