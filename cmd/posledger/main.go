package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/posledger/posledger/internal/accounting"
	"github.com/posledger/posledger/internal/accounting/accounts"
	"github.com/posledger/posledger/internal/accounting/vouchers"
	"github.com/posledger/posledger/internal/app"
	"github.com/posledger/posledger/internal/auth"
	"github.com/posledger/posledger/internal/observability"
	"github.com/posledger/posledger/internal/platform/cache"
	"github.com/posledger/posledger/internal/platform/db"
	"github.com/posledger/posledger/internal/pos"
	"github.com/posledger/posledger/internal/rbac"
	"github.com/posledger/posledger/internal/shared"
	"github.com/posledger/posledger/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, continuing degraded", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "posledger_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()

	authService := auth.NewService(auth.NewRepository(dbpool))
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	auditLogger := shared.NewAuditLogger(dbpool)
	ledgerCache := accounting.NewCache(redisClient, cfg.LedgerCacheTTL)

	accountsService := accounts.NewService(accounts.NewRepository(dbpool), auditLogger, ledgerCache, logger)
	voucherRepo := vouchers.NewRepository(dbpool)
	voucherService := vouchers.NewService(voucherRepo, accountsService, auditLogger, ledgerCache, logger)

	posRepo := pos.NewRepository(dbpool)
	ledgerService := accounting.NewService(accounting.Sources{
		Sales:     posRepo,
		Expenses:  posRepo,
		Inventory: posRepo,
		Vouchers:  voucherRepo,
		Chart:     accountsService,
		Watermark: posRepo,
	}, ledgerCache, accounting.NewMetrics(metrics.Registerer()), cfg.LedgerOptions(), logger)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	// Every bump, local or from another replica, schedules a re-derivation
	// so the next read finds the new version cached.
	go func() {
		err := ledgerCache.ListenForInvalidation(ctx, jobsClient.WarmupOnBump(ctx, logger))
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("ledger invalidation listener", slog.Any("error", err))
		}
	}()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		AuthHandler:     authHandler,
		LedgerHandler:   accounting.NewHandler(logger, ledgerService),
		VoucherHandler:  vouchers.NewHandler(logger, voucherService),
		AccountsHandler: accounts.NewHandler(logger, accountsService),
		JobHandler:      jobs.NewHandler(inspector, logger),
		Metrics:         metrics,
		RBACMiddleware:  rbac.Middleware{Logger: logger},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
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
