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

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/access"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/app"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/audit"
	audithttp "github.com/idorenyinbassey/vip-ride-platform-sub004/internal/audit/http"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/auth"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/identity"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/monitor"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/observability"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/platform/cache"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/platform/db"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/rides"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/shared"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "vipride_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	metrics := observability.NewMetrics()

	auditStore := audit.NewPGStore(dbpool)
	recorder := audit.NewRecorder(auditStore, logger, audit.RecorderConfig{}, metrics.Registerer())
	auditService := audit.NewService(auditStore)
	auditHandler := audithttp.NewHandler(logger, auditService)

	registry := access.DefaultRegistry()
	if cfg.RequirementsFile != "" {
		if err := registry.LoadOverridesFile(cfg.RequirementsFile); err != nil {
			logger.Error("load requirement overrides", slog.Any("error", err))
			os.Exit(1)
		}
	}
	evaluator := access.NewEvaluator(registry, recorder, logger)
	guard := access.Guard{Evaluator: evaluator}

	scanner := monitor.NewScanner(auditStore, monitor.Config{
		FailedAuthThreshold: cfg.FailedAuthThreshold,
		RateLimitPerMinute:  cfg.RateLimitPerMinute,
		EscalationRankGap:   cfg.EscalationRankGap,
		Window:              cfg.ScanWindow,
	}, logger)
	lockout := monitor.NewLockout(redisClient, cfg.LockoutTTL, logger, recorder)
	monitorHandler := monitor.NewHandler(logger, scanner, lockout)

	identityRepo := identity.NewRepository(dbpool)
	identityService := identity.NewService(identityRepo, recorder)
	identityHandler := identity.NewHandler(logger, identityService)

	verifier := auth.NewHMACVerifier(cfg.MFASecret)
	authService := auth.NewService(identityRepo, recorder, scanner, lockout, verifier)
	authHandler := auth.NewHandler(logger, authService, identityService, sessionManager)

	ridesRepo := rides.NewRepository(dbpool)
	ridesService := rides.NewService(ridesRepo, recorder)
	ridesHandler := rides.NewHandler(logger, ridesService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		PrincipalSource: identityRepo,
		Guard:           guard,
		AuthHandler:     authHandler,
		IdentityHandler: identityHandler,
		RidesHandler:    ridesHandler,
		AuditHandler:    auditHandler,
		MonitorHandler:  monitorHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
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
