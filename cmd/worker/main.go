package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/app"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/audit"
	jobmetrics "github.com/idorenyinbassey/vip-ride-platform-sub004/internal/jobs"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/monitor"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/platform/cache"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/platform/db"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	auditStore := audit.NewPGStore(pool)
	recorder := audit.NewRecorder(auditStore, logger, audit.RecorderConfig{}, nil)

	scanner := monitor.NewScanner(auditStore, monitor.Config{
		FailedAuthThreshold: cfg.FailedAuthThreshold,
		RateLimitPerMinute:  cfg.RateLimitPerMinute,
		EscalationRankGap:   cfg.EscalationRankGap,
		Window:              cfg.ScanWindow,
	}, logger)
	lockout := monitor.NewLockout(redisClient, cfg.LockoutTTL, logger, recorder)

	metrics := jobmetrics.NewMetrics(nil)

	sweepJob := jobs.NewSecuritySweepJob(auditStore, scanner, lockout, logger, metrics)
	purgeJob := jobs.NewAuditPurgeJob(auditStore, logger, metrics)

	sweepTask, err := jobs.NewSecuritySweepTask(jobs.SecuritySweepPayload{WindowMinutes: int(cfg.ScanWindow.Minutes())})
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}
	purgeTask, err := jobs.NewAuditPurgeTask(jobs.AuditPurgePayload{RetentionDays: cfg.AuditRetentionDays})
	if err != nil {
		logger.Error("build purge task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSecuritySweep, Handler: sweepJob.Handle},
			{Type: jobs.TaskAuditPurge, Handler: purgeJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/5 * * * *", Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(1)}},
			{Spec: "45 2 * * *", Task: purgeTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
