package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/govdesk/govdesk/internal/app"
	"github.com/govdesk/govdesk/internal/auth"
	"github.com/govdesk/govdesk/internal/platform/db"
	"github.com/govdesk/govdesk/jobs"
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

	repo := auth.NewRepository(pool)
	upgradeJob := jobs.NewCredentialUpgradeJob(repo, logger)
	scanJob := jobs.NewLegacyScanJob(repo, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskCredentialUpgrade, Handler: upgradeJob.Handle},
			{Type: jobs.TaskLegacyScan, Handler: scanJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: jobs.CronLegacyScan, Task: asynq.NewTask(jobs.TaskLegacyScan, nil)},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
