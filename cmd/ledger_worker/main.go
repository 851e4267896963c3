package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/copropia/conjunto_ledger_app/internal/core/services"
	"github.com/copropia/conjunto_ledger_app/internal/jobs"
	"github.com/copropia/conjunto_ledger_app/internal/platform/config"
	"github.com/copropia/conjunto_ledger_app/internal/repositories/database/pgsql"
	"github.com/copropia/conjunto_ledger_app/pkg/database"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()

	repos := pgsql.NewRepositoryProvider(dbPool)

	reserveCfg := services.DefaultReserveFundConfig()
	reserveCfg.Percentage = cfg.ReservePercentage
	reserveCfg.MinimumPercentage = cfg.ReserveMinimumPercentage
	reserveCfg.SystemActorID = cfg.SystemActorID

	events := services.NewEventDispatcher(logger)
	container := services.NewServiceContainer(&repos, reserveCfg, events)

	appropriationJob := jobs.NewReserveAppropriationJob(container.Conjunto, container.ReserveFund, logger)

	// The scheduled run covers every active conjunto for the previous
	// calendar month.
	monthlyTask, err := jobs.NewReserveAppropriationTask(jobs.ReserveAppropriationPayload{})
	if err != nil {
		logger.Error("Failed to build appropriation task", slog.String("error", err.Error()))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReserveAppropriation, Handler: appropriationJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			// 03:00 UTC on the 1st of each month.
			{Spec: "0 3 1 * *", Task: monthlyTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("Failed to init worker", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Worker starting", slog.String("redis_addr", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("Worker run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
