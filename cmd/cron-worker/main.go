package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dutta2005/Medi-Track/internal/bootstrap"
	"github.com/Dutta2005/Medi-Track/internal/cron"
	"github.com/Dutta2005/Medi-Track/internal/reminders"
	"github.com/Dutta2005/Medi-Track/pkg/config"
	"github.com/Dutta2005/Medi-Track/pkg/db"
	"github.com/Dutta2005/Medi-Track/pkg/instance"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
	"github.com/Dutta2005/Medi-Track/pkg/metrics"
	"github.com/Dutta2005/Medi-Track/pkg/migrate"
	"github.com/Dutta2005/Medi-Track/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	reminderMetrics := metrics.NewReminderMetrics(prometheus.DefaultRegisterer)

	notifier, closeNotifier, err := bootstrap.Notifier(ctx, cfg, dbClient, logg, reminderMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create notifier", err)
		os.Exit(1)
	}
	defer closeNotifier()

	_, reminderService, err := bootstrap.Reminders(cfg, dbClient, notifier, logg, reminderMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create reminder service", err)
		os.Exit(1)
	}

	registry, err := buildRegistry(cfg, logg, reminderService)
	if err != nil {
		logg.Error(ctx, "failed to register cron jobs", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(redisClient, cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(ctx, "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cron service", err)
		os.Exit(1)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID("cron-worker-0"),
	})
	go serveMetrics(ctx, cfg, logg)
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

type reminderJobs interface {
	Sweep(ctx context.Context) (reminders.SweepResult, error)
	DispatchDue(ctx context.Context, now time.Time) (reminders.DispatchResult, error)
	PurgeRead(ctx context.Context, retention time.Duration) (int64, error)
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, svc reminderJobs) (*cron.Registry, error) {
	sweep, err := cron.NewAlertSweepJob(svc, logg)
	if err != nil {
		return nil, err
	}
	dispatch, err := cron.NewDosageDispatchJob(svc, logg)
	if err != nil {
		return nil, err
	}
	retention, err := cron.NewAlertRetentionJob(cron.AlertRetentionJobParams{
		Logger:        logg,
		Purger:        svc,
		RetentionDays: cfg.Cron.AlertRetentionDays,
	})
	if err != nil {
		return nil, err
	}
	return cron.NewRegistry(
		dispatch,
		cron.Every(cfg.Cron.SweepInterval, sweep),
		cron.Every(cfg.Cron.RetentionInterval, retention),
	)
}

// serveMetrics exposes /metrics on the app port so the worker can be scraped.
func serveMetrics(ctx context.Context, cfg *config.Config, logg *logger.Logger) {
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "metrics server stopped", err)
	}
}

func lockKey(client *redis.Client, env string) string {
	if env == "" {
		env = "local"
	}
	return client.LockKey("cron-worker:" + env)
}
