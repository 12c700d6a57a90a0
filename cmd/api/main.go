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

	"github.com/Dutta2005/Medi-Track/api/routes"
	"github.com/Dutta2005/Medi-Track/internal/auth"
	"github.com/Dutta2005/Medi-Track/internal/bootstrap"
	"github.com/Dutta2005/Medi-Track/internal/dashboard"
	"github.com/Dutta2005/Medi-Track/internal/notifications"
	"github.com/Dutta2005/Medi-Track/internal/products"
	"github.com/Dutta2005/Medi-Track/internal/users"
	"github.com/Dutta2005/Medi-Track/pkg/auth/session"
	"github.com/Dutta2005/Medi-Track/pkg/config"
	"github.com/Dutta2005/Medi-Track/pkg/db"
	"github.com/Dutta2005/Medi-Track/pkg/instance"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
	"github.com/Dutta2005/Medi-Track/pkg/metrics"
	"github.com/Dutta2005/Medi-Track/pkg/migrate"
	"github.com/Dutta2005/Medi-Track/pkg/redis"
	"github.com/Dutta2005/Medi-Track/pkg/storage/gcs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	loc, err := cfg.App.Location()
	if err != nil {
		logg.Error(ctx, "failed to resolve schedule timezone", err)
		os.Exit(1)
	}

	reminderMetrics := metrics.NewReminderMetrics(prometheus.DefaultRegisterer)
	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	notifier, closeNotifier, err := bootstrap.Notifier(ctx, cfg, dbClient, logg, reminderMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create notifier", err)
		os.Exit(1)
	}
	defer closeNotifier()

	productRepo, reminderService, err := bootstrap.Reminders(cfg, dbClient, notifier, logg, reminderMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create reminder service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(products.ServiceParams{
		Repo:     productRepo,
		Hooks:    reminderService,
		Logger:   logg,
		Location: loc,
	})
	if err != nil {
		logg.Error(ctx, "failed to create product service", err)
		os.Exit(1)
	}

	dashboardService, err := dashboard.NewService(productRepo, loc, nil)
	if err != nil {
		logg.Error(ctx, "failed to create dashboard service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()), cfg.Push.VAPIDPublicKey)
	if err != nil {
		logg.Error(ctx, "failed to create notifications service", err)
		os.Exit(1)
	}

	deps := routes.Dependencies{
		DB:          dbClient,
		Redis:       redisClient,
		Store:       redisClient,
		Sessions:    sessionManager,
		HTTPMetrics: httpMetrics,
		Gatherer:    prometheus.DefaultGatherer,
	}
	services := routes.Services{
		Auth:          authService,
		Products:      productService,
		Alerts:        reminderService,
		Dashboard:     dashboardService,
		Notifications: notificationService,
	}

	if cfg.GCS.BucketName != "" {
		gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap gcs", err)
			os.Exit(1)
		}
		defer func() {
			if err := gcsClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing gcs", err)
			}
		}()
		imageService, err := products.NewImageService(gcsClient, productRepo, cfg.GCS.MaxImageBytes(), logg)
		if err != nil {
			logg.Error(ctx, "failed to create image service", err)
			os.Exit(1)
		}
		deps.Storage = gcsClient
		services.Images = imageService
	} else {
		logg.Warn(ctx, "gcs bucket not configured, image routes disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID("local"),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		logg.Info(shutdownCtx, "api server shut down gracefully")
	}
}
