package routes

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dutta2005/Medi-Track/api/controllers"
	"github.com/Dutta2005/Medi-Track/api/middleware"
	"github.com/Dutta2005/Medi-Track/internal/auth"
	"github.com/Dutta2005/Medi-Track/internal/dashboard"
	"github.com/Dutta2005/Medi-Track/internal/notifications"
	"github.com/Dutta2005/Medi-Track/internal/products"
	"github.com/Dutta2005/Medi-Track/internal/reminders"
	"github.com/Dutta2005/Medi-Track/pkg/auth/session"
	"github.com/Dutta2005/Medi-Track/pkg/config"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
	"github.com/Dutta2005/Medi-Track/pkg/metrics"
	"github.com/Dutta2005/Medi-Track/pkg/pagination"
	pkgredis "github.com/Dutta2005/Medi-Track/pkg/redis"
	"github.com/Dutta2005/Medi-Track/pkg/storage/gcs"
	"github.com/Dutta2005/Medi-Track/pkg/types"
)

// AlertService is the alert surface the API exposes.
type AlertService interface {
	CheckProduct(ctx context.Context, userID, productID uuid.UUID) (*reminders.CheckResult, error)
	Sweep(ctx context.Context) (reminders.SweepResult, error)
	ListPending(ctx context.Context, userID uuid.UUID, params pagination.Params) (*types.Page[reminders.AlertDTO], error)
	ListAll(ctx context.Context, userID uuid.UUID, params pagination.Params) (*types.Page[reminders.AlertDTO], error)
	MarkRead(ctx context.Context, userID, alertID uuid.UUID) (*reminders.AlertDTO, error)
}

type ImageService interface {
	Upload(ctx context.Context, userID uuid.UUID, body io.Reader) (*products.ImageDTO, error)
	Open(ctx context.Context, userID uuid.UUID, fileID string) (*gcs.Object, error)
	Delete(ctx context.Context, userID uuid.UUID, fileID string) error
}

type DashboardService interface {
	Dashboard(ctx context.Context, userID uuid.UUID, params dashboard.Params) (*dashboard.Result, error)
}

// KeyValueStore backs rate limiting and idempotency. *redis.Client satisfies it.
type KeyValueStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// Services bundles the domain services mounted under /api.
type Services struct {
	Auth          auth.Service
	Products      products.Service
	Images        ImageService
	Alerts        AlertService
	Dashboard     DashboardService
	Notifications notifications.Service
}

// Dependencies are the infrastructure handles the router needs.
type Dependencies struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Storage     controllers.Pinger
	Store       KeyValueStore
	Sessions    session.AccessSessionChecker
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies, svc Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	readiness := map[string]controllers.Pinger{}
	if deps.DB != nil {
		readiness["database"] = deps.DB
	}
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
	}
	if deps.Storage != nil {
		readiness["storage"] = deps.Storage
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	authMiddleware := middleware.Auth(cfg.JWT, deps.Sessions, logg)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Store, logg)).Post("/login", controllers.AuthLogin(svc.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Store, logg)).Post("/register", controllers.AuthRegister(svc.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
		r.With(authMiddleware).Post("/logout", controllers.AuthLogout(svc.Auth, logg))
		r.With(authMiddleware).Get("/me", controllers.AuthMe(svc.Auth, logg))
	})

	r.Route("/api/internal", func(r chi.Router) {
		r.Use(middleware.APIKey(cfg.Service.APIKey, logg))
		r.Post("/alerts/sweep", controllers.SweepAlerts(svc.Alerts, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.Idempotency(deps.Store, logg))

		r.Route("/api/v1", func(r chi.Router) {
			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ListProducts(svc.Products, logg))
				r.Post("/", controllers.CreateProduct(svc.Products, logg))
				r.Get("/{productId}", controllers.GetProduct(svc.Products, logg))
				r.Patch("/{productId}", controllers.UpdateProduct(svc.Products, logg))
				r.Delete("/{productId}", controllers.DeleteProduct(svc.Products, logg))
				r.Post("/{productId}/check", controllers.CheckProduct(svc.Alerts, logg))
				r.Get("/{productId}/triggers", controllers.ProductTriggers(svc.Products, logg))
			})

			r.Post("/images", controllers.UploadImage(svc.Images, cfg.GCS.MaxImageBytes(), logg))
			r.Get("/images/{imageId}", controllers.GetImage(svc.Images, logg))
			r.Delete("/images/{imageId}", controllers.DeleteImage(svc.Images, logg))

			r.Get("/dashboard", controllers.Dashboard(svc.Dashboard, logg))

			r.Get("/alerts", controllers.ListAlerts(svc.Alerts, logg))
			r.Post("/alerts/{alertId}/read", controllers.MarkAlertRead(svc.Alerts, logg))

			r.Get("/notifications/vapid-key", controllers.VAPIDPublicKey(svc.Notifications, logg))
			r.Post("/notifications/subscriptions", controllers.SubscribeNotifications(svc.Notifications, logg))
			r.Delete("/notifications/subscriptions", controllers.UnsubscribeNotifications(svc.Notifications, logg))
		})
	})

	return r
}
