package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/Dutta2005/Medi-Track/internal/notifications"
	"github.com/Dutta2005/Medi-Track/internal/products"
	"github.com/Dutta2005/Medi-Track/pkg/db"
	"github.com/Dutta2005/Medi-Track/pkg/db/models"
	"github.com/Dutta2005/Medi-Track/pkg/enums"
	pkgerrors "github.com/Dutta2005/Medi-Track/pkg/errors"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
	"github.com/Dutta2005/Medi-Track/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	defaultSweepPageSize     = 100
	defaultDispatchBatchSize = 200
)

type productLoader interface {
	FindForUser(ctx context.Context, userID, id uuid.UUID) (*products.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*products.Product, error)
	ListPage(ctx context.Context, after uuid.UUID, limit int) ([]products.Product, error)
}

// ServiceParams groups the reminder service dependencies.
type ServiceParams struct {
	Repo              *Repository
	Products          productLoader
	Notifier          notifications.Notifier
	Logger            *logger.Logger
	Metrics           *metrics.ReminderMetrics
	Location          *time.Location
	SweepPageSize     int
	DispatchBatchSize int
	Now               func() time.Time
}

// Service evaluates products, owns the alert inbox, and schedules dosage
// reminders. It implements products.Hooks.
type Service struct {
	repo          *Repository
	products      productLoader
	notifier      notifications.Notifier
	logg          *logger.Logger
	metrics       *metrics.ReminderMetrics
	loc           *time.Location
	sweepPageSize int
	dispatchBatch int
	now           func() time.Time
}

var _ products.Hooks = (*Service)(nil)

// NewService constructs the reminder service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("reminder repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	svc := &Service{
		repo:          params.Repo,
		products:      params.Products,
		notifier:      params.Notifier,
		logg:          params.Logger,
		metrics:       params.Metrics,
		loc:           params.Location,
		sweepPageSize: params.SweepPageSize,
		dispatchBatch: params.DispatchBatchSize,
		now:           params.Now,
	}
	if svc.loc == nil {
		svc.loc = time.UTC
	}
	if svc.sweepPageSize <= 0 {
		svc.sweepPageSize = defaultSweepPageSize
	}
	if svc.dispatchBatch <= 0 {
		svc.dispatchBatch = defaultDispatchBatchSize
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc, nil
}

// CheckProduct evaluates one of the user's products and raises alerts.
func (s *Service) CheckProduct(ctx context.Context, userID, productID uuid.UUID) (*CheckResult, error) {
	product, err := s.products.FindForUser(ctx, userID, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.NotFound("product")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	result, err := s.check(ctx, *product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product")
	}
	return result, nil
}

// Sweep checks every product in the system. Failures are collected and the
// sweep moves on to the next product.
func (s *Service) Sweep(ctx context.Context) (SweepResult, error) {
	var (
		result SweepResult
		errs   error
		after  = uuid.Nil
	)
	for {
		if err := ctx.Err(); err != nil {
			return result, multierr.Append(errs, err)
		}
		page, err := s.products.ListPage(ctx, after, s.sweepPageSize)
		if err != nil {
			return result, multierr.Append(errs, fmt.Errorf("list products after %s: %w", after, err))
		}
		for _, product := range page {
			checked, err := s.check(ctx, product)
			result.Checked++
			if err != nil {
				result.Failed++
				errs = multierr.Append(errs, fmt.Errorf("product %s: %w", product.ID, err))
				continue
			}
			result.Created += len(checked.Created)
		}
		if len(page) < s.sweepPageSize {
			break
		}
		after = page[len(page)-1].ID
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"checked": result.Checked,
		"created": result.Created,
		"failed":  result.Failed,
	})
	s.logg.Info(logCtx, "alerts.sweep_complete")
	return result, errs
}

// ProductSaved re-evaluates the product and rebuilds its dosage triggers.
func (s *Service) ProductSaved(ctx context.Context, product products.Product) error {
	_, checkErr := s.check(ctx, product)
	return multierr.Combine(checkErr, s.ScheduleProduct(ctx, product))
}

// ProductDeleted drops the product's dosage triggers.
func (s *Service) ProductDeleted(ctx context.Context, product products.Product) error {
	return s.CancelProduct(ctx, product.ID)
}

func (s *Service) check(ctx context.Context, product products.Product) (*CheckResult, error) {
	eval := Evaluate(product, s.now())
	result := &CheckResult{ProductID: product.ID, Evaluation: eval, Created: []AlertDTO{}}

	var kinds []enums.AlertType
	if eval.LowStock {
		kinds = append(kinds, enums.AlertTypeLowStock)
	}
	if eval.Expiring {
		kinds = append(kinds, enums.AlertTypeExpiry)
	}

	var errs error
	for _, kind := range kinds {
		alert, err := s.raise(ctx, kind, product, eval)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if alert == nil {
			continue
		}
		result.Created = append(result.Created, NewAlertDTO(*alert))
		s.notify(ctx, product, notificationFor(kind, product, eval))
	}
	return result, errs
}

// raise persists a pending alert. It returns nil when one is already pending.
func (s *Service) raise(ctx context.Context, kind enums.AlertType, product products.Product, eval Evaluation) (*models.Alert, error) {
	alert := &models.Alert{
		UserID:    product.UserID,
		ProductID: product.ID,
		Type:      kind,
		Message:   alertMessage(kind, product, eval),
	}
	created, err := s.repo.CreatePendingAlert(ctx, alert)
	if err != nil {
		return nil, fmt.Errorf("create %s alert: %w", kind, err)
	}

	logCtx := s.alertContext(ctx, product, kind)
	if !created {
		s.logg.Debug(logCtx, "alerts.deduplicated")
		return nil, nil
	}
	s.metrics.IncAlert(string(kind))
	s.logg.Info(logCtx, "alerts.created")
	return alert, nil
}

// notify never fails the caller; delivery errors are logged.
func (s *Service) notify(ctx context.Context, product products.Product, msg notifications.Message) {
	if err := s.notifier.Notify(ctx, product.UserID, msg); err != nil {
		s.logg.Error(s.alertContext(ctx, product, msg.Kind), "notifications.delivery_failed", err)
	}
}

func (s *Service) alertContext(ctx context.Context, product products.Product, kind enums.AlertType) context.Context {
	ctx = s.logg.WithUserID(ctx, product.UserID.String())
	ctx = s.logg.WithProductID(ctx, product.ID.String())
	return s.logg.WithField(ctx, "alert_type", string(kind))
}
