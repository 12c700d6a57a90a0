package products

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Dutta2005/Medi-Track/internal/schedule"
	"github.com/Dutta2005/Medi-Track/pkg/db"
	"github.com/Dutta2005/Medi-Track/pkg/enums"
	pkgerrors "github.com/Dutta2005/Medi-Track/pkg/errors"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
	"github.com/Dutta2005/Medi-Track/pkg/pagination"
	"github.com/Dutta2005/Medi-Track/pkg/types"
	"github.com/google/uuid"
)

// Service exposes the caller's product management operations.
type Service interface {
	CreateProduct(ctx context.Context, userID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, userID, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, userID uuid.UUID, params pagination.Params) (*types.Page[ProductDTO], error)
	UpdateProduct(ctx context.Context, userID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, userID, productID uuid.UUID) error
	ListTriggers(ctx context.Context, userID, productID uuid.UUID) ([]TriggerDTO, error)
}

// Hooks run after a product write has committed.
type Hooks interface {
	ProductSaved(ctx context.Context, product Product) error
	ProductDeleted(ctx context.Context, product Product) error
}

type productStore interface {
	Create(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product, at time.Time) error
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)
	FindForUser(ctx context.Context, userID, id uuid.UUID) (*Product, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int, cursor *pagination.Cursor) ([]Product, *pagination.Cursor, error)
}

// ServiceParams groups the product service dependencies.
type ServiceParams struct {
	Repo     productStore
	Hooks    Hooks
	Logger   *logger.Logger
	Location *time.Location
	Now      func() time.Time
}

type service struct {
	repo  productStore
	hooks Hooks
	logg  *logger.Logger
	loc   *time.Location
	now   func() time.Time
}

// NewService constructs a product service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:  params.Repo,
		hooks: params.Hooks,
		logg:  params.Logger,
		loc:   loc,
		now:   now,
	}, nil
}

func (s *service) CreateProduct(ctx context.Context, userID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	scheduleType := input.ScheduleType
	if scheduleType == "" {
		scheduleType = enums.DefaultScheduleType
	}
	if err := checkScheduleType(scheduleType); err != nil {
		return nil, err
	}
	sched := s.parseSchedule(ctx, scheduleType, payloadFor(scheduleType, input.DailyDosages, input.WeeklyDosages, input.CustomSchedule))

	product := Product{
		UserID:             userID,
		Name:               strings.TrimSpace(input.Name),
		Quantity:           input.Quantity,
		ReorderPoint:       input.ReorderPoint,
		ExpiryDate:         civilDate(input.ExpiryDate),
		Category:           input.Category,
		DosageInstructions: strings.TrimSpace(input.DosageInstructions),
		ImageID:            normalizeImageID(input.ImageID),
		Schedule:           sched,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, &product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	s.afterSave(ctx, product)

	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) GetProduct(ctx context.Context, userID, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.load(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	dto := NewProductDTO(*product)
	return &dto, nil
}

func (s *service) ListProducts(ctx context.Context, userID uuid.UUID, params pagination.Params) (*types.Page[ProductDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	items, next, err := s.repo.ListByUser(ctx, userID, params.Limit, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	page := &types.Page[ProductDTO]{Items: NewProductDTOs(items)}
	if next != nil {
		page.NextCursor = pagination.EncodeCursor(*next)
	}
	return page, nil
}

func (s *service) UpdateProduct(ctx context.Context, userID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.load(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Quantity != nil {
		product.Quantity = *input.Quantity
	}
	if input.ClearReorderPoint {
		product.ReorderPoint = nil
	} else if input.ReorderPoint != nil {
		value := *input.ReorderPoint
		product.ReorderPoint = &value
	}
	if input.ExpiryDate != nil {
		product.ExpiryDate = civilDate(*input.ExpiryDate)
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.DosageInstructions != nil {
		product.DosageInstructions = strings.TrimSpace(*input.DosageInstructions)
	}
	if input.ImageID != nil {
		product.ImageID = normalizeImageID(input.ImageID)
	}

	nextType := product.Schedule.Type
	if input.ScheduleType != nil {
		nextType = *input.ScheduleType
	}
	if err := checkScheduleType(nextType); err != nil {
		return nil, err
	}
	raw := input.payloadFor(nextType)
	switch {
	case raw != nil:
		product.Schedule = s.parseSchedule(s.hookContext(ctx, *product), nextType, raw)
	case nextType != product.Schedule.Type:
		product.Schedule = schedule.Schedule{Type: nextType}
	}

	if err := validateProduct(*product); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, product, s.now()); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.NotFound("product")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}
	s.afterSave(ctx, *product)

	dto := NewProductDTO(*product)
	return &dto, nil
}

func (s *service) DeleteProduct(ctx context.Context, userID, productID uuid.UUID) error {
	product, err := s.load(ctx, userID, productID)
	if err != nil {
		return err
	}
	removed, err := s.repo.Delete(ctx, userID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	if !removed {
		return pkgerrors.NotFound("product")
	}
	if s.hooks != nil {
		if err := s.hooks.ProductDeleted(ctx, *product); err != nil {
			s.logg.Error(s.hookContext(ctx, *product), "products.delete_hook_failed", err)
		}
	}
	return nil
}

func (s *service) ListTriggers(ctx context.Context, userID, productID uuid.UUID) ([]TriggerDTO, error) {
	product, err := s.load(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	return NewTriggerDTOs(product.Schedule.Triggers(), s.now(), s.loc), nil
}

func (s *service) load(ctx context.Context, userID, productID uuid.UUID) (*Product, error) {
	product, err := s.repo.FindForUser(ctx, userID, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.NotFound("product")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

// afterSave never fails the write; hook errors are only logged.
func (s *service) afterSave(ctx context.Context, product Product) {
	if s.hooks == nil {
		return
	}
	if err := s.hooks.ProductSaved(ctx, product); err != nil {
		s.logg.Error(s.hookContext(ctx, product), "products.save_hook_failed", err)
	}
}

func (s *service) hookContext(ctx context.Context, product Product) context.Context {
	ctx = s.logg.WithUserID(ctx, product.UserID.String())
	return s.logg.WithProductID(ctx, product.ID.String())
}

func checkScheduleType(scheduleType enums.ScheduleType) error {
	if !scheduleType.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid schedule_type %q", scheduleType)
	}
	return nil
}

// parseSchedule never fails the write. A payload that does not parse is
// logged and stored as an empty schedule of the requested type.
func (s *service) parseSchedule(ctx context.Context, scheduleType enums.ScheduleType, raw json.RawMessage) schedule.Schedule {
	sched, err := schedule.ParseInLocation(scheduleType, raw, s.loc)
	if err != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"field": payloadField(scheduleType),
			"error": err.Error(),
		})
		s.logg.Warn(ctx, "products.schedule_invalid")
		return schedule.Schedule{Type: scheduleType}
	}
	return sched
}

func payloadField(t enums.ScheduleType) string {
	switch t {
	case enums.ScheduleTypeDaily:
		return "daily_dosages"
	case enums.ScheduleTypeWeekly:
		return "weekly_dosages"
	default:
		return "custom_schedule"
	}
}

func validateProduct(p Product) error {
	switch {
	case p.Name == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case p.Quantity < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be zero or greater")
	case p.ReorderPoint != nil && *p.ReorderPoint < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "reorder_point must be zero or greater")
	case p.ExpiryDate.IsZero():
		return pkgerrors.New(pkgerrors.CodeValidation, "expiry_date is required")
	case !p.Category.IsValid():
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid category %q", p.Category)
	}
	return nil
}

func normalizeImageID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
