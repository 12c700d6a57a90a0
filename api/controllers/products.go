package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Dutta2005/Medi-Track/api/responses"
	"github.com/Dutta2005/Medi-Track/api/validators"
	productsvc "github.com/Dutta2005/Medi-Track/internal/products"
	"github.com/Dutta2005/Medi-Track/internal/reminders"
	"github.com/Dutta2005/Medi-Track/pkg/enums"
	pkgerrors "github.com/Dutta2005/Medi-Track/pkg/errors"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
	"github.com/google/uuid"
)

const maxProductNameLen = 200

type productChecker interface {
	CheckProduct(ctx context.Context, userID, productID uuid.UUID) (*reminders.CheckResult, error)
}

type createProductRequest struct {
	Name               string          `json:"name" validate:"required,max=200"`
	Quantity           *int            `json:"quantity" validate:"required,gte=0"`
	ReorderPoint       *int            `json:"reorder_point,omitempty" validate:"omitempty,gte=0"`
	ExpiryDate         string          `json:"expiry_date" validate:"required"`
	Category           string          `json:"category" validate:"required,category"`
	DosageInstructions string          `json:"dosage_instructions" validate:"max=2000"`
	ImageID            *string         `json:"image_id,omitempty"`
	ScheduleType       string          `json:"schedule_type,omitempty" validate:"omitempty,schedule_type"`
	DailyDosages       json.RawMessage `json:"daily_dosages,omitempty"`
	WeeklyDosages      json.RawMessage `json:"weekly_dosages,omitempty"`
	CustomSchedule     json.RawMessage `json:"custom_schedule,omitempty"`
}

func (r createProductRequest) toInput() (productsvc.CreateProductInput, error) {
	expiry, err := productsvc.ParseDate(r.ExpiryDate)
	if err != nil {
		return productsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid expiry_date")
	}
	category, err := enums.ParseProductCategory(r.Category)
	if err != nil {
		return productsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
	}
	scheduleType := enums.DefaultScheduleType
	if strings.TrimSpace(r.ScheduleType) != "" {
		scheduleType, err = enums.ParseScheduleType(r.ScheduleType)
		if err != nil {
			return productsvc.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid schedule_type")
		}
	}
	return productsvc.CreateProductInput{
		Name:               validators.SanitizeString(r.Name, maxProductNameLen),
		Quantity:           *r.Quantity,
		ReorderPoint:       r.ReorderPoint,
		ExpiryDate:         expiry,
		Category:           category,
		DosageInstructions: strings.TrimSpace(r.DosageInstructions),
		ImageID:            r.ImageID,
		ScheduleType:       scheduleType,
		DailyDosages:       r.DailyDosages,
		WeeklyDosages:      r.WeeklyDosages,
		CustomSchedule:     r.CustomSchedule,
	}, nil
}

type updateProductRequest struct {
	Name               *string         `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Quantity           *int            `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	ReorderPoint       *int            `json:"reorder_point,omitempty" validate:"omitempty,gte=0"`
	ClearReorderPoint  bool            `json:"clear_reorder_point,omitempty"`
	ExpiryDate         *string         `json:"expiry_date,omitempty"`
	Category           *string         `json:"category,omitempty" validate:"omitempty,category"`
	DosageInstructions *string         `json:"dosage_instructions,omitempty" validate:"omitempty,max=2000"`
	ImageID            *string         `json:"image_id,omitempty"`
	ScheduleType       *string         `json:"schedule_type,omitempty" validate:"omitempty,schedule_type"`
	DailyDosages       json.RawMessage `json:"daily_dosages,omitempty"`
	WeeklyDosages      json.RawMessage `json:"weekly_dosages,omitempty"`
	CustomSchedule     json.RawMessage `json:"custom_schedule,omitempty"`
}

func (r updateProductRequest) toInput() (productsvc.UpdateProductInput, error) {
	input := productsvc.UpdateProductInput{
		Name:               r.Name,
		Quantity:           r.Quantity,
		ReorderPoint:       r.ReorderPoint,
		ClearReorderPoint:  r.ClearReorderPoint,
		DosageInstructions: r.DosageInstructions,
		ImageID:            r.ImageID,
		DailyDosages:       r.DailyDosages,
		WeeklyDosages:      r.WeeklyDosages,
		CustomSchedule:     r.CustomSchedule,
	}
	if r.Name != nil {
		name := validators.SanitizeString(*r.Name, maxProductNameLen)
		if name == "" {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "name must not be blank")
		}
		input.Name = &name
	}
	if r.ExpiryDate != nil {
		expiry, err := productsvc.ParseDate(*r.ExpiryDate)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid expiry_date")
		}
		input.ExpiryDate = &expiry
	}
	if r.Category != nil {
		category, err := enums.ParseProductCategory(*r.Category)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		input.Category = &category
	}
	if r.ScheduleType != nil {
		scheduleType, err := enums.ParseScheduleType(*r.ScheduleType)
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid schedule_type")
		}
		input.ScheduleType = &scheduleType
	}
	return input, nil
}

// CreateProduct adds a product to the caller's inventory.
func CreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product service")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// ListProducts returns the caller's products newest first.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product service")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListProducts(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product service")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), userID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// UpdateProduct applies a partial update. Omitted fields keep their values.
func UpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product service")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), userID, productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func DeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product service")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), userID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ProductTriggers lists the reminder times computed from the product schedule.
func ProductTriggers(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "product service")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		triggers, err := svc.ListTriggers(r.Context(), userID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, triggers)
	}
}

// CheckProduct evaluates one product for low stock and expiry right away.
func CheckProduct(svc productChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "alert service")
			return
		}
		userID, ok := requireUser(w, r, logg)
		if !ok {
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CheckProduct(r.Context(), userID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
