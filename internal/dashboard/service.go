package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Dutta2005/Medi-Track/internal/products"
	"github.com/Dutta2005/Medi-Track/pkg/enums"
	pkgerrors "github.com/Dutta2005/Medi-Track/pkg/errors"
	"github.com/google/uuid"
)

type productLister interface {
	ListAllByUser(ctx context.Context, userID uuid.UUID) ([]products.Product, error)
}

// Params are the dashboard query inputs.
type Params struct {
	Filter   string
	Category string
}

// Result is the dashboard payload. Stats always cover every product.
type Result struct {
	Filter   FilterKind           `json:"filter"`
	Category string               `json:"category"`
	Items    []products.ProductDTO `json:"items"`
	Stats    Stats                `json:"stats"`
}

// Service builds the dashboard view for a user.
type Service struct {
	products productLister
	loc      *time.Location
	now      func() time.Time
}

// NewService wires the dashboard. loc decides what "today" means.
func NewService(lister productLister, loc *time.Location, now func() time.Time) (*Service, error) {
	if lister == nil {
		return nil, fmt.Errorf("product lister required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Service{products: lister, loc: loc, now: now}, nil
}

// Dashboard loads the user's products, filters them, and computes stats.
func (s *Service) Dashboard(ctx context.Context, userID uuid.UUID, params Params) (*Result, error) {
	filter, err := ParseFilter(params.Filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid filter")
	}
	category, err := parseCategory(params.Category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
	}

	items, err := s.products.ListAllByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	now := s.now().In(s.loc)
	return &Result{
		Filter:   filter,
		Category: category,
		Items:    products.NewProductDTOs(Filter(items, filter, category, now)),
		Stats:    ComputeStats(items, now),
	}, nil
}

func parseCategory(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.EqualFold(trimmed, CategoryAll) {
		return CategoryAll, nil
	}
	category, err := enums.ParseProductCategory(trimmed)
	if err != nil {
		return "", err
	}
	return string(category), nil
}
