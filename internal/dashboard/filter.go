package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/Dutta2005/Medi-Track/internal/products"
	"github.com/Dutta2005/Medi-Track/pkg/enums"
)

// FilterKind selects which products the dashboard shows.
type FilterKind string

const (
	FilterAll      FilterKind = "all"
	FilterToday    FilterKind = "today"
	FilterLowStock FilterKind = "lowStock"
	FilterExpired  FilterKind = "expired"
)

// CategoryAll disables category filtering.
const CategoryAll = "all"

var filterKinds = []FilterKind{FilterAll, FilterToday, FilterLowStock, FilterExpired}

// ParseFilter matches case-insensitively. Blank input means FilterAll.
func ParseFilter(value string) (FilterKind, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return FilterAll, nil
	}
	for _, kind := range filterKinds {
		if strings.EqualFold(string(kind), trimmed) {
			return kind, nil
		}
	}
	return "", fmt.Errorf("invalid filter %q", value)
}

// Filter returns the products matching filter and category. Dates are
// compared in now's location. The input slice is never modified.
func Filter(items []products.Product, filter FilterKind, category string, now time.Time) []products.Product {
	out := make([]products.Product, 0, len(items))
	for _, p := range items {
		if matchesCategory(p, category) && matchesFilter(p, filter, now) {
			out = append(out, p)
		}
	}
	return out
}

func matchesCategory(p products.Product, category string) bool {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, CategoryAll) {
		return true
	}
	return strings.EqualFold(string(p.Category), category)
}

func matchesFilter(p products.Product, filter FilterKind, now time.Time) bool {
	switch filter {
	case FilterToday:
		return isScheduledToday(p, now)
	case FilterLowStock:
		return isLowStock(p)
	case FilterExpired:
		return isExpired(p, now)
	default:
		return true
	}
}

// isScheduledToday counts every daily schedule and custom entries landing on
// today's date. Weekly schedules are not included.
func isScheduledToday(p products.Product, now time.Time) bool {
	if p.Schedule.Type == enums.ScheduleTypeDaily {
		return true
	}
	return p.Schedule.HasCustomDoseOn(now, now.Location())
}

func isLowStock(p products.Product) bool {
	return p.Quantity <= p.Threshold()
}

func isExpired(p products.Product, now time.Time) bool {
	return daysFromToday(p.ExpiryDate, now) < 0
}

// daysFromToday counts calendar days from today's date in now's location to
// the expiry date.
func daysFromToday(expiry, now time.Time) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, time.UTC)
	return int(day.Sub(today).Hours() / 24)
}
