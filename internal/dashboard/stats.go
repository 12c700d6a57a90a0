package dashboard

import (
	"time"

	"github.com/Dutta2005/Medi-Track/internal/products"
	"github.com/Dutta2005/Medi-Track/pkg/enums"
)

// ExpiringWindowDays matches the reminder expiry window.
const ExpiringWindowDays = 30

// CategoryCount is the number of products in one category.
type CategoryCount struct {
	Category enums.ProductCategory `json:"category"`
	Count    int                   `json:"count"`
}

// Stats summarizes a user's products.
type Stats struct {
	Total        int             `json:"total"`
	LowStock     int             `json:"low_stock"`
	ExpiringSoon int             `json:"expiring_soon"`
	Expired      int             `json:"expired"`
	ByCategory   []CategoryCount `json:"by_category"`
}

// ComputeStats counts products by state. Expired products are not counted as
// expiring soon. Categories are listed in enumeration order, zeros included.
func ComputeStats(items []products.Product, now time.Time) Stats {
	categories := enums.ProductCategories()
	counts := make(map[enums.ProductCategory]int, len(categories))

	stats := Stats{Total: len(items)}
	for _, p := range items {
		if isLowStock(p) {
			stats.LowStock++
		}
		days := daysFromToday(p.ExpiryDate, now)
		switch {
		case days < 0:
			stats.Expired++
		case days <= ExpiringWindowDays:
			stats.ExpiringSoon++
		}
		counts[p.Category]++
	}

	stats.ByCategory = make([]CategoryCount, 0, len(categories))
	for _, c := range categories {
		stats.ByCategory = append(stats.ByCategory, CategoryCount{Category: c, Count: counts[c]})
	}
	return stats
}
