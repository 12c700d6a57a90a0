package reminders

import (
	"math"
	"time"

	"github.com/Dutta2005/Medi-Track/internal/products"
)

// ExpiryWindowDays is how close to expiry a product starts raising alerts.
const ExpiryWindowDays = 30

// Evaluation is the stock and expiry state of one product at a point in time.
type Evaluation struct {
	LowStock        bool `json:"low_stock"`
	Expiring        bool `json:"expiring"`
	DaysUntilExpiry int  `json:"days_until_expiry"`
}

// Evaluate has no side effects. Expired products report a negative or zero
// day count and are always expiring.
func Evaluate(product products.Product, now time.Time) Evaluation {
	days := DaysUntil(product.ExpiryDate, now)
	return Evaluation{
		LowStock:        product.Quantity <= product.Threshold(),
		Expiring:        days <= ExpiryWindowDays,
		DaysUntilExpiry: days,
	}
}

// DaysUntil rounds the remaining time up to whole days.
func DaysUntil(expiry, now time.Time) int {
	return int(math.Ceil(expiry.Sub(now).Hours() / 24))
}
