package reminders

import (
	"fmt"

	"github.com/Dutta2005/Medi-Track/internal/notifications"
	"github.com/Dutta2005/Medi-Track/internal/products"
	"github.com/Dutta2005/Medi-Track/pkg/enums"
)

const (
	titleLowStock = "Low Stock Alert"
	titleExpiry   = "Expiry Alert"
	titleDosage   = "Medication Reminder"
)

func alertMessage(kind enums.AlertType, p products.Product, eval Evaluation) string {
	switch kind {
	case enums.AlertTypeLowStock:
		return fmt.Sprintf("%s is running low on stock (%d remaining)", p.Name, p.Quantity)
	case enums.AlertTypeExpiry:
		return fmt.Sprintf("%s will expire in %d days", p.Name, eval.DaysUntilExpiry)
	default:
		return fmt.Sprintf("Time to take %s", p.Name)
	}
}

func notificationFor(kind enums.AlertType, p products.Product, eval Evaluation) notifications.Message {
	msg := notifications.Message{
		Tag:       fmt.Sprintf("%s-%s", kind, p.ID),
		URL:       fmt.Sprintf("/products/%s", p.ID),
		Kind:      kind,
		ProductID: p.ID,
	}
	switch kind {
	case enums.AlertTypeLowStock:
		msg.Title = titleLowStock
		msg.Body = fmt.Sprintf("%s is running low on stock. Current quantity: %d", p.Name, p.Quantity)
	case enums.AlertTypeExpiry:
		msg.Title = titleExpiry
		msg.Body = fmt.Sprintf("%s will expire in %d days", p.Name, eval.DaysUntilExpiry)
	default:
		msg.Title = titleDosage
		msg.Body = fmt.Sprintf("Time to take %s", p.Name)
	}
	return msg
}
