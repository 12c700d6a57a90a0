package enums

import "fmt"

// AlertType maps to the alerts.type column.
type AlertType string

const (
	AlertTypeLowStock AlertType = "lowStock"
	AlertTypeExpiry   AlertType = "expiry"
	AlertTypeDosage   AlertType = "dosage"
)

var validAlertTypes = []AlertType{
	AlertTypeLowStock,
	AlertTypeExpiry,
	AlertTypeDosage,
}

// IsValid checks whether the given type matches the canonical enum.
func (a AlertType) IsValid() bool {
	for _, candidate := range validAlertTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAlertType converts raw strings into AlertType.
func ParseAlertType(value string) (AlertType, error) {
	for _, candidate := range validAlertTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid alert type %q", value)
}

// AlertStatus maps to the alerts.status column. The only transition is pending to read.
type AlertStatus string

const (
	AlertStatusPending AlertStatus = "pending"
	AlertStatusRead    AlertStatus = "read"
)

func (s AlertStatus) IsValid() bool {
	return s == AlertStatusPending || s == AlertStatusRead
}

func ParseAlertStatus(value string) (AlertStatus, error) {
	status := AlertStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid alert status %q", value)
	}
	return status, nil
}
