package enums

import "fmt"

// TriggerKind describes how a scheduled notification fires.
type TriggerKind string

const (
	TriggerKindImmediate TriggerKind = "immediate"
	TriggerKindDaily     TriggerKind = "daily"
	TriggerKindWeekly    TriggerKind = "weekly"
	TriggerKindDate      TriggerKind = "date"
)

var validTriggerKinds = []TriggerKind{
	TriggerKindImmediate,
	TriggerKindDaily,
	TriggerKindWeekly,
	TriggerKindDate,
}

func (k TriggerKind) IsValid() bool {
	for _, candidate := range validTriggerKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// Repeats reports whether the trigger fires more than once.
func (k TriggerKind) Repeats() bool {
	return k == TriggerKindDaily || k == TriggerKindWeekly
}

func ParseTriggerKind(value string) (TriggerKind, error) {
	for _, candidate := range validTriggerKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid trigger kind %q", value)
}
