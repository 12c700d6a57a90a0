package schedule

import (
	"time"

	"github.com/Dutta2005/Medi-Track/pkg/enums"
)

// Trigger describes when one notification fires. Weekday uses 1..7 with
// Sunday=1 and is only set for weekly triggers. At is only set for date triggers.
type Trigger struct {
	Kind            enums.TriggerKind
	Hour            int
	Minute          int
	Weekday         int
	At              time.Time
	RepeatEveryDays int
}

// Immediate is the trigger for notifications sent right away.
func Immediate() Trigger {
	return Trigger{Kind: enums.TriggerKindImmediate}
}

// Triggers maps the active payload to notification triggers. Unknown types
// and empty payloads produce none.
func (s Schedule) Triggers() []Trigger {
	var out []Trigger
	switch s.Type {
	case enums.ScheduleTypeDaily:
		for _, t := range s.Daily {
			out = append(out, Trigger{Kind: enums.TriggerKindDaily, Hour: t.Hour, Minute: t.Minute})
		}
	case enums.ScheduleTypeWeekly:
		for _, w := range s.Weekly {
			for _, d := range w.Days {
				out = append(out, Trigger{
					Kind:    enums.TriggerKindWeekly,
					Hour:    w.Time.Hour,
					Minute:  w.Time.Minute,
					Weekday: WeekdayNumber(d),
				})
			}
		}
	case enums.ScheduleTypeCustom:
		for _, c := range s.Custom {
			out = append(out, Trigger{
				Kind:            enums.TriggerKindDate,
				Hour:            c.At.Hour(),
				Minute:          c.At.Minute(),
				At:              c.At,
				RepeatEveryDays: c.RepeatEveryDays,
			})
		}
	}
	return out
}

// NextAfter returns the first fire time strictly after after. Wall-clock
// triggers are evaluated in loc. A past date trigger without a repeat
// interval has no next fire.
func (t Trigger) NextAfter(after time.Time, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	local := after.In(loc)

	switch t.Kind {
	case enums.TriggerKindImmediate:
		return after, true
	case enums.TriggerKindDaily:
		for i := 0; i <= 1; i++ {
			candidate := time.Date(local.Year(), local.Month(), local.Day()+i, t.Hour, t.Minute, 0, 0, loc)
			if candidate.After(after) {
				return candidate, true
			}
		}
	case enums.TriggerKindWeekly:
		target, err := WeekdayFromNumber(t.Weekday)
		if err != nil {
			return time.Time{}, false
		}
		for i := 0; i <= 7; i++ {
			candidate := time.Date(local.Year(), local.Month(), local.Day()+i, t.Hour, t.Minute, 0, 0, loc)
			if candidate.Weekday() == target && candidate.After(after) {
				return candidate, true
			}
		}
	case enums.TriggerKindDate:
		if t.At.After(after) {
			return t.At, true
		}
		if t.RepeatEveryDays <= 0 {
			return time.Time{}, false
		}
		start := t.At.In(loc)
		step := t.RepeatEveryDays
		elapsedDays := int(after.Sub(t.At).Hours() / 24)
		k := elapsedDays / step
		for ; ; k++ {
			candidate := start.AddDate(0, 0, k*step)
			if candidate.After(after) {
				return candidate, true
			}
		}
	}
	return time.Time{}, false
}

// FallsOn reports whether the dose occurs on day's calendar date in loc.
// The time of day is ignored.
func (c CustomDose) FallsOn(day time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	diff := civilDaysBetween(c.At.In(loc), day.In(loc))
	if diff == 0 {
		return true
	}
	return c.RepeatEveryDays > 0 && diff > 0 && diff%c.RepeatEveryDays == 0
}

// HasCustomDoseOn reports whether any custom entry falls on day.
func (s Schedule) HasCustomDoseOn(day time.Time, loc *time.Location) bool {
	if s.Type != enums.ScheduleTypeCustom {
		return false
	}
	for _, c := range s.Custom {
		if c.FallsOn(day, loc) {
			return true
		}
	}
	return false
}

// civilDaysBetween counts calendar days from a to b using each value's own wall date.
func civilDaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
