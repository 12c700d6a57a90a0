package schedule

import (
	"encoding/json"
	"time"

	"github.com/Dutta2005/Medi-Track/pkg/enums"
)

const emptyList = "[]"

// Columns is the storage form: each payload serialized as a JSON string.
type Columns struct {
	Daily  string
	Weekly string
	Custom string
}

type weeklyJSON struct {
	Time string   `json:"time"`
	Days []string `json:"days"`
}

type customJSON struct {
	At              string `json:"at"`
	RepeatEveryDays int    `json:"repeatEveryDays,omitempty"`
}

// DailyJSON returns the canonical daily payload.
func (s Schedule) DailyJSON() json.RawMessage {
	out := make([]string, 0, len(s.Daily))
	for _, t := range s.Daily {
		out = append(out, t.String())
	}
	return mustMarshal(out)
}

// WeeklyJSON returns the canonical weekly payload.
func (s Schedule) WeeklyJSON() json.RawMessage {
	out := make([]weeklyJSON, 0, len(s.Weekly))
	for _, w := range s.Weekly {
		days := make([]string, 0, len(w.Days))
		for _, d := range w.Days {
			days = append(days, d.String())
		}
		out = append(out, weeklyJSON{Time: w.Time.String(), Days: days})
	}
	return mustMarshal(out)
}

// CustomJSON returns the canonical custom payload.
func (s Schedule) CustomJSON() json.RawMessage {
	out := make([]customJSON, 0, len(s.Custom))
	for _, c := range s.Custom {
		out = append(out, customJSON{At: c.At.UTC().Format(time.RFC3339Nano), RepeatEveryDays: c.RepeatEveryDays})
	}
	return mustMarshal(out)
}

// Payload returns the active payload for s.Type, or an empty list.
func (s Schedule) Payload() json.RawMessage {
	switch s.Type {
	case enums.ScheduleTypeDaily:
		return s.DailyJSON()
	case enums.ScheduleTypeWeekly:
		return s.WeeklyJSON()
	case enums.ScheduleTypeCustom:
		return s.CustomJSON()
	default:
		return json.RawMessage(emptyList)
	}
}

// Columns serializes the active payload; inactive columns are stored as "[]".
func (s Schedule) Columns() Columns {
	cols := Columns{Daily: emptyList, Weekly: emptyList, Custom: emptyList}
	switch s.Type {
	case enums.ScheduleTypeDaily:
		cols.Daily = string(s.DailyJSON())
	case enums.ScheduleTypeWeekly:
		cols.Weekly = string(s.WeeklyJSON())
	case enums.ScheduleTypeCustom:
		cols.Custom = string(s.CustomJSON())
	}
	return cols
}

// FromColumns parses the column matching scheduleType and ignores the others.
func FromColumns(scheduleType enums.ScheduleType, cols Columns, loc *time.Location) (Schedule, error) {
	var raw string
	switch scheduleType {
	case enums.ScheduleTypeDaily:
		raw = cols.Daily
	case enums.ScheduleTypeWeekly:
		raw = cols.Weekly
	case enums.ScheduleTypeCustom:
		raw = cols.Custom
	}
	return ParseInLocation(scheduleType, []byte(raw), loc)
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(emptyList)
	}
	return data
}
