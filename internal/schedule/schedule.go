// Package schedule holds the canonical in-memory shape of a product's dosage
// schedule and the parse/encode steps used at the storage and HTTP boundaries.
package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dutta2005/Medi-Track/pkg/enums"
)

// TimeOfDay is a wall-clock hour and minute.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay accepts "8:00", "08:00", "08:00:00" and 12-hour forms such as "8:30 pm".
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return TimeOfDay{}, fmt.Errorf("empty time of day")
	}

	meridiem := ""
	for _, suffix := range []string{"am", "pm"} {
		if strings.HasSuffix(value, suffix) {
			meridiem = suffix
			value = strings.TrimSpace(strings.TrimSuffix(value, suffix))
			break
		}
	}

	parts := strings.Split(value, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", raw)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", raw)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", raw)
	}
	if len(parts) == 3 {
		if second, err := strconv.Atoi(parts[2]); err != nil || second < 0 || second > 59 {
			return TimeOfDay{}, fmt.Errorf("invalid second in %q", raw)
		}
	}

	switch meridiem {
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return TimeOfDay{}, fmt.Errorf("invalid 12-hour time %q", raw)
		}
		hour %= 12
		if meridiem == "pm" {
			hour += 12
		}
	default:
		if hour < 0 || hour > 23 {
			return TimeOfDay{}, fmt.Errorf("invalid hour in %q", raw)
		}
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// WeeklyDosage fires at Time on each of Days.
type WeeklyDosage struct {
	Time TimeOfDay
	Days []time.Weekday
}

// CustomDose is an explicit datetime, optionally repeating every N days.
type CustomDose struct {
	At              time.Time
	RepeatEveryDays int
}

// Schedule is a tagged union keyed by Type. Only the slice matching Type is populated.
type Schedule struct {
	Type   enums.ScheduleType
	Daily  []TimeOfDay
	Weekly []WeeklyDosage
	Custom []CustomDose
}

// IsEmpty reports whether the active payload has no entries.
func (s Schedule) IsEmpty() bool {
	switch s.Type {
	case enums.ScheduleTypeDaily:
		return len(s.Daily) == 0
	case enums.ScheduleTypeWeekly:
		return len(s.Weekly) == 0
	case enums.ScheduleTypeCustom:
		return len(s.Custom) == 0
	default:
		return true
	}
}

// Parse decodes raw in UTC. See ParseInLocation.
func Parse(scheduleType enums.ScheduleType, raw []byte) (Schedule, error) {
	return ParseInLocation(scheduleType, raw, time.UTC)
}

// ParseInLocation decodes a payload for scheduleType. raw may be a JSON list or
// a JSON string holding that list. Datetimes without a zone are read in loc.
// An unknown type yields an empty schedule and no error. A malformed payload
// yields an empty schedule of the requested type and a descriptive error.
func ParseInLocation(scheduleType enums.ScheduleType, raw []byte, loc *time.Location) (Schedule, error) {
	out := Schedule{Type: scheduleType}
	if !scheduleType.IsValid() {
		return out, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	entries, err := unwrapList(raw)
	if err != nil {
		return out, fmt.Errorf("%s schedule: %w", scheduleType, err)
	}

	parsed := Schedule{Type: scheduleType}
	for i, entry := range entries {
		var entryErr error
		switch scheduleType {
		case enums.ScheduleTypeDaily:
			var t TimeOfDay
			t, entryErr = parseDailyEntry(entry)
			if entryErr == nil {
				parsed.Daily = append(parsed.Daily, t)
			}
		case enums.ScheduleTypeWeekly:
			var w WeeklyDosage
			w, entryErr = parseWeeklyEntry(entry)
			if entryErr == nil {
				parsed.Weekly = append(parsed.Weekly, w)
			}
		case enums.ScheduleTypeCustom:
			var c CustomDose
			c, entryErr = parseCustomEntry(entry, loc)
			if entryErr == nil {
				parsed.Custom = append(parsed.Custom, c)
			}
		}
		if entryErr != nil {
			return out, fmt.Errorf("%s schedule entry %d: %w", scheduleType, i, entryErr)
		}
	}
	return parsed, nil
}

// unwrapList peels string encoding (possibly nested) until a JSON array remains.
// null, empty input, "" and {} are treated as an empty list.
func unwrapList(raw []byte) ([]json.RawMessage, error) {
	const maxDepth = 3
	data := bytes.TrimSpace(raw)
	for depth := 0; ; depth++ {
		if len(data) == 0 || bytes.Equal(data, []byte("null")) {
			return nil, nil
		}
		switch data[0] {
		case '[':
			var entries []json.RawMessage
			if err := json.Unmarshal(data, &entries); err != nil {
				return nil, fmt.Errorf("decoding list: %w", err)
			}
			return entries, nil
		case '{':
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(data, &obj); err != nil {
				return nil, fmt.Errorf("decoding object: %w", err)
			}
			if len(obj) == 0 {
				return nil, nil
			}
			return nil, fmt.Errorf("expected a list, got an object")
		case '"':
			if depth >= maxDepth {
				return nil, fmt.Errorf("payload nested too deeply")
			}
			var inner string
			if err := json.Unmarshal(data, &inner); err != nil {
				return nil, fmt.Errorf("decoding string payload: %w", err)
			}
			data = bytes.TrimSpace([]byte(inner))
		default:
			return nil, fmt.Errorf("expected a list, got %q", truncate(string(data), 32))
		}
	}
}

func parseDailyEntry(entry json.RawMessage) (TimeOfDay, error) {
	var s string
	if err := json.Unmarshal(entry, &s); err != nil {
		return TimeOfDay{}, fmt.Errorf("expected a time string")
	}
	return ParseTimeOfDay(s)
}

type weeklyObject struct {
	Time string            `json:"time"`
	Days []json.RawMessage `json:"days"`
}

func parseWeeklyEntry(entry json.RawMessage) (WeeklyDosage, error) {
	trimmed := bytes.TrimSpace(entry)
	if len(trimmed) == 0 {
		return WeeklyDosage{}, fmt.Errorf("empty entry")
	}

	switch trimmed[0] {
	case '{':
		var obj weeklyObject
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return WeeklyDosage{}, err
		}
		tod, err := ParseTimeOfDay(obj.Time)
		if err != nil {
			return WeeklyDosage{}, err
		}
		days, err := parseWeekdayList(obj.Days)
		if err != nil {
			return WeeklyDosage{}, err
		}
		return WeeklyDosage{Time: tod, Days: days}, nil
	case '[':
		var parts []json.RawMessage
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return WeeklyDosage{}, err
		}
		return parseWeeklyTuple(parts)
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return WeeklyDosage{}, err
		}
		return parseLegacyWeekly(s)
	default:
		return WeeklyDosage{}, fmt.Errorf("unsupported weekly entry")
	}
}

// parseWeeklyTuple reads [time, weekday...] in any order.
func parseWeeklyTuple(parts []json.RawMessage) (WeeklyDosage, error) {
	var (
		out     WeeklyDosage
		hasTime bool
		days    []json.RawMessage
	)
	for _, part := range parts {
		var s string
		if json.Unmarshal(part, &s) == nil && strings.Contains(s, ":") {
			if hasTime {
				return WeeklyDosage{}, fmt.Errorf("multiple times in weekly entry")
			}
			tod, err := ParseTimeOfDay(s)
			if err != nil {
				return WeeklyDosage{}, err
			}
			out.Time = tod
			hasTime = true
			continue
		}
		days = append(days, part)
	}
	if !hasTime {
		return WeeklyDosage{}, fmt.Errorf("weekly entry missing time")
	}
	parsedDays, err := parseWeekdayList(days)
	if err != nil {
		return WeeklyDosage{}, err
	}
	out.Days = parsedDays
	return out, nil
}

// parseLegacyWeekly reads "Monday 10:00" and "Monday 10:00 am".
func parseLegacyWeekly(s string) (WeeklyDosage, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return WeeklyDosage{}, fmt.Errorf("invalid weekly entry %q", s)
	}
	day, err := ParseWeekday(fields[0])
	if err != nil {
		return WeeklyDosage{}, err
	}
	tod, err := ParseTimeOfDay(strings.Join(fields[1:], " "))
	if err != nil {
		return WeeklyDosage{}, err
	}
	return WeeklyDosage{Time: tod, Days: []time.Weekday{day}}, nil
}

func parseWeekdayList(raw []json.RawMessage) ([]time.Weekday, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("weekly entry has no days")
	}
	seen := make(map[time.Weekday]struct{}, len(raw))
	days := make([]time.Weekday, 0, len(raw))
	for _, item := range raw {
		day, err := parseWeekdayValue(item)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	return days, nil
}

func parseWeekdayValue(item json.RawMessage) (time.Weekday, error) {
	var n int
	if json.Unmarshal(item, &n) == nil {
		return WeekdayFromNumber(n)
	}
	var s string
	if err := json.Unmarshal(item, &s); err != nil {
		return 0, fmt.Errorf("invalid weekday %s", string(item))
	}
	return ParseWeekday(s)
}

// ParseWeekday accepts full or three-letter English names, or 1..7 with Sunday=1.
func ParseWeekday(raw string) (time.Weekday, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if n, err := strconv.Atoi(value); err == nil {
		return WeekdayFromNumber(n)
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if value == name || (len(value) >= 3 && strings.HasPrefix(name, value)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", raw)
}

// WeekdayFromNumber maps 1..7 (Sunday=1) to time.Weekday.
func WeekdayFromNumber(n int) (time.Weekday, error) {
	if n < 1 || n > 7 {
		return 0, fmt.Errorf("weekday number %d out of range 1-7", n)
	}
	return time.Weekday(n - 1), nil
}

// WeekdayNumber maps time.Weekday to 1..7 with Sunday=1.
func WeekdayNumber(d time.Weekday) int {
	return int(d) + 1
}

type customObject struct {
	At              json.RawMessage `json:"at"`
	Start           json.RawMessage `json:"start"`
	Date            json.RawMessage `json:"date"`
	RepeatEveryDays *int            `json:"repeatEveryDays"`
	Interval        *int            `json:"interval"`
}

func parseCustomEntry(entry json.RawMessage, loc *time.Location) (CustomDose, error) {
	trimmed := bytes.TrimSpace(entry)
	if len(trimmed) == 0 {
		return CustomDose{}, fmt.Errorf("empty entry")
	}

	switch trimmed[0] {
	case '{':
		var obj customObject
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return CustomDose{}, err
		}
		rawAt := firstPresent(obj.At, obj.Start, obj.Date)
		if rawAt == nil {
			return CustomDose{}, fmt.Errorf("custom entry missing datetime")
		}
		at, err := parseDateTimeValue(rawAt, loc)
		if err != nil {
			return CustomDose{}, err
		}
		repeat := 0
		if obj.RepeatEveryDays != nil {
			repeat = *obj.RepeatEveryDays
		} else if obj.Interval != nil {
			repeat = *obj.Interval
		}
		return newCustomDose(at, repeat)
	case '[':
		var parts []json.RawMessage
		if err := json.Unmarshal(trimmed, &parts); err != nil {
			return CustomDose{}, err
		}
		if len(parts) == 0 || len(parts) > 2 {
			return CustomDose{}, fmt.Errorf("custom tuple must be [datetime, repeatDays]")
		}
		at, err := parseDateTimeValue(parts[0], loc)
		if err != nil {
			return CustomDose{}, err
		}
		repeat := 0
		if len(parts) == 2 {
			if err := json.Unmarshal(parts[1], &repeat); err != nil {
				return CustomDose{}, fmt.Errorf("invalid repeat interval %s", string(parts[1]))
			}
		}
		return newCustomDose(at, repeat)
	default:
		at, err := parseDateTimeValue(trimmed, loc)
		if err != nil {
			return CustomDose{}, err
		}
		return newCustomDose(at, 0)
	}
}

func newCustomDose(at time.Time, repeat int) (CustomDose, error) {
	if repeat < 0 {
		return CustomDose{}, fmt.Errorf("repeat interval must not be negative")
	}
	return CustomDose{At: at.UTC(), RepeatEveryDays: repeat}, nil
}

func firstPresent(values ...json.RawMessage) json.RawMessage {
	for _, v := range values {
		if len(bytes.TrimSpace(v)) > 0 && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return v
		}
	}
	return nil
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseDateTimeValue accepts a datetime string or epoch milliseconds.
func parseDateTimeValue(raw json.RawMessage, loc *time.Location) (time.Time, error) {
	var millis int64
	if json.Unmarshal(raw, &millis) == nil {
		return time.UnixMilli(millis).UTC(), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("invalid datetime %s", truncate(string(raw), 32))
	}
	return ParseDateTime(s, loc)
}

// ParseDateTime parses RFC3339 or a zone-less datetime read in loc.
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range dateTimeLayouts[1:] {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
