package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidRange = errors.New("interval end must be after start")
	ErrUnknownField = errors.New("unknown field")
	ErrUnknownDay   = errors.New("unknown day of week")
)

// IntervalField names one endpoint of an Interval.
type IntervalField string

const (
	FieldStart IntervalField = "start"
	FieldEnd   IntervalField = "end"
)

// Interval is an open window [Start, End) within a day.
type Interval struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// NewInterval validates that end is strictly after start.
func NewInterval(start, end TimeOfDay) (Interval, error) {
	if !start.Valid() || !end.Valid() {
		return Interval{}, ErrInvalidTimeOfDay
	}
	if end <= start {
		return Interval{}, fmt.Errorf("%w: %s-%s", ErrInvalidRange, start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether the two half-open ranges intersect.
// Touching ranges ([09:00,10:00) and [10:00,11:00)) do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

// Contains reports whether t falls inside [Start, End).
func (i Interval) Contains(t TimeOfDay) bool {
	return i.Start <= t && t < i.End
}

// With returns a copy with one endpoint replaced. Ordering is not re-checked.
func (i Interval) With(field IntervalField, value TimeOfDay) (Interval, error) {
	switch field {
	case FieldStart:
		i.Start = value
	case FieldEnd:
		i.End = value
	default:
		return Interval{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return i, nil
}

func (i Interval) Valid() bool {
	return i.Start.Valid() && i.End.Valid() && i.Start < i.End
}

func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}

// DayAvailability is the opening configuration of one weekday.
type DayAvailability struct {
	IsOpen    bool       `json:"isOpen"`
	Intervals []Interval `json:"intervals"`
}

// Clone deep-copies the interval slice.
func (d DayAvailability) Clone() DayAvailability {
	out := DayAvailability{IsOpen: d.IsOpen}
	if d.Intervals != nil {
		out.Intervals = make([]Interval, len(d.Intervals))
		copy(out.Intervals, d.Intervals)
	}
	return out
}

var (
	DefaultOpening = MustTimeOfDay("09:00")
	DefaultClosing = MustTimeOfDay("18:00")
)

// DefaultInterval is the single interval seeded into a fresh or emptied day.
func DefaultInterval() Interval {
	return Interval{Start: DefaultOpening, End: DefaultClosing}
}

// Weekday is the lowercase English day name used as the schedule key.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists every day, Monday first.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// WorkWeek is Monday through Friday.
var WorkWeek = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

// ParseWeekday accepts day names case-insensitively.
func ParseWeekday(s string) (Weekday, error) {
	d := Weekday(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownDay, s)
	}
	return d, nil
}

func (d Weekday) Valid() bool {
	for _, w := range Weekdays {
		if w == d {
			return true
		}
	}
	return false
}

// WeekdayOf maps a time.Weekday onto the schedule key.
func WeekdayOf(w time.Weekday) Weekday {
	if w == time.Sunday {
		return Sunday
	}
	return Weekdays[int(w)-1]
}

// WeeklySchedule is the serializable per-sede opening grid.
type WeeklySchedule map[Weekday]DayAvailability

// DefaultWeeklySchedule opens Monday to Friday 09:00-18:00 and keeps the
// weekend closed with the default interval pre-seeded.
func DefaultWeeklySchedule() WeeklySchedule {
	s := make(WeeklySchedule, len(Weekdays))
	for _, d := range Weekdays {
		s[d] = DefaultDay(d)
	}
	return s
}

// DefaultDay is the configuration a day gets the first time it is viewed.
func DefaultDay(d Weekday) DayAvailability {
	return DayAvailability{
		IsOpen:    d != Saturday && d != Sunday,
		Intervals: []Interval{DefaultInterval()},
	}
}

// Clone deep-copies every day.
func (s WeeklySchedule) Clone() WeeklySchedule {
	if s == nil {
		return nil
	}
	out := make(WeeklySchedule, len(s))
	for d, day := range s {
		out[d] = day.Clone()
	}
	return out
}

func (s WeeklySchedule) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *WeeklySchedule) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into WeeklySchedule", src)
	}
	var out WeeklySchedule
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to decode weekly schedule: %w", err)
	}
	*s = out
	return nil
}
