package scheduling

import (
	"errors"
	"fmt"
	"time"

	"github.com/glabspro/bee/internal/model"
)

var (
	ErrIndexOutOfRange = errors.New("interval index out of range")
	ErrOverlap         = errors.New("interval overlaps another interval of the same day")
	ErrDayFull         = errors.New("no room left in the day for another interval")
	ErrUnknownPreset   = errors.New("unknown availability preset")
)

// Preset is a named, fixed interval pattern.
type Preset string

const (
	PresetMorning   Preset = "morning"
	PresetAfternoon Preset = "afternoon"
	PresetSplit     Preset = "split"
	PresetFull      Preset = "full"
)

var presets = map[Preset][]model.Interval{
	PresetMorning:   {span("08:00", "13:00")},
	PresetAfternoon: {span("14:00", "19:00")},
	PresetSplit:     {span("09:00", "13:00"), span("15:00", "19:00")},
	PresetFull:      {span("09:00", "18:00")},
}

func span(start, end string) model.Interval {
	return model.Interval{Start: model.MustTimeOfDay(start), End: model.MustTimeOfDay(end)}
}

// PresetIntervals returns a copy of the pattern for p.
func PresetIntervals(p Preset) ([]model.Interval, error) {
	ivs, ok := presets[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, p)
	}
	out := make([]model.Interval, len(ivs))
	copy(out, ivs)
	return out, nil
}

type GridOption func(*Grid)

// WithOverlapCheck makes UpdateInterval reject edits that leave an interval
// inverted or intersecting a sibling.
func WithOverlapCheck() GridOption {
	return func(g *Grid) { g.strict = true }
}

// Grid is the editable working copy of one sede's weekly availability.
// It is not safe for concurrent use; callers serialize edits.
type Grid struct {
	days   model.WeeklySchedule
	strict bool
}

// NewGrid copies s, filling in any missing day with its default.
func NewGrid(s model.WeeklySchedule, opts ...GridOption) *Grid {
	g := &Grid{days: make(model.WeeklySchedule, len(model.Weekdays))}
	for _, d := range model.Weekdays {
		if day, ok := s[d]; ok {
			g.days[d] = day.Clone()
		} else {
			g.days[d] = model.DefaultDay(d)
		}
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Strict reports whether overlap checking is enabled.
func (g *Grid) Strict() bool { return g.strict }

// Day returns a copy of one day's configuration.
func (g *Grid) Day(d model.Weekday) (model.DayAvailability, error) {
	day, err := g.day(d)
	if err != nil {
		return model.DayAvailability{}, err
	}
	return day.Clone(), nil
}

func (g *Grid) day(d model.Weekday) (model.DayAvailability, error) {
	if !d.Valid() {
		return model.DayAvailability{}, fmt.Errorf("%w: %q", model.ErrUnknownDay, d)
	}
	return g.days[d], nil
}

// Toggle flips IsOpen. Intervals are kept for when the day re-opens.
func (g *Grid) Toggle(d model.Weekday) error {
	day, err := g.day(d)
	if err != nil {
		return err
	}
	day.IsOpen = !day.IsOpen
	g.days[d] = day
	return nil
}

// AddInterval appends a one hour interval starting where the last one ends
// (09:00 on an empty day) and opens the day. The end is clamped to 23:59.
func (g *Grid) AddInterval(d model.Weekday) (model.Interval, error) {
	day, err := g.day(d)
	if err != nil {
		return model.Interval{}, err
	}

	start := model.DefaultOpening
	if n := len(day.Intervals); n > 0 {
		start = day.Intervals[n-1].End
	}
	if start >= model.EndOfDay {
		return model.Interval{}, fmt.Errorf("%w: %s starts at %s", ErrDayFull, d, start)
	}
	end := start.Add(time.Hour)
	if end > model.EndOfDay {
		end = model.EndOfDay
	}

	added := model.Interval{Start: start, End: end}
	day = day.Clone()
	day.Intervals = append(day.Intervals, added)
	day.IsOpen = true
	g.days[d] = day
	return added, nil
}

// RemoveInterval deletes the interval at index. Removing the last one closes
// the day and re-seeds the default interval.
func (g *Grid) RemoveInterval(d model.Weekday, index int) error {
	day, err := g.day(d)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(day.Intervals) {
		return fmt.Errorf("%w: %s[%d]", ErrIndexOutOfRange, d, index)
	}

	remaining := make([]model.Interval, 0, len(day.Intervals)-1)
	remaining = append(remaining, day.Intervals[:index]...)
	remaining = append(remaining, day.Intervals[index+1:]...)

	if len(remaining) == 0 {
		g.days[d] = model.DayAvailability{
			IsOpen:    false,
			Intervals: []model.Interval{model.DefaultInterval()},
		}
		return nil
	}
	g.days[d] = model.DayAvailability{IsOpen: day.IsOpen, Intervals: remaining}
	return nil
}

// UpdateInterval replaces one endpoint. Without WithOverlapCheck the result
// is not validated against the other intervals of the day.
func (g *Grid) UpdateInterval(d model.Weekday, index int, field model.IntervalField, value model.TimeOfDay) error {
	day, err := g.day(d)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(day.Intervals) {
		return fmt.Errorf("%w: %s[%d]", ErrIndexOutOfRange, d, index)
	}
	if !value.Valid() {
		return model.ErrInvalidTimeOfDay
	}

	updated, err := day.Intervals[index].With(field, value)
	if err != nil {
		return err
	}

	if g.strict {
		if !updated.Valid() {
			return fmt.Errorf("%w: %s", model.ErrInvalidRange, updated)
		}
		for i, other := range day.Intervals {
			if i != index && updated.Overlaps(other) {
				return fmt.Errorf("%w: %s and %s", ErrOverlap, updated, other)
			}
		}
	}

	day = day.Clone()
	day.Intervals[index] = updated
	g.days[d] = day
	return nil
}

// ApplyPreset replaces the day's intervals with a named pattern and opens it.
func (g *Grid) ApplyPreset(d model.Weekday, p Preset) error {
	if _, err := g.day(d); err != nil {
		return err
	}
	ivs, err := PresetIntervals(p)
	if err != nil {
		return err
	}
	g.days[d] = model.DayAvailability{IsOpen: true, Intervals: ivs}
	return nil
}

// CopyToWeekdays overwrites Monday to Friday with a deep copy of source.
// The weekend is left alone.
func (g *Grid) CopyToWeekdays(source model.Weekday) error {
	src, err := g.day(source)
	if err != nil {
		return err
	}
	for _, d := range model.WorkWeek {
		g.days[d] = src.Clone()
	}
	return nil
}

// Snapshot deep-copies the whole week, the unit handed to the durable store.
func (g *Grid) Snapshot() model.WeeklySchedule {
	return g.days.Clone()
}

// IsOpenAt reports whether a session at t on date fits the grid. A closed day
// is closed whatever intervals it still carries.
func (g *Grid) IsOpenAt(date model.Date, t model.TimeOfDay) bool {
	day := g.days[model.WeekdayOf(date.Weekday())]
	if !day.IsOpen {
		return false
	}
	for _, iv := range day.Intervals {
		if iv.Contains(t) {
			return true
		}
	}
	return false
}
