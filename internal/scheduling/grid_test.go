package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glabspro/bee/internal/model"
)

func tod(s string) model.TimeOfDay { return model.MustTimeOfDay(s) }

func TestNewGrid_FillsMissingDays(t *testing.T) {
	g := NewGrid(model.WeeklySchedule{
		model.Monday: {IsOpen: true, Intervals: []model.Interval{span("08:00", "12:00")}},
	})

	mon, err := g.Day(model.Monday)
	require.NoError(t, err)
	assert.Equal(t, []model.Interval{span("08:00", "12:00")}, mon.Intervals)

	snap := g.Snapshot()
	assert.Len(t, snap, 7)
	assert.Equal(t, model.DefaultDay(model.Tuesday), snap[model.Tuesday])
	assert.False(t, snap[model.Saturday].IsOpen)
}

func TestNewGrid_DoesNotAliasInput(t *testing.T) {
	in := model.DefaultWeeklySchedule()
	g := NewGrid(in)
	require.NoError(t, g.UpdateInterval(model.Monday, 0, model.FieldEnd, tod("12:00")))

	assert.Equal(t, model.DefaultInterval(), in[model.Monday].Intervals[0])
}

func TestToggle_Idempotent(t *testing.T) {
	g := NewGrid(model.DefaultWeeklySchedule())
	require.NoError(t, g.ApplyPreset(model.Wednesday, PresetSplit))
	before, _ := g.Day(model.Wednesday)

	require.NoError(t, g.Toggle(model.Wednesday))
	mid, _ := g.Day(model.Wednesday)
	assert.False(t, mid.IsOpen)
	assert.Equal(t, before.Intervals, mid.Intervals, "intervals kept while closed")

	require.NoError(t, g.Toggle(model.Wednesday))
	after, _ := g.Day(model.Wednesday)
	assert.Equal(t, before, after)
}

func TestToggle_UnknownDay(t *testing.T) {
	g := NewGrid(nil)
	assert.ErrorIs(t, g.Toggle("funday"), model.ErrUnknownDay)
}

func TestAddInterval(t *testing.T) {
	g := NewGrid(model.DefaultWeeklySchedule())

	added, err := g.AddInterval(model.Sunday)
	require.NoError(t, err)
	assert.Equal(t, span("18:00", "19:00"), added)

	day, _ := g.Day(model.Sunday)
	assert.True(t, day.IsOpen, "adding opens the day")
	assert.Equal(t, []model.Interval{model.DefaultInterval(), span("18:00", "19:00")}, day.Intervals)
}

func TestAddInterval_EmptyDayStartsAtNine(t *testing.T) {
	g := NewGrid(model.WeeklySchedule{model.Monday: {IsOpen: false}})

	added, err := g.AddInterval(model.Monday)
	require.NoError(t, err)
	assert.Equal(t, span("09:00", "10:00"), added)
}

func TestAddInterval_ClampsAtEndOfDay(t *testing.T) {
	g := NewGrid(model.WeeklySchedule{
		model.Friday: {IsOpen: true, Intervals: []model.Interval{span("20:00", "23:30")}},
	})

	added, err := g.AddInterval(model.Friday)
	require.NoError(t, err)
	assert.Equal(t, span("23:30", "23:59"), added)
	assert.True(t, added.Valid())

	_, err = g.AddInterval(model.Friday)
	assert.ErrorIs(t, err, ErrDayFull)

	day, _ := g.Day(model.Friday)
	assert.Len(t, day.Intervals, 2, "failed add leaves the day untouched")
}

func TestRemoveInterval(t *testing.T) {
	g := NewGrid(model.DefaultWeeklySchedule())
	require.NoError(t, g.ApplyPreset(model.Monday, PresetSplit))

	require.NoError(t, g.RemoveInterval(model.Monday, 0))
	day, _ := g.Day(model.Monday)
	assert.True(t, day.IsOpen)
	assert.Equal(t, []model.Interval{span("15:00", "19:00")}, day.Intervals)

	assert.ErrorIs(t, g.RemoveInterval(model.Monday, 1), ErrIndexOutOfRange)
	assert.ErrorIs(t, g.RemoveInterval(model.Monday, -1), ErrIndexOutOfRange)
}

func TestRemoveInterval_LastClosesAndReseeds(t *testing.T) {
	for _, preset := range []Preset{PresetMorning, PresetAfternoon, PresetSplit, PresetFull} {
		t.Run(string(preset), func(t *testing.T) {
			g := NewGrid(nil)
			require.NoError(t, g.ApplyPreset(model.Thursday, preset))

			for {
				day, _ := g.Day(model.Thursday)
				if !day.IsOpen {
					break
				}
				require.NoError(t, g.RemoveInterval(model.Thursday, len(day.Intervals)-1))
			}

			day, _ := g.Day(model.Thursday)
			assert.False(t, day.IsOpen)
			assert.Equal(t, []model.Interval{model.DefaultInterval()}, day.Intervals)
		})
	}
}

func TestUpdateInterval_PermissiveByDefault(t *testing.T) {
	g := NewGrid(nil)
	require.NoError(t, g.ApplyPreset(model.Monday, PresetSplit))

	// first interval now runs into the second one
	require.NoError(t, g.UpdateInterval(model.Monday, 0, model.FieldEnd, tod("16:00")))
	// and the second one is inverted
	require.NoError(t, g.UpdateInterval(model.Monday, 1, model.FieldStart, tod("20:00")))

	day, _ := g.Day(model.Monday)
	assert.Equal(t, span("09:00", "16:00"), day.Intervals[0])
	assert.Equal(t, model.Interval{Start: tod("20:00"), End: tod("19:00")}, day.Intervals[1])
}

func TestUpdateInterval_StrictRejectsOverlap(t *testing.T) {
	g := NewGrid(nil, WithOverlapCheck())
	require.NoError(t, g.ApplyPreset(model.Monday, PresetSplit))

	err := g.UpdateInterval(model.Monday, 0, model.FieldEnd, tod("16:00"))
	assert.ErrorIs(t, err, ErrOverlap)

	err = g.UpdateInterval(model.Monday, 1, model.FieldStart, tod("20:00"))
	assert.ErrorIs(t, err, model.ErrInvalidRange)

	// touching is fine
	require.NoError(t, g.UpdateInterval(model.Monday, 0, model.FieldEnd, tod("15:00")))

	day, _ := g.Day(model.Monday)
	assert.Equal(t, []model.Interval{span("09:00", "15:00"), span("15:00", "19:00")}, day.Intervals)
}

func TestUpdateInterval_BadInput(t *testing.T) {
	g := NewGrid(nil)

	assert.ErrorIs(t, g.UpdateInterval(model.Monday, 3, model.FieldEnd, tod("10:00")), ErrIndexOutOfRange)
	assert.ErrorIs(t, g.UpdateInterval(model.Monday, 0, "middle", tod("10:00")), model.ErrUnknownField)
	assert.ErrorIs(t, g.UpdateInterval(model.Monday, 0, model.FieldEnd, model.EndOfDay+1), model.ErrInvalidTimeOfDay)

	day, _ := g.Day(model.Monday)
	assert.Equal(t, model.DefaultDay(model.Monday), day)
}

func TestApplyPreset(t *testing.T) {
	g := NewGrid(nil)

	require.NoError(t, g.ApplyPreset(model.Saturday, PresetMorning))
	day, _ := g.Day(model.Saturday)
	assert.True(t, day.IsOpen)
	assert.Equal(t, []model.Interval{span("08:00", "13:00")}, day.Intervals)

	assert.ErrorIs(t, g.ApplyPreset(model.Saturday, "siesta"), ErrUnknownPreset)
	assert.ErrorIs(t, g.ApplyPreset("someday", PresetFull), model.ErrUnknownDay)
}

func TestPresetIntervals_ReturnsCopy(t *testing.T) {
	ivs, err := PresetIntervals(PresetSplit)
	require.NoError(t, err)
	ivs[0] = span("01:00", "02:00")

	again, _ := PresetIntervals(PresetSplit)
	assert.Equal(t, span("09:00", "13:00"), again[0])
}

func TestCopyToWeekdays(t *testing.T) {
	g := NewGrid(nil)
	require.NoError(t, g.ApplyPreset(model.Saturday, PresetAfternoon))
	saturday, _ := g.Day(model.Saturday)
	sunday, _ := g.Day(model.Sunday)

	require.NoError(t, g.ApplyPreset(model.Monday, PresetFull))
	require.NoError(t, g.UpdateInterval(model.Monday, 0, model.FieldEnd, tod("13:00")))
	monday, _ := g.Day(model.Monday)
	require.Equal(t, model.DayAvailability{IsOpen: true, Intervals: []model.Interval{span("09:00", "13:00")}}, monday)

	require.NoError(t, g.CopyToWeekdays(model.Monday))

	for _, d := range model.WorkWeek {
		got, _ := g.Day(d)
		assert.Equal(t, monday, got, d)
	}
	gotSat, _ := g.Day(model.Saturday)
	gotSun, _ := g.Day(model.Sunday)
	assert.Equal(t, saturday, gotSat)
	assert.Equal(t, sunday, gotSun)

	// deep copy: editing Tuesday leaves Monday alone
	require.NoError(t, g.UpdateInterval(model.Tuesday, 0, model.FieldStart, tod("10:00")))
	again, _ := g.Day(model.Monday)
	assert.Equal(t, monday, again)
}

func TestCopyToWeekdays_FromWeekend(t *testing.T) {
	g := NewGrid(nil)
	require.NoError(t, g.CopyToWeekdays(model.Sunday))

	for _, d := range model.WorkWeek {
		got, _ := g.Day(d)
		assert.False(t, got.IsOpen, d)
	}
}

func TestIsOpenAt(t *testing.T) {
	g := NewGrid(nil)
	require.NoError(t, g.ApplyPreset(model.Monday, PresetSplit))
	monday := model.MustDate("2024-01-01")

	assert.True(t, g.IsOpenAt(monday, tod("09:00")))
	assert.False(t, g.IsOpenAt(monday, tod("13:00")), "end is exclusive")
	assert.False(t, g.IsOpenAt(monday, tod("14:00")))
	assert.True(t, g.IsOpenAt(monday, tod("18:59")))

	// Sunday keeps a pre-seeded interval but is closed
	assert.False(t, g.IsOpenAt(model.MustDate("2024-01-07"), tod("10:00")))
}
