package scheduling

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glabspro/bee/internal/model"
)

var fixedNow = time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

func newTestProjector(opts ...ProjectorOption) *Projector {
	opts = append([]ProjectorOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewProjector(opts...)
}

func weeklyPlan(count int) PlanParams {
	return PlanParams{
		StartDate:     model.MustDate("2024-01-01"),
		SessionCount:  count,
		FrequencyDays: 7,
		DefaultTime:   tod("09:00"),
	}
}

func dates(drafts []SessionDraft) []string {
	out := make([]string, len(drafts))
	for i, d := range drafts {
		out[i] = d.Date.String()
	}
	return out
}

func TestInitialize(t *testing.T) {
	p := newTestProjector()
	require.Equal(t, PlanDisabled, p.State())

	require.NoError(t, p.Initialize(weeklyPlan(3)))

	assert.Equal(t, PlanEnabled, p.State())
	drafts := p.Drafts()
	assert.Equal(t, []string{"2024-01-08", "2024-01-15", "2024-01-22"}, dates(drafts))
	for _, d := range drafts {
		assert.Equal(t, "09:00", d.Time.String())
		assert.NotEqual(t, uuid.Nil, d.ID)
	}
}

func TestInitialize_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PlanParams)
	}{
		{"no start date", func(p *PlanParams) { p.StartDate = model.Date{} }},
		{"negative count", func(p *PlanParams) { p.SessionCount = -1 }},
		{"too many sessions", func(p *PlanParams) { p.SessionCount = MaxSessions + 1 }},
		{"zero frequency", func(p *PlanParams) { p.FrequencyDays = 0 }},
		{"bad time", func(p *PlanParams) { p.DefaultTime = model.EndOfDay + 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := weeklyPlan(3)
			tt.mutate(&params)

			p := newTestProjector()
			assert.ErrorIs(t, p.Initialize(params), ErrInvalidPlan)
			assert.Equal(t, PlanDisabled, p.State())
		})
	}
}

func TestInitialize_OnlyOnce(t *testing.T) {
	p := newTestProjector()
	require.NoError(t, p.Initialize(weeklyPlan(1)))
	assert.ErrorIs(t, p.Initialize(weeklyPlan(2)), ErrInvalidTransition)
}

func TestResize_PreservesSurvivors(t *testing.T) {
	p := newTestProjector()
	require.NoError(t, p.Initialize(weeklyPlan(5)))
	original := p.Drafts()

	// user edits the second session before shrinking
	edited, err := p.UpdateDraft(original[1].ID, DraftFieldTime, "17:30")
	require.NoError(t, err)

	require.NoError(t, p.Resize(2))
	require.Len(t, p.Drafts(), 2)

	require.NoError(t, p.Resize(5))
	regrown := p.Drafts()
	require.Len(t, regrown, 5)

	assert.Equal(t, original[0], regrown[0])
	assert.Equal(t, edited, regrown[1])
	// cadence continues from the last survivor
	assert.Equal(t, []string{"2024-01-22", "2024-01-29", "2024-02-05"}, dates(regrown[2:]))
	for _, d := range regrown[2:] {
		assert.NotContains(t, []uuid.UUID{original[2].ID, original[3].ID, original[4].ID}, d.ID)
	}
	assert.Equal(t, 5, p.Params().SessionCount)
}

func TestResize_RandomSequencesKeepPrefix(t *testing.T) {
	p := newTestProjector()
	require.NoError(t, p.Initialize(weeklyPlan(6)))
	first := p.Drafts()

	minSeen := 6
	for _, n := range []int{4, 9, 3, 3, 12, 1, 7} {
		require.NoError(t, p.Resize(n))
		if n < minSeen {
			minSeen = n
		}
		got := p.Drafts()
		require.Len(t, got, n)
		assert.Equal(t, first[:minSeen], got[:minSeen], "after resize to %d", n)
	}
}

func TestResize_FromEmptyUsesToday(t *testing.T) {
	p := newTestProjector()
	require.NoError(t, p.Initialize(weeklyPlan(0)))

	require.NoError(t, p.Resize(2))
	assert.Equal(t, []string{"2024-03-17", "2024-03-24"}, dates(p.Drafts()))
}

func TestResize_Bounds(t *testing.T) {
	p := newTestProjector()
	require.NoError(t, p.Initialize(weeklyPlan(2)))

	assert.ErrorIs(t, p.Resize(-1), ErrInvalidPlan)
	assert.ErrorIs(t, p.Resize(MaxSessions+1), ErrInvalidPlan)
	assert.Len(t, p.Drafts(), 2)
}

func TestAddManual(t *testing.T) {
	p := newTestProjector()
	require.NoError(t, p.Initialize(weeklyPlan(2)))
	drafts := p.Drafts()
	_, err := p.UpdateDraft(drafts[1].ID, DraftFieldDate, "2024-02-01")
	require.NoError(t, err)

	added, err := p.AddManual()
	require.NoError(t, err)
	assert.Equal(t, "2024-02-08", added.Date.String())
	assert.Equal(t, "09:00", added.Time.String())
	assert.Len(t, p.Drafts(), 3)
}

func TestAddManual_Empty(t *testing.T) {
	p := newTestProjector()
	require.NoError(t, p.Initialize(weeklyPlan(0)))

	added, err := p.AddManual()
	require.NoError(t, err)
	assert.Equal(t, "2024-03-17", added.Date.String())
}

func TestRemoveDraft(t *testing.T) {
	p := newTestProjector()
	require.NoError(t, p.Initialize(weeklyPlan(3)))
	drafts := p.Drafts()

	require.NoError(t, p.RemoveDraft(drafts[1].ID))
	assert.Equal(t, []SessionDraft{drafts[0], drafts[2]}, p.Drafts())
	assert.Equal(t, 2, p.Params().SessionCount)

	assert.ErrorIs(t, p.RemoveDraft(drafts[1].ID), ErrDraftNotFound)
}

func TestUpdateDraft_AllowsDuplicates(t *testing.T) {
	p := newTestProjector()
	require.NoError(t, p.Initialize(weeklyPlan(2)))
	drafts := p.Drafts()

	_, err := p.UpdateDraft(drafts[1].ID, DraftFieldDate, drafts[0].Date.String())
	require.NoError(t, err)

	got := p.Drafts()
	assert.Equal(t, got[0].Date, got[1].Date)
	assert.Equal(t, got[0].Time, got[1].Time)
}

func TestUpdateDraft_BadInput(t *testing.T) {
	p := newTestProjector()
	require.NoError(t, p.Initialize(weeklyPlan(1)))
	id := p.Drafts()[0].ID

	_, err := p.UpdateDraft(id, DraftFieldDate, "01/02/2024")
	assert.ErrorIs(t, err, model.ErrInvalidDate)
	_, err = p.UpdateDraft(id, DraftFieldTime, "25:00")
	assert.ErrorIs(t, err, model.ErrInvalidTimeOfDay)
	_, err = p.UpdateDraft(id, "room", "3")
	assert.ErrorIs(t, err, model.ErrUnknownField)
	_, err = p.UpdateDraft(uuid.New(), DraftFieldTime, "10:00")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestCommit(t *testing.T) {
	p := newTestProjector()
	require.NoError(t, p.Initialize(weeklyPlan(3)))
	sede := uuid.New()

	apts, err := p.Commit(model.AppointmentFields{
		PatientID:      "p1",
		SedeID:         sede,
		ProfessionalID: "doc1",
	}, nil)
	require.NoError(t, err)
	require.Len(t, apts, 3)

	codes := map[string]bool{}
	for i, a := range apts {
		assert.Equal(t, model.AppointmentStatusConfirmed, a.Status)
		assert.Equal(t, model.SourceTreatmentPlan, a.Source)
		assert.Equal(t, "p1", a.PatientID)
		assert.Equal(t, sede, a.SedeID)
		assert.Equal(t, "doc1", a.ProfessionalID)
		assert.Equal(t, fixedNow, a.CreatedAt)
		assert.Equal(t, []string{"2024-01-08", "2024-01-15", "2024-01-22"}[i], a.Date.String())
		assert.Regexp(t, `^[0-9A-Z]{4}-[0-9A-Z]{4}$`, a.BookingCode)
		codes[a.BookingCode] = true
	}
	assert.Len(t, codes, 3)

	assert.Equal(t, PlanCommitted, p.State())
	assert.Empty(t, p.Drafts())
	_, err = p.AddManual()
	assert.ErrorIs(t, err, ErrPlanNotEnabled)
	assert.ErrorIs(t, p.Discard(), ErrInvalidTransition)
}

func TestCommit_CodesUniqueAgainstTakenAndBatch(t *testing.T) {
	seq := []string{"AAAA-AAAA", "AAAA-AAAA", "BBBB-BBBB", "CCCC-CCCC", "DDDD-DDDD"}
	i := 0
	gen := NewCodeGenerator(func() string {
		c := seq[i%len(seq)]
		i++
		return c
	})

	p := newTestProjector(WithCodeGenerator(gen))
	require.NoError(t, p.Initialize(weeklyPlan(2)))

	apts, err := p.Commit(model.AppointmentFields{PatientID: "p1"}, func(code string) bool {
		return code == "BBBB-BBBB"
	})
	require.NoError(t, err)
	assert.Equal(t, "AAAA-AAAA", apts[0].BookingCode)
	assert.Equal(t, "CCCC-CCCC", apts[1].BookingCode)
}

func TestCommitTo_RejectedHandOffKeepsPlan(t *testing.T) {
	p := newTestProjector()
	require.NoError(t, p.Initialize(weeklyPlan(2)))

	var got []*model.Appointment
	_, err := p.CommitTo(model.AppointmentFields{PatientID: "p1"}, nil, func(batch []*model.Appointment) error {
		got = batch
		return errors.New("collection full")
	})
	assert.EqualError(t, err, "collection full")
	assert.Len(t, got, 2)
	assert.Equal(t, PlanEnabled, p.State())
	assert.Len(t, p.Drafts(), 2)

	apts, err := p.CommitTo(model.AppointmentFields{PatientID: "p1"}, nil, func([]*model.Appointment) error { return nil })
	require.NoError(t, err)
	assert.Len(t, apts, 2)
	assert.Equal(t, PlanCommitted, p.State())
}

func TestCommit_ConflictCheck(t *testing.T) {
	p := newTestProjector(WithConflictCheck(func(d SessionDraft) error {
		if d.Date.String() == "2024-01-15" {
			return errors.New("holiday")
		}
		return nil
	}))
	require.NoError(t, p.Initialize(weeklyPlan(3)))

	_, err := p.Commit(model.AppointmentFields{PatientID: "p1"}, nil)

	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.Len(t, conflictErr.Conflicts, 1)
	assert.Equal(t, "2024-01-15", conflictErr.Conflicts[0].Draft.Date.String())
	assert.Equal(t, "holiday", conflictErr.Conflicts[0].Reason)
	assert.Equal(t, PlanEnabled, p.State(), "rejected commit keeps the plan editable")
	assert.Len(t, p.Drafts(), 3)
}

func TestDiscard(t *testing.T) {
	p := newTestProjector()
	require.NoError(t, p.Initialize(weeklyPlan(3)))

	require.NoError(t, p.Discard())
	assert.Equal(t, PlanDiscarded, p.State())
	assert.Empty(t, p.Drafts())

	_, err := p.Commit(model.AppointmentFields{}, nil)
	assert.ErrorIs(t, err, ErrPlanNotEnabled)
	assert.ErrorIs(t, p.Initialize(weeklyPlan(1)), ErrInvalidTransition)
}

func TestOperationsRequireEnabled(t *testing.T) {
	p := newTestProjector()

	assert.ErrorIs(t, p.Resize(2), ErrPlanNotEnabled)
	_, err := p.AddManual()
	assert.ErrorIs(t, err, ErrPlanNotEnabled)
	assert.ErrorIs(t, p.RemoveDraft(uuid.New()), ErrPlanNotEnabled)
	_, err = p.UpdateDraft(uuid.New(), DraftFieldTime, "10:00")
	assert.ErrorIs(t, err, ErrPlanNotEnabled)
}

func TestCodeGenerator_Exhausted(t *testing.T) {
	gen := NewCodeGenerator(func() string { return "SAME-CODE" })
	_, err := gen.Generate(func(string) bool { return true })
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
}

func TestNewBookingCode_Format(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code := NewBookingCode()
		require.Regexp(t, `^[0-9A-HJKMNP-TV-Z]{4}-[0-9A-HJKMNP-TV-Z]{4}$`, code)
		seen[code] = true
	}
	assert.Len(t, seen, 200, fmt.Sprintf("expected distinct codes, got %d", len(seen)))
}
