package plan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glabspro/bee/internal/model"
	"github.com/glabspro/bee/internal/repository/memory"
	"github.com/glabspro/bee/internal/scheduling"
	"github.com/glabspro/bee/internal/service/appointment"
	"github.com/glabspro/bee/internal/service/sede"
	"github.com/glabspro/bee/pkg/logger"
	"github.com/glabspro/bee/pkg/messaging"
	"github.com/glabspro/bee/pkg/metrics"
)

var fixedNow = time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC)

type fixture struct {
	plans        *Service
	appointments *appointment.Service
	sedes        *sede.Service
	sedeID       uuid.UUID
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	m := metrics.New("test")
	store := memory.NewStore()
	clock := func() time.Time { return fixedNow }

	sedes := sede.NewService(store.Sedes(), m, logger.Nop(), sede.WithClock(clock))
	apts := appointment.NewService(store.Appointments(), messaging.NopPublisher{}, m, logger.Nop(),
		appointment.WithClock(clock), appointment.WithSedeDirectory(sedes))
	return &fixture{
		plans:        NewService(cfg, apts, sedes, m, logger.Nop(), scheduling.WithClock(clock)),
		appointments: apts,
		sedes:        sedes,
		sedeID:       model.DefaultSedes()[0].ID,
	}
}

func weekly(count int) scheduling.PlanParams {
	return scheduling.PlanParams{
		StartDate:     model.MustDate("2024-01-01"),
		SessionCount:  count,
		FrequencyDays: 7,
		DefaultTime:   model.MustTimeOfDay("09:00"),
	}
}

func (f *fixture) base() model.AppointmentFields {
	return model.AppointmentFields{PatientID: "p1", SedeID: f.sedeID, ProfessionalID: "doc1"}
}

func TestOpenAndEdit(t *testing.T) {
	f := newFixture(t, Config{})

	v, err := f.plans.Open(weekly(3))
	require.NoError(t, err)
	assert.Equal(t, scheduling.PlanEnabled, v.State)
	require.Len(t, v.Drafts, 3)
	assert.Equal(t, "2024-01-08", v.Drafts[0].Date.String())

	v, err = f.plans.Resize(v.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-05", v.Drafts[4].Date.String())

	d, err := f.plans.AddManual(v.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-12", d.Date.String())

	d, err = f.plans.UpdateDraft(v.ID, d.ID, scheduling.DraftFieldTime, "17:30")
	require.NoError(t, err)
	assert.Equal(t, "17:30", d.Time.String())

	v, err = f.plans.RemoveDraft(v.ID, v.Drafts[0].ID)
	require.NoError(t, err)
	assert.Len(t, v.Drafts, 5)
	assert.Equal(t, "2024-01-15", v.Drafts[0].Date.String())
}

func TestOpen_InvalidParams(t *testing.T) {
	f := newFixture(t, Config{})
	_, err := f.plans.Open(scheduling.PlanParams{StartDate: model.MustDate("2024-01-01"), SessionCount: 2})
	assert.ErrorIs(t, err, scheduling.ErrInvalidPlan)
}

func TestCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	v, err := f.plans.Open(weekly(3))
	require.NoError(t, err)

	res, err := f.plans.Commit(ctx, v.ID, f.base())
	require.NoError(t, err)
	assert.Nil(t, res.Notice)
	require.Len(t, res.Appointments, 3)

	codes := map[string]bool{}
	for _, a := range res.Appointments {
		assert.Equal(t, model.AppointmentStatusConfirmed, a.Status)
		assert.Equal(t, model.SourceTreatmentPlan, a.Source)
		assert.Equal(t, "p1", a.PatientID)
		assert.Equal(t, "doc1", a.ProfessionalID)
		codes[a.BookingCode] = true
	}
	assert.Len(t, codes, 3)
	assert.Len(t, f.appointments.List(&model.AppointmentFilters{PatientID: "p1"}), 3)

	_, err = f.plans.Get(v.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound, "committed sessions are closed")
}

// racingAppointments hides codes claimed after the projector checked them.
type racingAppointments struct {
	*appointment.Service
	failAdd error
}

func (r *racingAppointments) CodeTaken(string) bool { return false }

func (r *racingAppointments) AddBatch(ctx context.Context, batch []*model.Appointment) ([]*model.Appointment, *model.Notice, error) {
	if r.failAdd != nil {
		return nil, nil, r.failAdd
	}
	return r.Service.AddBatch(ctx, batch)
}

func TestCommit_CodeClaimedDuringCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	fixed := scheduling.NewCodeGenerator(func() string { return "SAME-CODE" })
	apts := &racingAppointments{Service: f.appointments}
	plans := NewService(Config{}, apts, f.sedes, metrics.New("test"), logger.Nop(),
		scheduling.WithClock(func() time.Time { return fixedNow }), scheduling.WithCodeGenerator(fixed))

	// a concurrent booking already holds the code the projector will issue
	_, _, err := f.appointments.AddBatch(ctx, []*model.Appointment{{Base: model.Base{ID: uuid.New()}, BookingCode: "SAME-CODE"}})
	require.NoError(t, err)

	v, err := plans.Open(weekly(1))
	require.NoError(t, err)
	res, err := plans.Commit(ctx, v.ID, f.base())
	require.NoError(t, err)
	require.Len(t, res.Appointments, 1)
	assert.NotEqual(t, "SAME-CODE", res.Appointments[0].BookingCode)

	got, err := f.appointments.GetByBookingCode(res.Appointments[0].BookingCode)
	require.NoError(t, err)
	assert.Equal(t, res.Appointments[0].ID, got.ID)
}

func TestCommit_RejectedBatchKeepsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	apts := &racingAppointments{Service: f.appointments, failAdd: errors.New("collection unavailable")}
	plans := NewService(Config{}, apts, f.sedes, metrics.New("test"), logger.Nop(),
		scheduling.WithClock(func() time.Time { return fixedNow }))

	v, err := plans.Open(weekly(2))
	require.NoError(t, err)
	_, err = plans.Commit(ctx, v.ID, f.base())
	assert.ErrorContains(t, err, "collection unavailable")

	got, err := plans.Get(v.ID)
	require.NoError(t, err)
	assert.Equal(t, scheduling.PlanEnabled, got.State)
	assert.Len(t, got.Drafts, 2, "drafts survive a rejected batch")

	apts.failAdd = nil
	res, err := plans.Commit(ctx, v.ID, f.base())
	require.NoError(t, err)
	assert.Len(t, res.Appointments, 2)
	_, err = plans.Get(v.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCommit_UnknownSede(t *testing.T) {
	f := newFixture(t, Config{})
	v, _ := f.plans.Open(weekly(1))

	base := f.base()
	base.SedeID = uuid.New()
	_, err := f.plans.Commit(context.Background(), v.ID, base)
	assert.ErrorIs(t, err, sede.ErrNotFound)

	got, err := f.plans.Get(v.ID)
	require.NoError(t, err)
	assert.Equal(t, scheduling.PlanEnabled, got.State, "failed commit keeps the plan open")
}

func TestCommit_ConflictBlindByDefault(t *testing.T) {
	f := newFixture(t, Config{})
	// every Sunday, when the default sede is closed
	v, _ := f.plans.Open(scheduling.PlanParams{
		StartDate:     model.MustDate("2023-12-31"),
		SessionCount:  2,
		FrequencyDays: 7,
		DefaultTime:   model.MustTimeOfDay("10:00"),
	})

	res, err := f.plans.Commit(context.Background(), v.ID, f.base())
	require.NoError(t, err)
	assert.Len(t, res.Appointments, 2)
}

func TestCommit_ConflictCheck(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{ConflictCheck: true})

	_, _, err := f.appointments.Book(ctx, appointment.DirectBooking{
		AppointmentFields: f.base(),
		Date:              model.MustDate("2024-01-15"),
		Time:              model.MustTimeOfDay("09:00"),
	})
	require.NoError(t, err)

	v, _ := f.plans.Open(weekly(3))
	_, err = f.plans.Commit(ctx, v.ID, f.base())
	var conflictErr *scheduling.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	require.Len(t, conflictErr.Conflicts, 1)
	assert.Equal(t, "2024-01-15", conflictErr.Conflicts[0].Draft.Date.String())

	// move the clashing draft and try again
	_, err = f.plans.UpdateDraft(v.ID, conflictErr.Conflicts[0].Draft.ID, scheduling.DraftFieldTime, "11:00")
	require.NoError(t, err)
	res, err := f.plans.Commit(ctx, v.ID, f.base())
	require.NoError(t, err)
	assert.Len(t, res.Appointments, 3)
}

func TestDiscard(t *testing.T) {
	f := newFixture(t, Config{})
	v, _ := f.plans.Open(weekly(2))

	require.NoError(t, f.plans.Discard(v.ID))
	_, err := f.plans.Get(v.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Empty(t, f.appointments.List(nil))

	assert.ErrorIs(t, f.plans.Discard(v.ID), ErrSessionNotFound)
}

func TestSessionsExpire(t *testing.T) {
	f := newFixture(t, Config{TTL: 20 * time.Millisecond})
	v, err := f.plans.Open(weekly(1))
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	_, err = f.plans.Get(v.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
