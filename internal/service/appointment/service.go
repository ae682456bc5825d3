package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/glabspro/bee/internal/model"
	"github.com/glabspro/bee/internal/repository"
	"github.com/glabspro/bee/internal/scheduling"
	"github.com/glabspro/bee/pkg/logger"
	"github.com/glabspro/bee/pkg/messaging"
	"github.com/glabspro/bee/pkg/metrics"
)

var (
	ErrNotFound                = errors.New("appointment not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrTerminalStatus          = errors.New("appointment is closed")
	ErrInvalidBooking          = errors.New("invalid booking")
)

// DirectBooking is a booking made by staff; it starts CONFIRMED.
type DirectBooking struct {
	model.AppointmentFields
	Date model.Date      `json:"date"`
	Time model.TimeOfDay `json:"time"`
}

// PortalBooking is a self-service booking from the public portal; it starts
// PENDING until staff confirm it.
type PortalBooking struct {
	PatientName    string          `json:"patientName" binding:"required,max=200"`
	PatientPhone   string          `json:"patientPhone" binding:"required,max=40"`
	SedeID         uuid.UUID       `json:"sedeId" binding:"required"`
	ProfessionalID string          `json:"professionalId" binding:"required"`
	ServiceID      string          `json:"serviceId"`
	Date           model.Date      `json:"date"`
	Time           model.TimeOfDay `json:"time"`
	Notes          string          `json:"notes" binding:"max=2000"`
}

// Reassignment moves an appointment; zero fields keep their current value.
type Reassignment struct {
	SedeID         uuid.UUID        `json:"sedeId"`
	ProfessionalID string           `json:"professionalId"`
	Date           model.Date       `json:"date"`
	Time           *model.TimeOfDay `json:"time"`
}

// Sedes resolves sede ids; bookings naming an unknown sede are refused.
type Sedes interface {
	Get(id uuid.UUID) (*model.Sede, error)
}

// Service is the appointment collection. The in-memory set is authoritative;
// the repository is a best-effort mirror.
type Service struct {
	mu     sync.RWMutex
	items  map[uuid.UUID]*model.Appointment
	byCode map[string]uuid.UUID

	repo    repository.AppointmentRepository
	sedes   Sedes
	events  messaging.Publisher
	codes   *scheduling.CodeGenerator
	metrics *metrics.Metrics
	logger  *logger.Logger
	now     func() time.Time
	newID   func() uuid.UUID
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithCodeGenerator(g *scheduling.CodeGenerator) Option {
	return func(s *Service) { s.codes = g }
}

func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *Service) { s.newID = newID }
}

// WithSedeDirectory makes bookings and reassignments check the sede exists.
func WithSedeDirectory(sedes Sedes) Option {
	return func(s *Service) { s.sedes = sedes }
}

func NewService(repo repository.AppointmentRepository, events messaging.Publisher, m *metrics.Metrics, log *logger.Logger, opts ...Option) *Service {
	if events == nil {
		events = messaging.NopPublisher{}
	}
	s := &Service{
		items:   make(map[uuid.UUID]*model.Appointment),
		byCode:  make(map[string]uuid.UUID),
		repo:    repo,
		events:  events,
		codes:   scheduling.NewCodeGenerator(nil),
		metrics: m,
		logger:  log,
		now:     time.Now,
		newID:   uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the collection with the repository contents. On failure the
// collection is left as is and a notice is returned.
func (s *Service) Load(ctx context.Context) *model.Notice {
	start := time.Now()
	list, err := s.repo.List(ctx, nil)
	s.observeStore("appointments.list", start, err)
	if err != nil {
		s.logger.Ctx(ctx).Warn(err, "failed to load appointments")
		return model.NewNotice("load appointments", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[uuid.UUID]*model.Appointment, len(list))
	s.byCode = make(map[string]uuid.UUID, len(list))
	for _, a := range list {
		s.items[a.ID] = a
		s.byCode[a.BookingCode] = a.ID
	}
	s.logger.Ctx(ctx).Info("appointments loaded", "count", len(list))
	return nil
}

func (s *Service) Book(ctx context.Context, b DirectBooking) (*model.Appointment, *model.Notice, error) {
	if err := validateSlot(b.Date, b.Time); err != nil {
		return nil, nil, err
	}
	if err := s.checkSede(b.SedeID); err != nil {
		return nil, nil, err
	}
	return s.create(ctx, &model.Appointment{
		PatientID:      b.PatientID,
		PatientName:    b.PatientName,
		SedeID:         b.SedeID,
		ProfessionalID: b.ProfessionalID,
		ServiceID:      b.ServiceID,
		Notes:          b.Notes,
		Date:           b.Date,
		Time:           b.Time,
		Status:         model.AppointmentStatusConfirmed,
		Source:         model.SourceDirect,
	})
}

func (s *Service) BookFromPortal(ctx context.Context, b PortalBooking) (*model.Appointment, *model.Notice, error) {
	if err := validateSlot(b.Date, b.Time); err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(b.PatientPhone) == "" {
		return nil, nil, fmt.Errorf("%w: patient phone is required", ErrInvalidBooking)
	}
	if err := s.checkSede(b.SedeID); err != nil {
		return nil, nil, err
	}
	return s.create(ctx, &model.Appointment{
		PatientID:      "portal:" + strings.TrimSpace(b.PatientPhone),
		PatientName:    b.PatientName,
		SedeID:         b.SedeID,
		ProfessionalID: b.ProfessionalID,
		ServiceID:      b.ServiceID,
		Notes:          b.Notes,
		Date:           b.Date,
		Time:           b.Time,
		Status:         model.AppointmentStatusPending,
		Source:         model.SourcePortal,
	})
}

func (s *Service) checkSede(id uuid.UUID) error {
	if s.sedes == nil {
		return nil
	}
	_, err := s.sedes.Get(id)
	return err
}

func validateSlot(date model.Date, t model.TimeOfDay) error {
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidBooking)
	}
	if !t.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidBooking, model.ErrInvalidTimeOfDay)
	}
	return nil
}

func (s *Service) create(ctx context.Context, apt *model.Appointment) (*model.Appointment, *model.Notice, error) {
	s.mu.Lock()
	code, err := s.codes.Generate(s.codeTakenLocked)
	if err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	apt.ID = s.newID()
	apt.BookingCode = code
	apt.Touch(s.now())
	s.insertLocked(apt)
	out := apt.Clone()
	s.mu.Unlock()

	s.metrics.AppointmentsCreated.WithLabelValues(string(apt.Source)).Inc()
	s.publish(ctx, EventCreated, Event{Appointment: out})

	start := time.Now()
	err = s.repo.Create(ctx, out)
	s.observeStore("appointments.create", start, err)
	if err != nil {
		s.logger.Ctx(ctx).Warn(err, "appointment kept locally, store create failed", "booking_code", code)
		return out, model.NewNotice("save appointment", err), nil
	}
	return out, nil, nil
}

// AddBatch appends appointments produced elsewhere, e.g. by a plan commit, and
// returns them as stored. A booking code claimed since the batch was built is
// replaced by a fresh one. Either every appointment is added or none.
func (s *Service) AddBatch(ctx context.Context, batch []*model.Appointment) ([]*model.Appointment, *model.Notice, error) {
	if len(batch) == 0 {
		return nil, nil, nil
	}

	s.mu.Lock()
	seen := make(map[string]struct{}, len(batch))
	inUse := func(code string) bool {
		if _, dup := seen[code]; dup {
			return true
		}
		return s.codeTakenLocked(code)
	}
	copies := make([]*model.Appointment, 0, len(batch))
	for _, a := range batch {
		c := a.Clone()
		if c.BookingCode == "" || inUse(c.BookingCode) {
			code, err := s.codes.Generate(inUse)
			if err != nil {
				s.mu.Unlock()
				return nil, nil, err
			}
			s.logger.Ctx(ctx).Debug("booking code reissued", "old", c.BookingCode, "new", code)
			c.BookingCode = code
		}
		seen[c.BookingCode] = struct{}{}
		copies = append(copies, c)
	}
	for _, c := range copies {
		s.insertLocked(c)
	}
	out := make([]*model.Appointment, 0, len(copies))
	for _, c := range copies {
		out = append(out, c.Clone())
	}
	s.mu.Unlock()

	for _, a := range out {
		s.metrics.AppointmentsCreated.WithLabelValues(string(a.Source)).Inc()
		s.publish(ctx, EventCreated, Event{Appointment: a})
	}

	start := time.Now()
	err := s.repo.CreateBatch(ctx, out)
	s.observeStore("appointments.create_batch", start, err)
	if err != nil {
		s.logger.Ctx(ctx).Warn(err, "appointments kept locally, store batch create failed", "count", len(out))
		return out, model.NewNotice("save appointments", err), nil
	}
	return out, nil, nil
}

// CodeTaken reports whether a booking code is already used in the collection.
func (s *Service) CodeTaken(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.codeTakenLocked(code)
}

func (s *Service) Get(id uuid.UUID) (*model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return a.Clone(), nil
}

func (s *Service) GetByBookingCode(code string) (*model.Appointment, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	return s.items[id].Clone(), nil
}

// List returns matching appointments ordered by date and time.
func (s *Service) List(filters *model.AppointmentFilters) []*model.Appointment {
	s.mu.RLock()
	out := make([]*model.Appointment, 0, len(s.items))
	for _, a := range s.items {
		if filters.Match(a) {
			out = append(out, a.Clone())
		}
	}
	s.mu.RUnlock()

	model.SortAppointments(out)
	return out
}

// DayView lists one sede's appointments on one date, cancelled ones included.
func (s *Service) DayView(sedeID uuid.UUID, date model.Date) []*model.Appointment {
	return s.List(&model.AppointmentFilters{SedeID: sedeID, From: date, To: date})
}

func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) (*model.Appointment, *model.Notice, error) {
	if !status.Valid() {
		return nil, nil, fmt.Errorf("%w: unknown status %q", ErrInvalidStatusTransition, status)
	}

	s.mu.Lock()
	a, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	prev := a.Status
	if !CanTransition(prev, status) {
		s.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, prev, status)
	}
	a.Status = status
	a.Touch(s.now())
	out := a.Clone()
	s.mu.Unlock()

	s.metrics.StatusTransitions.WithLabelValues(string(status)).Inc()
	s.publish(ctx, EventStatusChanged, Event{Appointment: out, PreviousStatus: prev})
	return out, s.sync(ctx, out, "update appointment status"), nil
}

func (s *Service) Reassign(ctx context.Context, id uuid.UUID, r Reassignment) (*model.Appointment, *model.Notice, error) {
	if r.Time != nil && !r.Time.Valid() {
		return nil, nil, model.ErrInvalidTimeOfDay
	}
	if r.SedeID != uuid.Nil {
		if err := s.checkSede(r.SedeID); err != nil {
			return nil, nil, err
		}
	}

	s.mu.Lock()
	a, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if a.Status.Terminal() {
		s.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: status is %s", ErrTerminalStatus, a.Status)
	}
	if r.SedeID != uuid.Nil {
		a.SedeID = r.SedeID
	}
	if r.ProfessionalID != "" {
		a.ProfessionalID = r.ProfessionalID
	}
	if !r.Date.IsZero() {
		a.Date = r.Date
	}
	if r.Time != nil {
		a.Time = *r.Time
	}
	a.Touch(s.now())
	out := a.Clone()
	s.mu.Unlock()

	s.publish(ctx, EventReassigned, Event{Appointment: out})
	return out, s.sync(ctx, out, "reassign appointment"), nil
}

func (s *Service) sync(ctx context.Context, a *model.Appointment, op string) *model.Notice {
	start := time.Now()
	err := s.repo.Update(ctx, a)
	s.observeStore("appointments.update", start, err)
	if err != nil {
		s.logger.Ctx(ctx).Warn(err, "appointment changed locally, store update failed", "booking_code", a.BookingCode)
		return model.NewNotice(op, err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, ev Event) {
	err := s.events.Publish(ctx, eventType, ev)
	s.metrics.EventsPublished.WithLabelValues(eventType, metrics.Status(err)).Inc()
	if err != nil {
		s.logger.Ctx(ctx).Warn(err, "failed to publish appointment event", "event_type", eventType)
	}
}

func (s *Service) observeStore(op string, start time.Time, err error) {
	s.metrics.StoreOperations.WithLabelValues(op, metrics.Status(err)).Inc()
	s.metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *Service) codeTakenLocked(code string) bool {
	_, ok := s.byCode[code]
	return ok
}

func (s *Service) insertLocked(a *model.Appointment) {
	s.items[a.ID] = a
	s.byCode[a.BookingCode] = a.ID
}
