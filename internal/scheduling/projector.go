package scheduling

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glabspro/bee/internal/model"
)

// MaxSessions bounds a single treatment plan.
const MaxSessions = 104

var (
	ErrInvalidPlan       = errors.New("invalid treatment plan")
	ErrPlanNotEnabled    = errors.New("treatment plan is not enabled")
	ErrInvalidTransition = errors.New("invalid treatment plan transition")
	ErrDraftNotFound     = errors.New("session draft not found")
)

// PlanState is the lifecycle of one plan-editing session.
type PlanState string

const (
	PlanDisabled  PlanState = "DISABLED"
	PlanEnabled   PlanState = "ENABLED"
	PlanCommitted PlanState = "COMMITTED"
	PlanDiscarded PlanState = "DISCARDED"
)

// PlanParams are the inputs the drafts are projected from.
type PlanParams struct {
	StartDate     model.Date      `json:"startDate"`
	SessionCount  int             `json:"sessionCount"`
	FrequencyDays int             `json:"frequencyDays"`
	DefaultTime   model.TimeOfDay `json:"defaultTime"`
}

func (p PlanParams) Validate() error {
	switch {
	case p.StartDate.IsZero():
		return fmt.Errorf("%w: start date is required", ErrInvalidPlan)
	case p.SessionCount < 0 || p.SessionCount > MaxSessions:
		return fmt.Errorf("%w: session count must be between 0 and %d", ErrInvalidPlan, MaxSessions)
	case p.FrequencyDays < 1:
		return fmt.Errorf("%w: frequency must be at least one day", ErrInvalidPlan)
	case !p.DefaultTime.Valid():
		return fmt.Errorf("%w: %v", ErrInvalidPlan, model.ErrInvalidTimeOfDay)
	}
	return nil
}

// SessionDraft is a projected, not yet booked, session.
type SessionDraft struct {
	ID   uuid.UUID       `json:"id"`
	Date model.Date      `json:"date"`
	Time model.TimeOfDay `json:"time"`
}

// DraftField names an editable draft field.
type DraftField string

const (
	DraftFieldDate DraftField = "date"
	DraftFieldTime DraftField = "time"
)

type ProjectorOption func(*Projector)

// WithClock sets the source of "today" for cadence continuation.
func WithClock(now func() time.Time) ProjectorOption {
	return func(p *Projector) { p.now = now }
}

// WithIDGenerator overrides draft and appointment id generation.
func WithIDGenerator(newID func() uuid.UUID) ProjectorOption {
	return func(p *Projector) { p.newID = newID }
}

// WithCodeGenerator overrides booking code generation.
func WithCodeGenerator(g *CodeGenerator) ProjectorOption {
	return func(p *Projector) { p.codes = g }
}

// WithConflictCheck runs check against every draft before Commit emits
// anything. Without it commits are not checked against availability or
// existing appointments.
func WithConflictCheck(check ConflictCheck) ProjectorOption {
	return func(p *Projector) { p.check = check }
}

// Projector turns plan parameters into an editable list of session drafts and
// materializes them into appointments. It is not safe for concurrent use.
type Projector struct {
	state  PlanState
	params PlanParams
	drafts []SessionDraft

	now   func() time.Time
	newID func() uuid.UUID
	codes *CodeGenerator
	check ConflictCheck
}

func NewProjector(opts ...ProjectorOption) *Projector {
	p := &Projector{
		state: PlanDisabled,
		now:   time.Now,
		newID: uuid.New,
		codes: NewCodeGenerator(nil),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Projector) State() PlanState   { return p.state }
func (p *Projector) Params() PlanParams { return p.params }

// SetConflictCheck installs or clears the commit hook.
func (p *Projector) SetConflictCheck(check ConflictCheck) { p.check = check }

// Drafts returns a copy of the current drafts in display order.
func (p *Projector) Drafts() []SessionDraft {
	out := make([]SessionDraft, len(p.drafts))
	copy(out, p.drafts)
	return out
}

// Initialize enables the plan. Draft i (1-indexed) falls on
// StartDate + i*FrequencyDays at DefaultTime.
func (p *Projector) Initialize(params PlanParams) error {
	if p.state != PlanDisabled {
		return fmt.Errorf("%w: initialize from %s", ErrInvalidTransition, p.state)
	}
	if err := params.Validate(); err != nil {
		return err
	}

	p.params = params
	p.drafts = make([]SessionDraft, 0, params.SessionCount)
	for i := 1; i <= params.SessionCount; i++ {
		p.drafts = append(p.drafts, p.draftAt(params.StartDate.AddDays(i*params.FrequencyDays)))
	}
	p.state = PlanEnabled
	return nil
}

// Resize grows or truncates the draft list. Surviving drafts are never
// rewritten; new ones continue the cadence from the last draft.
func (p *Projector) Resize(n int) error {
	if err := p.requireEnabled(); err != nil {
		return err
	}
	if n < 0 || n > MaxSessions {
		return fmt.Errorf("%w: session count must be between 0 and %d", ErrInvalidPlan, MaxSessions)
	}

	if n <= len(p.drafts) {
		p.drafts = p.drafts[:n:n]
	} else {
		for len(p.drafts) < n {
			p.drafts = append(p.drafts, p.draftAt(p.nextDate()))
		}
	}
	p.params.SessionCount = n
	return nil
}

// AddManual appends one draft a cadence step after the last one.
func (p *Projector) AddManual() (SessionDraft, error) {
	if err := p.requireEnabled(); err != nil {
		return SessionDraft{}, err
	}
	if len(p.drafts) >= MaxSessions {
		return SessionDraft{}, fmt.Errorf("%w: at most %d sessions", ErrInvalidPlan, MaxSessions)
	}
	d := p.draftAt(p.nextDate())
	p.drafts = append(p.drafts, d)
	p.params.SessionCount = len(p.drafts)
	return d, nil
}

// RemoveDraft deletes one draft; the others keep their dates and times.
func (p *Projector) RemoveDraft(id uuid.UUID) error {
	if err := p.requireEnabled(); err != nil {
		return err
	}
	i, err := p.indexOf(id)
	if err != nil {
		return err
	}
	p.drafts = append(p.drafts[:i:i], p.drafts[i+1:]...)
	p.params.SessionCount = len(p.drafts)
	return nil
}

// UpdateDraft edits one field in place. Two drafts may end up on the same slot.
func (p *Projector) UpdateDraft(id uuid.UUID, field DraftField, value string) (SessionDraft, error) {
	if err := p.requireEnabled(); err != nil {
		return SessionDraft{}, err
	}
	i, err := p.indexOf(id)
	if err != nil {
		return SessionDraft{}, err
	}

	d := p.drafts[i]
	switch field {
	case DraftFieldDate:
		date, err := model.ParseDate(value)
		if err != nil {
			return SessionDraft{}, err
		}
		d.Date = date
	case DraftFieldTime:
		t, err := model.ParseTimeOfDay(value)
		if err != nil {
			return SessionDraft{}, err
		}
		d.Time = t
	default:
		return SessionDraft{}, fmt.Errorf("%w: %q", model.ErrUnknownField, field)
	}
	p.drafts[i] = d
	return d, nil
}

// Discard abandons the plan; nothing is emitted.
func (p *Projector) Discard() error {
	if p.state == PlanCommitted || p.state == PlanDiscarded {
		return fmt.Errorf("%w: discard from %s", ErrInvalidTransition, p.state)
	}
	p.drafts = nil
	p.state = PlanDiscarded
	return nil
}

// Commit converts every draft into a confirmed appointment carrying base's
// fields and a fresh booking code. taken reports codes already in use
// elsewhere; codes are also unique within the batch.
func (p *Projector) Commit(base model.AppointmentFields, taken func(string) bool) ([]*model.Appointment, error) {
	return p.CommitTo(base, taken, nil)
}

// CommitTo is Commit with a hand-off: accept receives the batch before the
// plan closes. When accept fails the plan stays ENABLED with its drafts.
func (p *Projector) CommitTo(base model.AppointmentFields, taken func(string) bool, accept func([]*model.Appointment) error) ([]*model.Appointment, error) {
	if err := p.requireEnabled(); err != nil {
		return nil, err
	}
	if p.check != nil {
		if err := p.runCheck(); err != nil {
			return nil, err
		}
	}

	issued := make(map[string]struct{}, len(p.drafts))
	inUse := func(code string) bool {
		if _, ok := issued[code]; ok {
			return true
		}
		return taken != nil && taken(code)
	}

	now := p.now()
	out := make([]*model.Appointment, 0, len(p.drafts))
	for _, d := range p.drafts {
		code, err := p.codes.Generate(inUse)
		if err != nil {
			return nil, err
		}
		issued[code] = struct{}{}

		apt := &model.Appointment{
			Base:           model.Base{ID: p.newID()},
			PatientID:      base.PatientID,
			PatientName:    base.PatientName,
			SedeID:         base.SedeID,
			ProfessionalID: base.ProfessionalID,
			ServiceID:      base.ServiceID,
			Notes:          base.Notes,
			Date:           d.Date,
			Time:           d.Time,
			Status:         model.AppointmentStatusConfirmed,
			BookingCode:    code,
			Source:         model.SourceTreatmentPlan,
		}
		apt.Touch(now)
		out = append(out, apt)
	}

	if accept != nil {
		if err := accept(out); err != nil {
			return nil, err
		}
	}

	p.drafts = nil
	p.state = PlanCommitted
	return out, nil
}

func (p *Projector) runCheck() error {
	var conflicts []Conflict
	for _, d := range p.drafts {
		if err := p.check(d); err != nil {
			conflicts = append(conflicts, Conflict{Draft: d, Reason: err.Error()})
		}
	}
	if len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts}
	}
	return nil
}

func (p *Projector) requireEnabled() error {
	if p.state != PlanEnabled {
		return fmt.Errorf("%w: state is %s", ErrPlanNotEnabled, p.state)
	}
	return nil
}

func (p *Projector) indexOf(id uuid.UUID) (int, error) {
	for i, d := range p.drafts {
		if d.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrDraftNotFound, id)
}

func (p *Projector) nextDate() model.Date {
	base := model.DateOf(p.now())
	if n := len(p.drafts); n > 0 {
		base = p.drafts[n-1].Date
	}
	return base.AddDays(p.params.FrequencyDays)
}

func (p *Projector) draftAt(date model.Date) SessionDraft {
	return SessionDraft{ID: p.newID(), Date: date, Time: p.params.DefaultTime}
}
