package plan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/glabspro/bee/internal/model"
	"github.com/glabspro/bee/internal/scheduling"
	"github.com/glabspro/bee/pkg/logger"
	"github.com/glabspro/bee/pkg/metrics"
)

var ErrSessionNotFound = errors.New("plan session not found or expired")

// Appointments is the part of the appointment collection a commit needs.
type Appointments interface {
	CodeTaken(code string) bool
	List(filters *model.AppointmentFilters) []*model.Appointment
	AddBatch(ctx context.Context, batch []*model.Appointment) ([]*model.Appointment, *model.Notice, error)
}

// Grids resolves the availability in effect for a sede.
type Grids interface {
	Grid(sedeID uuid.UUID) (*scheduling.Grid, error)
}

type Config struct {
	TTL time.Duration
	// ConflictCheck rejects commits that land on closed hours or booked slots.
	ConflictCheck bool
}

// View is a read-only picture of a plan session.
type View struct {
	ID     uuid.UUID                 `json:"id"`
	State  scheduling.PlanState      `json:"state"`
	Params scheduling.PlanParams     `json:"params"`
	Drafts []scheduling.SessionDraft `json:"drafts"`
}

// CommitResult lists the appointments a commit produced.
type CommitResult struct {
	Appointments []*model.Appointment `json:"appointments"`
	Notice       *model.Notice        `json:"notice,omitempty"`
}

type session struct {
	mu        sync.Mutex
	id        uuid.UUID
	projector *scheduling.Projector
}

func (s *session) view() *View {
	return &View{
		ID:     s.id,
		State:  s.projector.State(),
		Params: s.projector.Params(),
		Drafts: s.projector.Drafts(),
	}
}

// Service keeps one projector per open plan form. Sessions idle for longer
// than the TTL are dropped, which is the same as discarding them.
type Service struct {
	sessions     *cache.Cache
	appointments Appointments
	grids        Grids
	cfg          Config
	projOpts     []scheduling.ProjectorOption
	metrics      *metrics.Metrics
	logger       *logger.Logger
}

func NewService(cfg Config, appointments Appointments, grids Grids, m *metrics.Metrics, log *logger.Logger, opts ...scheduling.ProjectorOption) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	s := &Service{
		sessions:     cache.New(cfg.TTL, cfg.TTL/2),
		appointments: appointments,
		grids:        grids,
		cfg:          cfg,
		projOpts:     opts,
		metrics:      m,
		logger:       log,
	}
	s.sessions.OnEvicted(s.onEvicted)
	return s
}

func (s *Service) onEvicted(key string, v interface{}) {
	sess := v.(*session)
	if sess.projector.State() != scheduling.PlanEnabled {
		return
	}
	s.metrics.PlansClosed.WithLabelValues("expired").Inc()
	s.logger.Info("plan session expired", "plan_id", key, "drafts", len(sess.projector.Drafts()))
}

// Open enables a new plan and returns its initial drafts.
func (s *Service) Open(params scheduling.PlanParams) (*View, error) {
	p := scheduling.NewProjector(s.projOpts...)
	if err := p.Initialize(params); err != nil {
		return nil, err
	}
	sess := &session{id: uuid.New(), projector: p}
	s.sessions.Set(sess.id.String(), sess, cache.DefaultExpiration)
	s.metrics.PlansOpened.Inc()
	return sess.view(), nil
}

func (s *Service) Get(id uuid.UUID) (*View, error) {
	var out *View
	err := s.with(id, func(sess *session) error {
		out = sess.view()
		return nil
	})
	return out, err
}

func (s *Service) Resize(id uuid.UUID, n int) (*View, error) {
	var out *View
	err := s.with(id, func(sess *session) error {
		if err := sess.projector.Resize(n); err != nil {
			return err
		}
		out = sess.view()
		return nil
	})
	return out, err
}

func (s *Service) AddManual(id uuid.UUID) (*scheduling.SessionDraft, error) {
	var out *scheduling.SessionDraft
	err := s.with(id, func(sess *session) error {
		d, err := sess.projector.AddManual()
		if err != nil {
			return err
		}
		out = &d
		return nil
	})
	return out, err
}

func (s *Service) RemoveDraft(id, draftID uuid.UUID) (*View, error) {
	var out *View
	err := s.with(id, func(sess *session) error {
		if err := sess.projector.RemoveDraft(draftID); err != nil {
			return err
		}
		out = sess.view()
		return nil
	})
	return out, err
}

func (s *Service) UpdateDraft(id, draftID uuid.UUID, field scheduling.DraftField, value string) (*scheduling.SessionDraft, error) {
	var out *scheduling.SessionDraft
	err := s.with(id, func(sess *session) error {
		d, err := sess.projector.UpdateDraft(draftID, field, value)
		if err != nil {
			return err
		}
		out = &d
		return nil
	})
	return out, err
}

// Discard abandons the plan; nothing is booked.
func (s *Service) Discard(id uuid.UUID) error {
	err := s.with(id, func(sess *session) error {
		return sess.projector.Discard()
	})
	if err != nil {
		return err
	}
	s.sessions.Delete(id.String())
	s.metrics.PlansClosed.WithLabelValues("discarded").Inc()
	return nil
}

// Commit books every draft as a confirmed appointment carrying base's fields.
// The session closes only once the collection has taken the batch; if it
// refuses, the plan stays open with its drafts.
func (s *Service) Commit(ctx context.Context, id uuid.UUID, base model.AppointmentFields) (*CommitResult, error) {
	var res *CommitResult
	err := s.with(id, func(sess *session) error {
		check, err := s.conflictCheck(base.SedeID)
		if err != nil {
			return err
		}
		sess.projector.SetConflictCheck(check)

		_, err = sess.projector.CommitTo(base, s.appointments.CodeTaken, func(batch []*model.Appointment) error {
			added, notice, err := s.appointments.AddBatch(ctx, batch)
			if err != nil {
				s.logger.Ctx(ctx).Error(err, "plan sessions could not be added", "plan_id", id.String(), "count", len(batch))
				return fmt.Errorf("failed to add plan sessions: %w", err)
			}
			res = &CommitResult{Appointments: added, Notice: notice}
			return nil
		})
		return err
	})
	if err != nil {
		var conflictErr *scheduling.ConflictError
		if errors.As(err, &conflictErr) {
			s.metrics.PlanConflicts.Inc()
		}
		return nil, err
	}
	s.sessions.Delete(id.String())

	s.metrics.PlansClosed.WithLabelValues("committed").Inc()
	s.logger.Ctx(ctx).Info("plan committed", "plan_id", id.String(), "sessions", len(res.Appointments))
	return res, nil
}

func (s *Service) conflictCheck(sedeID uuid.UUID) (scheduling.ConflictCheck, error) {
	grid, err := s.grids.Grid(sedeID)
	if err != nil {
		return nil, err
	}
	if !s.cfg.ConflictCheck {
		return nil, nil
	}
	booked := s.appointments.List(&model.AppointmentFilters{SedeID: sedeID})
	return scheduling.AvailabilityCheck(grid, booked, sedeID), nil
}

// with runs fn on a live session and slides its expiry.
func (s *Service) with(id uuid.UUID, fn func(*session) error) error {
	v, found := s.sessions.Get(id.String())
	if !found {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess := v.(*session)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := fn(sess); err != nil {
		return err
	}
	if sess.projector.State() == scheduling.PlanEnabled {
		s.sessions.Set(id.String(), sess, cache.DefaultExpiration)
	}
	return nil
}
