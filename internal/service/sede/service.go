package sede

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/glabspro/bee/internal/model"
	"github.com/glabspro/bee/internal/repository"
	"github.com/glabspro/bee/internal/scheduling"
	"github.com/glabspro/bee/pkg/logger"
	"github.com/glabspro/bee/pkg/metrics"
)

var (
	ErrNotFound    = errors.New("sede not found")
	ErrInvalidSede = errors.New("invalid sede")
)

// NewSede is the input for Create. A nil availability gets the default week.
type NewSede struct {
	model.SedeDetails
	Availability model.WeeklySchedule `json:"availability"`
}

// GridEdit is one operation applied to a sede's working grid.
type GridEdit func(*scheduling.Grid) error

// WorkingCopy is the availability being edited for a sede.
type WorkingCopy struct {
	SedeID       uuid.UUID            `json:"sedeId"`
	Availability model.WeeklySchedule `json:"availability"`
	// Dirty is true when the working copy has edits not yet saved.
	Dirty bool `json:"dirty"`
}

type workingCopy struct {
	grid  *scheduling.Grid
	dirty bool
}

// Service is the location directory. Availability edits go to a per-sede
// working copy and reach the store only through SaveAvailability.
type Service struct {
	mu      sync.Mutex
	sedes   []*model.Sede
	working map[uuid.UUID]*workingCopy

	repo     repository.SedeRepository
	gridOpts []scheduling.GridOption
	metrics  *metrics.Metrics
	logger   *logger.Logger
	now      func() time.Time
	newID    func() uuid.UUID
}

type Option func(*Service)

// WithOverlapCheck makes every working grid reject inverted or overlapping
// intervals.
func WithOverlapCheck(enabled bool) Option {
	return func(s *Service) {
		if enabled {
			s.gridOpts = append(s.gridOpts, scheduling.WithOverlapCheck())
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo repository.SedeRepository, m *metrics.Metrics, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		sedes:   model.DefaultSedes(),
		working: make(map[uuid.UUID]*workingCopy),
		repo:    repo,
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

// Load replaces the directory with the store contents, falling back to the
// built-in default set when the store fails or has nothing. An empty store is
// seeded with the defaults so later saves have a row to update.
func (s *Service) Load(ctx context.Context) *model.Notice {
	start := time.Now()
	sedes, err := s.repo.FetchAll(ctx)
	s.observeStore("sedes.fetch_all", start, err)

	var notice *model.Notice
	switch {
	case err != nil:
		s.logger.Ctx(ctx).Warn(err, "failed to fetch sedes, using defaults")
		notice = model.NewNotice("load sedes", err)
		sedes = model.DefaultSedes()
	case len(sedes) == 0:
		s.logger.Ctx(ctx).Info("no sedes stored, seeding defaults")
		sedes = model.DefaultSedes()
		notice = s.seed(ctx, sedes)
	}

	for _, sd := range sedes {
		sd.Availability = scheduling.NewGrid(sd.Availability).Snapshot()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sedes = sedes
	s.working = make(map[uuid.UUID]*workingCopy)
	return notice
}

func (s *Service) List() []*model.Sede {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Sede, 0, len(s.sedes))
	for _, sd := range s.sedes {
		out = append(out, sd.Clone())
	}
	return out
}

func (s *Service) Get(id uuid.UUID) (*model.Sede, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sd, err := s.findLocked(id)
	if err != nil {
		return nil, err
	}
	return sd.Clone(), nil
}

// Create inserts a sede in the store. When the insert fails the sede is kept
// locally under a generated id and flagged LocalOnly.
func (s *Service) Create(ctx context.Context, in NewSede) (*model.Sede, *model.Notice, error) {
	if in.Name == "" {
		return nil, nil, fmt.Errorf("%w: name is required", ErrInvalidSede)
	}
	sd := &model.Sede{Availability: scheduling.NewGrid(in.Availability).Snapshot()}
	in.SedeDetails.Apply(sd)

	var notice *model.Notice
	start := time.Now()
	err := s.repo.Insert(ctx, sd)
	s.observeStore("sedes.insert", start, err)
	if err != nil {
		s.logger.Ctx(ctx).Warn(err, "sede kept locally, store insert failed", "name", sd.Name)
		notice = model.NewNotice("create sede", err)
		sd.ID = s.newID()
		sd.LocalOnly = true
		sd.CreatedAt = time.Time{}
		sd.Touch(s.now())
	}

	s.mu.Lock()
	s.sedes = append(s.sedes, sd)
	out := sd.Clone()
	s.mu.Unlock()

	return out, notice, nil
}

// UpdateDetails changes the contact fields locally, then mirrors the sede.
func (s *Service) UpdateDetails(ctx context.Context, id uuid.UUID, details model.SedeDetails) (*model.Sede, *model.Notice, error) {
	s.mu.Lock()
	sd, err := s.findLocked(id)
	if err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	details.Apply(sd)
	sd.Touch(s.now())
	out := sd.Clone()
	s.mu.Unlock()

	return out, s.sync(ctx, out, "update sede"), nil
}

// Availability returns the working copy, creating it from the stored
// schedule on first view.
func (s *Service) Availability(id uuid.UUID) (*WorkingCopy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wc, err := s.workingLocked(id)
	if err != nil {
		return nil, err
	}
	return &WorkingCopy{SedeID: id, Availability: wc.grid.Snapshot(), Dirty: wc.dirty}, nil
}

// EditAvailability applies one edit to the working copy. A failed edit leaves
// the working copy as it was.
func (s *Service) EditAvailability(id uuid.UUID, edit GridEdit) (*WorkingCopy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wc, err := s.workingLocked(id)
	if err != nil {
		return nil, err
	}
	if err := edit(wc.grid); err != nil {
		return nil, err
	}
	wc.dirty = true
	return &WorkingCopy{SedeID: id, Availability: wc.grid.Snapshot(), Dirty: true}, nil
}

// SaveAvailability replaces the sede's schedule with the working copy and
// hands the whole sede to the store in one call. A store failure is reported
// as a notice; the local schedule stays saved.
func (s *Service) SaveAvailability(ctx context.Context, id uuid.UUID) (*model.Sede, *model.Notice, error) {
	s.mu.Lock()
	wc, err := s.workingLocked(id)
	if err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}
	sd, _ := s.findLocked(id)
	sd.Availability = wc.grid.Snapshot()
	sd.Touch(s.now())
	wc.dirty = false
	out := sd.Clone()
	s.mu.Unlock()

	notice := s.sync(ctx, out, "save availability")
	status := "synced"
	if notice != nil {
		status = "local_only"
	}
	s.metrics.AvailabilitySaves.WithLabelValues(status).Inc()
	s.logger.Ctx(ctx).Info("availability saved", "sede_id", id.String(), "status", status)
	return out, notice, nil
}

// DiscardAvailability drops unsaved edits.
func (s *Service) DiscardAvailability(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.findLocked(id); err != nil {
		return err
	}
	delete(s.working, id)
	return nil
}

// Grid returns a detached grid over the schedule currently in effect for the
// sede: the working copy when one exists, else the saved schedule.
func (s *Service) Grid(id uuid.UUID) (*scheduling.Grid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sd, err := s.findLocked(id)
	if err != nil {
		return nil, err
	}
	schedule := sd.Availability
	if wc, ok := s.working[id]; ok {
		schedule = wc.grid.Snapshot()
	}
	return scheduling.NewGrid(schedule, s.gridOpts...), nil
}

func (s *Service) workingLocked(id uuid.UUID) (*workingCopy, error) {
	if wc, ok := s.working[id]; ok {
		return wc, nil
	}
	sd, err := s.findLocked(id)
	if err != nil {
		return nil, err
	}
	wc := &workingCopy{grid: scheduling.NewGrid(sd.Availability, s.gridOpts...)}
	s.working[id] = wc
	return wc, nil
}

func (s *Service) findLocked(id uuid.UUID) (*model.Sede, error) {
	for _, sd := range s.sedes {
		if sd.ID == id {
			return sd, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (s *Service) seed(ctx context.Context, sedes []*model.Sede) *model.Notice {
	var notice *model.Notice
	for _, sd := range sedes {
		start := time.Now()
		err := s.repo.Insert(ctx, sd)
		s.observeStore("sedes.insert", start, err)
		if err != nil {
			s.logger.Ctx(ctx).Warn(err, "failed to seed default sede", "sede_id", sd.ID.String())
			sd.LocalOnly = true
			if notice == nil {
				notice = model.NewNotice("seed sedes", err)
			}
		}
	}
	return notice
}

// sync writes sd through to the store. A sede the store has never seen, such
// as a default that failed to seed or one created while offline, is inserted
// instead.
func (s *Service) sync(ctx context.Context, sd *model.Sede, op string) *model.Notice {
	start := time.Now()
	err := s.repo.Update(ctx, sd)
	s.observeStore("sedes.update", start, err)
	if errors.Is(err, repository.ErrNotFound) {
		start = time.Now()
		err = s.repo.Insert(ctx, sd)
		s.observeStore("sedes.insert", start, err)
		if err == nil {
			s.markStored(sd)
		}
	}
	if err != nil {
		s.logger.Ctx(ctx).Warn(err, "sede changed locally, store update failed", "sede_id", sd.ID.String())
		return model.NewNotice(op, err)
	}
	return nil
}

func (s *Service) markStored(sd *model.Sede) {
	sd.LocalOnly = false
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, err := s.findLocked(sd.ID); err == nil {
		stored.LocalOnly = false
	}
}

func (s *Service) observeStore(op string, start time.Time, err error) {
	s.metrics.StoreOperations.WithLabelValues(op, metrics.Status(err)).Inc()
	s.metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
