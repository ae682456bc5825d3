// Package memory is a process-local durable store used when no database is
// configured. It keeps copies so callers never share state with it.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/glabspro/bee/internal/model"
	"github.com/glabspro/bee/internal/repository"
)

const (
	sedePrefix        = "sede:"
	appointmentPrefix = "appointment:"
)

type Store struct {
	mu    sync.Mutex
	items *cache.Cache
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		items: cache.New(cache.NoExpiration, 0),
		now:   time.Now,
	}
}

func (s *Store) Sedes() repository.SedeRepository               { return sedeStore{s} }
func (s *Store) Appointments() repository.AppointmentRepository { return appointmentStore{s} }

type sedeStore struct{ *Store }

func (s sedeStore) FetchAll(_ context.Context) ([]*model.Sede, error) {
	var out []*model.Sede
	for key, item := range s.items.Items() {
		if strings.HasPrefix(key, sedePrefix) {
			out = append(out, item.Object.(*model.Sede).Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s sedeStore) Insert(_ context.Context, sede *model.Sede) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sede.ID == uuid.Nil {
		sede.ID = uuid.New()
	}
	sede.Touch(s.now())
	s.items.Set(sedePrefix+sede.ID.String(), sede.Clone(), cache.NoExpiration)
	return nil
}

func (s sedeStore) Update(_ context.Context, sede *model.Sede) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sedePrefix + sede.ID.String()
	if _, found := s.items.Get(key); !found {
		return repository.ErrNotFound
	}
	s.items.Set(key, sede.Clone(), cache.NoExpiration)
	return nil
}

type appointmentStore struct{ *Store }

func (s appointmentStore) Create(_ context.Context, a *model.Appointment) error {
	s.items.Set(appointmentPrefix+a.ID.String(), a.Clone(), cache.NoExpiration)
	return nil
}

func (s appointmentStore) CreateBatch(_ context.Context, batch []*model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range batch {
		s.items.Set(appointmentPrefix+a.ID.String(), a.Clone(), cache.NoExpiration)
	}
	return nil
}

func (s appointmentStore) Update(_ context.Context, a *model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := appointmentPrefix + a.ID.String()
	if _, found := s.items.Get(key); !found {
		return repository.ErrNotFound
	}
	s.items.Set(key, a.Clone(), cache.NoExpiration)
	return nil
}

func (s appointmentStore) List(_ context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for key, item := range s.items.Items() {
		if !strings.HasPrefix(key, appointmentPrefix) {
			continue
		}
		a := item.Object.(*model.Appointment)
		if filters.Match(a) {
			out = append(out, a.Clone())
		}
	}
	model.SortAppointments(out)
	return out, nil
}
