// Package mocks holds testify mocks of the repository interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/glabspro/bee/internal/model"
	"github.com/glabspro/bee/internal/repository"
)

type SedeRepository struct {
	mock.Mock
}

var _ repository.SedeRepository = (*SedeRepository)(nil)

func (m *SedeRepository) FetchAll(ctx context.Context) ([]*model.Sede, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Sede), args.Error(1)
}

func (m *SedeRepository) Insert(ctx context.Context, sede *model.Sede) error {
	args := m.Called(ctx, sede)
	return args.Error(0)
}

func (m *SedeRepository) Update(ctx context.Context, sede *model.Sede) error {
	args := m.Called(ctx, sede)
	return args.Error(0)
}

type AppointmentRepository struct {
	mock.Mock
}

var _ repository.AppointmentRepository = (*AppointmentRepository)(nil)

func (m *AppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

func (m *AppointmentRepository) CreateBatch(ctx context.Context, appointments []*model.Appointment) error {
	args := m.Called(ctx, appointments)
	return args.Error(0)
}

func (m *AppointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

func (m *AppointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Appointment), args.Error(1)
}
