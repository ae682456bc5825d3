package repository

import (
	"context"
	"errors"

	"github.com/glabspro/bee/internal/model"
)

var ErrNotFound = errors.New("record not found")

// All repository interfaces in one file
type (
	// SedeRepository is the durable mirror of the location directory.
	SedeRepository interface {
		FetchAll(ctx context.Context) ([]*model.Sede, error)
		// Insert assigns timestamps, and a durable id unless one is already set.
		Insert(ctx context.Context, sede *model.Sede) error
		// Update replaces every stored field, availability included.
		Update(ctx context.Context, sede *model.Sede) error
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		// CreateBatch stores all appointments or none.
		CreateBatch(ctx context.Context, appointments []*model.Appointment) error
		Update(ctx context.Context, appointment *model.Appointment) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	}
)
