package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/glabspro/bee/internal/repository"
)

type sedeRepository struct {
	BaseRepository
}

type appointmentRepository struct {
	BaseRepository
}

func NewSedeRepository(db *sqlx.DB) repository.SedeRepository {
	return &sedeRepository{BaseRepository: NewBaseRepository(db)}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{BaseRepository: NewBaseRepository(db)}
}
