package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/glabspro/bee/internal/model"
)

const appointmentColumns = `id, patient_id, patient_name, sede_id, professional_id,
	service_id, date, time, status, notes, booking_code, source,
	created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	return insertAppointment(ctx, r.db, appointment)
}

func (r *appointmentRepository) CreateBatch(ctx context.Context, appointments []*model.Appointment) error {
	if len(appointments) == 0 {
		return nil
	}
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, a := range appointments {
			if err := insertAppointment(ctx, tx, a); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertAppointment(ctx context.Context, db sqlx.ExecerContext, a *model.Appointment) error {
	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := db.ExecContext(ctx, query,
		a.ID,
		a.PatientID,
		a.PatientName,
		a.SedeID,
		a.ProfessionalID,
		a.ServiceID,
		a.Date,
		a.Time,
		a.Status,
		a.Notes,
		a.BookingCode,
		a.Source,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment %s: %w", a.BookingCode, err)
	}
	return nil
}

func (r *appointmentRepository) Update(ctx context.Context, a *model.Appointment) error {
	query := `
		UPDATE appointments
		SET sede_id = $1, professional_id = $2, date = $3, time = $4,
			status = $5, notes = $6, updated_at = $7
		WHERE id = $8
	`
	result, err := r.db.ExecContext(ctx, query,
		a.SedeID,
		a.ProfessionalID,
		a.Date,
		a.Time,
		a.Status,
		a.Notes,
		a.UpdatedAt,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return expectOneRow(result, "appointment")
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query, args := buildAppointmentQuery(filters)

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func buildAppointmentQuery(f *model.AppointmentFilters) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if f != nil {
		if f.SedeID != uuid.Nil {
			add("sede_id = $%d", f.SedeID)
		}
		if f.PatientID != "" {
			add("patient_id = $%d", f.PatientID)
		}
		if f.ProfessionalID != "" {
			add("professional_id = $%d", f.ProfessionalID)
		}
		if f.Status != "" {
			add("status = $%d", f.Status)
		}
		if !f.From.IsZero() {
			add("date >= $%d", f.From)
		}
		if !f.To.IsZero() {
			add("date <= $%d", f.To)
		}
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY date, time, created_at`
	return query, args
}
