package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/glabspro/bee/internal/model"
	"github.com/glabspro/bee/internal/repository"
)

const sedeColumns = `id, company_id, name, address, phone, email, whatsapp,
	availability, created_at, updated_at`

func (r *sedeRepository) FetchAll(ctx context.Context) ([]*model.Sede, error) {
	query := `SELECT ` + sedeColumns + ` FROM sedes ORDER BY created_at, name`

	var sedes []*model.Sede
	if err := r.db.SelectContext(ctx, &sedes, query); err != nil {
		return nil, fmt.Errorf("failed to fetch sedes: %w", err)
	}
	return sedes, nil
}

func (r *sedeRepository) Insert(ctx context.Context, sede *model.Sede) error {
	query := `
		INSERT INTO sedes (
			id, company_id, name, address, phone, email, whatsapp, availability
		) VALUES (COALESCE($1::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	var id *uuid.UUID
	if sede.ID != uuid.Nil {
		id = &sede.ID
	}
	err := r.db.QueryRowxContext(ctx, query,
		id,
		sede.CompanyID,
		sede.Name,
		sede.Address,
		sede.Phone,
		sede.Email,
		sede.WhatsApp,
		sede.Availability,
	).Scan(&sede.ID, &sede.CreatedAt, &sede.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert sede: %w", err)
	}
	return nil
}

func (r *sedeRepository) Update(ctx context.Context, sede *model.Sede) error {
	query := `
		UPDATE sedes
		SET company_id = $1, name = $2, address = $3, phone = $4, email = $5,
			whatsapp = $6, availability = $7, updated_at = $8
		WHERE id = $9
	`
	result, err := r.db.ExecContext(ctx, query,
		sede.CompanyID,
		sede.Name,
		sede.Address,
		sede.Phone,
		sede.Email,
		sede.WhatsApp,
		sede.Availability,
		sede.UpdatedAt,
		sede.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update sede: %w", err)
	}
	return expectOneRow(result, "sede")
}

func expectOneRow(result sql.Result, entity string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", entity, repository.ErrNotFound)
	}
	return nil
}
