package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const apptCols = `id, patient_name, medical_number, specialty, type, status, notes, created_at`

func (r *repoPG) List(ctx context.Context) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+apptCols+` FROM appointments ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.PatientName, &a.MedicalNumber, &a.Specialty,
			&a.Type, &a.Status, &a.Notes, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (r *repoPG) Insert(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_name, medical_number, specialty, type, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		a.ID, a.PatientName, a.MedicalNumber, a.Specialty, a.Type, a.Status, a.Notes,
	).Scan(&a.CreatedAt)
}

func (r *repoPG) Update(ctx context.Context, id uuid.UUID, upd Update) (*Appointment, error) {
	var a Appointment
	err := r.pool.QueryRow(ctx, `
		UPDATE appointments SET
			status = COALESCE($2, status),
			notes  = COALESCE($3, notes)
		WHERE id = $1
		RETURNING `+apptCols,
		id, upd.Status, upd.Notes,
	).Scan(&a.ID, &a.PatientName, &a.MedicalNumber, &a.Specialty,
		&a.Type, &a.Status, &a.Notes, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE created_at <= $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
