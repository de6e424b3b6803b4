package consultation

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

const consultCols = `c.id, c.patient_id, c.mrn, c.patient_name, c.age_at_request, c.gender,
	c.requesting_department, c.patient_location, c.specialty, c.shift_type, c.urgency,
	c.reason, c.status, c.doctor_id, COALESCE(s.name, ''),
	c.completed_at, c.completed_by, c.completion_note,
	c.created_at, c.updated_at`

const consultFrom = ` FROM consultations c LEFT JOIN staff s ON s.id = c.doctor_id `

func (r *repoPG) List(ctx context.Context) ([]*Consultation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+consultCols+consultFrom+`ORDER BY c.created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectConsultations(rows)
}

func (r *repoPG) ListActive(ctx context.Context) ([]*Consultation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+consultCols+consultFrom+`WHERE c.status = 'active' ORDER BY c.created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collectConsultations(rows)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return scanConsultation(r.pool.QueryRow(ctx,
		`SELECT `+consultCols+consultFrom+`WHERE c.id = $1`, id))
}

func (r *repoPG) Insert(ctx context.Context, c *Consultation) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO consultations (
			id, patient_id, mrn, patient_name, age_at_request, gender,
			requesting_department, patient_location, specialty, shift_type,
			urgency, reason, status, doctor_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING created_at, updated_at`,
		c.ID, c.PatientID, c.MRN, c.PatientName, c.AgeAtRequest, c.Gender,
		c.RequestingDepartment, c.PatientLocation, c.Specialty, c.ShiftType,
		c.Urgency, c.Reason, c.Status, c.DoctorID,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *repoPG) Update(ctx context.Context, id uuid.UUID, upd Update) (*Consultation, error) {
	var updatedID uuid.UUID
	err := r.pool.QueryRow(ctx, `
		UPDATE consultations SET
			patient_location = COALESCE($2, patient_location),
			specialty        = COALESCE($3, specialty),
			urgency          = COALESCE($4, urgency),
			reason           = COALESCE($5, reason),
			doctor_id        = COALESCE($6, doctor_id),
			updated_at       = NOW()
		WHERE id = $1
		RETURNING id`,
		id, upd.PatientLocation, upd.Specialty, upd.Urgency, upd.Reason, upd.DoctorID,
	).Scan(&updatedID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *repoPG) Complete(ctx context.Context, id uuid.UUID, note string, by uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE consultations SET
			status          = 'completed',
			completion_note = $2,
			completed_by    = $3,
			completed_at    = $4,
			updated_at      = NOW()
		WHERE id = $1 AND status = 'active'`,
		id, note, by, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotActive
	}
	return nil
}

func (r *repoPG) Cancel(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE consultations SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'active'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotActive
	}
	return nil
}

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(&c.ID, &c.PatientID, &c.MRN, &c.PatientName, &c.AgeAtRequest, &c.Gender,
		&c.RequestingDepartment, &c.PatientLocation, &c.Specialty, &c.ShiftType, &c.Urgency,
		&c.Reason, &c.Status, &c.DoctorID, &c.DoctorName,
		&c.CompletedAt, &c.CompletedBy, &c.CompletionNote,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectConsultations(rows pgx.Rows) ([]*Consultation, error) {
	defer rows.Close()
	var out []*Consultation
	for rows.Next() {
		var c Consultation
		if err := rows.Scan(&c.ID, &c.PatientID, &c.MRN, &c.PatientName, &c.AgeAtRequest, &c.Gender,
			&c.RequestingDepartment, &c.PatientLocation, &c.Specialty, &c.ShiftType, &c.Urgency,
			&c.Reason, &c.Status, &c.DoctorID, &c.DoctorName,
			&c.CompletedAt, &c.CompletedBy, &c.CompletionNote,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
