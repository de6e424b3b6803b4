package note

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Insert(ctx context.Context, n *MedicalNote) error {
	if !n.Type.Valid() {
		return ErrInvalidType
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO medical_notes (id, patient_id, doctor_id, type, content)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		n.ID, n.PatientID, n.DoctorID, n.Type, n.Content,
	).Scan(&n.CreatedAt)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*MedicalNote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, doctor_id, type, content, created_at
		FROM medical_notes
		WHERE patient_id = $1
		ORDER BY created_at DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*MedicalNote
	for rows.Next() {
		var n MedicalNote
		if err := rows.Scan(&n.ID, &n.PatientID, &n.DoctorID, &n.Type, &n.Content, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}
