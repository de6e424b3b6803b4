package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const patientCols = `id, mrn, name, date_of_birth, gender, created_at, updated_at`

const admissionCols = `a.id, a.patient_id, a.visit_number, a.admission_date, a.discharge_date,
	a.department, a.doctor_id, COALESCE(s.name, ''), a.diagnosis, a.status,
	a.safety_type, a.discharge_type, a.follow_up_required, a.follow_up_date,
	a.created_at, a.updated_at`

func (r *repoPG) List(ctx context.Context) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	patients, err := collectPatients(rows)
	if err != nil {
		return nil, err
	}

	admRows, err := r.pool.Query(ctx, `
		SELECT `+admissionCols+`
		FROM admissions a
		LEFT JOIN staff s ON s.id = a.doctor_id
		ORDER BY a.admission_date DESC`)
	if err != nil {
		return nil, err
	}
	adms, err := collectAdmissions(admRows)
	if err != nil {
		return nil, err
	}

	byPatient := make(map[uuid.UUID]*Patient, len(patients))
	for _, p := range patients {
		byPatient[p.ID] = p
	}
	for _, a := range adms {
		if p, ok := byPatient[a.PatientID]; ok {
			p.Admissions = append(p.Admissions, a)
		}
	}
	return patients, nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	return r.attachAdmissions(ctx, p)
}

func (r *repoPG) GetByMRN(ctx context.Context, mrn string) (*Patient, error) {
	p, err := scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE mrn = $1`, mrn))
	if err != nil {
		return nil, err
	}
	return r.attachAdmissions(ctx, p)
}

func (r *repoPG) attachAdmissions(ctx context.Context, p *Patient) (*Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+admissionCols+`
		FROM admissions a
		LEFT JOIN staff s ON s.id = a.doctor_id
		WHERE a.patient_id = $1
		ORDER BY a.admission_date DESC`, p.ID)
	if err != nil {
		return nil, err
	}
	p.Admissions, err = collectAdmissions(rows)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, mrn, name, date_of_birth, gender)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		p.ID, p.MRN, p.Name, p.DateOfBirth, p.Gender,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) Update(ctx context.Context, id uuid.UUID, upd Update) (*Patient, error) {
	p, err := scanPatient(r.pool.QueryRow(ctx, `
		UPDATE patients SET
			name          = COALESCE($2, name),
			date_of_birth = COALESCE($3, date_of_birth),
			gender        = COALESCE($4, gender),
			updated_at    = NOW()
		WHERE id = $1
		RETURNING `+patientCols,
		id, upd.Name, upd.DateOfBirth, upd.Gender))
	if err != nil {
		return nil, err
	}
	return r.attachAdmissions(ctx, p)
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) InsertAdmission(ctx context.Context, adm *Admission) error {
	if adm.ID == uuid.Nil {
		adm.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO admissions (
			id, patient_id, visit_number, admission_date, department,
			doctor_id, diagnosis, status, safety_type
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		adm.ID, adm.PatientID, adm.VisitNumber, adm.AdmissionDate, adm.Department,
		adm.DoctorID, adm.Diagnosis, adm.Status, adm.SafetyType,
	).Scan(&adm.CreatedAt, &adm.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrActiveAdmission
	}
	return err
}

func (r *repoPG) MaxVisitNumber(ctx context.Context, patientID uuid.UUID) (int, error) {
	var max int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(visit_number), 0) FROM admissions WHERE patient_id = $1`,
		patientID).Scan(&max)
	return max, err
}

func (r *repoPG) ListActive(ctx context.Context) ([]*ActiveAdmission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.patient_id, p.mrn, p.name, a.admission_date,
			a.department, a.doctor_id, COALESCE(s.name, ''), a.diagnosis
		FROM admissions a
		JOIN patients p ON p.id = a.patient_id
		LEFT JOIN staff s ON s.id = a.doctor_id
		WHERE a.status = 'active'
		ORDER BY a.admission_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ActiveAdmission
	for rows.Next() {
		var a ActiveAdmission
		if err := rows.Scan(&a.AdmissionID, &a.PatientID, &a.MRN, &a.Name, &a.AdmissionDate,
			&a.Department, &a.DoctorID, &a.DoctorName, &a.Diagnosis); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (r *repoPG) Discharge(ctx context.Context, admissionID uuid.UUID, params DischargeParams) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE admissions SET
			status             = 'discharged',
			discharge_date     = $2,
			discharge_type     = $3,
			follow_up_required = $4,
			follow_up_date     = $5,
			updated_at         = NOW()
		WHERE id = $1 AND status = 'active'`,
		admissionID, params.DischargeDate, params.DischargeType,
		params.FollowUpRequired, params.FollowUpDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotActive
	}
	return nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.MRN, &p.Name, &p.DateOfBirth, &p.Gender, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPatients(rows pgx.Rows) ([]*Patient, error) {
	defer rows.Close()
	var out []*Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.MRN, &p.Name, &p.DateOfBirth, &p.Gender, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func collectAdmissions(rows pgx.Rows) ([]*Admission, error) {
	defer rows.Close()
	var out []*Admission
	for rows.Next() {
		var a Admission
		if err := rows.Scan(&a.ID, &a.PatientID, &a.VisitNumber, &a.AdmissionDate, &a.DischargeDate,
			&a.Department, &a.DoctorID, &a.DoctorName, &a.Diagnosis, &a.Status,
			&a.SafetyType, &a.DischargeType, &a.FollowUpRequired, &a.FollowUpDate,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
