package patient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a patient or admission does not exist.
	ErrNotFound = errors.New("patient: not found")

	// ErrActiveAdmission is returned when inserting an admission for a
	// patient who already has an open one.
	ErrActiveAdmission = errors.New("patient: already has an active admission")

	// ErrNotActive is returned when discharging an admission that is no
	// longer active.
	ErrNotActive = errors.New("patient: admission is not active")
)

// Update carries partial demographic changes. Nil fields are left as-is.
type Update struct {
	Name        *string    `json:"name,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Gender      *string    `json:"gender,omitempty"`
}

// DischargeParams closes an active admission.
type DischargeParams struct {
	DischargeDate    time.Time     `json:"discharge_date"`
	DischargeType    DischargeType `json:"discharge_type"`
	FollowUpRequired bool          `json:"follow_up_required"`
	FollowUpDate     *time.Time    `json:"follow_up_date,omitempty"`
}

// ActiveAdmission is a flattened view of an open admission joined with
// the patient it belongs to, used by the discharge workflow.
type ActiveAdmission struct {
	AdmissionID   uuid.UUID  `json:"admission_id"`
	PatientID     uuid.UUID  `json:"patient_id"`
	MRN           string     `json:"mrn"`
	Name          string     `json:"name"`
	AdmissionDate time.Time  `json:"admission_date"`
	Department    string     `json:"department"`
	DoctorID      *uuid.UUID `json:"doctor_id,omitempty"`
	DoctorName    string     `json:"doctor_name,omitempty"`
	Diagnosis     string     `json:"diagnosis"`
}

type Repository interface {
	// List returns all patients with their admissions, newest admission
	// first within each patient.
	List(ctx context.Context) ([]*Patient, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByMRN(ctx context.Context, mrn string) (*Patient, error)
	Create(ctx context.Context, p *Patient) error
	Update(ctx context.Context, id uuid.UUID, upd Update) (*Patient, error)
	Delete(ctx context.Context, id uuid.UUID) error

	InsertAdmission(ctx context.Context, adm *Admission) error
	MaxVisitNumber(ctx context.Context, patientID uuid.UUID) (int, error)
	ListActive(ctx context.Context) ([]*ActiveAdmission, error)
	// Discharge closes an admission. It only succeeds while the admission
	// is still active; a concurrent discharge yields ErrNotActive.
	Discharge(ctx context.Context, admissionID uuid.UUID, params DischargeParams) error
}
