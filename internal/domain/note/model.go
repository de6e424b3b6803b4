package note

import (
	"time"

	"github.com/google/uuid"
)

// Type classifies a medical note.
type Type string

const (
	TypeProgress         Type = "Progress Note"
	TypeFollowUp         Type = "Follow-up Note"
	TypeConsultation     Type = "Consultation Note"
	TypeDischarge        Type = "Discharge Note"
	TypeDischargeSummary Type = "Discharge Summary"
)

func (t Type) Valid() bool {
	switch t {
	case TypeProgress, TypeFollowUp, TypeConsultation, TypeDischarge, TypeDischargeSummary:
		return true
	}
	return false
}

// MedicalNote is an audit record attached to a patient. The discharge
// workflow writes one for every completed episode.
type MedicalNote struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	Type      Type      `json:"type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
