package discharge

import (
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the two episode types a discharge can close.
type Kind string

const (
	KindAdmission    Kind = "admission"
	KindConsultation Kind = "consultation"
)

// Candidate is an open episode eligible for discharge. EpisodeID points
// at the admission or consultation depending on Kind.
type Candidate struct {
	Kind        Kind      `json:"kind"`
	EpisodeID   uuid.UUID `json:"episode_id"`
	PatientID   uuid.UUID `json:"patient_id"`
	MRN         string    `json:"mrn"`
	PatientName string    `json:"patient_name"`
	EpisodeDate time.Time `json:"episode_date"`
	Department  string    `json:"department"`
	DoctorName  string    `json:"doctor_name,omitempty"`
	Summary     string    `json:"summary"`
}
