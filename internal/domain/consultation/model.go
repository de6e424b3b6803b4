package consultation

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks a consultation request through its lifecycle. Active
// requests can be completed or cancelled; both end states are terminal.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// CanTransition reports whether a status change is allowed.
func CanTransition(from, to Status) bool {
	return from == StatusActive && (to == StatusCompleted || to == StatusCancelled)
}

// Urgency of a consultation request.
type Urgency string

const (
	UrgencyRoutine   Urgency = "routine"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyRoutine, UrgencyUrgent, UrgencyEmergency:
		return true
	}
	return false
}

// ShiftType records when the request was raised.
type ShiftType string

const (
	ShiftMorning ShiftType = "morning"
	ShiftEvening ShiftType = "evening"
	ShiftNight   ShiftType = "night"
)

func (s ShiftType) Valid() bool {
	switch s {
	case ShiftMorning, ShiftEvening, ShiftNight:
		return true
	}
	return false
}

// Consultation is a request for a specialty opinion on an inpatient.
// AgeAtRequest is the patient's age as stated at intake; the linked
// patient record carries only a date of birth, which for consultations
// created from age alone is synthesized and therefore approximate.
type Consultation struct {
	ID                   uuid.UUID  `json:"id"`
	PatientID            uuid.UUID  `json:"patient_id"`
	MRN                  string     `json:"mrn"`
	PatientName          string     `json:"patient_name"`
	AgeAtRequest         int        `json:"age_at_request"`
	Gender               string     `json:"gender"`
	RequestingDepartment string     `json:"requesting_department"`
	PatientLocation      string     `json:"patient_location"`
	Specialty            string     `json:"specialty"`
	ShiftType            ShiftType  `json:"shift_type"`
	Urgency              Urgency    `json:"urgency"`
	Reason               string     `json:"reason"`
	Status               Status     `json:"status"`
	DoctorID             *uuid.UUID `json:"doctor_id,omitempty"`
	DoctorName           string     `json:"doctor_name,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	CompletedBy          *uuid.UUID `json:"completed_by,omitempty"`
	CompletionNote       string     `json:"completion_note,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// SyntheticDOB derives a stand-in date of birth from a stated age:
// January 1st of the year that makes the age come out right today.
func SyntheticDOB(age int, now time.Time) time.Time {
	return time.Date(now.Year()-age, time.January, 1, 0, 0, 0, 0, time.UTC)
}
