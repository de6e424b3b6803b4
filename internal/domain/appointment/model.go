package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Type of an outpatient appointment request.
type Type string

const (
	TypeRoutine Type = "routine"
	TypeUrgent  Type = "urgent"
)

func (t Type) Valid() bool {
	switch t {
	case TypeRoutine, TypeUrgent:
		return true
	}
	return false
}

// Status of an appointment request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment is a transient outpatient booking request. Requests are
// not kept as long-term records; anything older than the retention
// window is purged.
type Appointment struct {
	ID            uuid.UUID `json:"id"`
	PatientName   string    `json:"patient_name"`
	MedicalNumber string    `json:"medical_number"`
	Specialty     string    `json:"specialty"`
	Type          Type      `json:"type"`
	Status        Status    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Retention is how long an appointment request is kept before it is
// eligible for purging.
const Retention = 24 * time.Hour

// ExpiredBefore returns the subset of appointments created at or before
// the cutoff.
func ExpiredBefore(appts []*Appointment, cutoff time.Time) []*Appointment {
	var out []*Appointment
	for _, a := range appts {
		if !a.CreatedAt.After(cutoff) {
			out = append(out, a)
		}
	}
	return out
}
