package consultation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a consultation does not exist.
	ErrNotFound = errors.New("consultation: not found")

	// ErrNotActive is returned when completing or cancelling a
	// consultation that has already reached a terminal status.
	ErrNotActive = errors.New("consultation: not active")
)

// Update carries partial changes to an active consultation. Nil fields
// are left as-is.
type Update struct {
	PatientLocation *string    `json:"patient_location,omitempty"`
	Specialty       *string    `json:"specialty,omitempty"`
	Urgency         *Urgency   `json:"urgency,omitempty"`
	Reason          *string    `json:"reason,omitempty"`
	DoctorID        *uuid.UUID `json:"doctor_id,omitempty"`
}

type Repository interface {
	List(ctx context.Context) ([]*Consultation, error)
	ListActive(ctx context.Context) ([]*Consultation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	Insert(ctx context.Context, c *Consultation) error
	Update(ctx context.Context, id uuid.UUID, upd Update) (*Consultation, error)
	// Complete closes an active consultation with a completion note.
	// Completing a consultation that is no longer active yields
	// ErrNotActive.
	Complete(ctx context.Context, id uuid.UUID, note string, by uuid.UUID, at time.Time) error
	// Cancel marks an active consultation cancelled.
	Cancel(ctx context.Context, id uuid.UUID) error
}
