package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an appointment does not exist.
var ErrNotFound = errors.New("appointment: not found")

// Update carries partial changes to an appointment. Nil fields are left
// as-is.
type Update struct {
	Status *Status `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

type Repository interface {
	List(ctx context.Context) ([]*Appointment, error)
	Insert(ctx context.Context, a *Appointment) error
	Update(ctx context.Context, id uuid.UUID, upd Update) (*Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteOlderThan removes appointments created at or before the
	// cutoff and reports how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
