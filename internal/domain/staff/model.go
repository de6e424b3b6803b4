package staff

import (
	"time"

	"github.com/google/uuid"
)

// Status of a staff member.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Staff is a hospital staff member. Doctors carry a department used for
// workload reporting.
type Staff struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Status     Status    `json:"status"`
	Department string    `json:"department,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsActiveDoctor reports whether this staff member counts toward doctor
// workload statistics.
func (s *Staff) IsActiveDoctor() bool {
	return s.Role == "doctor" && s.Status == StatusActive
}
