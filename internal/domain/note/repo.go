package note

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrInvalidType is returned when inserting a note with an unknown type.
var ErrInvalidType = errors.New("note: invalid note type")

type Repository interface {
	Insert(ctx context.Context, n *MedicalNote) error
	// ListByPatient returns a patient's notes, newest first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*MedicalNote, error)
}
