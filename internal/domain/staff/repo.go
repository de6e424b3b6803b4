package staff

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a staff member does not exist.
var ErrNotFound = errors.New("staff: not found")

type Repository interface {
	List(ctx context.Context) ([]*Staff, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Staff, error)
}
