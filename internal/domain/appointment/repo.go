package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	Get(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, doctorID *uuid.UUID, from *time.Time, limit, offset int) ([]*Appointment, int, error)
	// UpdateStatus is a compare-and-set; reports whether a row changed.
	UpdateStatus(ctx context.Context, id uuid.UUID, from []string, to string) (bool, error)
	SetVisit(ctx context.Context, id, visitID uuid.UUID) error
}
