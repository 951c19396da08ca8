package staff

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateDoctor(ctx context.Context, d *Doctor) error
	GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
	ListDoctors(ctx context.Context, availableOnly bool, limit, offset int) ([]*Doctor, int, error)

	CreateAssignment(ctx context.Context, a *Assignment) error
	GetAssignmentByVisit(ctx context.Context, visitID uuid.UUID) (*Assignment, error)
	UpdateAssignmentStatus(ctx context.Context, id uuid.UUID, status string) error
}
