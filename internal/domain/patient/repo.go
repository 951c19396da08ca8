package patient

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	TouchActivity(ctx context.Context, id uuid.UUID) error
	MarkInactiveSince(ctx context.Context, cutoff time.Time) (int64, error)
}
