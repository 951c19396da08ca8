package catalog

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateService(ctx context.Context, s *Service) error
	GetService(ctx context.Context, id uuid.UUID) (*Service, error)
	UpdateService(ctx context.Context, s *Service) error
	ListServices(ctx context.Context, limit, offset int) ([]*Service, int, error)

	CreateInvestigationType(ctx context.Context, it *InvestigationType) error
	GetInvestigationType(ctx context.Context, id uuid.UUID) (*InvestigationType, error)
	ListInvestigationTypes(ctx context.Context, category string, limit, offset int) ([]*InvestigationType, int, error)

	CreateMedication(ctx context.Context, m *Medication) error
	GetMedication(ctx context.Context, id uuid.UUID) (*Medication, error)
	UpdateMedication(ctx context.Context, m *Medication) error
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
	ListMedications(ctx context.Context, limit, offset int) ([]*Medication, int, error)
}
