package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/careflow/hms/pkg/apperror"
)

// Svc is the catalog service layer. The Service name is taken by the
// billable-service row type.
type Svc struct {
	repo Repository
}

func NewService(repo Repository) *Svc {
	return &Svc{repo: repo}
}

func (s *Svc) CreateService(ctx context.Context, svc *Service) error {
	if svc.Name == "" {
		return apperror.Validation("name is required")
	}
	if svc.Price < 0 {
		return apperror.Validation("price must not be negative")
	}
	svc.Active = true
	return s.repo.CreateService(ctx, svc)
}

func (s *Svc) GetService(ctx context.Context, id uuid.UUID) (*Service, error) {
	return s.repo.GetService(ctx, id)
}

func (s *Svc) UpdateService(ctx context.Context, svc *Service) error {
	if svc.Price < 0 {
		return apperror.Validation("price must not be negative")
	}
	return s.repo.UpdateService(ctx, svc)
}

func (s *Svc) ListServices(ctx context.Context, limit, offset int) ([]*Service, int, error) {
	return s.repo.ListServices(ctx, limit, offset)
}

func (s *Svc) CreateInvestigationType(ctx context.Context, it *InvestigationType) error {
	if it.Name == "" {
		return apperror.Validation("name is required")
	}
	if it.Category != CategoryLab && it.Category != CategoryRadiology {
		return apperror.Validation("category must be lab or radiology")
	}
	if it.Price < 0 {
		return apperror.Validation("price must not be negative")
	}
	if it.ServiceID == uuid.Nil {
		return apperror.Validation("service_id is required")
	}
	if _, err := s.repo.GetService(ctx, it.ServiceID); err != nil {
		return err
	}
	return s.repo.CreateInvestigationType(ctx, it)
}

func (s *Svc) GetInvestigationType(ctx context.Context, id uuid.UUID) (*InvestigationType, error) {
	return s.repo.GetInvestigationType(ctx, id)
}

func (s *Svc) ListInvestigationTypes(ctx context.Context, category string, limit, offset int) ([]*InvestigationType, int, error) {
	if category != "" && category != CategoryLab && category != CategoryRadiology {
		return nil, 0, apperror.Validation("category must be lab or radiology")
	}
	return s.repo.ListInvestigationTypes(ctx, category, limit, offset)
}

func (s *Svc) CreateMedication(ctx context.Context, m *Medication) error {
	if m.Name == "" {
		return apperror.Validation("name is required")
	}
	if m.UnitPrice < 0 {
		return apperror.Validation("unit_price must not be negative")
	}
	if m.StockQuantity < 0 {
		return apperror.Validation("stock_quantity must not be negative")
	}
	return s.repo.CreateMedication(ctx, m)
}

func (s *Svc) GetMedication(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return s.repo.GetMedication(ctx, id)
}

func (s *Svc) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	if _, err := s.repo.GetMedication(ctx, id); err != nil {
		return err
	}
	return s.repo.AdjustStock(ctx, id, delta)
}

func (s *Svc) ListMedications(ctx context.Context, limit, offset int) ([]*Medication, int, error) {
	return s.repo.ListMedications(ctx, limit, offset)
}
