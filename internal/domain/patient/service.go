package patient

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/careflow/hms/pkg/apperror"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Register(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return apperror.Validation("name is required")
	}
	if p.DateOfBirth != nil && p.DateOfBirth.After(time.Now()) {
		return apperror.Validation("date_of_birth must be in the past")
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return apperror.Validation("name is required")
	}
	if _, err := s.repo.GetByID(ctx, p.ID); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// TouchActivity bumps the patient's activity timestamp. Called by the visit
// engine on every visit creation.
func (s *Service) TouchActivity(ctx context.Context, id uuid.UUID) error {
	return s.repo.TouchActivity(ctx, id)
}

// SweepInactive marks patients with no activity for the given number of days
// as inactive and returns how many rows changed.
func (s *Service) SweepInactive(ctx context.Context, inactiveDays int) (int64, error) {
	if inactiveDays < 1 {
		return 0, apperror.Validation("inactive days must be at least 1")
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -inactiveDays)
	return s.repo.MarkInactiveSince(ctx, cutoff)
}
