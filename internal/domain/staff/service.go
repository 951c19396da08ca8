package staff

import (
	"context"

	"github.com/google/uuid"

	"github.com/careflow/hms/pkg/apperror"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.Name == "" {
		return apperror.Validation("name is required")
	}
	if d.Role == "" {
		d.Role = RoleDoctor
	}
	if d.ConsultationFee < 0 {
		return apperror.Validation("consultation_fee must not be negative")
	}
	return s.repo.CreateDoctor(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetDoctor(ctx, id)
}

func (s *Service) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	return s.repo.SetAvailability(ctx, id, available)
}

func (s *Service) ListDoctors(ctx context.Context, availableOnly bool, limit, offset int) ([]*Doctor, int, error) {
	return s.repo.ListDoctors(ctx, availableOnly, limit, offset)
}

// EnsureAvailableDoctor loads the doctor and verifies they can accept a new
// visit: they must exist, hold the doctor role, and be marked available.
func (s *Service) EnsureAvailableDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.repo.GetDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Role != RoleDoctor {
		return nil, apperror.DoctorUnavailable("selected staff member is not a doctor")
	}
	if !d.Available {
		return nil, apperror.DoctorUnavailable("doctor is not available")
	}
	return d, nil
}

// Assign creates a pending assignment linking the visit's patient to the doctor.
func (s *Service) Assign(ctx context.Context, visitID, patientID, doctorID uuid.UUID) (*Assignment, error) {
	a := &Assignment{
		VisitID:   visitID,
		PatientID: patientID,
		DoctorID:  doctorID,
		Status:    AssignmentPending,
	}
	if err := s.repo.CreateAssignment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ActivateAssignment marks the visit's assignment active when the
// consultation starts.
func (s *Service) ActivateAssignment(ctx context.Context, visitID uuid.UUID) error {
	a, err := s.repo.GetAssignmentByVisit(ctx, visitID)
	if err != nil {
		return err
	}
	return s.repo.UpdateAssignmentStatus(ctx, a.ID, AssignmentActive)
}

// CompleteAssignment closes out the visit's assignment. Missing assignments
// are tolerated so completion never fails on a visit that skipped doctor
// selection.
func (s *Service) CompleteAssignment(ctx context.Context, visitID uuid.UUID) error {
	a, err := s.repo.GetAssignmentByVisit(ctx, visitID)
	if err != nil {
		if apperror.IsKind(err, apperror.KindNotFound) {
			return nil
		}
		return err
	}
	return s.repo.UpdateAssignmentStatus(ctx, a.ID, AssignmentCompleted)
}

func (s *Service) AssignmentForVisit(ctx context.Context, visitID uuid.UUID) (*Assignment, error) {
	return s.repo.GetAssignmentByVisit(ctx, visitID)
}
