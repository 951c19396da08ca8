package history

import (
	"context"

	"github.com/google/uuid"

	"github.com/careflow/hms/internal/platform/middleware"
	"github.com/careflow/hms/pkg/apperror"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RecordCompletion appends the completion snapshot for a visit. Called inside
// the completing transaction so the snapshot and the status flip land together.
func (s *Service) RecordCompletion(ctx context.Context, visitID, patientID uuid.UUID, snap Snapshot) error {
	if snap.Diagnosis == "" {
		return apperror.Validation("snapshot diagnosis is required")
	}
	return s.repo.CreateHistory(ctx, &MedicalHistory{
		VisitID:   visitID,
		PatientID: patientID,
		Snapshot:  snap,
	})
}

func (s *Service) ForVisit(ctx context.Context, visitID uuid.UUID) ([]*MedicalHistory, error) {
	return s.repo.ListHistoryByVisit(ctx, visitID)
}

func (s *Service) ForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalHistory, int, error) {
	return s.repo.ListHistoryByPatient(ctx, patientID, limit, offset)
}

// RecordAction implements middleware.AuditRecorder. The middleware already
// treats failures as best-effort, so this just persists.
func (s *Service) RecordAction(entry middleware.AuditEntry) error {
	return s.repo.CreateAuditEvent(context.Background(), &AuditEvent{
		UserID:       entry.UserID,
		UserRoles:    entry.UserRoles,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Action:       entry.Action,
		Method:       entry.Method,
		Path:         entry.Path,
		IPAddress:    entry.IPAddress,
		RequestID:    entry.RequestID,
		StatusCode:   entry.StatusCode,
		CreatedAt:    entry.Timestamp,
	})
}

func (s *Service) AuditEvents(ctx context.Context, limit, offset int) ([]*AuditEvent, int, error) {
	return s.repo.ListAuditEvents(ctx, limit, offset)
}
