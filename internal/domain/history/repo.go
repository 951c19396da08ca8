package history

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateHistory(ctx context.Context, h *MedicalHistory) error
	ListHistoryByVisit(ctx context.Context, visitID uuid.UUID) ([]*MedicalHistory, error)
	ListHistoryByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalHistory, int, error)

	CreateAuditEvent(ctx context.Context, e *AuditEvent) error
	ListAuditEvents(ctx context.Context, limit, offset int) ([]*AuditEvent, int, error)
}
