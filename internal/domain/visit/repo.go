package visit

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, v *Visit) error
	Get(ctx context.Context, id uuid.UUID) (*Visit, error)
	// GetForUpdate reads the visit with a row lock so concurrent completion
	// polls serialize before counting outstanding investigations; must be
	// called inside a transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Visit, error)
	// UpdateStatus is a compare-and-set; reports whether a row changed.
	UpdateStatus(ctx context.Context, id uuid.UUID, from []string, to string) (bool, error)
	SetQueueType(ctx context.Context, id uuid.UUID, queueType string) error
	SetAssignment(ctx context.Context, id, assignmentID uuid.UUID) error
	// Complete flips UNDER_DOCTOR_REVIEW to COMPLETED, writing diagnosis and
	// completed_at in the same statement. False when the visit was not under
	// review, which is how exactly one of two concurrent completions wins.
	Complete(ctx context.Context, id uuid.UUID, diagnosis string) (bool, error)

	CreateVitals(ctx context.Context, vt *Vitals) error
	ListVitalsByVisit(ctx context.Context, visitID uuid.UUID) ([]*Vitals, error)

	ListByStatus(ctx context.Context, statuses []string, limit, offset int) ([]*Visit, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error)
}
