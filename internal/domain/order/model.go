package order

import (
	"time"

	"github.com/google/uuid"
)

// Order types.
const (
	TypeLab        = "lab"
	TypeRadiology  = "radiology"
	TypeMedication = "medication"
)

// Order statuses. An order sits at UNPAID until its billing settles, is
// bulk-released to QUEUED, and then moves through the department's hands.
const (
	StatusUnpaid     = "UNPAID"
	StatusQueued     = "QUEUED"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"
)

// Batch order types.
const (
	BatchLab       = "LAB"
	BatchRadiology = "RADIOLOGY"
	BatchMixed     = "MIXED"
)

// Order maps to the clinical_order table. Price is the charged amount in
// minor currency units at ordering time.
type Order struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	VisitID     uuid.UUID  `db:"visit_id" json:"visit_id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	BillingID   uuid.UUID  `db:"billing_id" json:"billing_id"`
	Type        string     `db:"type" json:"type"`
	Status      string     `db:"status" json:"status"`
	ServiceID   *uuid.UUID `db:"service_id" json:"service_id,omitempty"`
	Description string     `db:"description" json:"description"`
	Quantity    int        `db:"quantity" json:"quantity"`
	Price       int64      `db:"price" json:"price"`
	Result      *string    `db:"result" json:"result,omitempty"`
	ResultedAt  *time.Time `db:"resulted_at" json:"resulted_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// BatchOrder maps to the batch_order table: N diagnostic services ordered
// together as one addressable unit. It is COMPLETED only when every
// sub-service carries a result.
type BatchOrder struct {
	ID        uuid.UUID `db:"id" json:"id"`
	VisitID   uuid.UUID `db:"visit_id" json:"visit_id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	BillingID uuid.UUID `db:"billing_id" json:"billing_id"`
	Type      string    `db:"type" json:"type"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// BatchOrderService maps to the batch_order_service table, one row per
// bundled catalog service, each independently resulted.
type BatchOrderService struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	BatchOrderID        uuid.UUID  `db:"batch_order_id" json:"batch_order_id"`
	InvestigationTypeID uuid.UUID  `db:"investigation_type_id" json:"investigation_type_id"`
	Name                string     `db:"name" json:"name"`
	Category            string     `db:"category" json:"category"`
	Price               int64      `db:"price" json:"price"`
	Result              *string    `db:"result" json:"result,omitempty"`
	ResultedAt          *time.Time `db:"resulted_at" json:"resulted_at,omitempty"`
}

// Done reports whether the sub-service has been resulted.
func (s *BatchOrderService) Done() bool { return s.Result != nil }
