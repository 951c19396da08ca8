package billing

import (
	"time"

	"github.com/google/uuid"
)

// Billing statuses. Transitions are forward-only: money is never unpaid.
const (
	StatusPending          = "PENDING"
	StatusPartiallyPaid    = "PARTIALLY_PAID"
	StatusPaid             = "PAID"
	StatusPendingInsurance = "PENDING_INSURANCE"
	StatusEmergencyPending = "EMERGENCY_PENDING"
	StatusInsuranceClaimed = "INSURANCE_CLAIMED"
)

// Billing kinds: one record per logical charge group on a visit.
const (
	KindConsultation = "consultation"
	KindDiagnostics  = "diagnostics"
	KindPharmacy     = "pharmacy"
	KindEmergency    = "emergency"
)

// Payment methods.
const (
	MethodCash      = "cash"
	MethodCard      = "card"
	MethodTransfer  = "transfer"
	MethodInsurance = "insurance"
)

// Billing maps to the billing table. TotalAmount always equals the sum of its
// line items; both are updated in the same transaction.
type Billing struct {
	ID          uuid.UUID `db:"id" json:"id"`
	VisitID     uuid.UUID `db:"visit_id" json:"visit_id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	Kind        string    `db:"kind" json:"kind"`
	Status      string    `db:"status" json:"status"`
	TotalAmount int64     `db:"total_amount" json:"total_amount"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Settled reports whether no further money is expected against this billing.
// INSURANCE_CLAIMED counts: an approved claim secures payment even though the
// cash arrives later.
func (b *Billing) Settled() bool {
	return b.Status == StatusPaid || b.Status == StatusInsuranceClaimed
}

// Deferred reports whether money collection has been decoupled from service
// delivery for this billing.
func (b *Billing) Deferred() bool {
	return b.Status == StatusPendingInsurance || b.Status == StatusEmergencyPending
}

// LineItem maps to the billing_line_item table.
type LineItem struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	BillingID   uuid.UUID  `db:"billing_id" json:"billing_id"`
	ServiceID   *uuid.UUID `db:"service_id" json:"service_id,omitempty"`
	Description string     `db:"description" json:"description"`
	Quantity    int        `db:"quantity" json:"quantity"`
	UnitPrice   int64      `db:"unit_price" json:"unit_price"`
	TotalPrice  int64      `db:"total_price" json:"total_price"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Payment maps to the payment table. Payments are immutable once written.
type Payment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	BillingID uuid.UUID `db:"billing_id" json:"billing_id"`
	Amount    int64     `db:"amount" json:"amount"`
	Method    string    `db:"method" json:"method"`
	Reference *string   `db:"reference" json:"reference,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
