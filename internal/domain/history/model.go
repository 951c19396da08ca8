package history

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is the point-in-time record written when a visit completes. It is
// serialized to a single JSONB column, so readers see the visit exactly as it
// was at completion even if catalog prices or orders change afterwards.
type Snapshot struct {
	VisitUID  string          `json:"visit_uid"`
	Diagnosis string          `json:"diagnosis"`
	Vitals    []VitalsRecord  `json:"vitals,omitempty"`
	Orders    []OrderRecord   `json:"orders,omitempty"`
	Billings  []BillingRecord `json:"billings,omitempty"`
}

type VitalsRecord struct {
	Temperature      float64   `json:"temperature,omitempty"`
	BloodPressure    string    `json:"blood_pressure,omitempty"`
	HeartRate        int       `json:"heart_rate,omitempty"`
	RespiratoryRate  int       `json:"respiratory_rate,omitempty"`
	OxygenSaturation float64   `json:"oxygen_saturation,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	RecordedAt       time.Time `json:"recorded_at"`
}

type OrderRecord struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
	Quantity    int       `json:"quantity"`
	Price       int64     `json:"price"`
	Result      string    `json:"result,omitempty"`
}

type BillingRecord struct {
	ID          uuid.UUID       `json:"id"`
	Kind        string          `json:"kind"`
	Status      string          `json:"status"`
	TotalAmount int64           `json:"total_amount"`
	Payments    []PaymentRecord `json:"payments,omitempty"`
}

type PaymentRecord struct {
	Amount    int64     `json:"amount"`
	Method    string    `json:"method"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MedicalHistory is one append-only completion snapshot row.
type MedicalHistory struct {
	ID        uuid.UUID `db:"id" json:"id"`
	VisitID   uuid.UUID `db:"visit_id" json:"visit_id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Snapshot  Snapshot  `db:"snapshot" json:"snapshot"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AuditEvent is one append-only record of a mutating API call.
type AuditEvent struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	UserRoles    []string  `db:"user_roles" json:"user_roles"`
	ResourceType string    `db:"resource_type" json:"resource_type"`
	ResourceID   string    `db:"resource_id" json:"resource_id"`
	Action       string    `db:"action" json:"action"`
	Method       string    `db:"method" json:"method"`
	Path         string    `db:"path" json:"path"`
	IPAddress    string    `db:"ip_address" json:"ip_address"`
	RequestID    string    `db:"request_id" json:"request_id"`
	StatusCode   int       `db:"status_code" json:"status_code"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
