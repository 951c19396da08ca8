package appointment

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusBooked    = "booked"
	StatusFulfilled = "fulfilled"
	StatusCancelled = "cancelled"
)

// Appointment is a scheduled consultation slot. Checking one in opens a visit
// that enters the doctor queue directly, skipping triage.
type Appointment struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID    uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	ScheduledAt time.Time  `db:"scheduled_at" json:"scheduled_at"`
	Reason      string     `db:"reason" json:"reason,omitempty"`
	Status      string     `db:"status" json:"status"`
	VisitID     *uuid.UUID `db:"visit_id" json:"visit_id,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}
