package staff

import (
	"time"

	"github.com/google/uuid"
)

// Staff roles.
const (
	RoleDoctor       = "doctor"
	RoleNurse        = "nurse"
	RoleLab          = "lab"
	RoleRadiology    = "radiology"
	RolePharmacist   = "pharmacist"
	RoleReceptionist = "receptionist"
	RoleBilling      = "billing"
)

// Assignment statuses.
const (
	AssignmentPending   = "PENDING"
	AssignmentActive    = "ACTIVE"
	AssignmentCompleted = "COMPLETED"
)

// Doctor maps to the doctor table. ConsultationFee is in minor currency
// units; zero means the default consultation service price applies.
type Doctor struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Role            string    `db:"role" json:"role"`
	Specialty       *string   `db:"specialty" json:"specialty,omitempty"`
	ConsultationFee int64     `db:"consultation_fee" json:"consultation_fee"`
	Available       bool      `db:"available" json:"available"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Assignment maps to the assignment table. It links a patient and doctor for
// one visit; a visit has at most one non-completed assignment at a time.
type Assignment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	VisitID   uuid.UUID `db:"visit_id" json:"visit_id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
