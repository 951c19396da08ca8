package visit

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Visit statuses. A visit has exactly one current status; transitions happen
// only through the service's compare-and-set operations.
const (
	StatusWaitingForTriage      = "WAITING_FOR_TRIAGE"
	StatusTriaged               = "TRIAGED"
	StatusWaitingForDoctor      = "WAITING_FOR_DOCTOR"
	StatusInDoctorQueue         = "IN_DOCTOR_QUEUE"
	StatusUnderDoctorReview     = "UNDER_DOCTOR_REVIEW"
	StatusSentToLab             = "SENT_TO_LAB"
	StatusSentToRadiology       = "SENT_TO_RADIOLOGY"
	StatusSentToBoth            = "SENT_TO_BOTH"
	StatusAwaitingResultsReview = "AWAITING_RESULTS_REVIEW"
	StatusCompleted             = "COMPLETED"
	StatusCancelled             = "CANCELLED"
)

const (
	QueueConsultation  = "consultation"
	QueueResultsReview = "results-review"
)

type Visit struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	UID          string     `db:"uid" json:"uid"`
	PatientID    uuid.UUID  `db:"patient_id" json:"patient_id"`
	Status       string     `db:"status" json:"status"`
	QueueType    string     `db:"queue_type" json:"queue_type"`
	AssignmentID *uuid.UUID `db:"assignment_id" json:"assignment_id,omitempty"`
	Emergency    bool       `db:"emergency" json:"emergency"`
	Diagnosis    *string    `db:"diagnosis" json:"diagnosis,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// Terminal reports whether the visit can no longer move.
func (v *Visit) Terminal() bool {
	return v.Status == StatusCompleted || v.Status == StatusCancelled
}

// Vitals is the nurse's triage record for a visit.
type Vitals struct {
	ID               uuid.UUID `db:"id" json:"id"`
	VisitID          uuid.UUID `db:"visit_id" json:"visit_id"`
	Temperature      float64   `db:"temperature" json:"temperature,omitempty"`
	BloodPressure    string    `db:"blood_pressure" json:"blood_pressure,omitempty"`
	HeartRate        int       `db:"heart_rate" json:"heart_rate,omitempty"`
	RespiratoryRate  int       `db:"respiratory_rate" json:"respiratory_rate,omitempty"`
	OxygenSaturation float64   `db:"oxygen_saturation" json:"oxygen_saturation,omitempty"`
	Notes            string    `db:"notes" json:"notes,omitempty"`
	RecordedBy       string    `db:"recorded_by" json:"recorded_by,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// NewUID makes the human-readable visit identifier, e.g. "VIS-9F86D081".
func NewUID() string {
	id := uuid.New()
	return "VIS-" + strings.ToUpper(hex.EncodeToString(id[:4]))
}

// sentStatuses are the diagnostic-dispatch statuses, used as compare-and-set
// sources when re-deriving dispatch or advancing to results review.
var sentStatuses = []string{StatusSentToLab, StatusSentToRadiology, StatusSentToBoth}

// DeriveSentStatus computes the dispatch status from the union of live
// diagnostic order types on the visit. Pure and idempotent: re-deriving after
// any additional order always lands on the same status for the same union.
func DeriveSentStatus(hasLab, hasRadiology bool) string {
	switch {
	case hasLab && hasRadiology:
		return StatusSentToBoth
	case hasLab:
		return StatusSentToLab
	case hasRadiology:
		return StatusSentToRadiology
	default:
		return ""
	}
}
