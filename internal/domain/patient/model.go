package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. LastActivityAt is bumped whenever a
// visit touches the patient and drives the inactivity sweep.
type Patient struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	DateOfBirth    *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender         *string    `db:"gender" json:"gender,omitempty"`
	Phone          *string    `db:"phone" json:"phone,omitempty"`
	Address        *string    `db:"address" json:"address,omitempty"`
	Active         bool       `db:"active" json:"active"`
	LastActivityAt time.Time  `db:"last_activity_at" json:"last_activity_at"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}
