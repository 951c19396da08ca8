package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/careflow/hms/internal/domain/staff"
	"github.com/careflow/hms/internal/platform/db"
	"github.com/careflow/hms/pkg/apperror"
)

// DoctorDirectory is the slice of the staff service bookings validate against.
type DoctorDirectory interface {
	EnsureAvailableDoctor(ctx context.Context, id uuid.UUID) (*staff.Doctor, error)
}

// VisitOpener opens an appointment-originated visit that skips triage and
// enters the doctor queue directly. Implemented by the visit service.
type VisitOpener interface {
	OpenForAppointment(ctx context.Context, patientID, doctorID uuid.UUID) (uuid.UUID, error)
}

type Service struct {
	repo    Repository
	doctors DoctorDirectory
	tx      db.TxRunner
	visits  VisitOpener
}

func NewService(repo Repository, doctors DoctorDirectory, tx db.TxRunner) *Service {
	return &Service{repo: repo, doctors: doctors, tx: tx}
}

// SetVisitOpener wires the visit engine in after construction.
func (s *Service) SetVisitOpener(v VisitOpener) {
	s.visits = v
}

func (s *Service) Book(ctx context.Context, patientID, doctorID uuid.UUID, at time.Time, reason string) (*Appointment, error) {
	if at.Before(time.Now()) {
		return nil, apperror.Validation("scheduled time must be in the future")
	}
	if _, err := s.doctors.EnsureAvailableDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	a := &Appointment{
		PatientID:   patientID,
		DoctorID:    doctorID,
		ScheduledAt: at,
		Reason:      reason,
		Status:      StatusBooked,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// BookFollowUp books a return consultation. Called by the visit engine at
// completion; unlike Book it does not require the doctor to be available right
// now, only to exist.
func (s *Service) BookFollowUp(ctx context.Context, patientID, doctorID uuid.UUID, at time.Time, reason string) error {
	if at.Before(time.Now()) {
		return apperror.Validation("scheduled time must be in the future")
	}
	return s.repo.Create(ctx, &Appointment{
		PatientID:   patientID,
		DoctorID:    doctorID,
		ScheduledAt: at,
		Reason:      reason,
		Status:      StatusBooked,
	})
}

// CheckIn fulfils a booked appointment and opens its visit in the doctor
// queue. Exactly one check-in wins under concurrent calls.
func (s *Service) CheckIn(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var out *Appointment
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		ok, err := s.repo.UpdateStatus(ctx, id, []string{StatusBooked}, StatusFulfilled)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.New(apperror.KindConflict, "appointment is %s", a.Status)
		}
		visitID, err := s.visits.OpenForAppointment(ctx, a.PatientID, a.DoctorID)
		if err != nil {
			return err
		}
		if err := s.repo.SetVisit(ctx, id, visitID); err != nil {
			return err
		}
		a.Status = StatusFulfilled
		a.VisitID = &visitID
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.UpdateStatus(ctx, id, []string{StatusBooked}, StatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.New(apperror.KindConflict, "appointment cannot be cancelled")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, doctorID *uuid.UUID, from *time.Time, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, doctorID, from, limit, offset)
}
