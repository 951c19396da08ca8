package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/careflow/hms/internal/domain/staff"
	"github.com/careflow/hms/pkg/apperror"
)

type passTx struct{}

func (passTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockRepo struct {
	appointments map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	a.ID = uuid.New()
	m.appointments[a.ID] = a
	return nil
}

func (m *mockRepo) Get(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, apperror.NotFound("appointment not found")
	}
	return a, nil
}

func (m *mockRepo) List(_ context.Context, doctorID *uuid.UUID, _ *time.Time, _, _ int) ([]*Appointment, int, error) {
	var result []*Appointment
	for _, a := range m.appointments {
		if doctorID == nil || a.DoctorID == *doctorID {
			result = append(result, a)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, from []string, to string) (bool, error) {
	a, ok := m.appointments[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if a.Status == f {
			a.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) SetVisit(_ context.Context, id, visitID uuid.UUID) error {
	m.appointments[id].VisitID = &visitID
	return nil
}

type mockDoctors struct {
	doctors map[uuid.UUID]*staff.Doctor
}

func (m *mockDoctors) EnsureAvailableDoctor(_ context.Context, id uuid.UUID) (*staff.Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, apperror.NotFound("doctor not found")
	}
	if !d.Available {
		return nil, apperror.DoctorUnavailable("doctor is not available")
	}
	return d, nil
}

type mockOpener struct {
	visitID uuid.UUID
	opened  int
}

func (m *mockOpener) OpenForAppointment(_ context.Context, _, _ uuid.UUID) (uuid.UUID, error) {
	m.opened++
	return m.visitID, nil
}

func newTestService() (*Service, *mockRepo, *mockOpener, uuid.UUID) {
	repo := newMockRepo()
	doctorID := uuid.New()
	doctors := &mockDoctors{doctors: map[uuid.UUID]*staff.Doctor{
		doctorID: {ID: doctorID, Role: staff.RoleDoctor, Available: true},
	}}
	opener := &mockOpener{visitID: uuid.New()}
	svc := NewService(repo, doctors, passTx{})
	svc.SetVisitOpener(opener)
	return svc, repo, opener, doctorID
}

func TestBook(t *testing.T) {
	svc, _, _, doctorID := newTestService()

	a, err := svc.Book(context.Background(), uuid.New(), doctorID, time.Now().Add(24*time.Hour), "follow-up")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	if a.Status != StatusBooked {
		t.Errorf("status = %s, want booked", a.Status)
	}
}

func TestBook_PastTime(t *testing.T) {
	svc, _, _, doctorID := newTestService()

	_, err := svc.Book(context.Background(), uuid.New(), doctorID, time.Now().Add(-time.Hour), "")
	if !apperror.IsKind(err, apperror.KindValidation) {
		t.Errorf("got %v, want validation error", err)
	}
}

func TestBook_UnknownDoctor(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Book(context.Background(), uuid.New(), uuid.New(), time.Now().Add(time.Hour), "")
	if !apperror.IsKind(err, apperror.KindNotFound) {
		t.Errorf("got %v, want not found", err)
	}
}

func TestCheckIn(t *testing.T) {
	svc, _, opener, doctorID := newTestService()
	ctx := context.Background()

	a, err := svc.Book(ctx, uuid.New(), doctorID, time.Now().Add(time.Hour), "")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	checked, err := svc.CheckIn(ctx, a.ID)
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if checked.Status != StatusFulfilled {
		t.Errorf("status = %s, want fulfilled", checked.Status)
	}
	if checked.VisitID == nil || *checked.VisitID != opener.visitID {
		t.Error("check-in did not open a visit")
	}

	// second check-in loses the compare-and-set
	if _, err := svc.CheckIn(ctx, a.ID); !apperror.IsKind(err, apperror.KindConflict) {
		t.Errorf("repeat check-in: got %v, want conflict", err)
	}
	if opener.opened != 1 {
		t.Errorf("visit opened %d times, want 1", opener.opened)
	}
}

func TestCancel(t *testing.T) {
	svc, _, _, doctorID := newTestService()
	ctx := context.Background()

	a, _ := svc.Book(ctx, uuid.New(), doctorID, time.Now().Add(time.Hour), "")
	if err := svc.Cancel(ctx, a.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := svc.Cancel(ctx, a.ID); !apperror.IsKind(err, apperror.KindConflict) {
		t.Errorf("repeat cancel: got %v, want conflict", err)
	}
}
