package staff

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/careflow/hms/pkg/apperror"
)

// -- Mock Repository --

type mockRepo struct {
	doctors     map[uuid.UUID]*Doctor
	assignments map[uuid.UUID]*Assignment
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		doctors:     make(map[uuid.UUID]*Doctor),
		assignments: make(map[uuid.UUID]*Assignment),
	}
}

func (m *mockRepo) CreateDoctor(_ context.Context, d *Doctor) error {
	d.ID = uuid.New()
	m.doctors[d.ID] = d
	return nil
}

func (m *mockRepo) GetDoctor(_ context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, apperror.NotFound("doctor not found")
	}
	return d, nil
}

func (m *mockRepo) SetAvailability(_ context.Context, id uuid.UUID, available bool) error {
	d, ok := m.doctors[id]
	if !ok {
		return apperror.NotFound("doctor not found")
	}
	d.Available = available
	return nil
}

func (m *mockRepo) ListDoctors(_ context.Context, availableOnly bool, limit, offset int) ([]*Doctor, int, error) {
	var result []*Doctor
	for _, d := range m.doctors {
		if !availableOnly || (d.Available && d.Role == RoleDoctor) {
			result = append(result, d)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) CreateAssignment(_ context.Context, a *Assignment) error {
	a.ID = uuid.New()
	m.assignments[a.ID] = a
	return nil
}

func (m *mockRepo) GetAssignmentByVisit(_ context.Context, visitID uuid.UUID) (*Assignment, error) {
	for _, a := range m.assignments {
		if a.VisitID == visitID && a.Status != AssignmentCompleted {
			return a, nil
		}
	}
	return nil, apperror.NotFound("assignment not found")
}

func (m *mockRepo) UpdateAssignmentStatus(_ context.Context, id uuid.UUID, status string) error {
	a, ok := m.assignments[id]
	if !ok {
		return apperror.NotFound("assignment not found")
	}
	a.Status = status
	return nil
}

// -- Tests --

func TestEnsureAvailableDoctor(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	doc := &Doctor{Name: "Dr. Mensah", Role: RoleDoctor, Available: true, ConsultationFee: 5000}
	_ = svc.CreateDoctor(ctx, doc)
	nurse := &Doctor{Name: "N. Owusu", Role: RoleNurse, Available: true}
	_ = repo.CreateDoctor(ctx, nurse)
	busy := &Doctor{Name: "Dr. Asante", Role: RoleDoctor, Available: false}
	_ = repo.CreateDoctor(ctx, busy)

	if _, err := svc.EnsureAvailableDoctor(ctx, doc.ID); err != nil {
		t.Errorf("available doctor rejected: %v", err)
	}
	if _, err := svc.EnsureAvailableDoctor(ctx, nurse.ID); !apperror.IsKind(err, apperror.KindDoctorUnavailable) {
		t.Errorf("non-doctor: got %v, want DoctorUnavailable", err)
	}
	if _, err := svc.EnsureAvailableDoctor(ctx, busy.ID); !apperror.IsKind(err, apperror.KindDoctorUnavailable) {
		t.Errorf("unavailable doctor: got %v, want DoctorUnavailable", err)
	}
	if _, err := svc.EnsureAvailableDoctor(ctx, uuid.New()); !apperror.IsKind(err, apperror.KindNotFound) {
		t.Errorf("unknown doctor: got %v, want NotFound", err)
	}
}

func TestAssignmentLifecycle(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	visitID := uuid.New()
	a, err := svc.Assign(ctx, visitID, uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if a.Status != AssignmentPending {
		t.Errorf("new assignment status = %s, want PENDING", a.Status)
	}

	if err := svc.ActivateAssignment(ctx, visitID); err != nil {
		t.Fatalf("ActivateAssignment: %v", err)
	}
	got, _ := svc.AssignmentForVisit(ctx, visitID)
	if got.Status != AssignmentActive {
		t.Errorf("status = %s, want ACTIVE", got.Status)
	}

	if err := svc.CompleteAssignment(ctx, visitID); err != nil {
		t.Fatalf("CompleteAssignment: %v", err)
	}
	if _, err := svc.AssignmentForVisit(ctx, visitID); !apperror.IsKind(err, apperror.KindNotFound) {
		t.Errorf("completed assignment still active: %v", err)
	}
}

func TestCompleteAssignment_NoAssignment(t *testing.T) {
	svc := NewService(newMockRepo())
	if err := svc.CompleteAssignment(context.Background(), uuid.New()); err != nil {
		t.Errorf("expected missing assignment to be tolerated, got %v", err)
	}
}
