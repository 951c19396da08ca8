package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/careflow/hms/pkg/apperror"
)

// -- Mock Repository --

type mockRepo struct {
	services       map[uuid.UUID]*Service
	investigations map[uuid.UUID]*InvestigationType
	medications    map[uuid.UUID]*Medication
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		services:       make(map[uuid.UUID]*Service),
		investigations: make(map[uuid.UUID]*InvestigationType),
		medications:    make(map[uuid.UUID]*Medication),
	}
}

func (m *mockRepo) CreateService(_ context.Context, s *Service) error {
	s.ID = uuid.New()
	m.services[s.ID] = s
	return nil
}

func (m *mockRepo) GetService(_ context.Context, id uuid.UUID) (*Service, error) {
	s, ok := m.services[id]
	if !ok {
		return nil, apperror.NotFound("service not found")
	}
	return s, nil
}

func (m *mockRepo) UpdateService(_ context.Context, s *Service) error {
	m.services[s.ID] = s
	return nil
}

func (m *mockRepo) ListServices(_ context.Context, limit, offset int) ([]*Service, int, error) {
	var result []*Service
	for _, s := range m.services {
		result = append(result, s)
	}
	return result, len(result), nil
}

func (m *mockRepo) CreateInvestigationType(_ context.Context, it *InvestigationType) error {
	it.ID = uuid.New()
	m.investigations[it.ID] = it
	return nil
}

func (m *mockRepo) GetInvestigationType(_ context.Context, id uuid.UUID) (*InvestigationType, error) {
	it, ok := m.investigations[id]
	if !ok {
		return nil, apperror.NotFound("investigation type not found")
	}
	return it, nil
}

func (m *mockRepo) ListInvestigationTypes(_ context.Context, category string, limit, offset int) ([]*InvestigationType, int, error) {
	var result []*InvestigationType
	for _, it := range m.investigations {
		if category == "" || it.Category == category {
			result = append(result, it)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) CreateMedication(_ context.Context, med *Medication) error {
	med.ID = uuid.New()
	m.medications[med.ID] = med
	return nil
}

func (m *mockRepo) GetMedication(_ context.Context, id uuid.UUID) (*Medication, error) {
	med, ok := m.medications[id]
	if !ok {
		return nil, apperror.NotFound("medication not found")
	}
	return med, nil
}

func (m *mockRepo) UpdateMedication(_ context.Context, med *Medication) error {
	m.medications[med.ID] = med
	return nil
}

func (m *mockRepo) AdjustStock(_ context.Context, id uuid.UUID, delta int) error {
	med, ok := m.medications[id]
	if !ok {
		return apperror.NotFound("medication not found")
	}
	if med.StockQuantity+delta < 0 {
		return apperror.Validation("insufficient stock")
	}
	med.StockQuantity += delta
	return nil
}

func (m *mockRepo) ListMedications(_ context.Context, limit, offset int) ([]*Medication, int, error) {
	var result []*Medication
	for _, med := range m.medications {
		result = append(result, med)
	}
	return result, len(result), nil
}

// -- Tests --

func TestCreateService(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	s := &Service{Name: "Full Blood Count", Price: 5000, Category: "laboratory"}
	if err := svc.CreateService(ctx, s); err != nil {
		t.Fatalf("CreateService: %v", err)
	}
	if s.ID == uuid.Nil {
		t.Error("expected id to be assigned")
	}
	if !s.Active {
		t.Error("expected new service to be active")
	}
}

func TestCreateService_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	if err := svc.CreateService(ctx, &Service{Price: 100}); !apperror.IsKind(err, apperror.KindValidation) {
		t.Errorf("missing name: got %v, want validation error", err)
	}
	if err := svc.CreateService(ctx, &Service{Name: "X-Ray", Price: -1}); !apperror.IsKind(err, apperror.KindValidation) {
		t.Errorf("negative price: got %v, want validation error", err)
	}
}

func TestCreateInvestigationType(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	backing := &Service{Name: "Chest X-Ray", Price: 7500, Category: "radiology"}
	if err := svc.CreateService(ctx, backing); err != nil {
		t.Fatalf("CreateService: %v", err)
	}

	it := &InvestigationType{Name: "Chest X-Ray PA", Price: 7500, Category: CategoryRadiology, ServiceID: backing.ID}
	if err := svc.CreateInvestigationType(ctx, it); err != nil {
		t.Fatalf("CreateInvestigationType: %v", err)
	}

	bad := &InvestigationType{Name: "MRI", Price: 100, Category: "surgery", ServiceID: backing.ID}
	if err := svc.CreateInvestigationType(ctx, bad); !apperror.IsKind(err, apperror.KindValidation) {
		t.Errorf("bad category: got %v, want validation error", err)
	}

	orphan := &InvestigationType{Name: "CT", Price: 100, Category: CategoryRadiology, ServiceID: uuid.New()}
	if err := svc.CreateInvestigationType(ctx, orphan); !apperror.IsKind(err, apperror.KindNotFound) {
		t.Errorf("unknown service: got %v, want not found", err)
	}
}

func TestAdjustStock(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	med := &Medication{Name: "Paracetamol 500mg", UnitPrice: 50, StockQuantity: 10}
	if err := svc.CreateMedication(ctx, med); err != nil {
		t.Fatalf("CreateMedication: %v", err)
	}

	if err := svc.AdjustStock(ctx, med.ID, -4); err != nil {
		t.Fatalf("AdjustStock: %v", err)
	}
	got, _ := svc.GetMedication(ctx, med.ID)
	if got.StockQuantity != 6 {
		t.Errorf("stock = %d, want 6", got.StockQuantity)
	}

	if err := svc.AdjustStock(ctx, med.ID, -100); !apperror.IsKind(err, apperror.KindValidation) {
		t.Errorf("overdraw: got %v, want validation error", err)
	}
}

func TestListInvestigationTypes_CategoryFilter(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	backing := &Service{Name: "Labs", Price: 100}
	_ = svc.CreateService(ctx, backing)
	_ = svc.CreateInvestigationType(ctx, &InvestigationType{Name: "FBC", Price: 100, Category: CategoryLab, ServiceID: backing.ID})
	_ = svc.CreateInvestigationType(ctx, &InvestigationType{Name: "CXR", Price: 200, Category: CategoryRadiology, ServiceID: backing.ID})

	labs, total, err := svc.ListInvestigationTypes(ctx, CategoryLab, 20, 0)
	if err != nil {
		t.Fatalf("ListInvestigationTypes: %v", err)
	}
	if total != 1 || len(labs) != 1 || labs[0].Name != "FBC" {
		t.Errorf("lab filter returned %d items", len(labs))
	}

	if _, _, err := svc.ListInvestigationTypes(ctx, "pharmacy", 20, 0); !apperror.IsKind(err, apperror.KindValidation) {
		t.Errorf("bad category filter: got %v, want validation error", err)
	}
}
