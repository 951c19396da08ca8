package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/careflow/hms/internal/domain/billing"
	"github.com/careflow/hms/internal/domain/catalog"
	"github.com/careflow/hms/internal/platform/db"
	"github.com/careflow/hms/pkg/apperror"
)

// CompletionObserver is notified whenever an order or batch order on a visit
// reaches COMPLETED, so the visit engine can re-evaluate completion.
// Implemented by the visit service.
type CompletionObserver interface {
	OrderCompleted(ctx context.Context, visitID uuid.UUID) error
}

// CatalogReader is the slice of the catalog the order subsystem prices from.
type CatalogReader interface {
	GetInvestigationType(ctx context.Context, id uuid.UUID) (*catalog.InvestigationType, error)
	GetMedication(ctx context.Context, id uuid.UUID) (*catalog.Medication, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
}

// Ledger is the slice of the billing service the order subsystem charges
// through.
type Ledger interface {
	OpenOrExtend(ctx context.Context, visitID, patientID uuid.UUID, kind string, items []*billing.LineItem) (*billing.Billing, error)
	IsPaid(ctx context.Context, billingID uuid.UUID) (bool, error)
}

type Service struct {
	repo     Repository
	cat      CatalogReader
	ledger   Ledger
	tx       db.TxRunner
	observer CompletionObserver
}

func NewService(repo Repository, cat CatalogReader, ledger Ledger, tx db.TxRunner) *Service {
	return &Service{repo: repo, cat: cat, ledger: ledger, tx: tx}
}

// SetCompletionObserver wires the visit engine in after construction.
func (s *Service) SetCompletionObserver(o CompletionObserver) {
	s.observer = o
}

// MedicationRequest is one prescribed medication line.
type MedicationRequest struct {
	MedicationID uuid.UUID `json:"medication_id"`
	Quantity     int       `json:"quantity"`
}

// CreateDiagnostics creates one UNPAID order per investigation type and
// charges them onto the visit's coalesced diagnostics billing.
func (s *Service) CreateDiagnostics(ctx context.Context, visitID, patientID uuid.UUID, orderType string, investigationTypeIDs []uuid.UUID) ([]*Order, error) {
	if orderType != TypeLab && orderType != TypeRadiology {
		return nil, apperror.Validation("order type must be lab or radiology")
	}
	if len(investigationTypeIDs) == 0 {
		return nil, apperror.Validation("at least one investigation type is required")
	}

	var orders []*Order
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var items []*billing.LineItem
		var pending []*Order
		for _, itID := range investigationTypeIDs {
			it, err := s.cat.GetInvestigationType(ctx, itID)
			if err != nil {
				return err
			}
			if it.Category != orderType {
				return apperror.Validation("investigation type " + it.Name + " is not a " + orderType + " investigation")
			}
			serviceID := it.ID
			pending = append(pending, &Order{
				VisitID:     visitID,
				PatientID:   patientID,
				Type:        orderType,
				Status:      StatusUnpaid,
				ServiceID:   &serviceID,
				Description: it.Name,
				Quantity:    1,
				Price:       it.Price,
			})
			items = append(items, &billing.LineItem{
				ServiceID:   &it.ServiceID,
				Description: it.Name,
				Quantity:    1,
				UnitPrice:   it.Price,
				TotalPrice:  it.Price,
			})
		}

		b, err := s.ledger.OpenOrExtend(ctx, visitID, patientID, billing.KindDiagnostics, items)
		if err != nil {
			return err
		}
		for _, o := range pending {
			o.BillingID = b.ID
			if err := s.repo.CreateOrder(ctx, o); err != nil {
				return err
			}
		}
		orders = pending
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// CreateBatch bundles multiple investigations into one addressable batch
// order, priced from the catalog onto the coalesced diagnostics billing.
func (s *Service) CreateBatch(ctx context.Context, visitID, patientID uuid.UUID, batchType string, investigationTypeIDs []uuid.UUID) (*BatchOrder, error) {
	if batchType != BatchLab && batchType != BatchRadiology && batchType != BatchMixed {
		return nil, apperror.Validation("batch type must be LAB, RADIOLOGY, or MIXED")
	}
	if len(investigationTypeIDs) == 0 {
		return nil, apperror.Validation("at least one investigation type is required")
	}

	var batch *BatchOrder
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var items []*billing.LineItem
		var services []*BatchOrderService
		for _, itID := range investigationTypeIDs {
			it, err := s.cat.GetInvestigationType(ctx, itID)
			if err != nil {
				return err
			}
			if batchType == BatchLab && it.Category != catalog.CategoryLab {
				return apperror.Validation("LAB batch cannot include " + it.Name)
			}
			if batchType == BatchRadiology && it.Category != catalog.CategoryRadiology {
				return apperror.Validation("RADIOLOGY batch cannot include " + it.Name)
			}
			services = append(services, &BatchOrderService{
				InvestigationTypeID: it.ID,
				Name:                it.Name,
				Category:            it.Category,
				Price:               it.Price,
			})
			items = append(items, &billing.LineItem{
				ServiceID:   &it.ServiceID,
				Description: it.Name,
				Quantity:    1,
				UnitPrice:   it.Price,
				TotalPrice:  it.Price,
			})
		}

		b, err := s.ledger.OpenOrExtend(ctx, visitID, patientID, billing.KindDiagnostics, items)
		if err != nil {
			return err
		}
		batch = &BatchOrder{
			VisitID:   visitID,
			PatientID: patientID,
			BillingID: b.ID,
			Type:      batchType,
			Status:    StatusUnpaid,
		}
		return s.repo.CreateBatch(ctx, batch, services)
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// CreateMedicationOrders prescribes medications against the visit. Rejected
// with PendingInvestigations while any lab/radiology/batch order on the visit
// is still incomplete, so nothing is prescribed before the results are in.
func (s *Service) CreateMedicationOrders(ctx context.Context, visitID, patientID uuid.UUID, reqs []MedicationRequest) ([]*Order, error) {
	if len(reqs) == 0 {
		return nil, apperror.Validation("at least one medication is required")
	}

	var orders []*Order
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		incomplete, err := s.repo.CountIncomplete(ctx, visitID, []string{TypeLab, TypeRadiology})
		if err != nil {
			return err
		}
		if incomplete > 0 {
			return apperror.PendingInvestigations("visit has incomplete investigations")
		}

		var items []*billing.LineItem
		var pending []*Order
		for _, req := range reqs {
			if req.Quantity <= 0 {
				return apperror.Validation("medication quantity must be positive")
			}
			med, err := s.cat.GetMedication(ctx, req.MedicationID)
			if err != nil {
				return err
			}
			medID := med.ID
			total := med.UnitPrice * int64(req.Quantity)
			pending = append(pending, &Order{
				VisitID:     visitID,
				PatientID:   patientID,
				Type:        TypeMedication,
				Status:      StatusUnpaid,
				ServiceID:   &medID,
				Description: med.Name,
				Quantity:    req.Quantity,
				Price:       total,
			})
			items = append(items, &billing.LineItem{
				Description: med.Name,
				Quantity:    req.Quantity,
				UnitPrice:   med.UnitPrice,
				TotalPrice:  total,
			})
		}

		b, err := s.ledger.OpenOrExtend(ctx, visitID, patientID, billing.KindPharmacy, items)
		if err != nil {
			return err
		}
		for _, o := range pending {
			o.BillingID = b.ID
			if err := s.repo.CreateOrder(ctx, o); err != nil {
				return err
			}
		}
		orders = pending
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// Start moves a released order into the department's hands.
func (s *Service) Start(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	var result *Order
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status == StatusUnpaid {
			return apperror.PaymentRequired("order billing has not been paid")
		}
		ok, err := s.repo.UpdateOrderStatus(ctx, orderID, []string{StatusQueued}, StatusInProgress)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.New(apperror.KindConflict, "order is not queued")
		}
		o.Status = StatusInProgress
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordResult completes a diagnostic order with its result. Submitting the
// same result twice is a no-op: the completion write only fires once, and the
// visit engine is only notified on the transition.
func (s *Service) RecordResult(ctx context.Context, orderID uuid.UUID, result string) (*Order, error) {
	if result == "" {
		return nil, apperror.Validation("result is required")
	}

	var out *Order
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Type == TypeMedication {
			return apperror.Validation("medication orders are dispensed, not resulted")
		}
		if o.Status == StatusUnpaid {
			return apperror.PaymentRequired("order billing has not been paid")
		}
		if o.Status == StatusCancelled {
			return apperror.New(apperror.KindConflict, "order is cancelled")
		}

		changed, err := s.repo.SetOrderResult(ctx, orderID, result)
		if err != nil {
			return err
		}
		if changed && s.observer != nil {
			if err := s.observer.OrderCompleted(ctx, o.VisitID); err != nil {
				return err
			}
		}
		out, err = s.repo.GetOrder(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecordBatchServiceResult records one sub-service result on a batch order.
// The batch completes only when every sub-service carries a result, checked
// by count rather than an event counter so retries stay correct.
func (s *Service) RecordBatchServiceResult(ctx context.Context, batchID, serviceID uuid.UUID, result string) (*BatchOrder, error) {
	if result == "" {
		return nil, apperror.Validation("result is required")
	}

	var out *BatchOrder
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		// Row-lock the batch so writers of the last two sub-service results
		// serialize; without it both can count done < total and the batch
		// never reaches COMPLETED.
		b, err := s.repo.GetBatchForUpdate(ctx, batchID)
		if err != nil {
			return err
		}
		if b.Status == StatusUnpaid {
			return apperror.PaymentRequired("batch order billing has not been paid")
		}
		if b.Status == StatusCancelled {
			return apperror.New(apperror.KindConflict, "batch order is cancelled")
		}

		changed, err := s.repo.SetBatchServiceResult(ctx, batchID, serviceID, result)
		if err != nil {
			return err
		}

		done, total, err := s.repo.CountBatchServices(ctx, batchID)
		if err != nil {
			return err
		}
		if total > 0 && done == total {
			completedNow, err := s.repo.UpdateBatchStatus(ctx, batchID,
				[]string{StatusQueued, StatusInProgress}, StatusCompleted)
			if err != nil {
				return err
			}
			if completedNow && changed && s.observer != nil {
				if err := s.observer.OrderCompleted(ctx, b.VisitID); err != nil {
					return err
				}
			}
		}
		out, err = s.repo.GetBatch(ctx, batchID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Dispense completes a medication order and decrements pharmacy stock in the
// same transaction.
func (s *Service) Dispense(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	var out *Order
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Type != TypeMedication {
			return apperror.Validation("only medication orders can be dispensed")
		}
		if o.Status == StatusUnpaid {
			return apperror.PaymentRequired("order billing has not been paid")
		}

		changed, err := s.repo.SetOrderResult(ctx, orderID, "dispensed")
		if err != nil {
			return err
		}
		if changed && o.ServiceID != nil {
			if err := s.cat.AdjustStock(ctx, *o.ServiceID, -o.Quantity); err != nil {
				return err
			}
		}
		out, err = s.repo.GetOrder(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReleaseUnpaid implements billing.OrderReleaser: the bulk UNPAID→QUEUED
// flip when a billing settles. Runs inside the payment transaction.
func (s *Service) ReleaseUnpaid(ctx context.Context, visitID, billingID uuid.UUID) error {
	_, err := s.repo.ReleaseUnpaidByBilling(ctx, visitID, billingID)
	return err
}

// ReleaseMedicationOrders flips the visit's paid-but-unreleased medication
// orders to QUEUED for pharmacy pickup. Called at visit completion.
func (s *Service) ReleaseMedicationOrders(ctx context.Context, visitID uuid.UUID) error {
	orders, err := s.repo.ListByVisit(ctx, visitID)
	if err != nil {
		return err
	}
	for _, o := range orders {
		if o.Type != TypeMedication || o.Status != StatusUnpaid {
			continue
		}
		paid, err := s.ledger.IsPaid(ctx, o.BillingID)
		if err != nil {
			return err
		}
		if !paid {
			continue
		}
		if _, err := s.repo.UpdateOrderStatus(ctx, o.ID, []string{StatusUnpaid}, StatusQueued); err != nil {
			return err
		}
	}
	return nil
}

// DiagnosticTypes reports which diagnostic departments have live orders on
// the visit, from the union of individual orders and batch orders.
func (s *Service) DiagnosticTypes(ctx context.Context, visitID uuid.UUID) (hasLab, hasRadiology bool, err error) {
	orders, err := s.repo.ListByVisit(ctx, visitID)
	if err != nil {
		return false, false, err
	}
	for _, o := range orders {
		if o.Status == StatusCancelled {
			continue
		}
		switch o.Type {
		case TypeLab:
			hasLab = true
		case TypeRadiology:
			hasRadiology = true
		}
	}
	batches, err := s.repo.ListBatchesByVisit(ctx, visitID)
	if err != nil {
		return false, false, err
	}
	for _, b := range batches {
		if b.Status == StatusCancelled {
			continue
		}
		switch b.Type {
		case BatchLab:
			hasLab = true
		case BatchRadiology:
			hasRadiology = true
		case BatchMixed:
			hasLab, hasRadiology = true, true
		}
	}
	return hasLab, hasRadiology, nil
}

// AllInvestigationsComplete reports whether every lab/radiology/batch order
// on the visit is COMPLETED (or CANCELLED).
func (s *Service) AllInvestigationsComplete(ctx context.Context, visitID uuid.UUID) (bool, error) {
	n, err := s.repo.CountIncomplete(ctx, visitID, []string{TypeLab, TypeRadiology})
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// CancelOpen cancels every non-terminal order on the visit.
func (s *Service) CancelOpen(ctx context.Context, visitID uuid.UUID) error {
	_, err := s.repo.CancelOpen(ctx, visitID)
	return err
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	return s.repo.GetOrder(ctx, id)
}

func (s *Service) GetBatch(ctx context.Context, id uuid.UUID) (*BatchOrder, error) {
	return s.repo.GetBatch(ctx, id)
}

func (s *Service) BatchServices(ctx context.Context, batchID uuid.UUID) ([]*BatchOrderService, error) {
	return s.repo.ListBatchServices(ctx, batchID)
}

func (s *Service) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Order, error) {
	return s.repo.ListByVisit(ctx, visitID)
}

// Queue lists the department work queue: released orders of one type.
func (s *Service) Queue(ctx context.Context, orderType string, limit, offset int) ([]*Order, int, error) {
	if orderType != TypeLab && orderType != TypeRadiology && orderType != TypeMedication {
		return nil, 0, apperror.Validation("unknown queue")
	}
	return s.repo.ListQueue(ctx, orderType, []string{StatusQueued, StatusInProgress}, limit, offset)
}
