package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/careflow/hms/internal/platform/db"
	"github.com/careflow/hms/pkg/apperror"
)

// OrderReleaser is the bulk-release hook the gate fires when a billing
// settles: every UNPAID order tied to the billing moves to QUEUED in one
// operation. Implemented by the order subsystem.
type OrderReleaser interface {
	ReleaseUnpaid(ctx context.Context, visitID, billingID uuid.UUID) error
}

type Service struct {
	repo     Repository
	tx       db.TxRunner
	releaser OrderReleaser
}

func NewService(repo Repository, tx db.TxRunner) *Service {
	return &Service{repo: repo, tx: tx}
}

// SetOrderReleaser wires the order subsystem in after construction; the two
// services reference each other so one side is attached late.
func (s *Service) SetOrderReleaser(r OrderReleaser) {
	s.releaser = r
}

// Open creates a billing record of the given kind with its initial line
// items. Status starts PENDING unless the emergency flag defers it.
func (s *Service) Open(ctx context.Context, visitID, patientID uuid.UUID, kind string, items []*LineItem, emergency bool) (*Billing, error) {
	if len(items) == 0 {
		return nil, apperror.Validation("at least one line item is required")
	}
	for _, it := range items {
		if err := validateItem(it); err != nil {
			return nil, err
		}
	}

	status := StatusPending
	if emergency {
		status = StatusEmergencyPending
	}
	b := &Billing{VisitID: visitID, PatientID: patientID, Kind: kind, Status: status}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, b); err != nil {
			return err
		}
		return s.repo.AppendLineItems(ctx, b.ID, items)
	})
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		b.TotalAmount += it.TotalPrice
	}
	return b, nil
}

// OpenOrExtendDiagnostics coalesces all diagnostic charges for a visit into
// one billing. See OpenOrExtend.
func (s *Service) OpenOrExtendDiagnostics(ctx context.Context, visitID, patientID uuid.UUID, items []*LineItem) (*Billing, error) {
	return s.OpenOrExtend(ctx, visitID, patientID, KindDiagnostics, items)
}

// OpenOrExtend coalesces charges of one kind for a visit into one billing:
// if an open billing of that kind exists the items are appended to it,
// otherwise a new one is created. A visit never accumulates one invoice per
// order.
func (s *Service) OpenOrExtend(ctx context.Context, visitID, patientID uuid.UUID, kind string, items []*LineItem) (*Billing, error) {
	if len(items) == 0 {
		return nil, apperror.Validation("at least one line item is required")
	}
	for _, it := range items {
		if err := validateItem(it); err != nil {
			return nil, err
		}
	}

	var b *Billing
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetOpenByVisitAndKind(ctx, visitID, kind)
		if err != nil && !apperror.IsKind(err, apperror.KindNotFound) {
			return err
		}
		if existing != nil {
			b = existing
		} else {
			b = &Billing{VisitID: visitID, PatientID: patientID, Kind: kind, Status: StatusPending}
			if err := s.repo.Create(ctx, b); err != nil {
				return err
			}
		}
		return s.repo.AppendLineItems(ctx, b.ID, items)
	})
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		b.TotalAmount += it.TotalPrice
	}
	return b, nil
}

// RecordPayment appends an immutable payment and re-derives the billing
// status from the payment sum. Reaching the full total flips the billing to
// PAID and fires the bulk release in the same transaction.
func (s *Service) RecordPayment(ctx context.Context, billingID uuid.UUID, amount int64, method string, reference *string) (*Billing, error) {
	if amount <= 0 {
		return nil, apperror.Validation("amount must be positive")
	}
	if method == "" {
		return nil, apperror.Validation("method is required")
	}

	var result *Billing
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		// Row-lock the billing so two payments landing at once recount the
		// sum one after the other; otherwise both can read a stale sum and
		// a fully paid billing stays PARTIALLY_PAID.
		b, err := s.repo.GetForUpdate(ctx, billingID)
		if err != nil {
			return err
		}
		if b.Settled() {
			return apperror.New(apperror.KindConflict, "billing is already settled")
		}

		p := &Payment{BillingID: billingID, Amount: amount, Method: method, Reference: reference}
		if err := s.repo.AddPayment(ctx, p); err != nil {
			return err
		}

		sum, err := s.repo.SumPayments(ctx, billingID)
		if err != nil {
			return err
		}

		payable := []string{StatusPending, StatusPartiallyPaid, StatusEmergencyPending, StatusPendingInsurance}
		if sum >= b.TotalAmount {
			ok, err := s.repo.UpdateStatus(ctx, billingID, payable, StatusPaid)
			if err != nil {
				return err
			}
			if !ok {
				return apperror.New(apperror.KindConflict, "billing status changed concurrently")
			}
			b.Status = StatusPaid
			if s.releaser != nil {
				if err := s.releaser.ReleaseUnpaid(ctx, b.VisitID, b.ID); err != nil {
					return err
				}
			}
		} else {
			if _, err := s.repo.UpdateStatus(ctx, billingID, []string{StatusPending}, StatusPartiallyPaid); err != nil {
				return err
			}
			if b.Status == StatusPending {
				b.Status = StatusPartiallyPaid
			}
		}
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarkDeferred moves an unpaid billing into a deferred-collection status:
// PENDING_INSURANCE for insurance claims, EMERGENCY_PENDING for emergency
// care rendered before payment.
func (s *Service) MarkDeferred(ctx context.Context, billingID uuid.UUID, status string) (*Billing, error) {
	if status != StatusPendingInsurance && status != StatusEmergencyPending {
		return nil, apperror.Validation("deferred status must be PENDING_INSURANCE or EMERGENCY_PENDING")
	}
	var result *Billing
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		ok, err := s.repo.UpdateStatus(ctx, billingID, []string{StatusPending, StatusPartiallyPaid}, status)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.New(apperror.KindConflict, "billing cannot be deferred from its current status")
		}
		result, err = s.repo.GetByID(ctx, billingID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SettleDeferred is the billing officer's reconciliation step for deferred
// billings: an approved insurance claim becomes INSURANCE_CLAIMED, a cash
// settlement becomes PAID. Either way the billing is settled and the bulk
// release fires.
func (s *Service) SettleDeferred(ctx context.Context, billingID uuid.UUID, asInsurance bool) (*Billing, error) {
	target := StatusPaid
	if asInsurance {
		target = StatusInsuranceClaimed
	}

	var result *Billing
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByID(ctx, billingID)
		if err != nil {
			return err
		}
		if !b.Deferred() {
			return apperror.New(apperror.KindConflict, "billing is not deferred")
		}
		ok, err := s.repo.UpdateStatus(ctx, billingID, []string{StatusPendingInsurance, StatusEmergencyPending}, target)
		if err != nil {
			return err
		}
		if !ok {
			return apperror.New(apperror.KindConflict, "billing status changed concurrently")
		}
		b.Status = target
		if s.releaser != nil {
			if err := s.releaser.ReleaseUnpaid(ctx, b.VisitID, b.ID); err != nil {
				return err
			}
		}
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// IsPaid is the gate predicate: true iff the billing is settled. Partial
// payments never authorize order progression.
func (s *Service) IsPaid(ctx context.Context, billingID uuid.UUID) (bool, error) {
	b, err := s.repo.GetByID(ctx, billingID)
	if err != nil {
		return false, err
	}
	return b.Settled(), nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Billing, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Billing, error) {
	return s.repo.ListByVisit(ctx, visitID)
}

func (s *Service) LineItems(ctx context.Context, billingID uuid.UUID) ([]*LineItem, error) {
	return s.repo.ListLineItems(ctx, billingID)
}

func (s *Service) Payments(ctx context.Context, billingID uuid.UUID) ([]*Payment, error) {
	return s.repo.ListPayments(ctx, billingID)
}

func validateItem(it *LineItem) error {
	if it.Description == "" {
		return apperror.Validation("line item description is required")
	}
	if it.Quantity <= 0 {
		return apperror.Validation("line item quantity must be positive")
	}
	if it.UnitPrice < 0 {
		return apperror.Validation("line item unit price must not be negative")
	}
	if it.TotalPrice == 0 {
		it.TotalPrice = it.UnitPrice * int64(it.Quantity)
	}
	return nil
}
