package billing

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, b *Billing) error
	GetByID(ctx context.Context, id uuid.UUID) (*Billing, error)
	// GetForUpdate reads the billing with a row lock so that concurrent
	// payment transactions against the same billing serialize; must be
	// called inside a transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Billing, error)
	// GetOpenByVisitAndKind returns the visit's billing of the given kind
	// that can still accept line items (not PAID / INSURANCE_CLAIMED).
	GetOpenByVisitAndKind(ctx context.Context, visitID uuid.UUID, kind string) (*Billing, error)
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Billing, error)
	// AppendLineItems inserts the items and increments the billing total in
	// the same statement set; must be called inside a transaction.
	AppendLineItems(ctx context.Context, billingID uuid.UUID, items []*LineItem) error
	ListLineItems(ctx context.Context, billingID uuid.UUID) ([]*LineItem, error)
	// UpdateStatus performs a compare-and-set on the billing status and
	// reports whether the row was updated.
	UpdateStatus(ctx context.Context, id uuid.UUID, from []string, to string) (bool, error)
	AddPayment(ctx context.Context, p *Payment) error
	SumPayments(ctx context.Context, billingID uuid.UUID) (int64, error)
	ListPayments(ctx context.Context, billingID uuid.UUID) ([]*Payment, error)
}
