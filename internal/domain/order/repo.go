package order

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Order, error)
	ListQueue(ctx context.Context, orderType string, statuses []string, limit, offset int) ([]*Order, int, error)
	// UpdateOrderStatus is a compare-and-set; reports whether a row changed.
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, from []string, to string) (bool, error)
	// SetOrderResult completes the order with its result. Returns false when
	// the order was already completed (or never released), making repeated
	// result submissions no-ops.
	SetOrderResult(ctx context.Context, id uuid.UUID, result string) (bool, error)
	// ReleaseUnpaidByBilling flips every UNPAID order and batch order tied to
	// the billing to QUEUED; returns how many rows changed.
	ReleaseUnpaidByBilling(ctx context.Context, visitID, billingID uuid.UUID) (int64, error)
	// CountIncomplete counts orders of the given types that are neither
	// COMPLETED nor CANCELLED, plus batch orders in the same position.
	CountIncomplete(ctx context.Context, visitID uuid.UUID, types []string) (int, error)
	CancelOpen(ctx context.Context, visitID uuid.UUID) (int64, error)

	CreateBatch(ctx context.Context, b *BatchOrder, services []*BatchOrderService) error
	GetBatch(ctx context.Context, id uuid.UUID) (*BatchOrder, error)
	// GetBatchForUpdate reads the batch with a row lock so concurrent
	// sub-service result writes serialize before the completion count; must
	// be called inside a transaction.
	GetBatchForUpdate(ctx context.Context, id uuid.UUID) (*BatchOrder, error)
	ListBatchesByVisit(ctx context.Context, visitID uuid.UUID) ([]*BatchOrder, error)
	ListBatchServices(ctx context.Context, batchID uuid.UUID) ([]*BatchOrderService, error)
	// SetBatchServiceResult records one sub-service result; false when that
	// sub-service already carries a result.
	SetBatchServiceResult(ctx context.Context, batchID, serviceID uuid.UUID, result string) (bool, error)
	// CountBatchServices returns (resulted, total) for the batch.
	CountBatchServices(ctx context.Context, batchID uuid.UUID) (int, int, error)
	UpdateBatchStatus(ctx context.Context, id uuid.UUID, from []string, to string) (bool, error)
}
