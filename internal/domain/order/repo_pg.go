package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careflow/hms/internal/platform/db"
	"github.com/careflow/hms/pkg/apperror"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const orderCols = `id, visit_id, patient_id, billing_id, type, status, service_id,
	description, quantity, price, result, resulted_at, created_at, updated_at`

func (r *repoPG) CreateOrder(ctx context.Context, o *Order) error {
	o.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO clinical_order (id, visit_id, patient_id, billing_id, type, status, service_id, description, quantity, price)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		o.ID, o.VisitID, o.PatientID, o.BillingID, o.Type, o.Status, o.ServiceID, o.Description, o.Quantity, o.Price,
	)
	return err
}

func (r *repoPG) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	return scanOrder(r.conn(ctx).QueryRow(ctx, `SELECT `+orderCols+` FROM clinical_order WHERE id = $1`, id))
}

func (r *repoPG) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Order, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+orderCols+` FROM clinical_order WHERE visit_id = $1 ORDER BY created_at`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *repoPG) ListQueue(ctx context.Context, orderType string, statuses []string, limit, offset int) ([]*Order, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM clinical_order WHERE type = $1 AND status = ANY($2)`,
		orderType, statuses).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+orderCols+` FROM clinical_order
		WHERE type = $1 AND status = ANY($2)
		ORDER BY created_at LIMIT $3 OFFSET $4`,
		orderType, statuses, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	orders, err := collectOrders(rows)
	return orders, total, err
}

func (r *repoPG) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from []string, to string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE clinical_order SET status=$3, updated_at=NOW() WHERE id = $1 AND status = ANY($2)`,
		id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) SetOrderResult(ctx context.Context, id uuid.UUID, result string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE clinical_order SET result=$2, status='COMPLETED', resulted_at=NOW(), updated_at=NOW()
		WHERE id = $1 AND status IN ('QUEUED','IN_PROGRESS')`,
		id, result)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) ReleaseUnpaidByBilling(ctx context.Context, visitID, billingID uuid.UUID) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE clinical_order SET status='QUEUED', updated_at=NOW()
		WHERE visit_id = $1 AND billing_id = $2 AND status='UNPAID'`,
		visitID, billingID)
	if err != nil {
		return 0, err
	}
	n := tag.RowsAffected()

	tag, err = r.conn(ctx).Exec(ctx, `
		UPDATE batch_order SET status='QUEUED', updated_at=NOW()
		WHERE visit_id = $1 AND billing_id = $2 AND status='UNPAID'`,
		visitID, billingID)
	if err != nil {
		return n, err
	}
	return n + tag.RowsAffected(), nil
}

func (r *repoPG) CountIncomplete(ctx context.Context, visitID uuid.UUID, types []string) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM clinical_order
			 WHERE visit_id = $1 AND type = ANY($2) AND status NOT IN ('COMPLETED','CANCELLED'))
			+
			(SELECT COUNT(*) FROM batch_order
			 WHERE visit_id = $1 AND status NOT IN ('COMPLETED','CANCELLED'))`,
		visitID, types).Scan(&n)
	return n, err
}

func (r *repoPG) CancelOpen(ctx context.Context, visitID uuid.UUID) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE clinical_order SET status='CANCELLED', updated_at=NOW()
		WHERE visit_id = $1 AND status NOT IN ('COMPLETED','CANCELLED')`, visitID)
	if err != nil {
		return 0, err
	}
	n := tag.RowsAffected()

	tag, err = r.conn(ctx).Exec(ctx, `
		UPDATE batch_order SET status='CANCELLED', updated_at=NOW()
		WHERE visit_id = $1 AND status NOT IN ('COMPLETED','CANCELLED')`, visitID)
	if err != nil {
		return n, err
	}
	return n + tag.RowsAffected(), nil
}

func (r *repoPG) CreateBatch(ctx context.Context, b *BatchOrder, services []*BatchOrderService) error {
	b.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO batch_order (id, visit_id, patient_id, billing_id, type, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		b.ID, b.VisitID, b.PatientID, b.BillingID, b.Type, b.Status,
	)
	if err != nil {
		return err
	}
	for _, s := range services {
		s.ID = uuid.New()
		s.BatchOrderID = b.ID
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO batch_order_service (id, batch_order_id, investigation_type_id, name, category, price)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			s.ID, s.BatchOrderID, s.InvestigationTypeID, s.Name, s.Category, s.Price,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetBatch(ctx context.Context, id uuid.UUID) (*BatchOrder, error) {
	var b BatchOrder
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, visit_id, patient_id, billing_id, type, status, created_at, updated_at
		FROM batch_order WHERE id = $1`, id).
		Scan(&b.ID, &b.VisitID, &b.PatientID, &b.BillingID, &b.Type, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("batch order not found")
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repoPG) GetBatchForUpdate(ctx context.Context, id uuid.UUID) (*BatchOrder, error) {
	var b BatchOrder
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, visit_id, patient_id, billing_id, type, status, created_at, updated_at
		FROM batch_order WHERE id = $1 FOR UPDATE`, id).
		Scan(&b.ID, &b.VisitID, &b.PatientID, &b.BillingID, &b.Type, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("batch order not found")
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repoPG) ListBatchesByVisit(ctx context.Context, visitID uuid.UUID) ([]*BatchOrder, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, visit_id, patient_id, billing_id, type, status, created_at, updated_at
		FROM batch_order WHERE visit_id = $1 ORDER BY created_at`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []*BatchOrder
	for rows.Next() {
		var b BatchOrder
		if err := rows.Scan(&b.ID, &b.VisitID, &b.PatientID, &b.BillingID, &b.Type, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		batches = append(batches, &b)
	}
	return batches, nil
}

func (r *repoPG) ListBatchServices(ctx context.Context, batchID uuid.UUID) ([]*BatchOrderService, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, batch_order_id, investigation_type_id, name, category, price, result, resulted_at
		FROM batch_order_service WHERE batch_order_id = $1 ORDER BY name`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var svcs []*BatchOrderService
	for rows.Next() {
		var s BatchOrderService
		if err := rows.Scan(&s.ID, &s.BatchOrderID, &s.InvestigationTypeID, &s.Name, &s.Category, &s.Price, &s.Result, &s.ResultedAt); err != nil {
			return nil, err
		}
		svcs = append(svcs, &s)
	}
	return svcs, nil
}

func (r *repoPG) SetBatchServiceResult(ctx context.Context, batchID, serviceID uuid.UUID, result string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE batch_order_service SET result=$3, resulted_at=NOW()
		WHERE id = $2 AND batch_order_id = $1 AND result IS NULL`,
		batchID, serviceID, result)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) CountBatchServices(ctx context.Context, batchID uuid.UUID) (int, int, error) {
	var done, total int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE result IS NOT NULL), COUNT(*)
		FROM batch_order_service WHERE batch_order_id = $1`, batchID).Scan(&done, &total)
	return done, total, err
}

func (r *repoPG) UpdateBatchStatus(ctx context.Context, id uuid.UUID, from []string, to string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE batch_order SET status=$3, updated_at=NOW() WHERE id = $1 AND status = ANY($2)`,
		id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.VisitID, &o.PatientID, &o.BillingID, &o.Type, &o.Status, &o.ServiceID,
		&o.Description, &o.Quantity, &o.Price, &o.Result, &o.ResultedAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("order not found")
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]*Order, error) {
	var orders []*Order
	for rows.Next() {
		var o Order
		err := rows.Scan(
			&o.ID, &o.VisitID, &o.PatientID, &o.BillingID, &o.Type, &o.Status, &o.ServiceID,
			&o.Description, &o.Quantity, &o.Price, &o.Result, &o.ResultedAt, &o.CreatedAt, &o.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, &o)
	}
	return orders, nil
}
