package billing

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

const billingCols = `id, visit_id, patient_id, kind, status, total_amount, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, b *Billing) error {
	b.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO billing (id, visit_id, patient_id, kind, status, total_amount)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		b.ID, b.VisitID, b.PatientID, b.Kind, b.Status, b.TotalAmount,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Billing, error) {
	return scanBilling(r.conn(ctx).QueryRow(ctx, `SELECT `+billingCols+` FROM billing WHERE id = $1`, id))
}

func (r *repoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Billing, error) {
	return scanBilling(r.conn(ctx).QueryRow(ctx, `SELECT `+billingCols+` FROM billing WHERE id = $1 FOR UPDATE`, id))
}

func (r *repoPG) GetOpenByVisitAndKind(ctx context.Context, visitID uuid.UUID, kind string) (*Billing, error) {
	return scanBilling(r.conn(ctx).QueryRow(ctx, `
		SELECT `+billingCols+` FROM billing
		WHERE visit_id = $1 AND kind = $2 AND status NOT IN ('PAID','INSURANCE_CLAIMED')
		ORDER BY created_at LIMIT 1`, visitID, kind))
}

func (r *repoPG) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Billing, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+billingCols+` FROM billing WHERE visit_id = $1 ORDER BY created_at`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []*Billing
	for rows.Next() {
		var b Billing
		if err := rows.Scan(&b.ID, &b.VisitID, &b.PatientID, &b.Kind, &b.Status, &b.TotalAmount, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		bills = append(bills, &b)
	}
	return bills, nil
}

func (r *repoPG) AppendLineItems(ctx context.Context, billingID uuid.UUID, items []*LineItem) error {
	var total int64
	for _, it := range items {
		it.ID = uuid.New()
		it.BillingID = billingID
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO billing_line_item (id, billing_id, service_id, description, quantity, unit_price, total_price)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			it.ID, it.BillingID, it.ServiceID, it.Description, it.Quantity, it.UnitPrice, it.TotalPrice,
		)
		if err != nil {
			return err
		}
		total += it.TotalPrice
	}
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE billing SET total_amount = total_amount + $2, updated_at=NOW() WHERE id = $1`,
		billingID, total)
	return err
}

func (r *repoPG) ListLineItems(ctx context.Context, billingID uuid.UUID) ([]*LineItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, billing_id, service_id, description, quantity, unit_price, total_price, created_at
		FROM billing_line_item WHERE billing_id = $1 ORDER BY created_at`, billingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*LineItem
	for rows.Next() {
		var it LineItem
		if err := rows.Scan(&it.ID, &it.BillingID, &it.ServiceID, &it.Description, &it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from []string, to string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE billing SET status=$3, updated_at=NOW() WHERE id = $1 AND status = ANY($2)`,
		id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) AddPayment(ctx context.Context, p *Payment) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO payment (id, billing_id, amount, method, reference)
		VALUES ($1,$2,$3,$4,$5)`,
		p.ID, p.BillingID, p.Amount, p.Method, p.Reference,
	)
	return err
}

func (r *repoPG) SumPayments(ctx context.Context, billingID uuid.UUID) (int64, error) {
	var sum int64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payment WHERE billing_id = $1`, billingID).Scan(&sum)
	return sum, err
}

func (r *repoPG) ListPayments(ctx context.Context, billingID uuid.UUID) ([]*Payment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, billing_id, amount, method, reference, created_at
		FROM payment WHERE billing_id = $1 ORDER BY created_at`, billingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pmts []*Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.BillingID, &p.Amount, &p.Method, &p.Reference, &p.CreatedAt); err != nil {
			return nil, err
		}
		pmts = append(pmts, &p)
	}
	return pmts, nil
}

func scanBilling(row pgx.Row) (*Billing, error) {
	var b Billing
	err := row.Scan(&b.ID, &b.VisitID, &b.PatientID, &b.Kind, &b.Status, &b.TotalAmount, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("billing not found")
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
