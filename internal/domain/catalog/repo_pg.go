package catalog

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

const svcCols = `id, name, price, category, active, created_at, updated_at`

func (r *repoPG) CreateService(ctx context.Context, s *Service) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO service (id, name, price, category, active)
		VALUES ($1,$2,$3,$4,$5)`,
		s.ID, s.Name, s.Price, s.Category, s.Active,
	)
	return err
}

func (r *repoPG) GetService(ctx context.Context, id uuid.UUID) (*Service, error) {
	var s Service
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+svcCols+` FROM service WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Price, &s.Category, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("service not found")
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) UpdateService(ctx context.Context, s *Service) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE service SET name=$2, price=$3, category=$4, active=$5, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.Name, s.Price, s.Category, s.Active,
	)
	return err
}

func (r *repoPG) ListServices(ctx context.Context, limit, offset int) ([]*Service, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM service`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+svcCols+` FROM service ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var svcs []*Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Price, &s.Category, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		svcs = append(svcs, &s)
	}
	return svcs, total, nil
}

func (r *repoPG) CreateInvestigationType(ctx context.Context, it *InvestigationType) error {
	it.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO investigation_type (id, name, price, category, service_id)
		VALUES ($1,$2,$3,$4,$5)`,
		it.ID, it.Name, it.Price, it.Category, it.ServiceID,
	)
	return err
}

func (r *repoPG) GetInvestigationType(ctx context.Context, id uuid.UUID) (*InvestigationType, error) {
	var it InvestigationType
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, name, price, category, service_id, created_at
		FROM investigation_type WHERE id = $1`, id).
		Scan(&it.ID, &it.Name, &it.Price, &it.Category, &it.ServiceID, &it.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("investigation type not found")
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *repoPG) ListInvestigationTypes(ctx context.Context, category string, limit, offset int) ([]*InvestigationType, int, error) {
	where := ``
	countArgs := []interface{}{}
	if category != "" {
		where = ` WHERE category = $1`
		countArgs = append(countArgs, category)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM investigation_type`+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args := append(countArgs, limit, offset)
	sql := `SELECT id, name, price, category, service_id, created_at FROM investigation_type` + where
	if category != "" {
		sql += ` ORDER BY name LIMIT $2 OFFSET $3`
	} else {
		sql += ` ORDER BY name LIMIT $1 OFFSET $2`
	}
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var its []*InvestigationType
	for rows.Next() {
		var it InvestigationType
		if err := rows.Scan(&it.ID, &it.Name, &it.Price, &it.Category, &it.ServiceID, &it.CreatedAt); err != nil {
			return nil, 0, err
		}
		its = append(its, &it)
	}
	return its, total, nil
}

func (r *repoPG) CreateMedication(ctx context.Context, m *Medication) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medication (id, name, unit_price, stock_quantity)
		VALUES ($1,$2,$3,$4)`,
		m.ID, m.Name, m.UnitPrice, m.StockQuantity,
	)
	return err
}

func (r *repoPG) GetMedication(ctx context.Context, id uuid.UUID) (*Medication, error) {
	var m Medication
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, name, unit_price, stock_quantity, created_at, updated_at
		FROM medication WHERE id = $1`, id).
		Scan(&m.ID, &m.Name, &m.UnitPrice, &m.StockQuantity, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("medication not found")
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repoPG) UpdateMedication(ctx context.Context, m *Medication) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE medication SET name=$2, unit_price=$3, stock_quantity=$4, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.Name, m.UnitPrice, m.StockQuantity,
	)
	return err
}

func (r *repoPG) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medication SET stock_quantity = stock_quantity + $2, updated_at=NOW()
		WHERE id = $1 AND stock_quantity + $2 >= 0`, id, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.Validation("insufficient stock")
	}
	return nil
}

func (r *repoPG) ListMedications(ctx context.Context, limit, offset int) ([]*Medication, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medication`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, name, unit_price, stock_quantity, created_at, updated_at
		FROM medication ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var meds []*Medication
	for rows.Next() {
		var m Medication
		if err := rows.Scan(&m.ID, &m.Name, &m.UnitPrice, &m.StockQuantity, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, 0, err
		}
		meds = append(meds, &m)
	}
	return meds, total, nil
}
