package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"time"

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

const patientCols = `id, name, date_of_birth, gender, phone, address, active, last_activity_at, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (id, name, date_of_birth, gender, phone, address, active, last_activity_at)
		VALUES ($1,$2,$3,$4,$5,$6,TRUE,NOW())`,
		p.ID, p.Name, p.DateOfBirth, p.Gender, p.Phone, p.Address,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.DateOfBirth, &p.Gender, &p.Phone, &p.Address, &p.Active, &p.LastActivityAt, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("patient not found")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET name=$2, date_of_birth=$3, gender=$4, phone=$5, address=$6, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.DateOfBirth, p.Gender, p.Phone, p.Address,
	)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patient ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var pts []*Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.Name, &p.DateOfBirth, &p.Gender, &p.Phone, &p.Address, &p.Active, &p.LastActivityAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		pts = append(pts, &p)
	}
	return pts, total, nil
}

func (r *repoPG) TouchActivity(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE patient SET last_activity_at=NOW(), active=TRUE, updated_at=NOW() WHERE id = $1`, id)
	return err
}

func (r *repoPG) MarkInactiveSince(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patient SET active=FALSE, updated_at=NOW() WHERE active AND last_activity_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
