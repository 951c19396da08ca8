package appointment

import (
	"context"
	"errors"
	"time"

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

const cols = `id, patient_id, doctor_id, scheduled_at, reason, status, visit_id, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (id, patient_id, doctor_id, scheduled_at, reason, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.PatientID, a.DoctorID, a.ScheduledAt, a.Reason, a.Status,
	)
	return err
}

func (r *repoPG) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var a Appointment
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM appointment WHERE id = $1`, id).
		Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.ScheduledAt, &a.Reason, &a.Status, &a.VisitID, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("appointment not found")
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) List(ctx context.Context, doctorID *uuid.UUID, from *time.Time, limit, offset int) ([]*Appointment, int, error) {
	where := ` WHERE ($1::uuid IS NULL OR doctor_id = $1) AND ($2::timestamptz IS NULL OR scheduled_at >= $2)`

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointment`+where, doctorID, from).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+cols+` FROM appointment`+where+`
		ORDER BY scheduled_at LIMIT $3 OFFSET $4`, doctorID, from, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.ScheduledAt, &a.Reason,
			&a.Status, &a.VisitID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, &a)
	}
	return result, total, rows.Err()
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from []string, to string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = ANY($2)`, id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) SetVisit(ctx context.Context, id, visitID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointment SET visit_id = $2, updated_at = NOW() WHERE id = $1`, id, visitID)
	return err
}
