package staff

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

const doctorCols = `id, name, role, specialty, consultation_fee, available, created_at, updated_at`

func (r *repoPG) CreateDoctor(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor (id, name, role, specialty, consultation_fee, available)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		d.ID, d.Name, d.Role, d.Specialty, d.ConsultationFee, d.Available,
	)
	return err
}

func (r *repoPG) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	var d Doctor
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctor WHERE id = $1`, id).
		Scan(&d.ID, &d.Name, &d.Role, &d.Specialty, &d.ConsultationFee, &d.Available, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("doctor not found")
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE doctor SET available=$2, updated_at=NOW() WHERE id = $1`, id, available)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("doctor not found")
	}
	return nil
}

func (r *repoPG) ListDoctors(ctx context.Context, availableOnly bool, limit, offset int) ([]*Doctor, int, error) {
	where := ``
	if availableOnly {
		where = ` WHERE available AND role = 'doctor'`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctor`+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+doctorCols+` FROM doctor`+where+` ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var docs []*Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Role, &d.Specialty, &d.ConsultationFee, &d.Available, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, 0, err
		}
		docs = append(docs, &d)
	}
	return docs, total, nil
}

func (r *repoPG) CreateAssignment(ctx context.Context, a *Assignment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO assignment (id, visit_id, patient_id, doctor_id, status)
		VALUES ($1,$2,$3,$4,$5)`,
		a.ID, a.VisitID, a.PatientID, a.DoctorID, a.Status,
	)
	return err
}

func (r *repoPG) GetAssignmentByVisit(ctx context.Context, visitID uuid.UUID) (*Assignment, error) {
	var a Assignment
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, visit_id, patient_id, doctor_id, status, created_at, updated_at
		FROM assignment WHERE visit_id = $1 AND status <> 'COMPLETED'
		ORDER BY created_at DESC LIMIT 1`, visitID).
		Scan(&a.ID, &a.VisitID, &a.PatientID, &a.DoctorID, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("assignment not found")
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) UpdateAssignmentStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE assignment SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("assignment not found")
	}
	return nil
}
