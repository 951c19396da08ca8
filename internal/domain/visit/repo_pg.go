package visit

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

const visitCols = `id, uid, patient_id, status, queue_type, assignment_id, emergency, diagnosis, created_at, updated_at, completed_at`

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	v.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO visit (id, uid, patient_id, status, queue_type, assignment_id, emergency)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		v.ID, v.UID, v.PatientID, v.Status, v.QueueType, v.AssignmentID, v.Emergency,
	)
	return err
}

func (r *repoPG) Get(ctx context.Context, id uuid.UUID) (*Visit, error) {
	var v Visit
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+visitCols+` FROM visit WHERE id = $1`, id).
		Scan(&v.ID, &v.UID, &v.PatientID, &v.Status, &v.QueueType, &v.AssignmentID,
			&v.Emergency, &v.Diagnosis, &v.CreatedAt, &v.UpdatedAt, &v.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("visit not found")
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Visit, error) {
	var v Visit
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+visitCols+` FROM visit WHERE id = $1 FOR UPDATE`, id).
		Scan(&v.ID, &v.UID, &v.PatientID, &v.Status, &v.QueueType, &v.AssignmentID,
			&v.Emergency, &v.Diagnosis, &v.CreatedAt, &v.UpdatedAt, &v.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("visit not found")
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from []string, to string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE visit SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = ANY($2)`, id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) SetQueueType(ctx context.Context, id uuid.UUID, queueType string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE visit SET queue_type = $2, updated_at = NOW() WHERE id = $1`, id, queueType)
	return err
}

func (r *repoPG) SetAssignment(ctx context.Context, id, assignmentID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE visit SET assignment_id = $2, updated_at = NOW() WHERE id = $1`, id, assignmentID)
	return err
}

func (r *repoPG) Complete(ctx context.Context, id uuid.UUID, diagnosis string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE visit SET status = $3, diagnosis = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $4`,
		id, diagnosis, StatusCompleted, StatusUnderDoctorReview)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) CreateVitals(ctx context.Context, vt *Vitals) error {
	vt.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO vitals (id, visit_id, temperature, blood_pressure, heart_rate, respiratory_rate, oxygen_saturation, notes, recorded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		vt.ID, vt.VisitID, vt.Temperature, vt.BloodPressure, vt.HeartRate,
		vt.RespiratoryRate, vt.OxygenSaturation, vt.Notes, vt.RecordedBy,
	)
	return err
}

func (r *repoPG) ListVitalsByVisit(ctx context.Context, visitID uuid.UUID) ([]*Vitals, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, visit_id, temperature, blood_pressure, heart_rate, respiratory_rate, oxygen_saturation, notes, recorded_by, created_at
		FROM vitals WHERE visit_id = $1 ORDER BY created_at`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Vitals
	for rows.Next() {
		var vt Vitals
		if err := rows.Scan(&vt.ID, &vt.VisitID, &vt.Temperature, &vt.BloodPressure, &vt.HeartRate,
			&vt.RespiratoryRate, &vt.OxygenSaturation, &vt.Notes, &vt.RecordedBy, &vt.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &vt)
	}
	return result, rows.Err()
}

func (r *repoPG) ListByStatus(ctx context.Context, statuses []string, limit, offset int) ([]*Visit, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM visit WHERE status = ANY($1)`, statuses).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+visitCols+` FROM visit WHERE status = ANY($1)
		ORDER BY created_at LIMIT $2 OFFSET $3`, statuses, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list, err := scanVisits(rows)
	return list, total, err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Visit, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM visit WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+visitCols+` FROM visit WHERE patient_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list, err := scanVisits(rows)
	return list, total, err
}

func scanVisits(rows pgx.Rows) ([]*Visit, error) {
	var result []*Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.UID, &v.PatientID, &v.Status, &v.QueueType, &v.AssignmentID,
			&v.Emergency, &v.Diagnosis, &v.CreatedAt, &v.UpdatedAt, &v.CompletedAt); err != nil {
			return nil, err
		}
		result = append(result, &v)
	}
	return result, rows.Err()
}
