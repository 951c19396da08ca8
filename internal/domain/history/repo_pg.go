package history

import (
	"context"
	"encoding/json"

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

func (r *repoPG) CreateHistory(ctx context.Context, h *MedicalHistory) error {
	h.ID = uuid.New()
	snap, err := json.Marshal(h.Snapshot)
	if err != nil {
		return apperror.Wrap(err, apperror.KindInternal, "marshal history snapshot")
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO medical_history (id, visit_id, patient_id, snapshot)
		VALUES ($1,$2,$3,$4)`,
		h.ID, h.VisitID, h.PatientID, snap,
	)
	return err
}

func (r *repoPG) ListHistoryByVisit(ctx context.Context, visitID uuid.UUID) ([]*MedicalHistory, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, visit_id, patient_id, snapshot, created_at
		FROM medical_history WHERE visit_id = $1 ORDER BY created_at`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHistories(rows)
}

func (r *repoPG) ListHistoryByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*MedicalHistory, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM medical_history WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, visit_id, patient_id, snapshot, created_at
		FROM medical_history WHERE patient_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list, err := scanHistories(rows)
	return list, total, err
}

func scanHistories(rows pgx.Rows) ([]*MedicalHistory, error) {
	var result []*MedicalHistory
	for rows.Next() {
		var h MedicalHistory
		var snap []byte
		if err := rows.Scan(&h.ID, &h.VisitID, &h.PatientID, &snap, &h.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(snap, &h.Snapshot); err != nil {
			return nil, apperror.Wrap(err, apperror.KindInternal, "unmarshal history snapshot")
		}
		result = append(result, &h)
	}
	return result, rows.Err()
}

const auditCols = `id, user_id, user_roles, resource_type, resource_id, action, method, path, ip_address, request_id, status_code, created_at`

func (r *repoPG) CreateAuditEvent(ctx context.Context, e *AuditEvent) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO audit_event (id, user_id, user_roles, resource_type, resource_id, action, method, path, ip_address, request_id, status_code, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		e.ID, e.UserID, e.UserRoles, e.ResourceType, e.ResourceID, e.Action,
		e.Method, e.Path, e.IPAddress, e.RequestID, e.StatusCode, e.CreatedAt,
	)
	return err
}

func (r *repoPG) ListAuditEvents(ctx context.Context, limit, offset int) ([]*AuditEvent, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM audit_event`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+auditCols+` FROM audit_event
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*AuditEvent
	for rows.Next() {
		var e AuditEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.UserRoles, &e.ResourceType, &e.ResourceID,
			&e.Action, &e.Method, &e.Path, &e.IPAddress, &e.RequestID, &e.StatusCode, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, &e)
	}
	return result, total, rows.Err()
}
