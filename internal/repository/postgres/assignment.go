package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/strikeprep/staffing-api/internal/model"
	"github.com/strikeprep/staffing-api/internal/repository"
	apperrors "github.com/strikeprep/staffing-api/pkg/errors"
)

const assignmentColumns = `
	id, position_id, provider_id, hospital_id, department_id, shift_id,
	status, notes, assigned_at, assigned_by, cancelled_at, cancelled_by,
	cancel_reason, created_at, updated_at
`

func (r *assignmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`
	var assignment model.Assignment
	if err := r.GetDB().GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepository) ListCurrent(ctx context.Context, scope model.ScopeFilter) ([]*model.AssignmentDetail, error) {
	query := `
		SELECT a.id, a.position_id, a.provider_id, a.hospital_id,
			   a.department_id, a.shift_id, a.status, a.notes,
			   a.assigned_at, a.assigned_by, a.cancelled_at, a.cancelled_by,
			   a.cancel_reason, a.created_at, a.updated_at,
			   COALESCE(pr.first_name || ' ' || pr.last_name, '') AS provider_name,
			   COALESCE(sh.label, '') AS shift_label,
			   COALESCE(sv.name, '') AS service_name,
			   COALESCE(d.name, '') AS department_name,
			   COALESCE(h.name, '') AS hospital_name,
			   COALESCE(jt.code, '') AS job_type_code
		FROM assignments a
		LEFT JOIN providers pr ON pr.id = a.provider_id
		LEFT JOIN positions p ON p.id = a.position_id
		LEFT JOIN shifts sh ON sh.id = a.shift_id
		LEFT JOIN services sv ON sv.id = p.service_id
		LEFT JOIN departments d ON d.id = a.department_id
		LEFT JOIN hospitals h ON h.id = a.hospital_id
		LEFT JOIN job_types jt ON jt.id = p.job_type_id
		WHERE a.status IN ('active', 'confirmed')
	`
	var args []interface{}
	if scope.HospitalID != uuid.Nil {
		query += fmt.Sprintf(" AND a.hospital_id = $%d", len(args)+1)
		args = append(args, scope.HospitalID)
	}
	if scope.DepartmentID != uuid.Nil {
		query += fmt.Sprintf(" AND a.department_id = $%d", len(args)+1)
		args = append(args, scope.DepartmentID)
	}
	query += " ORDER BY a.assigned_at DESC"

	var assignments []*model.AssignmentDetail
	if err := r.GetDB().SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return assignments, nil
}

func (r *assignmentRepository) ActiveCountsByProvider(ctx context.Context, providerIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	if len(providerIDs) == 0 {
		return map[uuid.UUID]int{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT provider_id, COUNT(*) AS n
		FROM assignments
		WHERE status IN ('active', 'confirmed') AND provider_id IN (?)
		GROUP BY provider_id
	`, providerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}

	type row struct {
		ProviderID uuid.UUID `db:"provider_id"`
		N          int       `db:"n"`
	}
	var rows []row
	if err := r.GetDB().SelectContext(ctx, &rows, r.GetDB().Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to count active assignments: %w", err)
	}

	counts := make(map[uuid.UUID]int, len(rows))
	for _, c := range rows {
		counts[c.ProviderID] = c.N
	}
	return counts, nil
}

func (r *assignmentRepository) CurrentForProvider(ctx context.Context, providerID uuid.UUID) (*model.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE provider_id = $1 AND status IN ('active', 'confirmed')
	`
	var assignments []*model.Assignment
	if err := r.GetDB().SelectContext(ctx, &assignments, query, providerID); err != nil {
		return nil, fmt.Errorf("failed to get current assignment: %w", err)
	}
	if len(assignments) == 0 {
		return nil, nil
	}
	return assignments[0], nil
}

// Transition runs fn inside a serializable transaction. The position
// row involved must be read through PositionForUpdate first, which
// takes a FOR UPDATE lock. At this isolation level the loser of a race
// does not get to re-read the winner's writes: its blocked lock wait
// aborts with a serialization failure the moment the winner commits,
// so that abort is surfaced as the same conflict the in-transaction
// guards report.
func (r *assignmentRepository) Transition(ctx context.Context, fn func(tx repository.TransitionTx) error) error {
	err := r.WithSerializableTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&transitionTx{ctx: ctx, tx: tx})
	})
	return mapSerializationFailure(err)
}

// SQLSTATE codes PostgreSQL raises when a serializable transaction
// must be retried or abandoned.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

func mapSerializationFailure(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return &apperrors.AppError{
				Code:    apperrors.ErrConflict,
				Message: "Position was just filled by another user",
				Err:     err,
			}
		}
	}
	return err
}

type transitionTx struct {
	ctx context.Context
	tx  *sqlx.Tx
}

func (t *transitionTx) PositionForUpdate(id uuid.UUID) (*model.Position, error) {
	query := `
		SELECT id, shift_id, service_id, job_type_id, hospital_id,
			   department_id, status, created_at, updated_at
		FROM positions
		WHERE id = $1
		FOR UPDATE
	`
	var position model.Position
	if err := t.tx.GetContext(t.ctx, &position, query, id); err != nil {
		return nil, err
	}
	return &position, nil
}

func (t *transitionTx) Assignment(id uuid.UUID) (*model.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1 FOR UPDATE`
	var assignment model.Assignment
	if err := t.tx.GetContext(t.ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (t *transitionTx) Provider(id uuid.UUID) (*model.Provider, error) {
	query := `
		SELECT id, first_name, last_name, email, job_type_id,
			   home_hospital_id, home_department_id, active,
			   created_at, updated_at
		FROM providers
		WHERE id = $1
	`
	var provider model.Provider
	if err := t.tx.GetContext(t.ctx, &provider, query, id); err != nil {
		return nil, err
	}
	return &provider, nil
}

func (t *transitionTx) CurrentAssignmentForProvider(providerID uuid.UUID) (*model.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE provider_id = $1 AND status IN ('active', 'confirmed')
	`
	var assignments []*model.Assignment
	if err := t.tx.SelectContext(t.ctx, &assignments, query, providerID); err != nil {
		return nil, fmt.Errorf("failed to get current assignment for provider: %w", err)
	}
	if len(assignments) == 0 {
		return nil, nil
	}
	return assignments[0], nil
}

func (t *transitionTx) CurrentAssignmentForPosition(positionID uuid.UUID) (*model.Assignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM assignments
		WHERE position_id = $1 AND status IN ('active', 'confirmed')
	`
	var assignments []*model.Assignment
	if err := t.tx.SelectContext(t.ctx, &assignments, query, positionID); err != nil {
		return nil, fmt.Errorf("failed to get current assignment for position: %w", err)
	}
	if len(assignments) == 0 {
		return nil, nil
	}
	return assignments[0], nil
}

func (t *transitionTx) PositionJobCode(positionID uuid.UUID) (string, error) {
	query := `
		SELECT COALESCE(jt.code, '')
		FROM positions p
		LEFT JOIN job_types jt ON jt.id = p.job_type_id
		WHERE p.id = $1
	`
	var code string
	if err := t.tx.GetContext(t.ctx, &code, query, positionID); err != nil {
		return "", fmt.Errorf("failed to get position job code: %w", err)
	}
	return code, nil
}

func (t *transitionTx) InsertAssignment(a *model.Assignment) error {
	query := `
		INSERT INTO assignments (
			id, position_id, provider_id, hospital_id, department_id,
			shift_id, status, notes, assigned_at, assigned_by,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := t.tx.ExecContext(t.ctx, query,
		a.ID,
		a.PositionID,
		a.ProviderID,
		a.HospitalID,
		a.DepartmentID,
		a.ShiftID,
		a.Status,
		a.Notes,
		a.AssignedAt,
		a.AssignedBy,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}
	return nil
}

func (t *transitionTx) UpdateAssignment(a *model.Assignment) error {
	query := `
		UPDATE assignments
		SET status = $1, notes = $2, cancelled_at = $3, cancelled_by = $4,
			cancel_reason = $5, updated_at = $6
		WHERE id = $7
	`
	a.UpdatedAt = time.Now()

	result, err := t.tx.ExecContext(t.ctx, query,
		a.Status,
		a.Notes,
		a.CancelledAt,
		a.CancelledBy,
		a.CancelReason,
		a.UpdatedAt,
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("assignment not found")
	}
	return nil
}

func (t *transitionTx) SetPositionStatus(id uuid.UUID, status model.PositionStatus) error {
	query := `
		UPDATE positions
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := t.tx.ExecContext(t.ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update position status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("position not found")
	}
	return nil
}

func (t *transitionTx) AppendAudit(entry *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, actor_id, action, entity_type, entity_id, changes,
			ip_address, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := t.tx.ExecContext(t.ctx, query,
		entry.ID,
		entry.ActorID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.Changes,
		entry.IPAddress,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}
	return nil
}

func (t *transitionTx) EnqueueEvent(event *model.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (
			id, event_type, payload, status, retry_count, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := t.tx.ExecContext(t.ctx, query,
		event.ID,
		event.EventType,
		event.Payload,
		event.Status,
		event.RetryCount,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue outbox event: %w", err)
	}
	return nil
}
