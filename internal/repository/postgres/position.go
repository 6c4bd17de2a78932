package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/strikeprep/staffing-api/internal/model"
)

func (r *positionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Position, error) {
	query := `
		SELECT id, shift_id, service_id, job_type_id, hospital_id,
			   department_id, status, created_at, updated_at
		FROM positions
		WHERE id = $1
	`
	var position model.Position
	if err := r.GetDB().GetContext(ctx, &position, query, id); err != nil {
		return nil, err
	}
	return &position, nil
}

func (r *positionRepository) ListOpen(ctx context.Context, scope model.ScopeFilter) ([]*model.PositionDetail, error) {
	// LEFT JOINs so a missing related row yields empty display fields
	// instead of dropping the position from the list.
	query := `
		SELECT p.id, p.shift_id, p.service_id, p.job_type_id, p.hospital_id,
			   p.department_id, p.status, p.created_at, p.updated_at,
			   COALESCE(sh.label, '') AS shift_label,
			   COALESCE(sv.name, '') AS service_name,
			   COALESCE(d.name, '') AS department_name,
			   COALESCE(h.name, '') AS hospital_name,
			   COALESCE(jt.name, '') AS job_type_name,
			   COALESCE(jt.code, '') AS job_type_code
		FROM positions p
		LEFT JOIN shifts sh ON sh.id = p.shift_id
		LEFT JOIN services sv ON sv.id = p.service_id
		LEFT JOIN departments d ON d.id = p.department_id
		LEFT JOIN hospitals h ON h.id = p.hospital_id
		LEFT JOIN job_types jt ON jt.id = p.job_type_id
		WHERE p.status = $1
	`
	args := []interface{}{model.PositionStatusOpen}

	if scope.HospitalID != uuid.Nil {
		query += fmt.Sprintf(" AND p.hospital_id = $%d", len(args)+1)
		args = append(args, scope.HospitalID)
	}
	if scope.DepartmentID != uuid.Nil {
		query += fmt.Sprintf(" AND p.department_id = $%d", len(args)+1)
		args = append(args, scope.DepartmentID)
	}

	query += " ORDER BY sh.start_time ASC, p.created_at ASC"

	var positions []*model.PositionDetail
	if err := r.GetDB().SelectContext(ctx, &positions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list open positions: %w", err)
	}
	return positions, nil
}

func (r *positionRepository) CoverageStats(ctx context.Context, scope model.ScopeFilter) (*model.CoverageStats, error) {
	query := `
		SELECT COUNT(*) AS total,
			   COUNT(*) FILTER (WHERE status = 'open') AS open,
			   COUNT(*) FILTER (WHERE status = 'assigned') AS assigned,
			   COUNT(*) FILTER (WHERE status = 'confirmed') AS confirmed
		FROM positions
		WHERE status != 'cancelled'
	`
	var args []interface{}
	if scope.HospitalID != uuid.Nil {
		query += fmt.Sprintf(" AND hospital_id = $%d", len(args)+1)
		args = append(args, scope.HospitalID)
	}
	if scope.DepartmentID != uuid.Nil {
		query += fmt.Sprintf(" AND department_id = $%d", len(args)+1)
		args = append(args, scope.DepartmentID)
	}

	var stats model.CoverageStats
	if err := r.GetDB().GetContext(ctx, &stats, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get coverage stats: %w", err)
	}
	stats.Finalize()
	return &stats, nil
}
