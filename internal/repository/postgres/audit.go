package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/strikeprep/staffing-api/internal/model"
	"github.com/strikeprep/staffing-api/internal/repository"
)

type auditRepository struct {
	BaseRepository
}

func NewAuditRepository(base BaseRepository) repository.AuditRepository {
	return &auditRepository{base}
}

func (r *auditRepository) Create(ctx context.Context, entry *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, actor_id, action, entity_type, entity_id, changes,
			ip_address, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.GetDB().ExecContext(ctx, query,
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
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, error) {
	query := `
		SELECT id, actor_id, action, entity_type, entity_id, changes,
			   ip_address, created_at
		FROM audit_logs
		WHERE 1=1
	`
	var args []interface{}

	if filters.ActorID != uuid.Nil {
		query += fmt.Sprintf(" AND actor_id = $%d", len(args)+1)
		args = append(args, filters.ActorID)
	}
	if filters.EntityType != "" {
		query += fmt.Sprintf(" AND entity_type = $%d", len(args)+1)
		args = append(args, filters.EntityType)
	}
	if filters.EntityID != uuid.Nil {
		query += fmt.Sprintf(" AND entity_id = $%d", len(args)+1)
		args = append(args, filters.EntityID)
	}

	query += " ORDER BY created_at DESC"

	pageSize := filters.PageSize
	if pageSize <= 0 || pageSize > 500 {
		pageSize = 100
	}
	page := filters.Page
	if page < 1 {
		page = 1
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	var logs []*model.AuditLog
	if err := r.GetDB().SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}

func (r *auditRepository) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM audit_logs
		WHERE created_at < $1
	`
	result, err := r.GetDB().ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup audit logs: %w", err)
	}
	return result.RowsAffected()
}
