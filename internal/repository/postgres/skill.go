package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/strikeprep/staffing-api/internal/model"
)

func (r *skillRepository) RequiredSkills(ctx context.Context, jobTypeID, serviceID uuid.UUID) ([]model.SkillRequirement, error) {
	query := `
		SELECT jts.skill_id, COALESCE(s.name, '') AS name
		FROM job_type_skills jts
		LEFT JOIN skills s ON s.id = jts.skill_id
		WHERE jts.job_type_id = $1
		  AND jts.service_id = $2
		  AND jts.required = true
		ORDER BY jts.created_at ASC
	`
	var skills []model.SkillRequirement
	if err := r.GetDB().SelectContext(ctx, &skills, query, jobTypeID, serviceID); err != nil {
		return nil, fmt.Errorf("failed to resolve required skills: %w", err)
	}
	return skills, nil
}

func (r *skillRepository) SkillNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}

	query, args, err := sqlx.In(`SELECT id, name FROM skills WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build skill name query: %w", err)
	}

	type row struct {
		ID   uuid.UUID `db:"id"`
		Name string    `db:"name"`
	}
	var rows []row
	if err := r.GetDB().SelectContext(ctx, &rows, r.GetDB().Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get skill names: %w", err)
	}

	names := make(map[uuid.UUID]string, len(rows))
	for _, s := range rows {
		names[s.ID] = s.Name
	}
	return names, nil
}
