package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/strikeprep/staffing-api/internal/model"
)

func (r *providerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Provider, error) {
	query := `
		SELECT id, first_name, last_name, email, job_type_id,
			   home_hospital_id, home_department_id, active,
			   created_at, updated_at
		FROM providers
		WHERE id = $1
	`
	var provider model.Provider
	err := r.GetDB().GetContext(ctx, &provider, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}

	if err := r.loadAssociations(ctx, []*model.Provider{&provider}); err != nil {
		return nil, err
	}
	return &provider, nil
}

func (r *providerRepository) ListByJobType(ctx context.Context, jobTypeID uuid.UUID) ([]*model.Provider, error) {
	query := `
		SELECT id, first_name, last_name, email, job_type_id,
			   home_hospital_id, home_department_id, active,
			   created_at, updated_at
		FROM providers
		WHERE job_type_id = $1
		ORDER BY last_name ASC, first_name ASC
	`
	var providers []*model.Provider
	if err := r.GetDB().SelectContext(ctx, &providers, query, jobTypeID); err != nil {
		return nil, fmt.Errorf("failed to list providers by job type: %w", err)
	}

	if err := r.loadAssociations(ctx, providers); err != nil {
		return nil, err
	}
	return providers, nil
}

func (r *providerRepository) List(ctx context.Context, scope model.ScopeFilter) ([]*model.Provider, error) {
	query := `
		SELECT id, first_name, last_name, email, job_type_id,
			   home_hospital_id, home_department_id, active,
			   created_at, updated_at
		FROM providers
		WHERE 1=1
	`
	var args []interface{}
	if scope.HospitalID != uuid.Nil {
		query += fmt.Sprintf(" AND home_hospital_id = $%d", len(args)+1)
		args = append(args, scope.HospitalID)
	}
	if scope.DepartmentID != uuid.Nil {
		query += fmt.Sprintf(" AND home_department_id = $%d", len(args)+1)
		args = append(args, scope.DepartmentID)
	}
	query += " ORDER BY last_name ASC, first_name ASC"

	var providers []*model.Provider
	if err := r.GetDB().SelectContext(ctx, &providers, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}

	if err := r.loadAssociations(ctx, providers); err != nil {
		return nil, err
	}
	return providers, nil
}

func (r *providerRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE providers
		SET active = false, updated_at = $1
		WHERE id = $2
	`
	result, err := r.GetDB().ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate provider: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// loadAssociations fills SkillIDs and HospitalAccess for the given
// providers with two batched IN queries.
func (r *providerRepository) loadAssociations(ctx context.Context, providers []*model.Provider) error {
	if len(providers) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(providers))
	byID := make(map[uuid.UUID]*model.Provider, len(providers))
	for i, p := range providers {
		ids[i] = p.ID
		byID[p.ID] = p
	}

	type link struct {
		ProviderID uuid.UUID `db:"provider_id"`
		RelatedID  uuid.UUID `db:"related_id"`
	}

	skillQuery, skillArgs, err := sqlx.In(
		`SELECT provider_id, skill_id AS related_id FROM provider_skills WHERE provider_id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("failed to build skill query: %w", err)
	}
	var skills []link
	if err := r.GetDB().SelectContext(ctx, &skills, r.GetDB().Rebind(skillQuery), skillArgs...); err != nil {
		return fmt.Errorf("failed to load provider skills: %w", err)
	}
	for _, s := range skills {
		if p, ok := byID[s.ProviderID]; ok {
			p.SkillIDs = append(p.SkillIDs, s.RelatedID)
		}
	}

	accessQuery, accessArgs, err := sqlx.In(
		`SELECT provider_id, hospital_id AS related_id FROM hospital_access_grants WHERE provider_id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("failed to build access query: %w", err)
	}
	var grants []link
	if err := r.GetDB().SelectContext(ctx, &grants, r.GetDB().Rebind(accessQuery), accessArgs...); err != nil {
		return fmt.Errorf("failed to load hospital access grants: %w", err)
	}
	for _, g := range grants {
		if p, ok := byID[g.ProviderID]; ok {
			p.HospitalAccess = append(p.HospitalAccess, g.RelatedID)
		}
	}

	return nil
}
