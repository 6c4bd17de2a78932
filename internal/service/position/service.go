package position

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/strikeprep/staffing-api/internal/model"
	"github.com/strikeprep/staffing-api/internal/repository"
	apperrors "github.com/strikeprep/staffing-api/pkg/errors"
)

type Service struct {
	repo repository.PositionRepository
}

func NewService(repo repository.PositionRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Position, error) {
	position, err := s.repo.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("position", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return position, nil
}

// ListOpen returns open positions in scope, enriched with display
// fields from the hierarchy joins.
func (s *Service) ListOpen(ctx context.Context, scope model.ScopeFilter) ([]*model.PositionDetail, error) {
	return s.repo.ListOpen(ctx, scope)
}

// Coverage aggregates position fill state for dashboards.
func (s *Service) Coverage(ctx context.Context, scope model.ScopeFilter) (*model.CoverageStats, error) {
	return s.repo.CoverageStats(ctx, scope)
}
