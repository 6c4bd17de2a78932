package provider

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/strikeprep/staffing-api/internal/model"
	"github.com/strikeprep/staffing-api/internal/repository"
	"github.com/strikeprep/staffing-api/internal/service/assignment"
	"github.com/strikeprep/staffing-api/internal/service/audit"
	apperrors "github.com/strikeprep/staffing-api/pkg/errors"
)

type Service struct {
	repo        repository.ProviderRepository
	assignments *assignment.Service
	auditor     *audit.Service
}

func NewService(repo repository.ProviderRepository, assignments *assignment.Service, auditor *audit.Service) *Service {
	return &Service{
		repo:        repo,
		assignments: assignments,
		auditor:     auditor,
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Provider, error) {
	provider, err := s.repo.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("provider", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return provider, nil
}

func (s *Service) List(ctx context.Context, scope model.ScopeFilter) ([]*model.Provider, error) {
	return s.repo.List(ctx, scope)
}

// Deactivate soft-deactivates a provider and cascade-cancels their
// current assignment so the position reopens instead of pointing at an
// inactive provider. Historical assignments are preserved.
func (s *Service) Deactivate(ctx context.Context, actorID, providerID uuid.UUID) error {
	provider, err := s.Get(ctx, providerID)
	if err != nil {
		return err
	}
	if !provider.Active {
		return apperrors.PreconditionFailed("Provider is already deactivated")
	}

	cancelled, err := s.assignments.CancelForProvider(ctx, actorID, providerID, "Provider deactivated")
	if err != nil {
		return err
	}

	if err := s.repo.Deactivate(ctx, providerID); err != nil {
		return fmt.Errorf("failed to deactivate provider: %w", err)
	}

	changes := map[string]interface{}{"active": false}
	if cancelled != nil {
		changes["cancelled_assignment_id"] = cancelled.AssignmentID
	}
	return s.auditor.Log(ctx, actorID, model.AuditActionDeactivate, model.AuditEntityProvider, providerID, changes)
}
