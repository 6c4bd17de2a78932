package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/strikeprep/staffing-api/internal/model"
	"github.com/strikeprep/staffing-api/internal/repository"
)

type Service struct {
	repo repository.AuditRepository
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo}
}

// NewEntry builds an audit log row for a state-changing operation. The
// assignment state machine appends these inside its own transaction so
// the record commits atomically with the state change.
func NewEntry(actorID uuid.UUID, action, entityType string, entityID uuid.UUID, changes interface{}) (*model.AuditLog, error) {
	var payload json.RawMessage
	if changes != nil {
		var err error
		payload, err = json.Marshal(changes)
		if err != nil {
			return nil, err
		}
	}

	return &model.AuditLog{
		ID:         uuid.New(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    payload,
		CreatedAt:  time.Now(),
	}, nil
}

// Log appends an audit record outside a transition transaction. Used by
// operations that do not go through the state machine, e.g. provider
// deactivation.
func (s *Service) Log(ctx context.Context, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, changes interface{}) error {
	entry, err := NewEntry(actorID, action, entityType, entityID, changes)
	if err != nil {
		return err
	}
	return s.repo.Create(ctx, entry)
}

func (s *Service) List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Cleanup(ctx context.Context, before time.Time) (int64, error) {
	return s.repo.Cleanup(ctx, before)
}
