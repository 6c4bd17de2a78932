package assignment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/strikeprep/staffing-api/internal/model"
	"github.com/strikeprep/staffing-api/internal/repository"
	"github.com/strikeprep/staffing-api/internal/service/audit"
	apperrors "github.com/strikeprep/staffing-api/pkg/errors"
	"github.com/strikeprep/staffing-api/pkg/metrics"
)

// Service is the assignment state machine. It is the single writer of
// position status: every transition commits the assignment row, the
// position patch, the audit record and the outbox event in one
// serializable transaction.
type Service struct {
	assignments repository.AssignmentRepository
	metrics     *metrics.Metrics
}

func NewService(assignments repository.AssignmentRepository, m *metrics.Metrics) *Service {
	return &Service{
		assignments: assignments,
		metrics:     m,
	}
}

// Create binds a provider to an open position.
func (s *Service) Create(ctx context.Context, actorID, positionID, providerID uuid.UUID, notes string) (*model.AssignmentResult, error) {
	var result *model.AssignmentResult

	err := s.assignments.Transition(ctx, func(tx repository.TransitionTx) error {
		position, err := tx.PositionForUpdate(positionID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("position", err)
		}
		if err != nil {
			return fmt.Errorf("failed to load position: %w", err)
		}

		if position.Status != model.PositionStatusOpen {
			return apperrors.PreconditionFailed("Position is not open")
		}

		provider, err := tx.Provider(providerID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("provider", err)
		}
		if err != nil {
			return fmt.Errorf("failed to load provider: %w", err)
		}
		if !provider.Active {
			return apperrors.PreconditionFailed("Provider is not active")
		}

		// One active assignment per provider, enforced under the lock.
		if conflict, err := tx.CurrentAssignmentForProvider(providerID); err != nil {
			return err
		} else if conflict != nil {
			code, codeErr := tx.PositionJobCode(conflict.PositionID)
			if codeErr != nil {
				code = conflict.PositionID.String()
			}
			return apperrors.Conflict(fmt.Sprintf("Provider already assigned to %s", code))
		}

		// Race guard: a concurrent create on the same position commits
		// first and is observed here once the position lock is held.
		if taken, err := tx.CurrentAssignmentForPosition(positionID); err != nil {
			return err
		} else if taken != nil {
			return apperrors.Conflict("Position was just filled by another user")
		}

		a := &model.Assignment{
			Base:         model.Base{ID: uuid.New()},
			PositionID:   positionID,
			ProviderID:   providerID,
			HospitalID:   position.HospitalID,
			DepartmentID: position.DepartmentID,
			ShiftID:      position.ShiftID,
			Status:       model.AssignmentStatusActive,
			Notes:        notes,
			AssignedAt:   time.Now(),
			AssignedBy:   actorID,
		}
		if err := tx.InsertAssignment(a); err != nil {
			return err
		}
		if err := tx.SetPositionStatus(positionID, model.PositionStatusAssigned); err != nil {
			return err
		}

		entry, err := audit.NewEntry(actorID, model.AuditActionAssign, model.AuditEntityAssignment, a.ID, map[string]interface{}{
			"position_id":   positionID,
			"provider_id":   providerID,
			"provider_name": provider.FullName(),
			"notes":         notes,
		})
		if err != nil {
			return err
		}
		if err := tx.AppendAudit(entry); err != nil {
			return err
		}
		if err := s.enqueue(tx, model.EventAssignmentCreated, a); err != nil {
			return err
		}

		result = &model.AssignmentResult{
			AssignmentID:   a.ID,
			PositionID:     positionID,
			PositionStatus: model.PositionStatusAssigned,
		}
		return nil
	})
	if err != nil {
		s.countConflict("create", err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AssignmentsCreated.Inc()
	}
	return result, nil
}

// Confirm moves an active assignment to confirmed.
func (s *Service) Confirm(ctx context.Context, actorID, assignmentID uuid.UUID, notes string) (*model.AssignmentResult, error) {
	var result *model.AssignmentResult

	err := s.assignments.Transition(ctx, func(tx repository.TransitionTx) error {
		a, err := tx.Assignment(assignmentID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("assignment", err)
		}
		if err != nil {
			return fmt.Errorf("failed to load assignment: %w", err)
		}

		if _, err := tx.PositionForUpdate(a.PositionID); err != nil {
			return fmt.Errorf("failed to lock position: %w", err)
		}

		if a.Status != model.AssignmentStatusActive {
			return apperrors.PreconditionFailed(fmt.Sprintf("Assignment is %s, not active", a.Status))
		}

		a.Status = model.AssignmentStatusConfirmed
		if notes != "" {
			a.Notes = notes
		}
		if err := tx.UpdateAssignment(a); err != nil {
			return err
		}
		if err := tx.SetPositionStatus(a.PositionID, model.PositionStatusConfirmed); err != nil {
			return err
		}

		entry, err := audit.NewEntry(actorID, model.AuditActionConfirm, model.AuditEntityAssignment, a.ID, map[string]interface{}{
			"position_id": a.PositionID,
			"provider_id": a.ProviderID,
			"notes":       notes,
		})
		if err != nil {
			return err
		}
		if err := tx.AppendAudit(entry); err != nil {
			return err
		}
		if err := s.enqueue(tx, model.EventAssignmentConfirmed, a); err != nil {
			return err
		}

		result = &model.AssignmentResult{
			AssignmentID:   a.ID,
			PositionID:     a.PositionID,
			PositionStatus: model.PositionStatusConfirmed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AssignmentsConfirmed.Inc()
	}
	return result, nil
}

// Cancel ends an assignment and always reopens its position, whether
// the assignment was active or confirmed.
func (s *Service) Cancel(ctx context.Context, actorID, assignmentID uuid.UUID, reason string) (*model.AssignmentResult, error) {
	var result *model.AssignmentResult

	err := s.assignments.Transition(ctx, func(tx repository.TransitionTx) error {
		a, err := tx.Assignment(assignmentID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("assignment", err)
		}
		if err != nil {
			return fmt.Errorf("failed to load assignment: %w", err)
		}

		if _, err := tx.PositionForUpdate(a.PositionID); err != nil {
			return fmt.Errorf("failed to lock position: %w", err)
		}

		// Re-cancelling would reopen a position another provider may
		// already hold.
		if a.Status == model.AssignmentStatusCancelled {
			return apperrors.PreconditionFailed("Assignment is already cancelled")
		}

		s.markCancelled(a, actorID, reason)
		if err := tx.UpdateAssignment(a); err != nil {
			return err
		}
		if err := tx.SetPositionStatus(a.PositionID, model.PositionStatusOpen); err != nil {
			return err
		}

		entry, err := audit.NewEntry(actorID, model.AuditActionCancel, model.AuditEntityAssignment, a.ID, map[string]interface{}{
			"position_id": a.PositionID,
			"provider_id": a.ProviderID,
			"reason":      reason,
		})
		if err != nil {
			return err
		}
		if err := tx.AppendAudit(entry); err != nil {
			return err
		}
		if err := s.enqueue(tx, model.EventAssignmentCancelled, a); err != nil {
			return err
		}

		result = &model.AssignmentResult{
			AssignmentID:   a.ID,
			PositionID:     a.PositionID,
			PositionStatus: model.PositionStatusOpen,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AssignmentsCancelled.Inc()
	}
	return result, nil
}

// Reassign cancels the current assignment with an auto-generated
// reason and inserts a fresh active assignment for the new provider on
// the same position.
func (s *Service) Reassign(ctx context.Context, actorID, assignmentID, newProviderID uuid.UUID, reason string) (*model.AssignmentResult, error) {
	var result *model.AssignmentResult

	err := s.assignments.Transition(ctx, func(tx repository.TransitionTx) error {
		old, err := tx.Assignment(assignmentID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("assignment", err)
		}
		if err != nil {
			return fmt.Errorf("failed to load assignment: %w", err)
		}

		if _, err := tx.PositionForUpdate(old.PositionID); err != nil {
			return fmt.Errorf("failed to lock position: %w", err)
		}

		if old.Status == model.AssignmentStatusCancelled {
			return apperrors.PreconditionFailed("Assignment is already cancelled")
		}

		newProvider, err := tx.Provider(newProviderID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("provider", err)
		}
		if err != nil {
			return fmt.Errorf("failed to load provider: %w", err)
		}
		if !newProvider.Active {
			return apperrors.PreconditionFailed("Provider is not active")
		}
		if newProvider.ID == old.ProviderID {
			return apperrors.PreconditionFailed("Provider already holds this assignment")
		}

		if conflict, err := tx.CurrentAssignmentForProvider(newProviderID); err != nil {
			return err
		} else if conflict != nil {
			code, codeErr := tx.PositionJobCode(conflict.PositionID)
			if codeErr != nil {
				code = conflict.PositionID.String()
			}
			return apperrors.Conflict(fmt.Sprintf("Provider already assigned to %s", code))
		}

		oldProviderName := old.ProviderID.String()
		if oldProvider, err := tx.Provider(old.ProviderID); err == nil {
			oldProviderName = oldProvider.FullName()
		}

		s.markCancelled(old, actorID, fmt.Sprintf("Reassigned to %s", newProvider.FullName()))
		if err := tx.UpdateAssignment(old); err != nil {
			return err
		}

		replacement := &model.Assignment{
			Base:         model.Base{ID: uuid.New()},
			PositionID:   old.PositionID,
			ProviderID:   newProviderID,
			HospitalID:   old.HospitalID,
			DepartmentID: old.DepartmentID,
			ShiftID:      old.ShiftID,
			Status:       model.AssignmentStatusActive,
			AssignedAt:   time.Now(),
			AssignedBy:   actorID,
		}
		if err := tx.InsertAssignment(replacement); err != nil {
			return err
		}
		if err := tx.SetPositionStatus(old.PositionID, model.PositionStatusAssigned); err != nil {
			return err
		}

		entry, err := audit.NewEntry(actorID, model.AuditActionReassign, model.AuditEntityAssignment, replacement.ID, map[string]interface{}{
			"position_id":       old.PositionID,
			"old_assignment_id": old.ID,
			"old_provider":      oldProviderName,
			"new_provider":      newProvider.FullName(),
			"reason":            reason,
		})
		if err != nil {
			return err
		}
		if err := tx.AppendAudit(entry); err != nil {
			return err
		}
		if err := s.enqueue(tx, model.EventAssignmentReassigned, replacement); err != nil {
			return err
		}

		oldID := old.ID
		result = &model.AssignmentResult{
			AssignmentID:          replacement.ID,
			CancelledAssignmentID: &oldID,
			PositionID:            old.PositionID,
			PositionStatus:        model.PositionStatusAssigned,
		}
		return nil
	})
	if err != nil {
		s.countConflict("reassign", err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AssignmentsReassigned.Inc()
	}
	return result, nil
}

// CancelForProvider cancels the provider's current assignment if one
// exists. Used by the provider deactivation cascade; a provider with no
// current assignment is a no-op.
func (s *Service) CancelForProvider(ctx context.Context, actorID, providerID uuid.UUID, reason string) (*model.AssignmentResult, error) {
	current, err := s.assignments.CurrentForProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}
	return s.Cancel(ctx, actorID, current.ID, reason)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	a, err := s.assignments.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("assignment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return a, nil
}

// List returns the enriched active/confirmed assignments in scope.
func (s *Service) List(ctx context.Context, scope model.ScopeFilter) ([]*model.AssignmentDetail, error) {
	return s.assignments.ListCurrent(ctx, scope)
}

func (s *Service) markCancelled(a *model.Assignment, actorID uuid.UUID, reason string) {
	now := time.Now()
	a.Status = model.AssignmentStatusCancelled
	a.CancelledAt = &now
	a.CancelledBy = &actorID
	if reason != "" {
		a.CancelReason = &reason
	}
}

func (s *Service) enqueue(tx repository.TransitionTx, eventType string, a *model.Assignment) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return tx.EnqueueEvent(&model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payload,
		Status:    model.OutboxStatusPending,
		CreatedAt: time.Now(),
	})
}

func (s *Service) countConflict(operation string, err error) {
	if s.metrics != nil && apperrors.Is(err, apperrors.ErrConflict) {
		s.metrics.TransitionConflicts.WithLabelValues(operation).Inc()
	}
}
