package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/strikeprep/staffing-api/internal/model"
)

// All repository interfaces in one file
type (
	// ProviderRepository handles provider reads and soft-deactivation.
	// Get and ListByJobType return providers with their skill sets and
	// hospital-access grants loaded.
	ProviderRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Provider, error)
		ListByJobType(ctx context.Context, jobTypeID uuid.UUID) ([]*model.Provider, error)
		List(ctx context.Context, scope model.ScopeFilter) ([]*model.Provider, error)
		Deactivate(ctx context.Context, id uuid.UUID) error
	}

	// PositionRepository is read-only: position status is written only
	// through assignment transitions.
	PositionRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Position, error)
		ListOpen(ctx context.Context, scope model.ScopeFilter) ([]*model.PositionDetail, error)
		CoverageStats(ctx context.Context, scope model.ScopeFilter) (*model.CoverageStats, error)
	}

	// SkillRepository resolves the skill catalog. Read-only.
	SkillRepository interface {
		RequiredSkills(ctx context.Context, jobTypeID, serviceID uuid.UUID) ([]model.SkillRequirement, error)
		SkillNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	}

	// AssignmentRepository owns assignment rows and the transactional
	// transition path that also patches position status.
	AssignmentRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Assignment, error)
		ListCurrent(ctx context.Context, scope model.ScopeFilter) ([]*model.AssignmentDetail, error)
		// ActiveCountsByProvider returns the number of active/confirmed
		// assignments per provider; providers with none are absent.
		ActiveCountsByProvider(ctx context.Context, providerIDs []uuid.UUID) (map[uuid.UUID]int, error)
		CurrentForProvider(ctx context.Context, providerID uuid.UUID) (*model.Assignment, error)
		// Transition runs fn inside a single serializable transaction.
		// Reads through TransitionTx see a consistent snapshot and the
		// position row is locked for the duration, so the read-check-
		// write sequence inside fn cannot interleave with a concurrent
		// transition touching the same rows.
		Transition(ctx context.Context, fn func(tx TransitionTx) error) error
	}

	// TransitionTx is the set of reads and effects available inside a
	// transition. All effects commit atomically with the audit record
	// and outbox event, or not at all.
	TransitionTx interface {
		PositionForUpdate(id uuid.UUID) (*model.Position, error)
		Assignment(id uuid.UUID) (*model.Assignment, error)
		Provider(id uuid.UUID) (*model.Provider, error)
		CurrentAssignmentForProvider(providerID uuid.UUID) (*model.Assignment, error)
		CurrentAssignmentForPosition(positionID uuid.UUID) (*model.Assignment, error)
		PositionJobCode(positionID uuid.UUID) (string, error)

		InsertAssignment(a *model.Assignment) error
		UpdateAssignment(a *model.Assignment) error
		SetPositionStatus(id uuid.UUID, status model.PositionStatus) error
		AppendAudit(entry *model.AuditLog) error
		EnqueueEvent(event *model.OutboxEvent) error
	}

	// AuditRepository is append-only plus a read path for the audit
	// admin surface.
	AuditRepository interface {
		Create(ctx context.Context, entry *model.AuditLog) error
		List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, error)
		Cleanup(ctx context.Context, before time.Time) (int64, error)
	}

	OutboxRepository interface {
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
