package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog is append-only: one row per state-changing operation. Rows
// are never updated or deleted by the core.
type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	ActorID    uuid.UUID       `json:"actor_id" db:"actor_id"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id" db:"entity_id"`
	Changes    json.RawMessage `json:"changes" db:"changes"`
	IPAddress  string          `json:"ip_address" db:"ip_address"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

const (
	// Action types
	AuditActionAssign     = "assign"
	AuditActionConfirm    = "confirm"
	AuditActionCancel     = "cancel"
	AuditActionReassign   = "reassign"
	AuditActionDeactivate = "deactivate"

	// Entity types
	AuditEntityAssignment = "assignment"
	AuditEntityPosition   = "position"
	AuditEntityProvider   = "provider"
)

type AuditFilters struct {
	ActorID    uuid.UUID `form:"actor_id"`
	EntityType string    `form:"entity_type"`
	EntityID   uuid.UUID `form:"entity_id"`
	Pagination
}
