package model

import (
	"time"

	"github.com/google/uuid"
)

type AssignmentStatus string

const (
	AssignmentStatusActive    AssignmentStatus = "active"
	AssignmentStatusConfirmed AssignmentStatus = "confirmed"
	AssignmentStatusCancelled AssignmentStatus = "cancelled"
)

// Assignment binds one provider to one position. A reassignment cancels
// the old row and inserts a fresh one; rows are never reused across
// providers.
type Assignment struct {
	Base
	PositionID   uuid.UUID        `db:"position_id" json:"position_id"`
	ProviderID   uuid.UUID        `db:"provider_id" json:"provider_id"`
	HospitalID   uuid.UUID        `db:"hospital_id" json:"hospital_id"`
	DepartmentID uuid.UUID        `db:"department_id" json:"department_id"`
	ShiftID      uuid.UUID        `db:"shift_id" json:"shift_id"`
	Status       AssignmentStatus `db:"status" json:"status"`
	Notes        string           `db:"notes" json:"notes,omitempty"`
	AssignedAt   time.Time        `db:"assigned_at" json:"assigned_at"`
	AssignedBy   uuid.UUID        `db:"assigned_by" json:"assigned_by"`
	CancelledAt  *time.Time       `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancelledBy  *uuid.UUID       `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancelReason *string          `db:"cancel_reason" json:"cancel_reason,omitempty"`
}

// IsCurrent reports whether the assignment still binds its provider,
// i.e. counts against the one-active-assignment invariants.
func (a *Assignment) IsCurrent() bool {
	return a.Status == AssignmentStatusActive || a.Status == AssignmentStatusConfirmed
}

// AssignmentDetail enriches an assignment with display fields for list
// views.
type AssignmentDetail struct {
	Assignment
	ProviderName   string `db:"provider_name" json:"provider_name"`
	ShiftLabel     string `db:"shift_label" json:"shift_label"`
	ServiceName    string `db:"service_name" json:"service_name"`
	DepartmentName string `db:"department_name" json:"department_name"`
	HospitalName   string `db:"hospital_name" json:"hospital_name"`
	JobTypeCode    string `db:"job_type_code" json:"job_type_code"`
}

type CreateAssignmentRequest struct {
	PositionID uuid.UUID `json:"position_id" binding:"required"`
	ProviderID uuid.UUID `json:"provider_id" binding:"required"`
	Notes      string    `json:"notes" binding:"max=1000"`
}

type ConfirmAssignmentRequest struct {
	Notes string `json:"notes" binding:"max=1000"`
}

type CancelAssignmentRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

type ReassignRequest struct {
	ProviderID uuid.UUID `json:"provider_id" binding:"required"`
	Reason     string    `json:"reason" binding:"max=1000"`
}

// AssignmentResult is the success payload of a mutating transition.
type AssignmentResult struct {
	AssignmentID          uuid.UUID      `json:"assignment_id"`
	CancelledAssignmentID *uuid.UUID     `json:"cancelled_assignment_id,omitempty"`
	PositionID            uuid.UUID      `json:"position_id"`
	PositionStatus        PositionStatus `json:"position_status"`
}
