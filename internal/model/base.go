package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Pagination represents common pagination parameters
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// ScopeFilter restricts list and aggregate queries to a hospital or a
// department. When both are zero the caller's home department applies.
type ScopeFilter struct {
	HospitalID   uuid.UUID `json:"hospital_id" form:"hospital_id"`
	DepartmentID uuid.UUID `json:"department_id" form:"department_id"`
}

func (f ScopeFilter) IsZero() bool {
	return f.HospitalID == uuid.Nil && f.DepartmentID == uuid.Nil
}
