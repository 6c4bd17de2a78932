package model

import (
	"github.com/google/uuid"
)

type PositionStatus string

const (
	PositionStatusOpen      PositionStatus = "open"
	PositionStatusAssigned  PositionStatus = "assigned"
	PositionStatusConfirmed PositionStatus = "confirmed"
	PositionStatusCancelled PositionStatus = "cancelled"
)

// Position is a single staffable slot. Status is a denormalized view of
// the most recent non-cancelled assignment referencing it; the
// assignment state machine is its only writer.
type Position struct {
	Base
	ShiftID      uuid.UUID      `db:"shift_id" json:"shift_id"`
	ServiceID    uuid.UUID      `db:"service_id" json:"service_id"`
	JobTypeID    uuid.UUID      `db:"job_type_id" json:"job_type_id"`
	HospitalID   uuid.UUID      `db:"hospital_id" json:"hospital_id"`
	DepartmentID uuid.UUID      `db:"department_id" json:"department_id"`
	Status       PositionStatus `db:"status" json:"status"`
}

// PositionDetail is a position enriched with display fields from the
// hierarchy joins. Missing related rows yield empty strings, never an
// error; these rows back display-only list views.
type PositionDetail struct {
	Position
	ShiftLabel     string `db:"shift_label" json:"shift_label"`
	ServiceName    string `db:"service_name" json:"service_name"`
	DepartmentName string `db:"department_name" json:"department_name"`
	HospitalName   string `db:"hospital_name" json:"hospital_name"`
	JobTypeName    string `db:"job_type_name" json:"job_type_name"`
	JobTypeCode    string `db:"job_type_code" json:"job_type_code"`
}

// CoverageStats aggregates position fill state for dashboards.
type CoverageStats struct {
	Total           int     `db:"total" json:"total"`
	Open            int     `db:"open" json:"open"`
	Assigned        int     `db:"assigned" json:"assigned"`
	Confirmed       int     `db:"confirmed" json:"confirmed"`
	Filled          int     `json:"filled"`
	CoveragePercent float64 `json:"coverage_percent"`
}

// Finalize derives the computed fields from the raw counts.
func (s *CoverageStats) Finalize() {
	s.Filled = s.Assigned + s.Confirmed
	if s.Total > 0 {
		s.CoveragePercent = float64(s.Filled) / float64(s.Total) * 100
	}
}
