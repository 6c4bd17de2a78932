package model

import (
	"github.com/google/uuid"
)

// Reference hierarchy entities. These are maintained by the admin CRUD
// surface and are read-only from the matching core's perspective.

type HealthSystem struct {
	Base
	Name   string `db:"name" json:"name"`
	Status string `db:"status" json:"status"`
}

type Hospital struct {
	Base
	HealthSystemID uuid.UUID `db:"health_system_id" json:"health_system_id"`
	Name           string    `db:"name" json:"name"`
	Code           string    `db:"code" json:"code"`
	City           string    `db:"city" json:"city,omitempty"`
	Status         string    `db:"status" json:"status"`
}

type Department struct {
	Base
	HospitalID uuid.UUID `db:"hospital_id" json:"hospital_id"`
	Name       string    `db:"name" json:"name"`
	Status     string    `db:"status" json:"status"`
}

type ClinicalService struct {
	Base
	DepartmentID uuid.UUID `db:"department_id" json:"department_id"`
	Name         string    `db:"name" json:"name"`
	Status       string    `db:"status" json:"status"`
}

type Shift struct {
	Base
	ServiceID uuid.UUID `db:"service_id" json:"service_id"`
	Label     string    `db:"label" json:"label"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
}

type JobType struct {
	Base
	Name string `db:"name" json:"name"`
	// Code is the short display code surfaced in conflict messages,
	// e.g. "RN-ICU".
	Code string `db:"code" json:"code"`
}
