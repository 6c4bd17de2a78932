package model

import (
	"github.com/google/uuid"
)

type Provider struct {
	Base
	FirstName        string    `db:"first_name" json:"first_name"`
	LastName         string    `db:"last_name" json:"last_name"`
	Email            string    `db:"email" json:"email"`
	JobTypeID        uuid.UUID `db:"job_type_id" json:"job_type_id"`
	HomeHospitalID   uuid.UUID `db:"home_hospital_id" json:"home_hospital_id"`
	HomeDepartmentID uuid.UUID `db:"home_department_id" json:"home_department_id"`
	Active           bool      `db:"active" json:"active"`

	// Loaded through join tables, not columns on the providers row.
	SkillIDs       []uuid.UUID `db:"-" json:"skill_ids,omitempty"`
	HospitalAccess []uuid.UUID `db:"-" json:"hospital_access,omitempty"`
}

func (p *Provider) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	return p.FirstName + " " + p.LastName
}

// CanWorkAt reports whether the provider may staff a position at the
// given hospital. The home hospital is always allowed; any other
// hospital requires an explicit access grant.
func (p *Provider) CanWorkAt(hospitalID uuid.UUID) bool {
	if p.HomeHospitalID == hospitalID {
		return true
	}
	for _, id := range p.HospitalAccess {
		if id == hospitalID {
			return true
		}
	}
	return false
}

// HospitalAccessGrant is the explicit permission row letting a provider
// work outside their home hospital.
type HospitalAccessGrant struct {
	Base
	ProviderID uuid.UUID `db:"provider_id" json:"provider_id"`
	HospitalID uuid.UUID `db:"hospital_id" json:"hospital_id"`
}
