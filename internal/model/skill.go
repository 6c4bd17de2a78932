package model

import (
	"github.com/google/uuid"
)

type Skill struct {
	Base
	Name   string `db:"name" json:"name"`
	Status string `db:"status" json:"status"`
}

// JobTypeSkill links a job-type-at-a-service to a skill. Read-only from
// the matching core.
type JobTypeSkill struct {
	Base
	JobTypeID uuid.UUID `db:"job_type_id" json:"job_type_id"`
	ServiceID uuid.UUID `db:"service_id" json:"service_id"`
	SkillID   uuid.UUID `db:"skill_id" json:"skill_id"`
	Required  bool      `db:"required" json:"required"`
}

// SkillRequirement is a resolved requirement row: skill id plus its
// display name, in catalog order.
type SkillRequirement struct {
	SkillID uuid.UUID `db:"skill_id" json:"skill_id"`
	Name    string    `db:"name" json:"name"`
}
