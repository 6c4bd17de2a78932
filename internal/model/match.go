package model

import (
	"github.com/google/uuid"
)

type MatchQuality string

const (
	MatchQualityPerfect MatchQuality = "Perfect"
	MatchQualityGood    MatchQuality = "Good"
	MatchQualityPartial MatchQuality = "Partial"
)

// MatchCandidate is one ranked row of the findMatches result.
type MatchCandidate struct {
	ProviderID      uuid.UUID    `json:"provider_id"`
	ProviderName    string       `json:"provider_name"`
	LastName        string       `json:"last_name"`
	Score           int          `json:"score"`
	Quality         MatchQuality `json:"quality"`
	MatchedSkills   []uuid.UUID  `json:"matched_skills"`
	MissingSkills   []uuid.UUID  `json:"missing_skills"`
	ExtraSkills     []uuid.UUID  `json:"extra_skills"`
	ActiveCount     int          `json:"active_count"`
	HomeDepartment  bool         `json:"home_department"`
	HomeHospital    bool         `json:"home_hospital"`
}

// MatchCandidateView pairs a candidate with skill display names for the
// UI; name lookups are best-effort.
type MatchCandidateView struct {
	MatchCandidate
	MatchedSkillNames []string `json:"matched_skill_names,omitempty"`
	MissingSkillNames []string `json:"missing_skill_names,omitempty"`
	ExtraSkillNames   []string `json:"extra_skill_names,omitempty"`
}
