package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/strikeprep/staffing-api/internal/repository"
)

type providerRepository struct {
	BaseRepository
}

type positionRepository struct {
	BaseRepository
}

type skillRepository struct {
	BaseRepository
}

type assignmentRepository struct {
	BaseRepository
}

func NewProviderRepository(db *sqlx.DB) repository.ProviderRepository {
	return &providerRepository{NewBaseRepository(db)}
}

func NewPositionRepository(db *sqlx.DB) repository.PositionRepository {
	return &positionRepository{NewBaseRepository(db)}
}

func NewSkillRepository(db *sqlx.DB) repository.SkillRepository {
	return &skillRepository{NewBaseRepository(db)}
}

func NewAssignmentRepository(db *sqlx.DB) repository.AssignmentRepository {
	return &assignmentRepository{NewBaseRepository(db)}
}
