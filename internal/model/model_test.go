package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestProviderCanWorkAt(t *testing.T) {
	home := uuid.New()
	granted := uuid.New()
	other := uuid.New()

	p := &Provider{
		HomeHospitalID: home,
		HospitalAccess: []uuid.UUID{granted},
	}

	assert.True(t, p.CanWorkAt(home))
	assert.True(t, p.CanWorkAt(granted))
	assert.False(t, p.CanWorkAt(other))
}

func TestProviderFullName(t *testing.T) {
	assert.Equal(t, "Dana Reyes", (&Provider{FirstName: "Dana", LastName: "Reyes"}).FullName())
	assert.Equal(t, "Reyes", (&Provider{LastName: "Reyes"}).FullName())
}

func TestAssignmentIsCurrent(t *testing.T) {
	assert.True(t, (&Assignment{Status: AssignmentStatusActive}).IsCurrent())
	assert.True(t, (&Assignment{Status: AssignmentStatusConfirmed}).IsCurrent())
	assert.False(t, (&Assignment{Status: AssignmentStatusCancelled}).IsCurrent())
}

func TestCoverageStatsFinalize(t *testing.T) {
	s := &CoverageStats{Total: 8, Open: 2, Assigned: 4, Confirmed: 2}
	s.Finalize()
	assert.Equal(t, 6, s.Filled)
	assert.InDelta(t, 75.0, s.CoveragePercent, 0.001)
}

func TestCoverageStatsFinalizeEmpty(t *testing.T) {
	s := &CoverageStats{}
	s.Finalize()
	assert.Equal(t, 0, s.Filled)
	assert.Zero(t, s.CoveragePercent)
}

func TestScopeFilterIsZero(t *testing.T) {
	assert.True(t, ScopeFilter{}.IsZero())
	assert.False(t, ScopeFilter{HospitalID: uuid.New()}.IsZero())
	assert.False(t, ScopeFilter{DepartmentID: uuid.New()}.IsZero())
}
