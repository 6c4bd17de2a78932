package assignment

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strikeprep/staffing-api/internal/model"
	"github.com/strikeprep/staffing-api/internal/repository"
	apperrors "github.com/strikeprep/staffing-api/pkg/errors"
)

// fakeStore is an in-memory assignment repository. Transition runs the
// closure under a mutex, which stands in for the row locks the real
// implementation takes.
type fakeStore struct {
	mu          sync.Mutex
	positions   map[uuid.UUID]*model.Position
	providers   map[uuid.UUID]*model.Provider
	assignments map[uuid.UUID]*model.Assignment
	jobCodes    map[uuid.UUID]string
	audits      []*model.AuditLog
	events      []*model.OutboxEvent
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		positions:   make(map[uuid.UUID]*model.Position),
		providers:   make(map[uuid.UUID]*model.Provider),
		assignments: make(map[uuid.UUID]*model.Assignment),
		jobCodes:    make(map[uuid.UUID]string),
	}
}

func (s *fakeStore) Get(_ context.Context, id uuid.UUID) (*model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (s *fakeStore) ListCurrent(_ context.Context, _ model.ScopeFilter) ([]*model.AssignmentDetail, error) {
	return nil, nil
}

func (s *fakeStore) ActiveCountsByProvider(_ context.Context, providerIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[uuid.UUID]int)
	for _, id := range providerIDs {
		for _, a := range s.assignments {
			if a.ProviderID == id && a.IsCurrent() {
				counts[id]++
			}
		}
	}
	return counts, nil
}

func (s *fakeStore) CurrentForProvider(_ context.Context, providerID uuid.UUID) (*model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentForProviderLocked(providerID), nil
}

func (s *fakeStore) currentForProviderLocked(providerID uuid.UUID) *model.Assignment {
	for _, a := range s.assignments {
		if a.ProviderID == providerID && a.IsCurrent() {
			copied := *a
			return &copied
		}
	}
	return nil
}

func (s *fakeStore) Transition(_ context.Context, fn func(tx repository.TransitionTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&fakeTx{s: s})
}

type fakeTx struct {
	s *fakeStore
}

func (t *fakeTx) PositionForUpdate(id uuid.UUID) (*model.Position, error) {
	p, ok := t.s.positions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *p
	return &copied, nil
}

func (t *fakeTx) Assignment(id uuid.UUID) (*model.Assignment, error) {
	a, ok := t.s.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (t *fakeTx) Provider(id uuid.UUID) (*model.Provider, error) {
	p, ok := t.s.providers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *p
	return &copied, nil
}

func (t *fakeTx) CurrentAssignmentForProvider(providerID uuid.UUID) (*model.Assignment, error) {
	return t.s.currentForProviderLocked(providerID), nil
}

func (t *fakeTx) CurrentAssignmentForPosition(positionID uuid.UUID) (*model.Assignment, error) {
	for _, a := range t.s.assignments {
		if a.PositionID == positionID && a.IsCurrent() {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

func (t *fakeTx) PositionJobCode(positionID uuid.UUID) (string, error) {
	code, ok := t.s.jobCodes[positionID]
	if !ok {
		return "", sql.ErrNoRows
	}
	return code, nil
}

func (t *fakeTx) InsertAssignment(a *model.Assignment) error {
	copied := *a
	t.s.assignments[a.ID] = &copied
	return nil
}

func (t *fakeTx) UpdateAssignment(a *model.Assignment) error {
	copied := *a
	t.s.assignments[a.ID] = &copied
	return nil
}

func (t *fakeTx) SetPositionStatus(id uuid.UUID, status model.PositionStatus) error {
	t.s.positions[id].Status = status
	return nil
}

func (t *fakeTx) AppendAudit(entry *model.AuditLog) error {
	t.s.audits = append(t.s.audits, entry)
	return nil
}

func (t *fakeTx) EnqueueEvent(event *model.OutboxEvent) error {
	t.s.events = append(t.s.events, event)
	return nil
}

type fixture struct {
	store      *fakeStore
	svc        *Service
	actorID    uuid.UUID
	positionID uuid.UUID
	providerID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newFakeStore()

	positionID := uuid.New()
	providerID := uuid.New()
	store.positions[positionID] = &model.Position{
		Base:         model.Base{ID: positionID},
		ShiftID:      uuid.New(),
		ServiceID:    uuid.New(),
		JobTypeID:    uuid.New(),
		HospitalID:   uuid.New(),
		DepartmentID: uuid.New(),
		Status:       model.PositionStatusOpen,
	}
	store.jobCodes[positionID] = "RN"
	store.providers[providerID] = &model.Provider{
		Base:      model.Base{ID: providerID},
		FirstName: "Dana",
		LastName:  "Reyes",
		Active:    true,
	}

	return &fixture{
		store:      store,
		svc:        NewService(store, nil),
		actorID:    uuid.New(),
		positionID: positionID,
		providerID: providerID,
	}
}

func (f *fixture) addOpenPosition(code string) uuid.UUID {
	id := uuid.New()
	f.store.positions[id] = &model.Position{
		Base:       model.Base{ID: id},
		HospitalID: uuid.New(),
		Status:     model.PositionStatusOpen,
	}
	f.store.jobCodes[id] = code
	return id
}

func (f *fixture) addProvider(first, last string, active bool) uuid.UUID {
	id := uuid.New()
	f.store.providers[id] = &model.Provider{
		Base:      model.Base{ID: id},
		FirstName: first,
		LastName:  last,
		Active:    active,
	}
	return id
}

func TestCreateAssignsOpenPosition(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Create(context.Background(), f.actorID, f.positionID, f.providerID, "night shift")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, f.positionID, result.PositionID)
	assert.Equal(t, model.PositionStatusAssigned, result.PositionStatus)
	assert.Nil(t, result.CancelledAssignmentID)

	a := f.store.assignments[result.AssignmentID]
	require.NotNil(t, a)
	assert.Equal(t, model.AssignmentStatusActive, a.Status)
	assert.Equal(t, f.providerID, a.ProviderID)
	assert.Equal(t, f.actorID, a.AssignedBy)
	assert.Equal(t, "night shift", a.Notes)

	// Position snapshot is copied onto the assignment row.
	p := f.store.positions[f.positionID]
	assert.Equal(t, p.HospitalID, a.HospitalID)
	assert.Equal(t, p.DepartmentID, a.DepartmentID)
	assert.Equal(t, p.ShiftID, a.ShiftID)
	assert.Equal(t, model.PositionStatusAssigned, p.Status)

	require.Len(t, f.store.audits, 1)
	assert.Equal(t, model.AuditActionAssign, f.store.audits[0].Action)
	assert.Equal(t, f.actorID, f.store.audits[0].ActorID)

	require.Len(t, f.store.events, 1)
	assert.Equal(t, model.EventAssignmentCreated, f.store.events[0].EventType)
	assert.Equal(t, model.OutboxStatusPending, f.store.events[0].Status)
}

func TestCreateRejectsNonOpenPosition(t *testing.T) {
	f := newFixture(t)
	f.store.positions[f.positionID].Status = model.PositionStatusAssigned

	_, err := f.svc.Create(context.Background(), f.actorID, f.positionID, f.providerID, "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPreconditionFailed))
	assert.Contains(t, err.Error(), "Position is not open")
}

func TestCreateRejectsInactiveProvider(t *testing.T) {
	f := newFixture(t)
	f.store.providers[f.providerID].Active = false

	_, err := f.svc.Create(context.Background(), f.actorID, f.positionID, f.providerID, "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPreconditionFailed))
	assert.Contains(t, err.Error(), "Provider is not active")
}

func TestCreateRejectsUnknownPosition(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.actorID, uuid.New(), f.providerID, "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestCreateConflictNamesHeldJobCode(t *testing.T) {
	f := newFixture(t)

	// Provider takes the RN position first.
	_, err := f.svc.Create(context.Background(), f.actorID, f.positionID, f.providerID, "")
	require.NoError(t, err)

	second := f.addOpenPosition("CRNA")
	_, err = f.svc.Create(context.Background(), f.actorID, second, f.providerID, "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	assert.Contains(t, err.Error(), "Provider already assigned to RN")

	// The losing attempt leaves the second position untouched.
	assert.Equal(t, model.PositionStatusOpen, f.store.positions[second].Status)
}

func TestCreateDetectsPositionRace(t *testing.T) {
	f := newFixture(t)

	// A competing transition committed an assignment but the stale
	// status read still said open.
	other := f.addProvider("Sam", "Okafor", true)
	winner := &model.Assignment{
		Base:       model.Base{ID: uuid.New()},
		PositionID: f.positionID,
		ProviderID: other,
		Status:     model.AssignmentStatusActive,
	}
	f.store.assignments[winner.ID] = winner

	_, err := f.svc.Create(context.Background(), f.actorID, f.positionID, f.providerID, "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	assert.Contains(t, err.Error(), "Position was just filled by another user")
}

func TestConfirmActiveAssignment(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), f.actorID, f.positionID, f.providerID, "")
	require.NoError(t, err)

	result, err := f.svc.Confirm(context.Background(), f.actorID, created.AssignmentID, "confirmed by charge nurse")
	require.NoError(t, err)
	assert.Equal(t, model.PositionStatusConfirmed, result.PositionStatus)

	a := f.store.assignments[created.AssignmentID]
	assert.Equal(t, model.AssignmentStatusConfirmed, a.Status)
	assert.Equal(t, "confirmed by charge nurse", a.Notes)
	assert.Equal(t, model.PositionStatusConfirmed, f.store.positions[f.positionID].Status)

	require.Len(t, f.store.events, 2)
	assert.Equal(t, model.EventAssignmentConfirmed, f.store.events[1].EventType)
}

func TestConfirmRejectsWrongStatus(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), f.actorID, f.positionID, f.providerID, "")
	require.NoError(t, err)
	_, err = f.svc.Cancel(context.Background(), f.actorID, created.AssignmentID, "plans changed")
	require.NoError(t, err)

	_, err = f.svc.Confirm(context.Background(), f.actorID, created.AssignmentID, "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPreconditionFailed))
	assert.Contains(t, err.Error(), "Assignment is cancelled, not active")
}

func TestCancelReopensPosition(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), f.actorID, f.positionID, f.providerID, "")
	require.NoError(t, err)

	result, err := f.svc.Cancel(context.Background(), f.actorID, created.AssignmentID, "provider sick")
	require.NoError(t, err)
	assert.Equal(t, model.PositionStatusOpen, result.PositionStatus)

	a := f.store.assignments[created.AssignmentID]
	assert.Equal(t, model.AssignmentStatusCancelled, a.Status)
	require.NotNil(t, a.CancelReason)
	assert.Equal(t, "provider sick", *a.CancelReason)
	require.NotNil(t, a.CancelledBy)
	assert.Equal(t, f.actorID, *a.CancelledBy)
	assert.NotNil(t, a.CancelledAt)
	assert.Equal(t, model.PositionStatusOpen, f.store.positions[f.positionID].Status)
}

func TestCancelConfirmedAssignmentReopensPosition(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), f.actorID, f.positionID, f.providerID, "")
	require.NoError(t, err)
	_, err = f.svc.Confirm(context.Background(), f.actorID, created.AssignmentID, "")
	require.NoError(t, err)

	result, err := f.svc.Cancel(context.Background(), f.actorID, created.AssignmentID, "")
	require.NoError(t, err)
	assert.Equal(t, model.PositionStatusOpen, result.PositionStatus)
	assert.Equal(t, model.PositionStatusOpen, f.store.positions[f.positionID].Status)
}

func TestCancelRejectsAlreadyCancelled(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), f.actorID, f.positionID, f.providerID, "")
	require.NoError(t, err)
	_, err = f.svc.Cancel(context.Background(), f.actorID, created.AssignmentID, "first")
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), f.actorID, created.AssignmentID, "second")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPreconditionFailed))
	assert.Contains(t, err.Error(), "Assignment is already cancelled")
}

func TestReassignSwapsProviders(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), f.actorID, f.positionID, f.providerID, "")
	require.NoError(t, err)

	replacementProvider := f.addProvider("Lee", "Tran", true)
	result, err := f.svc.Reassign(context.Background(), f.actorID, created.AssignmentID, replacementProvider, "original provider unavailable")
	require.NoError(t, err)

	require.NotNil(t, result.CancelledAssignmentID)
	assert.Equal(t, created.AssignmentID, *result.CancelledAssignmentID)
	assert.NotEqual(t, created.AssignmentID, result.AssignmentID)
	assert.Equal(t, model.PositionStatusAssigned, result.PositionStatus)

	old := f.store.assignments[created.AssignmentID]
	assert.Equal(t, model.AssignmentStatusCancelled, old.Status)
	require.NotNil(t, old.CancelReason)
	assert.Equal(t, "Reassigned to Lee Tran", *old.CancelReason)

	replacement := f.store.assignments[result.AssignmentID]
	assert.Equal(t, model.AssignmentStatusActive, replacement.Status)
	assert.Equal(t, replacementProvider, replacement.ProviderID)
	assert.Equal(t, old.PositionID, replacement.PositionID)
	assert.Equal(t, old.ShiftID, replacement.ShiftID)

	// One combined audit record for the swap.
	require.Len(t, f.store.audits, 2)
	assert.Equal(t, model.AuditActionReassign, f.store.audits[1].Action)
	require.Len(t, f.store.events, 2)
	assert.Equal(t, model.EventAssignmentReassigned, f.store.events[1].EventType)
}

func TestReassignRejectsBusyProvider(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), f.actorID, f.positionID, f.providerID, "")
	require.NoError(t, err)

	busy := f.addProvider("Ana", "Silva", true)
	busyPosition := f.addOpenPosition("CNA")
	_, err = f.svc.Create(context.Background(), f.actorID, busyPosition, busy, "")
	require.NoError(t, err)

	_, err = f.svc.Reassign(context.Background(), f.actorID, created.AssignmentID, busy, "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	assert.Contains(t, err.Error(), "Provider already assigned to CNA")
}

func TestReassignRejectsSameProvider(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), f.actorID, f.positionID, f.providerID, "")
	require.NoError(t, err)

	_, err = f.svc.Reassign(context.Background(), f.actorID, created.AssignmentID, f.providerID, "")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPreconditionFailed))
}

func TestCancelForProviderNoCurrentAssignment(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.CancelForProvider(context.Background(), f.actorID, f.providerID, "Provider deactivated")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Empty(t, f.store.audits)
}

func TestCancelForProviderCancelsCurrent(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), f.actorID, f.positionID, f.providerID, "")
	require.NoError(t, err)

	result, err := f.svc.CancelForProvider(context.Background(), f.actorID, f.providerID, "Provider deactivated")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, created.AssignmentID, result.AssignmentID)
	assert.Equal(t, model.PositionStatusOpen, f.store.positions[f.positionID].Status)

	a := f.store.assignments[created.AssignmentID]
	require.NotNil(t, a.CancelReason)
	assert.Equal(t, "Provider deactivated", *a.CancelReason)
}

func TestProviderNeverHoldsTwoCurrentAssignments(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.actorID, f.positionID, f.providerID, "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		p := f.addOpenPosition("RN")
		_, err := f.svc.Create(context.Background(), f.actorID, p, f.providerID, "")
		require.Error(t, err)
	}

	current := 0
	for _, a := range f.store.assignments {
		if a.ProviderID == f.providerID && a.IsCurrent() {
			current++
		}
	}
	assert.Equal(t, 1, current)
}
