package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strikeprep/staffing-api/internal/model"
	"github.com/strikeprep/staffing-api/pkg/logger"
	"github.com/strikeprep/staffing-api/pkg/messaging"
)

type statusUpdate struct {
	id     uuid.UUID
	status model.OutboxStatus
	errMsg *string
}

type fakeOutboxRepo struct {
	events  []*model.OutboxEvent
	updates []statusUpdate
}

func (r *fakeOutboxRepo) GetPendingEvents(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	if len(r.events) > limit {
		return r.events[:limit], nil
	}
	return r.events, nil
}

func (r *fakeOutboxRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	r.updates = append(r.updates, statusUpdate{id: id, status: status, errMsg: errMsg})
	return nil
}

func (r *fakeOutboxRepo) DeleteProcessedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type fakeBroker struct {
	published []messaging.Message
	failures  int
	calls     int
}

func (b *fakeBroker) Publish(_ context.Context, _ string, message interface{}) error {
	b.calls++
	if b.calls <= b.failures {
		return errors.New("broker unavailable")
	}
	b.published = append(b.published, message.(messaging.Message))
	return nil
}

func (b *fakeBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, nil
}

func (b *fakeBroker) Close() error { return nil }

func newTestProcessor(repo *fakeOutboxRepo, broker *fakeBroker) *OutboxProcessor {
	return NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Hour,
		Topic:         "staffing.assignments",
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
	}, logger.NewLogger(nil), nil)
}

func pendingEvent(eventType string) *model.OutboxEvent {
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   json.RawMessage(`{"assignment_id":"a1"}`),
		Status:    model.OutboxStatusPending,
		CreatedAt: time.Now(),
	}
}

func TestProcessEventsPublishesAndMarksProcessed(t *testing.T) {
	event := pendingEvent("assignment.created")
	repo := &fakeOutboxRepo{events: []*model.OutboxEvent{event}}
	broker := &fakeBroker{}

	err := newTestProcessor(repo, broker).processEvents(context.Background())

	require.NoError(t, err)
	require.Len(t, broker.published, 1)
	assert.Equal(t, event.ID.String(), broker.published[0].ID)
	assert.Equal(t, "assignment.created", broker.published[0].Type)
	require.Len(t, repo.updates, 1)
	assert.Equal(t, event.ID, repo.updates[0].id)
	assert.Equal(t, model.OutboxStatusProcessed, repo.updates[0].status)
	assert.Nil(t, repo.updates[0].errMsg)
}

func TestProcessEventsRetriesTransientPublishFailure(t *testing.T) {
	event := pendingEvent("assignment.cancelled")
	repo := &fakeOutboxRepo{events: []*model.OutboxEvent{event}}
	broker := &fakeBroker{failures: 1}

	err := newTestProcessor(repo, broker).processEvents(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, broker.calls)
	require.Len(t, repo.updates, 1)
	assert.Equal(t, model.OutboxStatusProcessed, repo.updates[0].status)
}

func TestProcessEventsMarksExhaustedEventFailed(t *testing.T) {
	event := pendingEvent("assignment.reassigned")
	repo := &fakeOutboxRepo{events: []*model.OutboxEvent{event}}
	broker := &fakeBroker{failures: 10}

	err := newTestProcessor(repo, broker).processEvents(context.Background())

	require.NoError(t, err)
	assert.Empty(t, broker.published)
	require.Len(t, repo.updates, 1)
	assert.Equal(t, model.OutboxStatusFailed, repo.updates[0].status)
	require.NotNil(t, repo.updates[0].errMsg)
	assert.Contains(t, *repo.updates[0].errMsg, "broker unavailable")
}

func TestProcessEventsContinuesAfterFailedEvent(t *testing.T) {
	bad := pendingEvent("assignment.created")
	good := pendingEvent("assignment.confirmed")
	repo := &fakeOutboxRepo{events: []*model.OutboxEvent{bad, good}}
	broker := &fakeBroker{failures: 2}

	err := newTestProcessor(repo, broker).processEvents(context.Background())

	require.NoError(t, err)
	require.Len(t, broker.published, 1)
	assert.Equal(t, "assignment.confirmed", broker.published[0].Type)
	require.Len(t, repo.updates, 2)
	assert.Equal(t, model.OutboxStatusFailed, repo.updates[0].status)
	assert.Equal(t, model.OutboxStatusProcessed, repo.updates[1].status)
}
