package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meditracker/patientflow-api/internal/model"
	"github.com/meditracker/patientflow-api/internal/service/servicetest"
	"github.com/meditracker/patientflow-api/pkg/logger"
)

type fakeBroker struct {
	published map[string][][]byte
	err       error
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{published: make(map[string][][]byte)}
}

func (b *fakeBroker) Publish(_ context.Context, channel string, message interface{}) error {
	if b.err != nil {
		return b.err
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}
	b.published[channel] = append(b.published[channel], payload)
	return nil
}

func (b *fakeBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func (b *fakeBroker) Close() error { return nil }

func newProcessor(repo *servicetest.OutboxRepo, broker *fakeBroker) *OutboxProcessor {
	cfg := DefaultOutboxProcessorConfig()
	cfg.RetryAttempts = 2
	cfg.RetryDelay = time.Millisecond
	return NewOutboxProcessor(repo, broker, cfg, logger.NewLogger(nil), nil)
}

func queueEvent(t *testing.T, repo *servicetest.OutboxRepo) *model.OutboxEvent {
	t.Helper()
	event := &model.OutboxEvent{
		EventType: model.EventTypeNotification,
		Payload:   []byte(`{"title":"Visit Started"}`),
	}
	require.NoError(t, repo.CreateTx(context.Background(), nil, event))
	return event
}

func TestProcessEventsPublishesAndMarksProcessed(t *testing.T) {
	repo := &servicetest.OutboxRepo{}
	broker := newFakeBroker()
	event := queueEvent(t, repo)

	p := newProcessor(repo, broker)
	require.NoError(t, p.processEvents(context.Background()))

	require.Len(t, broker.published[model.EventTypeNotification], 1)
	assert.Equal(t, model.OutboxStatusProcessed, event.Status)
	assert.NotNil(t, event.ProcessedAt)
}

func TestProcessEventsMarksFailedAfterRetries(t *testing.T) {
	repo := &servicetest.OutboxRepo{}
	broker := newFakeBroker()
	broker.err = errors.New("redis down")
	event := queueEvent(t, repo)

	p := newProcessor(repo, broker)
	require.NoError(t, p.processEvents(context.Background()), "individual event failures do not abort the batch")

	assert.Equal(t, model.OutboxStatusFailed, event.Status)
	require.NotNil(t, event.ErrorMessage)
	assert.Contains(t, *event.ErrorMessage, "redis down")
}

func TestProcessEventsRespectsBatchSize(t *testing.T) {
	repo := &servicetest.OutboxRepo{}
	broker := newFakeBroker()
	for i := 0; i < 5; i++ {
		queueEvent(t, repo)
	}

	cfg := DefaultOutboxProcessorConfig()
	cfg.BatchSize = 3
	p := NewOutboxProcessor(repo, broker, cfg, logger.NewLogger(nil), nil)

	require.NoError(t, p.processEvents(context.Background()))
	assert.Len(t, broker.published[model.EventTypeNotification], 3)
}
