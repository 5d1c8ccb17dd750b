package worker

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetyard/backoffice-api/internal/model"
	"github.com/fleetyard/backoffice-api/pkg/logger"
	"github.com/fleetyard/backoffice-api/pkg/metrics"
)

// Metrics register globally, so the package shares one instance.
var testMetrics = metrics.NewMetrics("backoffice", "worker_test")

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

type fakeOutboxRepo struct {
	pending   []*model.OutboxEvent
	processed []uuid.UUID
	failed    []uuid.UUID
	retryAts  []*time.Time
}

func (r *fakeOutboxRepo) Create(ctx context.Context, event *model.OutboxEvent) error { return nil }

func (r *fakeOutboxRepo) GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	if limit < len(r.pending) {
		return r.pending[:limit], nil
	}
	return r.pending, nil
}

func (r *fakeOutboxRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	r.processed = append(r.processed, id)
	return nil
}

func (r *fakeOutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error {
	r.failed = append(r.failed, id)
	r.retryAts = append(r.retryAts, retryAt)
	return nil
}

func (r *fakeOutboxRepo) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type fakeBroker struct {
	published []string
	err       error
}

func (b *fakeBroker) Publish(ctx context.Context, topic string, message interface{}) error {
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, topic)
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	return nil, nil
}

func (b *fakeBroker) Close() error { return nil }

func testConfig() OutboxProcessorConfig {
	return OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 3,
		RetryDelay:    time.Minute,
		Topic:         "backoffice.events",
	}
}

func pendingEvent(retryCount int) *model.OutboxEvent {
	return &model.OutboxEvent{
		ID:         uuid.New(),
		EventType:  model.EventLeadCreated,
		Payload:    []byte(`{"lead_id":"x"}`),
		Status:     model.OutboxStatusPending,
		RetryCount: retryCount,
		CreatedAt:  time.Now(),
	}
}

func TestProcessBatchPublishesAndMarksProcessed(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []*model.OutboxEvent{pendingEvent(0), pendingEvent(0)}}
	broker := &fakeBroker{}
	p := NewOutboxProcessor(repo, broker, testConfig(), testLogger(), testMetrics)

	err := p.processBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"backoffice.events", "backoffice.events"}, broker.published)
	assert.Len(t, repo.processed, 2)
	assert.Empty(t, repo.failed)
}

func TestProcessBatchSchedulesRetryOnPublishFailure(t *testing.T) {
	event := pendingEvent(0)
	repo := &fakeOutboxRepo{pending: []*model.OutboxEvent{event}}
	broker := &fakeBroker{err: errors.New("broker down")}
	p := NewOutboxProcessor(repo, broker, testConfig(), testLogger(), testMetrics)

	err := p.processBatch(context.Background())

	require.NoError(t, err, "publish failures are per event, not batch fatal")
	assert.Empty(t, repo.processed)
	require.Len(t, repo.failed, 1)
	assert.Equal(t, event.ID, repo.failed[0])
	require.NotNil(t, repo.retryAts[0], "first failure gets a retry slot")
	assert.WithinDuration(t, time.Now().Add(time.Minute), *repo.retryAts[0], 5*time.Second)
}

func TestProcessBatchParksEventAfterRetryBudget(t *testing.T) {
	// Two prior attempts plus this one exhausts RetryAttempts=3.
	event := pendingEvent(2)
	repo := &fakeOutboxRepo{pending: []*model.OutboxEvent{event}}
	broker := &fakeBroker{err: errors.New("broker down")}
	p := NewOutboxProcessor(repo, broker, testConfig(), testLogger(), testMetrics)

	err := p.processBatch(context.Background())

	require.NoError(t, err)
	require.Len(t, repo.failed, 1)
	assert.Nil(t, repo.retryAts[0], "exhausted events are parked, not rescheduled")
}

func TestNewOutboxProcessorValidatesConfig(t *testing.T) {
	repo := &fakeOutboxRepo{}
	broker := &fakeBroker{}

	assert.Panics(t, func() {
		cfg := testConfig()
		cfg.BatchSize = 0
		NewOutboxProcessor(repo, broker, cfg, testLogger(), testMetrics)
	})
	assert.Panics(t, func() {
		cfg := testConfig()
		cfg.Topic = ""
		NewOutboxProcessor(repo, broker, cfg, testLogger(), testMetrics)
	})
}
