package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/opticalquote-backend/pkg/config"
	"github.com/angelmondragon/opticalquote-backend/pkg/db/models"
	"github.com/angelmondragon/opticalquote-backend/pkg/enums"
	"github.com/angelmondragon/opticalquote-backend/pkg/logger"
	"github.com/angelmondragon/opticalquote-backend/pkg/metrics"
	"github.com/angelmondragon/opticalquote-backend/pkg/outbox"
	"github.com/angelmondragon/opticalquote-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/opticalquote-backend/pkg/outbox/registry"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testPubSub = config.PubSubConfig{
	QuotesTopic:       "quotes-topic",
	NotificationTopic: "notification-topic",
}

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	first := statusChangedRow(t, 0)
	second := statusChangedRow(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{first, second}}
	pub := &fakePublisher{results: []publishResult{
		fakePublishResult{err: errors.New("transient")},
		fakePublishResult{},
	}}
	svc := newTestService(t, repo, pub, &fakeDLQRepo{}, nil)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.True(t, processed)
	require.Equal(t, []uuid.UUID{first.ID}, repo.failed)
	require.Equal(t, []uuid.UUID{second.ID}, repo.published)
	require.Empty(t, repo.terminal)
}

func TestProcessBatchRoutesByEventType(t *testing.T) {
	presented := presentedRow(t)
	changed := statusChangedRow(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{presented, changed}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{}, fakePublishResult{}}}
	svc := newTestService(t, repo, pub, &fakeDLQRepo{}, nil)

	var topics []string
	svc.publisherFactory = func(topic string) publisher {
		topics = append(topics, topic)
		return pub
	}

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"notification-topic", "quotes-topic"}, topics)
	require.Len(t, pub.messages, 2)

	attrs := pub.messages[0].Attributes
	require.Equal(t, string(enums.EventQuotePresented), attrs["event_type"])
	require.Equal(t, string(enums.AggregateQuote), attrs["aggregate_type"])
	require.Equal(t, presented.AggregateID.String(), attrs["aggregate_id"])
	require.NotEmpty(t, attrs["event_id"])
	require.JSONEq(t, string(presented.Payload), string(pub.messages[0].Data))
}

func TestProcessBatchDeadLettersUndecodableRow(t *testing.T) {
	event := statusChangedRow(t, 0)
	event.Payload = json.RawMessage(`{"version":1,"eventId":"x","data":null}`)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dlq := &fakeDLQRepo{}
	reg := prometheus.NewRegistry()
	svc := newTestService(t, repo, &fakePublisher{}, dlq, nil)
	svc.metrics = metrics.NewOutboxMetrics(reg)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.True(t, processed)
	require.Len(t, dlq.entries, 1)

	entry := dlq.entries[0]
	require.Equal(t, event.ID, entry.EventID)
	require.Equal(t, enums.OutboxDLQReasonNonRetryable, entry.ErrorReason)
	require.Equal(t, []byte(event.Payload), []byte(entry.Payload))
	require.NotNil(t, entry.ErrorMessage)
	require.Contains(t, *entry.ErrorMessage, "payload missing")
	require.Equal(t, []uuid.UUID{event.ID}, repo.terminal)
	require.Empty(t, repo.published)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 1)
	require.Equal(t, "optiquote_outbox_dead_lettered_total", mfs[0].GetName())
}

func TestProcessBatchDeadLettersMissingPublisher(t *testing.T) {
	event := statusChangedRow(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dlq := &fakeDLQRepo{}
	svc := newTestService(t, repo, &fakePublisher{}, dlq, nil)
	svc.publisherFactory = func(string) publisher { return nil }

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, dlq.entries, 1)
	require.Equal(t, enums.OutboxDLQReasonNonRetryable, dlq.entries[0].ErrorReason)
}

func TestProcessBatchDeadLettersOnMaxAttempts(t *testing.T) {
	event := statusChangedRow(t, 1)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{results: []publishResult{fakePublishResult{err: errors.New("transient")}}}
	dlq := &fakeDLQRepo{}
	failedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(t, repo, pub, dlq, &config.OutboxConfig{
		BatchSize:      1,
		PollIntervalMS: 100,
		MaxAttempts:    2,
	})
	svc.now = func() time.Time { return failedAt }

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, dlq.entries, 1)
	require.Equal(t, enums.OutboxDLQReasonMaxAttempts, dlq.entries[0].ErrorReason)
	require.Equal(t, 1, dlq.entries[0].AttemptCount)
	require.Equal(t, failedAt, dlq.entries[0].FailedAt)
	require.Contains(t, *dlq.entries[0].ErrorMessage, "max publish attempts")
	require.Empty(t, repo.failed)
}

func TestProcessBatchEmptyReportsIdle(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakePublisher{}, &fakeDLQRepo{}, nil)
	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	require.False(t, processed)
}

func TestProcessBatchPropagatesFetchError(t *testing.T) {
	repo := &fakeRepo{fetchErr: errors.New("db down")}
	svc := newTestService(t, repo, &fakePublisher{}, &fakeDLQRepo{}, nil)
	_, err := svc.processBatch(context.Background())
	require.EqualError(t, err, "db down")
}

func TestNewServiceAppliesDefaults(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakePublisher{}, &fakeDLQRepo{}, &config.OutboxConfig{})
	require.Equal(t, defaultBatchSize, svc.batchSize)
	require.Equal(t, defaultMaxAttempts, svc.maxAttempts)
	require.Equal(t, time.Duration(defaultPollMs)*time.Millisecond, svc.pollInterval)

	_, err := NewService(ServiceParams{Config: &config.Config{}, Logger: logger.Nop()})
	require.EqualError(t, err, "database client is required")
}

func TestRunStopsOnCancel(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakePublisher{}, &fakeDLQRepo{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, svc.Run(ctx), context.Canceled)
}

func TestRunFailsWhenPubSubUnreachable(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakePublisher{}, &fakeDLQRepo{}, nil)
	svc.pubsub = &fakePubSubClient{pingErr: errors.New("unreachable")}
	err := svc.Run(context.Background())
	require.ErrorContains(t, err, "pubsub ping failed")
}

func TestNextBackoffCaps(t *testing.T) {
	require.Equal(t, 2*time.Second, nextBackoff(0, time.Second, 10*time.Second))
	require.Equal(t, 8*time.Second, nextBackoff(4*time.Second, time.Second, 10*time.Second))
	require.Equal(t, 10*time.Second, nextBackoff(8*time.Second, time.Second, 10*time.Second))

	d := withJitter(time.Second)
	require.GreaterOrEqual(t, d, time.Second)
	require.Less(t, d, time.Second+jitterWindow)
	require.Zero(t, withJitter(0))
}

func newTestService(t *testing.T, repo outboxRepository, pub publisher, dlq dlqRepository, override *config.OutboxConfig) *Service {
	t.Helper()
	outboxCfg := config.OutboxConfig{BatchSize: 2, PollIntervalMS: 100, MaxAttempts: 5}
	if override != nil {
		outboxCfg = *override
	}
	eventRegistry, err := registry.NewEventRegistry(testPubSub)
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Config:           &config.Config{Outbox: outboxCfg, PubSub: testPubSub},
		Logger:           logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:               &fakeDB{},
		PubSub:           &fakePubSubClient{},
		Repository:       repo,
		Registry:         eventRegistry,
		PublisherFactory: func(string) publisher { return pub },
		DLQRepository:    dlq,
	})
	require.NoError(t, err)
	return svc
}

func statusChangedRow(t *testing.T, attempts int) models.OutboxEvent {
	quoteID := uuid.New()
	return outboxRow(t, enums.EventQuoteStatusChanged, quoteID, attempts, payloads.QuoteStatusChangedEvent{
		QuoteID:         quoteID,
		From:            enums.QuoteStatusDraft,
		To:              enums.QuoteStatusPresented,
		Actor:           "staff-7",
		GrandTotalCents: 32450,
		OccurredAt:      time.Now().UTC(),
	})
}

func presentedRow(t *testing.T) models.OutboxEvent {
	quoteID := uuid.New()
	return outboxRow(t, enums.EventQuotePresented, quoteID, 0, payloads.QuotePresentedEvent{
		QuoteID:            quoteID,
		Status:             enums.QuoteStatusPresented,
		RecipientEmail:     "pat@example.com",
		PatientName:        "Pat Doe",
		PresentationMethod: enums.PresentationEmail,
		Pricing:            json.RawMessage(`{"grandTotal":324.5}`),
	})
}

func outboxRow(t *testing.T, eventType enums.OutboxEventType, aggregateID uuid.UUID, attempts int, data any) models.OutboxEvent {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Actor:      &outbox.ActorRef{Kind: "staff", StaffID: "staff-7"},
		Data:       raw,
	})
	require.NoError(t, err)
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateQuote,
		AggregateID:   aggregateID,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
		AttemptCount:  attempts,
	}
}

type fakeRepo struct {
	events    []models.OutboxEvent
	fetchErr  error
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (f *fakeRepo) FetchUnpublishedForPublish(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	return f.events, f.fetchErr
}

func (f *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, _ int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }

func (fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error { return fn(nil) }

type fakePubSubClient struct {
	pingErr error
}

func (f *fakePubSubClient) Ping(context.Context) error { return f.pingErr }

func (f *fakePubSubClient) Publisher(string) *gcppubsub.Publisher { return nil }

type fakePublisher struct {
	results  []publishResult
	messages []*gcppubsub.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	if len(f.results) == 0 {
		return nil
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) { return "server-id", f.err }

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQRepo) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}
