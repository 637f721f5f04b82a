package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/angelmondragon/collette-backend/pkg/config"
	"github.com/angelmondragon/collette-backend/pkg/db/models"
	"github.com/angelmondragon/collette-backend/pkg/enums"
	"github.com/angelmondragon/collette-backend/pkg/logger"
	"github.com/angelmondragon/collette-backend/pkg/metrics"
	"github.com/angelmondragon/collette-backend/pkg/outbox"
	"github.com/angelmondragon/collette-backend/pkg/outbox/registry"
)

const (
	testOrdersTopic    = "orders-topic"
	testInventoryTopic = "inventory-topic"
)

func TestProcessBatchContinuesAfterTransientFailure(t *testing.T) {
	first := orderEvent(t, enums.EventOrderCreated)
	second := orderEvent(t, enums.EventOrderStatusChanged)
	repo := &fakeRepo{events: []models.OutboxEvent{first, second}}
	pub := &fakePublisher{errs: []error{errors.New("transient"), nil}}
	dlq := &fakeDLQRepo{}
	svc := newTestService(t, repo, dlq, pub, config.OutboxConfig{})

	handled, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if handled != 2 {
		t.Fatalf("expected 2 rows handled, got %d", handled)
	}
	if len(repo.failed) != 1 || repo.failed[0] != first.ID {
		t.Fatalf("expected first row marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != second.ID {
		t.Fatalf("expected second row marked published, got %v", repo.published)
	}
	if len(dlq.entries) != 0 {
		t.Fatalf("transient failure must not dead-letter")
	}
}

func TestProcessBatchRoutesByEventType(t *testing.T) {
	order := orderEvent(t, enums.EventOrderDelivered)
	lowStock := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventInventoryLowStock,
		AggregateType: enums.AggregateInventory,
		AggregateID:   uuid.New(),
		Payload:       envelope(t, `{"product_name":"Espresso beans","stock_quantity":2,"threshold":5}`),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{order, lowStock}}
	pub := &fakePublisher{}
	svc := newTestService(t, repo, &fakeDLQRepo{}, pub, config.OutboxConfig{})

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(pub.topics) != 2 || pub.topics[0] != testOrdersTopic || pub.topics[1] != testInventoryTopic {
		t.Fatalf("unexpected topics %v", pub.topics)
	}
	attrs := pub.messages[0].Attributes
	if attrs["event_type"] != string(enums.EventOrderDelivered) || attrs["aggregate_id"] != order.AggregateID.String() {
		t.Fatalf("unexpected attributes %v", attrs)
	}
	if !bytes.Equal(pub.messages[0].Data, order.Payload) {
		t.Fatalf("message data must be the stored envelope")
	}
}

func TestProcessBatchDeadLettersUnresolvableRows(t *testing.T) {
	event := orderEvent(t, enums.EventOrderCancelled)
	event.AggregateType = enums.AggregateInventory
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dlq := &fakeDLQRepo{}
	pub := &fakePublisher{}
	svc := newTestService(t, repo, dlq, pub, config.OutboxConfig{})

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(pub.messages) != 0 {
		t.Fatalf("unresolvable row must not be published")
	}
	if len(dlq.entries) != 1 {
		t.Fatalf("expected one dlq entry, got %d", len(dlq.entries))
	}
	entry := dlq.entries[0]
	if entry.EventID != event.ID || entry.ErrorReason != enums.OutboxDLQReasonNonRetryable {
		t.Fatalf("unexpected dlq entry %+v", entry)
	}
	if !bytes.Equal(entry.Payload, event.Payload) {
		t.Fatalf("dlq payload mismatch")
	}
	if len(repo.terminal) != 1 || repo.terminal[0] != event.ID {
		t.Fatalf("expected row marked terminal")
	}
}

func TestProcessBatchDeadLettersAfterMaxAttempts(t *testing.T) {
	event := orderEvent(t, enums.EventCancellationRequested)
	event.AttemptCount = 1
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dlq := &fakeDLQRepo{}
	pub := &fakePublisher{errs: []error{errors.New("deadline exceeded")}}
	svc := newTestService(t, repo, dlq, pub, config.OutboxConfig{MaxAttempts: 2})

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(dlq.entries) != 1 || dlq.entries[0].ErrorReason != enums.OutboxDLQReasonMaxAttempts {
		t.Fatalf("expected max_attempts dlq entry, got %+v", dlq.entries)
	}
	if len(repo.failed) != 0 {
		t.Fatalf("exhausted row must be terminal, not failed")
	}
}

func TestProcessBatchMissingPublisherIsTerminal(t *testing.T) {
	event := orderEvent(t, enums.EventOrderCreated)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dlq := &fakeDLQRepo{}
	svc := newTestService(t, repo, dlq, nil, config.OutboxConfig{})
	svc.publishers = func(string) publisher { return nil }

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(dlq.entries) != 1 || dlq.entries[0].ErrorReason != enums.OutboxDLQReasonNonRetryable {
		t.Fatalf("expected non_retryable dlq entry, got %+v", dlq.entries)
	}
}

func TestProcessBatchReturnsBookkeepingErrors(t *testing.T) {
	repo := &fakeRepo{
		events:     []models.OutboxEvent{orderEvent(t, enums.EventOrderCreated)},
		publishErr: errors.New("connection reset"),
	}
	svc := newTestService(t, repo, &fakeDLQRepo{}, &fakePublisher{}, config.OutboxConfig{})

	if _, err := svc.processBatch(context.Background()); err == nil {
		t.Fatalf("expected mark published failure to abort the batch")
	}
}

func TestProcessBatchRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	repo := &fakeRepo{events: []models.OutboxEvent{
		orderEvent(t, enums.EventOrderCreated),
		orderEvent(t, enums.EventOrderCreated),
	}}
	pub := &fakePublisher{errs: []error{nil, errors.New("transient")}}
	svc := newTestService(t, repo, &fakeDLQRepo{}, pub, config.OutboxConfig{})
	svc.metrics = metrics.NewLifecycleMetrics(reg)

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	results := map[string]float64{}
	for _, mf := range mfs {
		if mf.GetName() != "outbox_events_published_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "result" {
					results[label.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	if results[resultPublished] != 1 || results[resultFailed] != 1 {
		t.Fatalf("unexpected publish results %v", results)
	}
}

func TestRunStopsOnCancelAndChecksReadiness(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakeDLQRepo{}, &fakePublisher{}, config.OutboxConfig{PollIntervalMS: 5})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := svc.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	svc.pubsub = &fakeTopicClient{pingErr: errors.New("topic missing")}
	if err := svc.Run(context.Background()); err == nil {
		t.Fatalf("expected readiness failure")
	}
}

func TestNextBackoffIsCapped(t *testing.T) {
	base := 500 * time.Millisecond
	if got := nextBackoff(0, base, maxIdleBackoff); got != time.Second {
		t.Fatalf("expected 1s, got %s", got)
	}
	if got := nextBackoff(8*time.Second, base, maxIdleBackoff); got != maxIdleBackoff {
		t.Fatalf("expected cap, got %s", got)
	}
	if got := withJitter(time.Second); got < time.Second || got >= time.Second+jitterWindow {
		t.Fatalf("jitter out of range: %s", got)
	}
}

func TestNewServiceRequiresDLQRepository(t *testing.T) {
	_, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     logger.Nop(),
		DB:         &fakeDB{},
		PubSub:     &fakeTopicClient{},
		Repository: &fakeRepo{},
		Registry:   testRegistry(t),
	})
	if err == nil {
		t.Fatalf("expected missing dlq repository to fail")
	}
}

func newTestService(t *testing.T, repo *fakeRepo, dlq *fakeDLQRepo, pub *fakePublisher, outboxCfg config.OutboxConfig) *Service {
	t.Helper()
	if outboxCfg.BatchSize == 0 {
		outboxCfg.BatchSize = 10
	}
	if outboxCfg.MaxAttempts == 0 {
		outboxCfg.MaxAttempts = 5
	}
	svc, err := NewService(ServiceParams{
		Config:        &config.Config{Outbox: outboxCfg},
		Logger:        logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:            &fakeDB{},
		PubSub:        &fakeTopicClient{},
		Repository:    repo,
		DLQRepository: dlq,
		Registry:      testRegistry(t),
		PublisherFactory: func(topic string) publisher {
			if pub == nil {
				return nil
			}
			pub.pending = topic
			return pub
		},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func testRegistry(t *testing.T) *registry.EventRegistry {
	t.Helper()
	reg, err := registry.NewEventRegistry(config.PubSubConfig{
		OrdersTopic:    testOrdersTopic,
		InventoryTopic: testInventoryTopic,
	})
	if err != nil {
		t.Fatalf("event registry: %v", err)
	}
	return reg
}

func orderEvent(t *testing.T, eventType enums.OutboxEventType) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       envelope(t, `{"order_code":"#ORD1234"}`),
		CreatedAt:     time.Now(),
	}
}

func envelope(t *testing.T, data string) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       json.RawMessage(data),
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return payload
}

type fakeRepo struct {
	events     []models.OutboxEvent
	published  []uuid.UUID
	failed     []uuid.UUID
	terminal   []uuid.UUID
	publishErr error
}

func (f *fakeRepo) FetchUnpublishedForPublish(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	if f.publishErr != nil {
		return f.publishErr
	}
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

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQRepo) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }

func (fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error { return fn(nil) }

type fakeTopicClient struct {
	pingErr error
}

func (f *fakeTopicClient) Ping(context.Context) error { return f.pingErr }

func (f *fakeTopicClient) Publisher(string) *gcppubsub.Publisher { return nil }

// fakePublisher records every message; errs are consumed in order, nil once exhausted.
type fakePublisher struct {
	errs     []error
	pending  string
	topics   []string
	messages []*gcppubsub.Message
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.topics = append(f.topics, f.pending)
	f.messages = append(f.messages, msg)
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	return fakeResult{err: err}
}

type fakeResult struct {
	err error
}

func (r fakeResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "server-id", nil
}
