package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/collette-backend/internal/inventory"
)

func TestRegistryRejectsDuplicatesAndCopies(t *testing.T) {
	registry := NewRegistry()
	a := &testJob{name: "a"}
	if err := registry.Register(a); err != nil {
		t.Fatalf("register a: %v", err)
	}
	if err := registry.Register(&testJob{name: "a"}); err == nil {
		t.Fatal("expected duplicate name error")
	}
	if err := registry.Register(&testJob{}); err == nil {
		t.Fatal("expected empty name error")
	}
	if err := registry.Register(nil); err == nil {
		t.Fatal("expected nil job error")
	}

	jobs := registry.Jobs()
	jobs[0] = nil
	if registry.Jobs()[0] != a {
		t.Fatalf("internal slice leaked")
	}
}

type fakeOutboxPruner struct {
	cutoff time.Time
	err    error
}

func (f *fakeOutboxPruner) DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 3, f.err
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeDLQPruner struct {
	cutoff time.Time
	calls  int
}

func (f *fakeDLQPruner) DeleteFailedBefore(tx *gorm.DB, cutoff time.Time) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	return 2, nil
}

func TestOutboxRetentionPrunesDeadLetters(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeOutboxPruner{}
	dlq := &fakeDLQPruner{}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:      quietLogger(),
		DB:          passthroughTx{},
		Repository:  repo,
		DeadLetters: dlq,
	})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	job.(*outboxRetentionJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := now.Add(-defaultOutboxRetention); !dlq.cutoff.Equal(want) || !repo.cutoff.Equal(want) {
		t.Fatalf("expected shared cutoff %s, got outbox=%s dlq=%s", want, repo.cutoff, dlq.cutoff)
	}

	repo.err = errors.New("boom")
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error to propagate")
	}
	if dlq.calls != 1 {
		t.Fatalf("dlq pruned after outbox failure: calls=%d", dlq.calls)
	}
}

func TestOutboxRetentionUsesConfiguredWindow(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeOutboxPruner{}
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     quietLogger(),
		DB:         passthroughTx{},
		Repository: repo,
		Retention:  48 * time.Hour,
	})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	job.(*outboxRetentionJob).now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := now.Add(-48 * time.Hour); !repo.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, repo.cutoff)
	}

	repo.err = errors.New("boom")
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error to propagate")
	}
}

type fakeSynchronizer struct {
	inventory.Synchronizer
	result *inventory.SyncResult
	err    error
}

func (f *fakeSynchronizer) SyncCatalogToInventory(ctx context.Context) (*inventory.SyncResult, error) {
	return f.result, f.err
}

func TestInventorySyncJobWrapsErrors(t *testing.T) {
	sync := &fakeSynchronizer{result: &inventory.SyncResult{Created: 1}}
	job, err := NewInventorySyncJob(quietLogger(), sync)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	cause := errors.New("catalog unavailable")
	sync.err = cause
	if err := job.Run(context.Background()); !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}

	if _, err := NewInventorySyncJob(quietLogger(), nil); err == nil {
		t.Fatal("expected error without synchronizer")
	}
}
