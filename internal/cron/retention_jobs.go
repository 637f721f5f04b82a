package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/collette-backend/pkg/logger"
)

const defaultOutboxRetention = 30 * 24 * time.Hour

type outboxPruner interface {
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error)
}

type dlqPruner interface {
	DeleteFailedBefore(tx *gorm.DB, cutoff time.Time) (int64, error)
}

type OutboxRetentionJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Repository  outboxPruner
	// DeadLetters is optional; when set, DLQ entries share the outbox window.
	DeadLetters dlqPruner
	Retention   time.Duration
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultOutboxRetention
	}
	return &outboxRetentionJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		dlq:       params.DeadLetters,
		retention: retention,
		now:       time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      outboxPruner
	dlq       dlqPruner
	retention time.Duration
	now       func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

// Run deletes published rows only; pending and failing rows stay for the publisher.
func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := cutoffFor(j.now(), j.retention)
	var published, deadLettered int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		if published, err = j.repo.DeletePublishedBefore(tx, cutoff); err != nil {
			return err
		}
		if j.dlq == nil {
			return nil
		}
		deadLettered, err = j.dlq.DeleteFailedBefore(tx, cutoff)
		return err
	})
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": published,
		"dlq_deleted":  deadLettered,
	}), "outbox retention complete")
	return nil
}
