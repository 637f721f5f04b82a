package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/collette-backend/pkg/logger"
	"github.com/angelmondragon/collette-backend/pkg/metrics"
)

const (
	defaultInterval   = 15 * time.Minute
	defaultJobTimeout = 10 * time.Minute
)

type ServiceParams struct {
	Logger     *logger.Logger
	Registry   *Registry
	Lock       Lock
	Metrics    *metrics.LifecycleMetrics
	Interval   time.Duration
	JobTimeout time.Duration
}

// Service runs every registered job once per interval. A cycle only starts
// on the instance holding Lock; jobs run one after another and a failing or
// panicking job does not stop the rest of the cycle.
type Service struct {
	logg       *logger.Logger
	registry   *Registry
	lock       Lock
	metrics    *metrics.LifecycleMetrics
	interval   time.Duration
	jobTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.Lock == nil:
		return nil, errors.New("lock required")
	}
	svc := &Service{
		logg:       params.Logger,
		registry:   params.Registry,
		lock:       params.Lock,
		metrics:    params.Metrics,
		interval:   params.Interval,
		jobTimeout: params.JobTimeout,
	}
	if svc.registry == nil {
		svc.registry = NewRegistry()
	}
	if svc.interval <= 0 {
		svc.interval = defaultInterval
	}
	if svc.jobTimeout <= 0 {
		svc.jobTimeout = defaultJobTimeout
	}
	return svc, nil
}

// Run executes a cycle immediately, then on every tick until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		failed, err := s.RunOnce(ctx)
		switch {
		case err != nil:
			s.logg.Error(ctx, "scheduled cycle failed", err)
		case failed > 0:
			s.logg.Warn(s.logg.WithField(ctx, "failed_jobs", failed), "scheduled cycle finished with failures")
		}

		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "scheduler context canceled")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce executes a single cycle and reports how many jobs failed. A cycle
// skipped because another instance holds the lock reports zero.
func (s *Service) RunOnce(ctx context.Context) (int, error) {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	if !locked {
		s.logg.Info(ctx, "scheduler lock held elsewhere; skipping cycle")
		return 0, nil
	}
	defer func() {
		// the cycle context may already be canceled; release regardless
		if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "failed to release scheduler lock", err)
		}
	}()

	failed := 0
	for _, job := range s.registry.Jobs() {
		if err := s.runJob(ctx, job); err != nil {
			failed++
		}
	}
	return failed, nil
}

func (s *Service) runJob(ctx context.Context, job Job) (err error) {
	jobCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()
	jobCtx = s.logg.WithFields(jobCtx, map[string]any{"job": job.Name(), "event": "scheduler.job"})

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name(), rec)
		}
		elapsed := time.Since(start)
		s.metrics.ObserveJob(job.Name(), elapsed, err)
		done := s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
		if err != nil {
			s.logg.Error(done, "job failed", err)
			return
		}
		s.logg.Info(done, "job completed")
	}()
	return job.Run(jobCtx)
}
