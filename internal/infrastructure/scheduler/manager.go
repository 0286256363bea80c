// Package scheduler runs the licensing maintenance jobs using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/keygate-inc/keygate/internal/shared/biztime"
	"github.com/keygate-inc/keygate/internal/shared/logger"
)

// BatchJob defines the interface for a scheduled batch processing job.
// Each Execute call processes a batch and returns the number of items processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// BatchJobFunc adapts a function to BatchJob.
type BatchJobFunc func(ctx context.Context) (int, error)

func (f BatchJobFunc) Execute(ctx context.Context) (int, error) { return f(ctx) }

// SchedulerManager owns the single gocron scheduler of a process.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance. Jobs run in UTC.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterExpirySweep runs the overdue license sweep every interval. A sweep
// drains batches until one comes back empty or short.
func (m *SchedulerManager) RegisterExpirySweep(job BatchJob, interval time.Duration, batchSize int) error {
	return m.register("license-expiry-sweep", []string{"license", "expire"}, interval, func(ctx context.Context) {
		m.drain(ctx, "license expiry sweep", job, batchSize)
	})
}

// RegisterIdempotencyPurge deletes expired idempotency records every interval.
func (m *SchedulerManager) RegisterIdempotencyPurge(job BatchJob, interval time.Duration, batchSize int) error {
	return m.register("idempotency-purge", []string{"idempotency", "purge"}, interval, func(ctx context.Context) {
		m.drain(ctx, "idempotency purge", job, batchSize)
	})
}

func (m *SchedulerManager) register(name string, tags []string, interval time.Duration, run func(ctx context.Context)) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			run(ctx)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags(tags...),
		gocron.WithName(name),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered scheduled job", "name", name, "interval", interval.String())
	return nil
}

func (m *SchedulerManager) drain(ctx context.Context, what string, job BatchJob, batchSize int) {
	startTime := biztime.NowUTC()
	total := 0
	for ctx.Err() == nil {
		n, err := job.Execute(ctx)
		total += n
		if err != nil {
			m.logger.Errorw("failed to run "+what,
				"error", err,
				"processed", total,
				"duration", time.Since(startTime),
			)
			return
		}
		if n == 0 || n < batchSize {
			break
		}
	}

	if total > 0 {
		m.logger.Infow(what+" processed",
			"count", total,
			"duration", time.Since(startTime),
		)
	} else {
		m.logger.Debugw("nothing to process for "+what, "duration", time.Since(startTime))
	}
}

// Start starts the scheduler
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler.
// It waits for all running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
