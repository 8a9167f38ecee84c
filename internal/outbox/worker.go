package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"affiliate/internal/model"
	"affiliate/internal/repository"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// HandlerFunc runs one job. A returned error schedules a retry.
type HandlerFunc func(ctx context.Context, job model.OutboxJob) error

// Config tunes polling, leasing and retries
type Config struct {
	Owner         string
	PollInterval  time.Duration
	BatchSize     int
	LeaseTTL      time.Duration
	MaxAttempts   int
	RetryBackoff  time.Duration
	RetryMaxDelay time.Duration
	Concurrency   int
}

// Worker leases due jobs and dispatches them by kind. Jobs are independent: one
// job's failure never blocks or reorders another.
type Worker struct {
	repo     repository.OutboxRepository
	cfg      Config
	handlers map[string]HandlerFunc
	metrics  *Metrics
	log      *zap.Logger
	wake     chan struct{}
	now      func() time.Time
}

func NewWorker(repo repository.OutboxRepository, cfg Config, metrics *Metrics, log *zap.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 8
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	if cfg.RetryMaxDelay < cfg.RetryBackoff {
		cfg.RetryMaxDelay = cfg.RetryBackoff
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Owner == "" {
		cfg.Owner = "outbox-worker"
	}
	return &Worker{
		repo:     repo,
		cfg:      cfg,
		handlers: make(map[string]HandlerFunc),
		metrics:  metrics,
		log:      log.With(zap.String("component", "outbox"), zap.String("owner", cfg.Owner)),
		wake:     make(chan struct{}, 1),
		now:      time.Now,
	}
}

// Handle registers h for kind, replacing any earlier handler
func (w *Worker) Handle(kind string, h HandlerFunc) {
	w.handlers[kind] = h
}

// Notify wakes the run loop without waiting for the next poll
func (w *Worker) Notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	w.log.Info("outbox worker started", zap.Duration("poll_interval", w.cfg.PollInterval))
	for {
		if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			w.log.Error("outbox poll failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			w.log.Info("outbox worker stopped")
			return ctx.Err()
		case <-ticker.C:
		case <-w.wake:
		}
	}
}

// RunOnce leases one batch and runs it to completion. It returns how many jobs were leased.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	jobs, err := w.repo.Lease(ctx, w.cfg.Owner, w.now(), w.cfg.LeaseTTL, w.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("lease outbox jobs: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(w.cfg.Concurrency)
	for _, job := range jobs {
		g.Go(func() error {
			w.process(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	return len(jobs), nil
}

func (w *Worker) process(ctx context.Context, job model.OutboxJob) {
	log := w.log.With(zap.String("job_id", job.ID), zap.String("kind", job.Kind))
	attempts := job.AttemptCount + 1

	handler, ok := w.handlers[job.Kind]
	if !ok {
		w.metrics.dead.WithLabelValues(job.Kind).Inc()
		log.Error("no handler for outbox job kind")
		w.settle(ctx, log, w.repo.MarkDead(ctx, job.ID, w.cfg.Owner, attempts, "no handler for kind "+job.Kind))
		return
	}

	if job.AttemptCount >= w.cfg.MaxAttempts {
		w.metrics.dead.WithLabelValues(job.Kind).Inc()
		log.Error("outbox job dead, lease expired on its last attempt", zap.Int("attempt", job.AttemptCount))
		w.settle(ctx, log, w.repo.MarkDead(ctx, job.ID, w.cfg.Owner, job.AttemptCount, "lease expired on last attempt"))
		return
	}

	// The handler must finish inside the lease, or another worker may take the job over.
	hctx, cancel := context.WithTimeout(ctx, w.cfg.LeaseTTL)
	start := w.now()
	err := handler(hctx, job)
	cancel()
	w.metrics.duration.WithLabelValues(job.Kind).Observe(w.now().Sub(start).Seconds())

	if err == nil {
		w.metrics.processed.WithLabelValues(job.Kind).Inc()
		log.Debug("outbox job done", zap.Int("attempt", attempts))
		w.settle(ctx, log, w.repo.MarkDone(ctx, job.ID, w.cfg.Owner, w.now()))
		return
	}

	w.metrics.failed.WithLabelValues(job.Kind).Inc()
	if attempts >= w.cfg.MaxAttempts || errors.Is(err, ErrPermanent) {
		w.metrics.dead.WithLabelValues(job.Kind).Inc()
		log.Error("outbox job dead", zap.Int("attempt", attempts), zap.Error(err))
		w.settle(ctx, log, w.repo.MarkDead(ctx, job.ID, w.cfg.Owner, attempts, err.Error()))
		return
	}

	delay := RetryDelay(w.cfg.RetryBackoff, w.cfg.RetryMaxDelay, attempts)
	log.Warn("outbox job failed, retrying",
		zap.Int("attempt", attempts),
		zap.Duration("retry_in", delay),
		zap.Error(err))
	w.settle(ctx, log, w.repo.MarkRetry(ctx, job.ID, w.cfg.Owner, attempts, w.now().Add(delay), err.Error()))
}

func (w *Worker) settle(_ context.Context, log *zap.Logger, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, repository.ErrConflict) {
		log.Warn("outbox lease lost before settle")
		return
	}
	log.Error("failed to settle outbox job", zap.Error(err))
}

// RetryDelay is the wait before attempt+1: base doubled per attempt, capped at max.
func RetryDelay(base, max time.Duration, attempt int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.MaxInterval = max
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.Reset()

	delay := base
	for i := 0; i < attempt; i++ {
		delay = b.NextBackOff()
	}
	return delay
}
