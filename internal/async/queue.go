// Package async runs package-processing jobs on a bounded worker pool.
package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Job is the smallest useful unit of daemon work.
type Job struct {
	Path        string
	Force       bool // process even if the content hash was seen before
	SubmittedAt time.Time
	TraceID     string
}

// Handler processes one job.
type Handler func(ctx context.Context, job Job) error

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

var (
	ErrQueueClosed = errors.New("queue closed")
	ErrQueueFull   = errors.New("queue full")
)

type options struct {
	workers    int
	size       int
	jobTimeout time.Duration
	blocking   bool
}

// Option configures a WorkerQueue.
type Option func(*options)

// WithWorkers sets the number of concurrent workers (default 2).
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithQueueSize sets the buffered capacity (default 64).
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.size = n
		}
	}
}

// WithJobTimeout bounds each job's run time (0 = no limit).
func WithJobTimeout(d time.Duration) Option {
	return func(o *options) { o.jobTimeout = d }
}

// WithBlockingEnqueue makes Enqueue wait for space instead of failing with ErrQueueFull.
func WithBlockingEnqueue() Option {
	return func(o *options) { o.blocking = true }
}

// WorkerQueue is an in-process Queue.
type WorkerQueue struct {
	opts    options
	handler Handler
	jobs    chan Job
	logger  *slog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// closing is closed first on Shutdown so blocked enqueues release their
	// read lock before jobs is closed.
	closing   chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewWorkerQueue starts the workers immediately.
func NewWorkerQueue(handler Handler, logger *slog.Logger, opts ...Option) *WorkerQueue {
	if logger == nil {
		logger = slog.Default()
	}
	o := options{workers: 2, size: 64}
	for _, fn := range opts {
		fn(&o)
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &WorkerQueue{
		opts:    o,
		handler: handler,
		jobs:    make(chan Job, o.size),
		logger:  logger,
		baseCtx: ctx,
		cancel:  cancel,
		closing: make(chan struct{}),
	}
	for i := 0; i < o.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	logger.Info("worker queue started", "workers", o.workers, "queue_size", o.size)
	return q
}

func (q *WorkerQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	if q.opts.blocking {
		select {
		case q.jobs <- job:
			return nil
		case <-q.closing:
			return ErrQueueClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		q.logger.Warn("queue full, dropping job", "path", job.Path)
		return ErrQueueFull
	}
}

// Shutdown stops accepting jobs and waits for queued ones to drain, or for
// ctx to expire, in which case running jobs are cancelled. Enqueues blocked
// waiting for space return ErrQueueClosed.
func (q *WorkerQueue) Shutdown(ctx context.Context) {
	first := false
	q.closeOnce.Do(func() {
		first = true
		close(q.closing)
	})
	if !first {
		return
	}

	q.mu.Lock()
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		q.logger.Info("worker queue drained")
	case <-ctx.Done():
		q.logger.Warn("worker queue shutdown timed out; cancelling running jobs")
		q.cancel()
		<-done
	}
	q.cancel()
}

func (q *WorkerQueue) worker(id int) {
	defer q.wg.Done()
	for job := range q.jobs {
		q.run(id, job)
	}
}

func (q *WorkerQueue) run(id int, job Job) {
	ctx := q.baseCtx
	if q.opts.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.opts.jobTimeout)
		defer cancel()
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("job panicked", "worker", id, "path", job.Path, "panic", r)
		}
	}()
	if err := q.handler(ctx, job); err != nil {
		q.logger.Error("job failed", "worker", id, "path", job.Path, "trace_id", job.TraceID, "error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return
	}
	q.logger.Info("job done", "worker", id, "path", job.Path, "trace_id", job.TraceID,
		"wait_ms", start.Sub(job.SubmittedAt).Milliseconds(),
		"duration_ms", time.Since(start).Milliseconds())
}
