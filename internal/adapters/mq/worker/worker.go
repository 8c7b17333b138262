// Package worker drains the precompute queue, computing scores for
// queued identities through the same single-flighted cache path the
// HTTP handlers use.
package worker

import (
	"context"
	"errors"
	"runtime"
	"strconv"
	"time"

	"github.com/buzzdotfun/creatorscore/internal/domain/flight"
	"github.com/buzzdotfun/creatorscore/internal/domain/model"
	"github.com/buzzdotfun/creatorscore/internal/domain/types"
	"github.com/buzzdotfun/creatorscore/pkg/logger"
	"github.com/buzzdotfun/creatorscore/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount    = 4
	workerShutdownTimeout = 5 * time.Second
)

// Job is what workers read off the queue.
type Job = model.Job

// Computer produces (and caches) a score for an identity. Implemented
// by the score cache's read-through path.
type Computer interface {
	Compute(ctx context.Context, fid types.FID, force bool) (types.ScoreRecord, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes precompute jobs until stopped.
type Worker struct {
	queue    Queue
	computer Computer
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWorker creates a worker bound to a queue and computer.
func NewWorker(queue Queue, computer Computer, opts ...Option) *Worker {
	w := &Worker{
		queue:    queue,
		computer: computer,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run processes jobs until ctx is cancelled, shutdown is signalled, or
// the queue closes.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// process computes one queued identity. Failures are logged and
// dropped; bulk populate is best-effort and a later request retries
// through the normal read path.
func (w *Worker) process(ctx context.Context, job Job) {
	_, err := w.computer.Compute(ctx, job.FID, job.Force)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, flight.ErrStillComputing):
		// Another caller owns the computation; its result lands in the
		// cache either way.
	default:
		w.logger.Warn(ctx, "precompute failed",
			logger.String("job", job.JobID),
			logger.Uint64("fid", uint64(job.FID)),
			logger.Error(err),
		)
		return
	}
	w.logger.Debug(ctx, "precompute done",
		logger.String("job", job.JobID),
		logger.Uint64("fid", uint64(job.FID)),
	)
}

// Shutdown stops the worker, waiting for the current job.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "worker shutdown timed out")
		return ctx.Err()
	}
}

// Pool manages a fixed set of workers over one queue.
type Pool struct {
	workers []*Worker
	logger  logger.Logger
}

// NewPool creates workerCount workers; non-positive counts fall back
// to a CPU-derived default.
func NewPool(workerCount int, queue Queue, computer Computer) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
		if n := runtime.NumCPU(); n > workerCount {
			workerCount = n
		}
	}

	p := &Pool{
		workers: make([]*Worker, workerCount),
		logger:  logger.Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewWorker(queue, computer, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Stop signals all workers and waits briefly for each.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		close(w.shutdown)
	}
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
	metrics.UpdateWorkerCount(0)
}
