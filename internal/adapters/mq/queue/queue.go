// Package queue provides the bounded in-memory queue feeding the score
// precompute workers.
package queue

import (
	"context"
	"sync"

	"github.com/buzzdotfun/creatorscore/internal/domain/model"
	"github.com/buzzdotfun/creatorscore/internal/domain/types"
	"github.com/buzzdotfun/creatorscore/pkg/metrics"
)

// Default queue configuration constants.
const defaultQueueCapacity = 10000

// Job is the payload type flowing through the queue.
type Job = model.Job

// Queue provides non-blocking enqueue and channel-based dequeue
// semantics for precompute jobs.
type Queue interface {
	// Enqueue adds a job. Returns false on backpressure, shutdown, or
	// when the identity is already waiting in the queue.
	Enqueue(ctx context.Context, j Job) bool

	// Dequeue returns a channel delivering jobs as they become
	// available. The channel closes when the queue closes.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the current number of queued jobs.
	Len(ctx context.Context) int

	// Close shuts the queue down; no further enqueues are accepted.
	Close() error
}

// InMemoryQueue implements Queue on a buffered channel with an
// in-queue identity set, so bulk populate requests that repeat a FID
// do not schedule duplicate work.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int

	mu      sync.Mutex
	closed  bool
	waiting map[types.FID]struct{}
}

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity bounds the number of queued jobs.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// NewInMemoryQueue creates an empty queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		waiting:  make(map[types.FID]struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a job unless the queue is closed, full, or the identity
// is already waiting.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		metrics.RecordQueueDrop()
		return false
	}
	if _, dup := q.waiting[j.FID]; dup {
		// Duplicate in-queue identity; the pending job covers it.
		return true
	}

	select {
	case q.jobs <- j:
		q.waiting[j.FID] = struct{}{}
		metrics.UpdateQueueSize(len(q.jobs))
		return true
	case <-ctx.Done():
		metrics.RecordQueueDrop()
		return false
	default:
		metrics.RecordQueueDrop()
		return false
	}
}

// Dequeue returns a channel delivering jobs until the queue closes.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for j := range q.jobs {
			q.mu.Lock()
			delete(q.waiting, j.FID)
			q.mu.Unlock()
			metrics.UpdateQueueSize(len(q.jobs))

			select {
			case out <- j:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.jobs)
}

// Close shuts the queue down.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}
