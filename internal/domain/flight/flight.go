// Package flight tracks in-flight score computations by identity so
// duplicate triggering requests share one computation instead of
// re-issuing the same expensive upstream work.
package flight

import (
	"context"
	"sync"
	"time"

	"github.com/buzzdotfun/creatorscore/internal/domain/types"
	"github.com/buzzdotfun/creatorscore/pkg/metrics"
)

// Fn computes a score record. It is invoked at most once per key per
// flight, regardless of how many callers ask.
type Fn func(ctx context.Context) (types.ScoreRecord, error)

// call is one in-flight computation shared by all its waiters.
type call struct {
	done chan struct{}
	val  types.ScoreRecord
	err  error
}

// Registry implements the single-flight guarantee: concurrent callers
// for the same identity converge on one computation and share its
// result or failure.
type Registry struct {
	mu    sync.Mutex
	calls map[types.FID]*call
}

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithInitialCapacity pre-sizes the in-flight index.
func WithInitialCapacity(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.calls = make(map[types.FID]*call, n)
		}
	}
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{calls: make(map[types.FID]*call)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do runs fn for key, guaranteeing at most one concurrent execution per
// key. Callers arriving while a computation is in flight join it. If
// wait elapses before the computation finishes, Do returns
// ErrStillComputing; the computation keeps running in the background
// and its result remains available to later callers through the cache.
// A non-positive wait blocks until the computation finishes or ctx is
// cancelled.
func (r *Registry) Do(ctx context.Context, key types.FID, wait time.Duration, fn Fn) (types.ScoreRecord, error) {
	r.mu.Lock()
	if c, ok := r.calls[key]; ok {
		r.mu.Unlock()
		metrics.RecordFlightDedup()
		return r.await(ctx, c, wait)
	}
	c := &call{done: make(chan struct{})}
	r.calls[key] = c
	r.mu.Unlock()

	metrics.IncInflight()
	// The computation is detached from the triggering caller so a
	// caller timeout does not abort work other waiters depend on.
	bgCtx := context.WithoutCancel(ctx)
	go func() {
		defer metrics.DecInflight()
		c.val, c.err = fn(bgCtx)

		r.mu.Lock()
		delete(r.calls, key)
		r.mu.Unlock()

		close(c.done)
	}()

	return r.await(ctx, c, wait)
}

// await blocks until the call completes, the wait budget elapses, or
// ctx is cancelled.
func (r *Registry) await(ctx context.Context, c *call, wait time.Duration) (types.ScoreRecord, error) {
	var expired <-chan time.Time
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-c.done:
		return c.val, c.err
	case <-expired:
		return types.ScoreRecord{}, ErrStillComputing
	case <-ctx.Done():
		return types.ScoreRecord{}, ctx.Err()
	}
}

// Inflight returns the number of computations currently in flight.
func (r *Registry) Inflight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}
