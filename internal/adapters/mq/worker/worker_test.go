package worker_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/buzzdotfun/creatorscore/internal/adapters/mq/queue"
	"github.com/buzzdotfun/creatorscore/internal/adapters/mq/worker"
	"github.com/buzzdotfun/creatorscore/internal/domain/types"
	"github.com/buzzdotfun/creatorscore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// countingComputer records which identities were computed.
type countingComputer struct {
	mu       sync.Mutex
	computed map[types.FID]int
	err      error
	total    int64
}

func newCountingComputer() *countingComputer {
	return &countingComputer{computed: make(map[types.FID]int)}
}

func (c *countingComputer) Compute(ctx context.Context, fid types.FID, force bool) (types.ScoreRecord, error) {
	atomic.AddInt64(&c.total, 1)
	c.mu.Lock()
	c.computed[fid]++
	err := c.err
	c.mu.Unlock()
	if err != nil {
		return types.ScoreRecord{}, err
	}
	return types.ScoreRecord{FID: fid}, nil
}

func (c *countingComputer) count(fid types.FID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.computed[fid]
}

func (c *countingComputer) Total() int64 { return atomic.LoadInt64(&c.total) }

func TestWorker_Run(t *testing.T) {
	Convey("Given a worker bound to a queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		Reset(cancel)

		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		comp := newCountingComputer()
		w := worker.NewWorker(q, comp, worker.WithName("worker-test"))

		Convey("When jobs are queued and the worker runs", func() {
			So(q.Enqueue(ctx, queue.Job{JobID: "batch", FID: 1}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{JobID: "batch", FID: 2}), ShouldBeTrue)
			go w.Run(ctx)

			Convey("Then every queued identity is computed", func() {
				So(eventually(func() bool {
					return comp.count(1) == 1 && comp.count(2) == 1
				}), ShouldBeTrue)
			})
		})

		Convey("When a computation fails", func() {
			comp.err = errors.New("upstream exploded")
			So(q.Enqueue(ctx, queue.Job{JobID: "batch", FID: 3}), ShouldBeTrue)
			go w.Run(ctx)

			Convey("Then the job is dropped and the worker keeps running", func() {
				So(eventually(func() bool { return comp.count(3) == 1 }), ShouldBeTrue)

				comp.mu.Lock()
				comp.err = nil
				comp.mu.Unlock()
				So(q.Enqueue(ctx, queue.Job{JobID: "batch", FID: 4}), ShouldBeTrue)
				So(eventually(func() bool { return comp.count(4) == 1 }), ShouldBeTrue)
			})
		})

		Convey("When the worker is shut down", func() {
			go w.Run(ctx)
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), time.Second)
			defer cancelShutdown()

			Convey("Then Shutdown returns promptly", func() {
				So(w.Shutdown(shutdownCtx), ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	Convey("Given a worker pool over one queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		Reset(cancel)

		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		comp := newCountingComputer()

		Convey("When the pool drains a batch", func() {
			p := worker.NewPool(4, q, comp)
			So(p.Size(), ShouldEqual, 4)

			for fid := types.FID(1); fid <= 20; fid++ {
				So(q.Enqueue(ctx, queue.Job{JobID: "batch", FID: fid}), ShouldBeTrue)
			}
			p.Start(ctx)

			Convey("Then all jobs are processed exactly once", func() {
				So(eventually(func() bool { return comp.Total() == 20 }), ShouldBeTrue)
				for fid := types.FID(1); fid <= 20; fid++ {
					So(comp.count(fid), ShouldEqual, 1)
				}
				p.Stop()
			})
		})

		Convey("When a non-positive worker count is requested", func() {
			p := worker.NewPool(0, q, comp)

			Convey("Then the pool falls back to a sane default", func() {
				So(p.Size(), ShouldBeGreaterThanOrEqualTo, 4)
			})
		})
	})
}

// eventually polls cond until it holds or two seconds pass.
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}
