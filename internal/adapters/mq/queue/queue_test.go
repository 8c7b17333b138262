package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/buzzdotfun/creatorscore/internal/adapters/mq/queue"
	"github.com/buzzdotfun/creatorscore/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a bounded in-memory queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(3))

		Convey("When jobs are enqueued", func() {
			So(q.Enqueue(ctx, queue.Job{JobID: "j1", FID: 1}), ShouldBeTrue)
			So(q.Enqueue(ctx, queue.Job{JobID: "j1", FID: 2}), ShouldBeTrue)

			Convey("Then Len reflects the backlog", func() {
				So(q.Len(ctx), ShouldEqual, 2)
			})

			Convey("And a repeated identity is absorbed without scheduling", func() {
				So(q.Enqueue(ctx, queue.Job{JobID: "j2", FID: 1}), ShouldBeTrue)
				So(q.Len(ctx), ShouldEqual, 2)
			})

			Convey("And Dequeue delivers jobs in order", func() {
				jobs := q.Dequeue(ctx)
				first := <-jobs
				second := <-jobs
				So(first.FID, ShouldEqual, types.FID(1))
				So(second.FID, ShouldEqual, types.FID(2))
			})

			Convey("And a dequeued identity may be enqueued again", func() {
				jobs := q.Dequeue(ctx)
				first := <-jobs
				So(first.FID, ShouldEqual, types.FID(1))

				enqueued := waitUntil(func() bool {
					return q.Enqueue(ctx, queue.Job{JobID: "j3", FID: 1})
				})
				So(enqueued, ShouldBeTrue)
			})
		})

		Convey("When the queue is full", func() {
			for fid := types.FID(1); fid <= 3; fid++ {
				So(q.Enqueue(ctx, queue.Job{FID: fid}), ShouldBeTrue)
			}

			Convey("Then further distinct identities are rejected", func() {
				So(q.Enqueue(ctx, queue.Job{FID: 99}), ShouldBeFalse)
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Enqueue(ctx, queue.Job{FID: 5}), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueues are rejected", func() {
				So(q.Enqueue(ctx, queue.Job{FID: 6}), ShouldBeFalse)
			})

			Convey("And closing again is harmless", func() {
				So(q.Close(), ShouldBeNil)
			})

			Convey("And Dequeue drains the backlog then closes", func() {
				jobs := q.Dequeue(ctx)
				j, ok := <-jobs
				So(ok, ShouldBeTrue)
				So(j.FID, ShouldEqual, types.FID(5))

				_, ok = <-jobs
				So(ok, ShouldBeFalse)
			})
		})
	})
}

// waitUntil polls cond until it holds or a deadline passes.
func waitUntil(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}
