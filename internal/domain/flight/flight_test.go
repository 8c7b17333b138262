package flight_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/buzzdotfun/creatorscore/internal/domain/flight"
	"github.com/buzzdotfun/creatorscore/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRegistry_Do(t *testing.T) {
	Convey("Given an empty registry", t, func() {
		r := flight.New()

		Convey("When ten callers request the same identity concurrently", func() {
			var executions int64
			fn := func(ctx context.Context) (types.ScoreRecord, error) {
				atomic.AddInt64(&executions, 1)
				time.Sleep(50 * time.Millisecond)
				return types.ScoreRecord{FID: 1, OverallScore: 42}, nil
			}

			var wg sync.WaitGroup
			results := make([]types.ScoreRecord, 10)
			errs := make([]error, 10)
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i], errs[i] = r.Do(context.Background(), 1, 0, fn)
				}(i)
			}
			wg.Wait()

			Convey("Then the computation ran exactly once", func() {
				So(atomic.LoadInt64(&executions), ShouldEqual, 1)
			})

			Convey("And every caller got the same result", func() {
				for i := 0; i < 10; i++ {
					So(errs[i], ShouldBeNil)
					So(results[i].OverallScore, ShouldEqual, 42)
				}
			})
		})

		Convey("When different identities are requested concurrently", func() {
			var executions int64
			fn := func(ctx context.Context) (types.ScoreRecord, error) {
				atomic.AddInt64(&executions, 1)
				time.Sleep(20 * time.Millisecond)
				return types.ScoreRecord{}, nil
			}

			var wg sync.WaitGroup
			for fid := types.FID(1); fid <= 5; fid++ {
				wg.Add(1)
				go func(fid types.FID) {
					defer wg.Done()
					_, _ = r.Do(context.Background(), fid, 0, fn)
				}(fid)
			}
			wg.Wait()

			Convey("Then each identity got its own computation", func() {
				So(atomic.LoadInt64(&executions), ShouldEqual, 5)
			})
		})

		Convey("When the computation outlasts the wait budget", func() {
			done := make(chan struct{})
			fn := func(ctx context.Context) (types.ScoreRecord, error) {
				defer close(done)
				time.Sleep(150 * time.Millisecond)
				return types.ScoreRecord{FID: 2, OverallScore: 7}, nil
			}

			_, err := r.Do(context.Background(), 2, 10*time.Millisecond, fn)

			Convey("Then the caller gets the still-computing signal", func() {
				So(errors.Is(err, flight.ErrStillComputing), ShouldBeTrue)
			})

			Convey("And the detached computation still finishes", func() {
				select {
				case <-done:
				case <-time.After(time.Second):
					t.Fatal("computation never finished")
				}
				// The flight entry is cleared once done.
				So(waitInflightZero(r), ShouldBeTrue)
			})
		})

		Convey("When the computation fails", func() {
			boom := errors.New("upstream exploded")
			fn := func(ctx context.Context) (types.ScoreRecord, error) {
				time.Sleep(30 * time.Millisecond)
				return types.ScoreRecord{}, boom
			}

			var wg sync.WaitGroup
			errs := make([]error, 3)
			for i := 0; i < 3; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = r.Do(context.Background(), 3, 0, fn)
				}(i)
			}
			wg.Wait()

			Convey("Then the failure is shared by every waiter", func() {
				for i := 0; i < 3; i++ {
					So(errors.Is(errs[i], boom), ShouldBeTrue)
				}
			})

			Convey("And a later call retries with a fresh computation", func() {
				var retried bool
				_, err := r.Do(context.Background(), 3, 0, func(ctx context.Context) (types.ScoreRecord, error) {
					retried = true
					return types.ScoreRecord{}, nil
				})
				So(err, ShouldBeNil)
				So(retried, ShouldBeTrue)
			})
		})

		Convey("When the caller's context is cancelled while waiting", func() {
			ctx, cancel := context.WithCancel(context.Background())
			fn := func(ctx context.Context) (types.ScoreRecord, error) {
				time.Sleep(100 * time.Millisecond)
				return types.ScoreRecord{}, nil
			}

			go func() {
				time.Sleep(10 * time.Millisecond)
				cancel()
			}()
			_, err := r.Do(ctx, 4, 0, fn)

			Convey("Then the caller gets the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

// waitInflightZero polls until the registry drains or a deadline hits.
func waitInflightZero(r *flight.Registry) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if r.Inflight() == 0 {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}
