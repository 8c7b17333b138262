package cache_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/buzzdotfun/creatorscore/internal/adapters/cache"
	"github.com/buzzdotfun/creatorscore/internal/adapters/fetcher"
	"github.com/buzzdotfun/creatorscore/internal/adapters/store"
	"github.com/buzzdotfun/creatorscore/internal/domain/model"
	"github.com/buzzdotfun/creatorscore/internal/domain/scoring"
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

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// fakeFetcher serves canned metrics and counts upstream round trips.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   int64
	err     error
	latency time.Duration
}

func (f *fakeFetcher) FetchRawMetrics(ctx context.Context, fid types.FID) (model.RawMetrics, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.latency > 0 {
		time.Sleep(f.latency)
	}
	f.mu.Lock()
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return model.RawMetrics{}, err
	}

	casts := make([]model.Cast, 10)
	for i := range casts {
		casts[i] = model.Cast{
			Timestamp: testNow.Add(-time.Duration(i) * 24 * time.Hour),
			Likes:     int(fid) * 10,
			ChannelID: "dev",
		}
	}
	return model.RawMetrics{
		FID: fid,
		Profile: model.Profile{
			Username:         "user",
			FollowerCount:    1000,
			AccountCreatedAt: testNow.Add(-200 * 24 * time.Hour),
		},
		Casts:     casts,
		FetchedAt: testNow,
	}, nil
}

func (f *fakeFetcher) Calls() int64 { return atomic.LoadInt64(&f.calls) }

func (f *fakeFetcher) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// failingStore rejects writes; reads delegate to the wrapped store.
type failingStore struct {
	store.Store
}

func (f *failingStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return store.ErrUnavailable
}

func TestScoreCache_GetOrCompute(t *testing.T) {
	ctx := context.Background()

	Convey("Given a score cache over an in-memory store", t, func() {
		now := testNow
		clock := func() time.Time { return now }
		ff := &fakeFetcher{}
		st := store.NewMemoryStore(store.WithClock(clock))
		c := cache.NewScoreCache(st, ff, scoring.NewEngine(),
			cache.WithTTL(24*time.Hour),
			cache.WithScoreClock(clock),
		)

		Convey("When an identity is requested for the first time", func() {
			rec, err := c.GetOrCompute(ctx, 42, false)

			Convey("Then a record is computed from a fresh snapshot", func() {
				So(err, ShouldBeNil)
				So(rec.FID, ShouldEqual, types.FID(42))
				So(rec.Username, ShouldEqual, "user")
				So(rec.OverallScore, ShouldBeGreaterThan, 0)
				So(rec.Tier.Valid(), ShouldBeTrue)
				So(rec.ComputedAt, ShouldResemble, now)
				So(rec.ValidUntil, ShouldResemble, now.Add(24*time.Hour))
				So(ff.Calls(), ShouldEqual, 1)
			})

			Convey("And a repeat request is served from cache", func() {
				again, err := c.GetOrCompute(ctx, 42, false)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, rec)
				So(ff.Calls(), ShouldEqual, 1)
			})

			Convey("And a forced request recomputes", func() {
				_, err := c.GetOrCompute(ctx, 42, true)
				So(err, ShouldBeNil)
				So(ff.Calls(), ShouldEqual, 2)
			})

			Convey("And once the freshness window passes it recomputes", func() {
				now = now.Add(25 * time.Hour)
				_, err := c.GetOrCompute(ctx, 42, false)
				So(err, ShouldBeNil)
				So(ff.Calls(), ShouldEqual, 2)
			})
		})

		Convey("When many callers request the same identity at once", func() {
			ff.latency = 30 * time.Millisecond

			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = c.GetOrCompute(ctx, 7, false)
				}()
			}
			wg.Wait()

			Convey("Then only one upstream fetch happened", func() {
				So(ff.Calls(), ShouldEqual, 1)
			})
		})

		Convey("When the upstream fetch fails", func() {
			ff.fail(fetcher.ErrUnavailable)
			_, err := c.GetOrCompute(ctx, 9, false)

			Convey("Then the error propagates", func() {
				So(errors.Is(err, fetcher.ErrUnavailable), ShouldBeTrue)
			})

			Convey("And nothing was cached", func() {
				_, err := c.Get(ctx, 9)
				So(errors.Is(err, cache.ErrMiss), ShouldBeTrue)
			})

			Convey("And the identity recovers once upstream does", func() {
				ff.fail(nil)
				rec, err := c.GetOrCompute(ctx, 9, false)
				So(err, ShouldBeNil)
				So(rec.FID, ShouldEqual, types.FID(9))
			})
		})

		Convey("When the persistence write fails", func() {
			broken := cache.NewScoreCache(&failingStore{Store: st}, ff, scoring.NewEngine(),
				cache.WithScoreClock(clock),
			)
			rec, err := broken.GetOrCompute(ctx, 11, false)

			Convey("Then the freshly computed record is still served", func() {
				So(err, ShouldBeNil)
				So(rec.FID, ShouldEqual, types.FID(11))
			})

			Convey("And later reads come from the in-memory index", func() {
				again, err := broken.GetOrCompute(ctx, 11, false)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, rec)
				So(ff.Calls(), ShouldEqual, 1)
			})
		})

		Convey("When the process restarts but the store survives", func() {
			_, err := c.GetOrCompute(ctx, 42, false)
			So(err, ShouldBeNil)

			rebooted := cache.NewScoreCache(st, ff, scoring.NewEngine(),
				cache.WithTTL(24*time.Hour),
				cache.WithScoreClock(clock),
			)

			Convey("Then the persisted record is found without a fetch", func() {
				rec, err := rebooted.Get(ctx, 42)
				So(err, ShouldBeNil)
				So(rec.FID, ShouldEqual, types.FID(42))
				So(ff.Calls(), ShouldEqual, 1)
			})
		})
	})
}

func TestScoreCache_Records(t *testing.T) {
	ctx := context.Background()

	Convey("Given a cache holding several records", t, func() {
		now := testNow
		clock := func() time.Time { return now }
		ff := &fakeFetcher{}
		st := store.NewMemoryStore(store.WithClock(clock))
		c := cache.NewScoreCache(st, ff, scoring.NewEngine(), cache.WithScoreClock(clock))

		for _, fid := range []types.FID{3, 1, 2} {
			_, err := c.GetOrCompute(ctx, fid, false)
			So(err, ShouldBeNil)
		}

		Convey("When the record set is scanned", func() {
			records := c.Records(ctx)

			Convey("Then every record appears once, ordered by identity", func() {
				So(len(records), ShouldEqual, 3)
				So(records[0].FID, ShouldEqual, types.FID(1))
				So(records[1].FID, ShouldEqual, types.FID(2))
				So(records[2].FID, ShouldEqual, types.FID(3))
			})
		})

		Convey("When records expire well past the freshness window", func() {
			So(c.Count(), ShouldEqual, 3)
			now = now.Add(72 * time.Hour)

			Convey("Then Sweep drops them from the index", func() {
				So(c.Sweep(), ShouldEqual, 3)
				So(c.Count(), ShouldEqual, 0)
			})
		})
	})
}
