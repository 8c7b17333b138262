package service_test

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/buzzdotfun/creatorscore/internal/adapters/store"
	service "github.com/buzzdotfun/creatorscore/internal/app"
	"github.com/buzzdotfun/creatorscore/internal/domain/model"
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

// fakeFetcher serves canned metrics and counts invocations.
type fakeFetcher struct {
	calls int64
}

func (f *fakeFetcher) FetchRawMetrics(ctx context.Context, fid types.FID) (model.RawMetrics, error) {
	atomic.AddInt64(&f.calls, 1)
	now := time.Now().UTC()
	casts := make([]model.Cast, 0, 10)
	for i := 0; i < 10; i++ {
		casts = append(casts, model.Cast{
			Timestamp: now.Add(-time.Duration(i) * 24 * time.Hour),
			Likes:     5,
			Recasts:   1,
		})
	}
	return model.RawMetrics{
		FID: fid,
		Profile: model.Profile{
			Username:         "user",
			DisplayName:      "User",
			FollowerCount:    1000,
			FollowingCount:   200,
			QualitySignal:    0.8,
			AccountCreatedAt: now.Add(-120 * 24 * time.Hour),
		},
		Casts:     casts,
		FetchedAt: now,
	}, nil
}

func (f *fakeFetcher) Calls() int64 { return atomic.LoadInt64(&f.calls) }

func TestService_Lifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a fake fetcher", t, func() {
		f := &fakeFetcher{}
		svc := service.New(
			service.WithFetcher(f),
			service.WithStore(store.NewMemoryStore()),
			service.WithWorkerCount(2),
			service.WithTopN(10),
		)

		Convey("When it starts", func() {
			So(svc.Start(ctx), ShouldBeNil)
			Reset(svc.Stop)

			Convey("Then starting again is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("Then a score can be fetched on demand", func() {
				rec, err := svc.GetScore(ctx, 42, false)
				So(err, ShouldBeNil)
				So(rec.FID, ShouldEqual, types.FID(42))
				So(rec.Username, ShouldEqual, "user")
				So(rec.OverallScore, ShouldBeGreaterThan, 0)
				So(rec.Tier.Valid(), ShouldBeTrue)

				Convey("And a second fetch is a cache hit", func() {
					again, err := svc.GetScore(ctx, 42, false)
					So(err, ShouldBeNil)
					So(again.ComputedAt, ShouldResemble, rec.ComputedAt)
					So(f.Calls(), ShouldEqual, 1)
				})
			})

			Convey("Then the leaderboard builds from cached scores", func() {
				_, err := svc.GetScore(ctx, 1, false)
				So(err, ShouldBeNil)
				_, err = svc.GetScore(ctx, 2, false)
				So(err, ShouldBeNil)

				snap, err := svc.RefreshLeaderboard(ctx)
				So(err, ShouldBeNil)
				So(len(snap.Entries), ShouldEqual, 2)
				So(snap.Entries[0].Rank, ShouldEqual, 1)

				cached, err := svc.Leaderboard(ctx)
				So(err, ShouldBeNil)
				So(cached.SnapshotID, ShouldEqual, snap.SnapshotID)
			})

			Convey("Then a populate batch is computed asynchronously", func() {
				jobID, queued := svc.EnqueuePopulate(ctx, []types.FID{10, 11, 12}, false)
				So(jobID, ShouldNotBeEmpty)
				So(queued, ShouldEqual, 3)

				So(eventually(func() bool {
					stats := svc.GetStats()
					n, ok := stats["cachedScores"].(int)
					return ok && n >= 3
				}), ShouldBeTrue)
			})

			Convey("Then stats expose the runtime state", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldBeTrue)
				So(stats["workerCount"], ShouldEqual, 2)
				So(stats["topN"], ShouldEqual, 10)
				So(stats, ShouldContainKey, "cachedScores")
				So(stats, ShouldContainKey, "inflight")
				So(stats, ShouldContainKey, "queueLength")
			})

			Convey("Then stopping twice is harmless", func() {
				svc.Stop()
				svc.Stop()
				So(svc.GetStats()["started"], ShouldBeFalse)
			})
		})

		Convey("When no fetcher is configured", func() {
			bare := service.New()

			Convey("Then Start refuses", func() {
				So(bare.Start(ctx), ShouldNotBeNil)
			})
		})
	})
}

// eventually polls cond until it holds or five seconds pass.
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
