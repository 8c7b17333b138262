package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When options carry empty values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithRegistry(registry),
			)

			Convey("Then the defaults are kept", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "creatorscore")
				So(manager.subsystem, ShouldEqual, "service")
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the package-level helpers", t, func() {
		Convey("When recording score pipeline metrics", func() {
			So(func() {
				RecordScoreComputation()
				RecordScoreComputationError()
				RecordScoreComputationTime(120.0)
				RecordFetchError()
				RecordFetchLatency(80.0)
			}, ShouldNotPanic)
		})

		Convey("When recording cache metrics", func() {
			So(func() {
				RecordScoreCacheHit()
				RecordScoreCacheMiss()
				RecordFlightDedup()
				IncInflight()
				DecInflight()
				UpdateCachedScores(1234)
			}, ShouldNotPanic)
		})

		Convey("When recording leaderboard metrics", func() {
			So(func() {
				RecordLeaderboardRefresh()
				RecordLeaderboardRefreshTime(35.0)
				UpdateLeaderboardSize(50)
			}, ShouldNotPanic)
		})

		Convey("When recording persistence metrics", func() {
			So(func() {
				RecordStoreReadError()
				RecordStoreWriteError()
			}, ShouldNotPanic)
		})

		Convey("When recording queue and worker metrics", func() {
			So(func() {
				UpdateQueueSize(1000)
				UpdateQueueSize(0)
				RecordQueueDrop()
				UpdateWorkerCount(8)
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				RecordHTTPRequest("/api/leaderboard", "GET", "200")
				RecordHTTPRequest("/api/score/creator/", "GET", "202")
				RecordHTTPRequestDuration("/api/leaderboard", "GET", "200", 12.0)
				RecordHTTPRequestDuration("", "", "200", 0.0)
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		done := make(chan bool, 10)

		for i := 0; i < 10; i++ {
			go func() {
				for j := 0; j < 100; j++ {
					RecordScoreComputation()
					UpdateQueueSize(j)
					RecordScoreComputationTime(float64(j))
					RecordHTTPRequest("/api/leaderboard", "GET", "200")
				}
				done <- true
			}()
		}
		for i := 0; i < 10; i++ {
			<-done
		}

		Convey("Then concurrent access completes without panics", func() {
			So(true, ShouldBeTrue)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the global registry", t, func() {
		Convey("When the handler asks for it", func() {
			registry := GetRegistry()

			Convey("Then it is non-nil and gatherable", func() {
				So(registry, ShouldNotBeNil)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldNotBeNil)
			})
		})
	})
}
