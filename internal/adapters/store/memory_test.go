package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/buzzdotfun/creatorscore/internal/adapters/store"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty in-memory store", t, func() {
		now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
		clock := &now
		s := store.NewMemoryStore(store.WithClock(func() time.Time { return *clock }))

		Convey("When a key was never written", func() {
			_, err := s.Get(ctx, "creator:score:1")

			Convey("Then Get reports absence", func() {
				So(errors.Is(err, store.ErrAbsent), ShouldBeTrue)
			})
		})

		Convey("When a value is written without a TTL", func() {
			So(s.Put(ctx, "k", []byte("v"), 0), ShouldBeNil)

			Convey("Then it stays readable forever", func() {
				now = now.Add(1000 * time.Hour)
				v, err := s.Get(ctx, "k")
				So(err, ShouldBeNil)
				So(string(v), ShouldEqual, "v")
			})
		})

		Convey("When a value is written with a TTL", func() {
			So(s.Put(ctx, "k", []byte("v"), time.Hour), ShouldBeNil)

			Convey("Then it is readable before expiry", func() {
				v, err := s.Get(ctx, "k")
				So(err, ShouldBeNil)
				So(string(v), ShouldEqual, "v")
			})

			Convey("Then it is absent after expiry", func() {
				now = now.Add(2 * time.Hour)
				_, err := s.Get(ctx, "k")
				So(errors.Is(err, store.ErrAbsent), ShouldBeTrue)
			})

			Convey("And a rewrite resets the window", func() {
				now = now.Add(50 * time.Minute)
				So(s.Put(ctx, "k", []byte("v2"), time.Hour), ShouldBeNil)
				now = now.Add(50 * time.Minute)
				v, err := s.Get(ctx, "k")
				So(err, ShouldBeNil)
				So(string(v), ShouldEqual, "v2")
			})
		})

		Convey("When several prefixed keys are written", func() {
			So(s.Put(ctx, "creator:score:3", []byte("c"), 0), ShouldBeNil)
			So(s.Put(ctx, "creator:score:1", []byte("a"), 0), ShouldBeNil)
			So(s.Put(ctx, "creator:score:2", []byte("b"), 0), ShouldBeNil)
			So(s.Put(ctx, "creator:leaderboard:2025-06-15", []byte("x"), 0), ShouldBeNil)

			Convey("Then Scan returns only the prefix, in key order", func() {
				values, err := s.Scan(ctx, "creator:score:")
				So(err, ShouldBeNil)
				So(len(values), ShouldEqual, 3)
				So(string(values[0]), ShouldEqual, "a")
				So(string(values[1]), ShouldEqual, "b")
				So(string(values[2]), ShouldEqual, "c")
			})

			Convey("Then Scan skips expired entries", func() {
				So(s.Put(ctx, "creator:score:4", []byte("d"), time.Minute), ShouldBeNil)
				now = now.Add(2 * time.Minute)
				values, err := s.Scan(ctx, "creator:score:")
				So(err, ShouldBeNil)
				So(len(values), ShouldEqual, 3)
			})
		})

		Convey("When expired entries pile up", func() {
			So(s.Put(ctx, "a", []byte("1"), time.Minute), ShouldBeNil)
			So(s.Put(ctx, "b", []byte("2"), time.Minute), ShouldBeNil)
			So(s.Put(ctx, "c", []byte("3"), 0), ShouldBeNil)
			now = now.Add(time.Hour)

			Convey("Then Sweep removes exactly the expired ones", func() {
				So(s.Sweep(), ShouldEqual, 2)
				So(s.Len(), ShouldEqual, 1)
			})
		})

		Convey("When the store is closed", func() {
			So(s.Close(), ShouldBeNil)
		})
	})
}
