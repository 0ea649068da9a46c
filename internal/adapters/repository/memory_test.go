package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/somaedu/adapt/internal/domain/session"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an in-memory session store", t, func() {
		store := NewMemoryStore()
		defer store.Close()

		Convey("Get on an unknown id reports not found", func() {
			_, err := store.Get(ctx, "missing")
			So(errors.Is(err, session.ErrNotFound), ShouldBeTrue)
		})

		Convey("Save then Get round-trips the session", func() {
			s := session.New(7, "student-1", 5)
			So(store.Save(ctx, s), ShouldBeNil)

			got, err := store.Get(ctx, s.ID)
			So(err, ShouldBeNil)
			So(got.ID, ShouldEqual, s.ID)
			So(got.SubjectID, ShouldEqual, 7)
			So(got.MaxItems, ShouldEqual, 5)
		})

		Convey("Stored sessions do not alias the caller's copy", func() {
			s := session.New(7, "student-1", 5)
			So(store.Save(ctx, s), ShouldBeNil)

			s.Exclude(42)

			got, err := store.Get(ctx, s.ID)
			So(err, ShouldBeNil)
			So(got.IsExcluded(42), ShouldBeFalse)
		})

		Convey("Delete removes the session", func() {
			s := session.New(7, "student-1", 5)
			So(store.Save(ctx, s), ShouldBeNil)
			So(store.Delete(ctx, s.ID), ShouldBeNil)

			_, err := store.Get(ctx, s.ID)
			So(errors.Is(err, session.ErrNotFound), ShouldBeTrue)
		})

		Convey("Delete on an unknown id is a no-op", func() {
			So(store.Delete(ctx, "missing"), ShouldBeNil)
		})

		Convey("Count tracks stored sessions", func() {
			n, err := store.Count(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)

			So(store.Save(ctx, session.New(1, "a", 5)), ShouldBeNil)
			So(store.Save(ctx, session.New(1, "b", 5)), ShouldBeNil)

			n, err = store.Count(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
		})
	})

	Convey("Given a store with a very short TTL", t, func() {
		store := NewMemoryStore(
			WithTTL(10*time.Millisecond),
			WithJanitorInterval(5*time.Millisecond),
		)
		defer store.Close()

		Convey("Expired sessions become unreadable and get swept", func() {
			s := session.New(1, "a", 5)
			So(store.Save(ctx, s), ShouldBeNil)

			time.Sleep(30 * time.Millisecond)

			_, err := store.Get(ctx, s.ID)
			So(errors.Is(err, session.ErrNotFound), ShouldBeTrue)

			n, err := store.Count(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)
		})
	})
}
