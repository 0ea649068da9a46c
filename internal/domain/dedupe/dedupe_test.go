package dedupe

import (
	"context"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given an in-memory deduper", t, func() {
		d := NewInMemoryDeduper()

		Convey("A new id is not seen and gets recorded", func() {
			So(d.SeenAndRecord(ctx, "s1:10"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 1)
		})

		Convey("A repeated id is seen", func() {
			So(d.SeenAndRecord(ctx, "s1:10"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "s1:10"), ShouldBeTrue)
			So(d.Size(), ShouldEqual, 1)
		})

		Convey("Unrecord allows the id to be recorded again", func() {
			So(d.SeenAndRecord(ctx, "s1:10"), ShouldBeFalse)
			d.Unrecord(ctx, "s1:10")
			So(d.Size(), ShouldEqual, 0)
			So(d.SeenAndRecord(ctx, "s1:10"), ShouldBeFalse)
		})

		Convey("Unrecord of an unknown id is a no-op", func() {
			d.Unrecord(ctx, "missing")
			So(d.Size(), ShouldEqual, 0)
		})
	})

	Convey("Given a deduper bounded to 3 ids", t, func() {
		d := NewInMemoryDeduper(WithMaxSize(3))

		Convey("The oldest id is evicted at the bound", func() {
			for i := 0; i < 3; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("id-%d", i)), ShouldBeFalse)
			}
			So(d.Size(), ShouldEqual, 3)

			So(d.SeenAndRecord(ctx, "id-3"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 3)

			So(d.SeenAndRecord(ctx, "id-0"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "id-3"), ShouldBeTrue)
		})
	})
}
