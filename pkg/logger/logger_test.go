package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInitAndGet(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		err := Init()
		So(err, ShouldBeNil)

		Convey("Then Get should return a usable logger", func() {
			l := Get()
			So(l, ShouldNotBeNil)
			So(func() {
				l.Info(context.Background(), "hello", String("k", "v"))
			}, ShouldNotPanic)
		})

		Convey("And Named should return a scoped logger", func() {
			l := Named("ranking")
			So(l, ShouldNotBeNil)
			So(func() {
				l.Debug(context.Background(), "scoped message")
			}, ShouldNotPanic)
		})

		Convey("And Sync should not fail", func() {
			So(Sync(), ShouldBeNil)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(Init(), ShouldBeNil)

		Convey("When setting known levels", func() {
			for _, lvl := range []string{"debug", "info", "warn", "warning", "error", "", "  INFO "} {
				So(SetLevelString(lvl), ShouldBeNil)
			}
		})

		Convey("When setting an unknown level", func() {
			So(SetLevelString("loud"), ShouldNotBeNil)
		})
	})
}

func TestFieldConstructors(t *testing.T) {
	Convey("Given field constructors", t, func() {
		So(String("a", "b").Key, ShouldEqual, "a")
		So(Int("n", 3).Value, ShouldEqual, 3)
		So(Int64("n", int64(9)).Value, ShouldEqual, int64(9))
		So(Float64("f", 0.5).Value, ShouldEqual, 0.5)
		So(Duration("d", time.Second).Value, ShouldEqual, time.Second)
		So(Any("x", []int{1}).Key, ShouldEqual, "x")

		err := errors.New("boom")
		f := Error(err)
		So(f.Key, ShouldEqual, "error")
		So(f.Value, ShouldEqual, err)
	})
}
