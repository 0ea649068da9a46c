package target_test

import (
	"math"
	"testing"

	"github.com/somaedu/adapt/internal/domain/target"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	Convey("Given a valid subject range", t, func() {
		Convey("Then values map linearly onto [0,1]", func() {
			So(target.Normalize(0, 0, 10), ShouldEqual, 0.0)
			So(target.Normalize(5, 0, 10), ShouldEqual, 0.5)
			So(target.Normalize(10, 0, 10), ShouldEqual, 1.0)
		})

		Convey("And out-of-range values are clamped", func() {
			So(target.Normalize(-3, 0, 10), ShouldEqual, 0.0)
			So(target.Normalize(42, 0, 10), ShouldEqual, 1.0)
		})
	})

	Convey("Given degenerate ranges", t, func() {
		Convey("Then normalization defaults to 0.5", func() {
			So(target.Normalize(7, 5, 5), ShouldEqual, 0.5)
			So(target.Normalize(7, 9, 2), ShouldEqual, 0.5)
			So(target.Normalize(7, math.NaN(), 10), ShouldEqual, 0.5)
			So(target.Normalize(7, 0, math.NaN()), ShouldEqual, 0.5)
			So(target.Normalize(7, math.Inf(-1), 10), ShouldEqual, 0.5)
			So(target.Normalize(7, 0, math.Inf(1)), ShouldEqual, 0.5)
		})
	})
}

func TestFromRaw(t *testing.T) {
	Convey("Given the affine remap into [0.35, 1.0]", t, func() {
		Convey("Then boundary values map to the band edges", func() {
			So(target.FromRaw(0, 0, 10), ShouldAlmostEqual, 0.35)
			So(target.FromRaw(10, 0, 10), ShouldAlmostEqual, 1.0)
		})

		Convey("And every degenerate range yields exactly 0.675", func() {
			So(target.FromRaw(3, 4, 4), ShouldAlmostEqual, 0.675)
			So(target.FromRaw(3, 9, 1), ShouldAlmostEqual, 0.675)
			So(target.FromRaw(3, math.NaN(), math.NaN()), ShouldAlmostEqual, 0.675)
		})
	})
}

func TestInitialSeed(t *testing.T) {
	Convey("Given subject raw values", t, func() {
		Convey("When the subject has no items", func() {
			So(target.InitialSeed(nil), ShouldEqual, 0.5)
			So(target.InitialSeed([]float64{}), ShouldEqual, 0.5)
		})

		Convey("When the range is degenerate", func() {
			So(target.InitialSeed([]float64{4, 4, 4}), ShouldEqual, 0.5)
		})

		Convey("When the range is valid", func() {
			So(target.InitialSeed([]float64{2, 8, 5}), ShouldEqual, 5.0)
			So(target.InitialSeed([]float64{0, 10}), ShouldEqual, 5.0)
			So(target.InitialSeed([]float64{-4, 2}), ShouldEqual, -1.0)
		})

		Convey("When a value is non-finite", func() {
			So(target.InitialSeed([]float64{1, math.NaN()}), ShouldEqual, 0.5)
		})
	})
}

func TestCarryForward(t *testing.T) {
	Convey("Given a served item's raw curriculum value", t, func() {
		Convey("Then it is carried forward unchanged as the next seed", func() {
			So(target.CarryForward(7.25), ShouldEqual, 7.25)
			So(target.CarryForward(0), ShouldEqual, 0.0)
		})
	})
}
