package bounds_test

import (
	"math"
	"testing"

	bounds "github.com/okian/seqprep/internal/domain/bounds"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBounds(t *testing.T) {
	Convey("Given no configured bounds", t, func() {
		var b bounds.Bounds

		Convey("Then every value passes through unchanged", func() {
			for _, v := range []float64{-1e9, 0, 3.5, 1e9} {
				got, ok := b.Apply(v)
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, v)
			}
			So(b.IsZero(), ShouldBeTrue)
		})

		Convey("And NaN stays missing", func() {
			got, ok := b.Apply(math.NaN())
			So(ok, ShouldBeFalse)
			So(math.IsNaN(got), ShouldBeTrue)
		})
	})

	Convey("Given drop bounds", t, func() {
		b := bounds.Bounds{
			DropLower: bounds.At(0),
			DropUpper: bounds.AtInclusive(100),
		}

		Convey("Then values outside become missing, never clamped", func() {
			_, ok := b.Apply(-5)
			So(ok, ShouldBeFalse)
			_, ok = b.Apply(101)
			So(ok, ShouldBeFalse)
		})

		Convey("Then the non-inclusive bound value itself survives", func() {
			got, ok := b.Apply(0)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, 0)
		})

		Convey("Then the inclusive bound value itself is dropped", func() {
			_, ok := b.Apply(100)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given censor bounds only", t, func() {
		b := bounds.Bounds{
			CensorLower: bounds.At(10),
			CensorUpper: bounds.At(20),
		}

		Convey("Then out-of-range values are clamped to the bound", func() {
			got, ok := b.Apply(5)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, 10)

			got, ok = b.Apply(25)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, 20)
		})

		Convey("Then in-range values are unchanged", func() {
			got, ok := b.Apply(15)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, 15)
		})
	})

	Convey("Given overlapping drop and censor bounds", t, func() {
		b := bounds.Bounds{
			DropLower:   bounds.At(0),
			CensorLower: bounds.At(5),
		}

		Convey("Then drop is checked first", func() {
			_, ok := b.Apply(-1)
			So(ok, ShouldBeFalse)

			got, ok := b.Apply(2)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, 5)
		})
	})
}
