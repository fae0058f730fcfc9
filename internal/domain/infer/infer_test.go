package infer_test

import (
	"testing"

	infer "github.com/okian/seqprep/internal/domain/infer"
	measurement "github.com/okian/seqprep/internal/domain/measurement"
	types "github.com/okian/seqprep/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestValueType(t *testing.T) {
	Convey("Given inference thresholds", t, func() {
		th := infer.Thresholds{
			MinTrueFloatFrequency:          0.9,
			MinUniqueNumericalObservations: types.Proportion(0.5),
		}

		Convey("When values are integral with few distinct values", func() {
			vt := infer.ValueType([]float64{1, 1, 2, 2, 2, 3}, infer.Thresholds{
				MinTrueFloatFrequency:          0.9,
				MinUniqueNumericalObservations: types.Proportion(2),
			})

			Convey("Then the key is categorical integer", func() {
				So(vt, ShouldEqual, measurement.CategoricalInteger)
			})
		})

		Convey("When values are fractional with few distinct values", func() {
			vt := infer.ValueType([]float64{1.5, 1.5, 2.5, 1.5, 2.5, 1.5}, th)

			Convey("Then the key is categorical float", func() {
				So(vt, ShouldEqual, measurement.CategoricalFloat)
			})
		})

		Convey("When values are integral and well spread", func() {
			vals := make([]float64, 20)
			for i := range vals {
				vals[i] = float64(i)
			}
			vt := infer.ValueType(vals, th)

			Convey("Then the key is integer", func() {
				So(vt, ShouldEqual, measurement.Integer)
			})
		})

		Convey("When values are fractional and well spread", func() {
			vals := make([]float64, 20)
			for i := range vals {
				vals[i] = float64(i) + 0.5
			}
			vt := infer.ValueType(vals, th)

			Convey("Then the key is float", func() {
				So(vt, ShouldEqual, measurement.Float)
			})
		})

		Convey("When a key has a single distinct value", func() {
			vt := infer.ValueType([]float64{4, 4, 4, 4}, th)

			Convey("Then the key is dropped as uninformative", func() {
				So(vt, ShouldEqual, measurement.DroppedValue)
			})
		})

		Convey("When there are no values", func() {
			So(infer.ValueType(nil, th), ShouldEqual, measurement.Unset)
		})

		Convey("When the integral test is disabled", func() {
			vt := infer.ValueType(
				[]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
				infer.Thresholds{MinUniqueNumericalObservations: types.Count(2)},
			)

			Convey("Then integral values stay float", func() {
				So(vt, ShouldEqual, measurement.Float)
			})
		})

		Convey("When a near-integral column has occasional true floats", func() {
			// 1 fractional out of 20 is below the 10% true-float floor.
			vals := make([]float64, 20)
			for i := range vals {
				vals[i] = float64(i % 10)
			}
			vals[7] = 3.25
			vt := infer.ValueType(vals, infer.Thresholds{MinTrueFloatFrequency: 0.9})

			Convey("Then the key is still integer", func() {
				So(vt, ShouldEqual, measurement.Integer)
			})
		})
	})
}
