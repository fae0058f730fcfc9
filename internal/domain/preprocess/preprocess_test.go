package preprocess_test

import (
	"testing"

	preprocess "github.com/okian/seqprep/internal/domain/preprocess"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRegistry(t *testing.T) {
	Convey("Given the model registry", t, func() {
		Convey("Then known names resolve", func() {
			d, err := preprocess.NewOutlierDetector(preprocess.StddevCutoffName, nil)
			So(err, ShouldBeNil)
			So(d.Name(), ShouldEqual, preprocess.StddevCutoffName)

			n, err := preprocess.NewNormalizer(preprocess.StandardScalerName, nil)
			So(err, ShouldBeNil)
			So(n.Name(), ShouldEqual, preprocess.StandardScalerName)
		})

		Convey("Then unknown names fail at construction", func() {
			_, err := preprocess.NewOutlierDetector("isolation_forest", nil)
			So(err, ShouldWrap, preprocess.ErrUnknownModel)

			_, err = preprocess.NewNormalizer("minmax", nil)
			So(err, ShouldWrap, preprocess.ErrUnknownModel)
		})
	})
}

func TestStddevCutoff(t *testing.T) {
	Convey("Given a stddev cutoff detector with a tight threshold", t, func() {
		d, err := preprocess.NewOutlierDetector(
			preprocess.StddevCutoffName, map[string]float64{"stddev_cutoff": 1.0},
		)
		So(err, ShouldBeNil)

		Convey("When fit on a spread of values", func() {
			p, err := d.Fit([]float64{8, 9, 10, 11, 12})
			So(err, ShouldBeNil)

			Convey("Then central values are inliers", func() {
				So(d.IsOutlier(10, p), ShouldBeFalse)
				So(d.IsOutlier(11, p), ShouldBeFalse)
			})

			Convey("And distant values are outliers", func() {
				So(d.IsOutlier(100, p), ShouldBeTrue)
				So(d.IsOutlier(-50, p), ShouldBeTrue)
			})
		})

		Convey("When fit on no values", func() {
			_, err := d.Fit(nil)

			Convey("Then fitting fails", func() {
				So(err, ShouldWrap, preprocess.ErrNoObservations)
			})
		})

		Convey("When predicting without parameters", func() {
			Convey("Then nothing is flagged", func() {
				So(d.IsOutlier(1e12, nil), ShouldBeFalse)
			})
		})
	})
}

func TestStandardScaler(t *testing.T) {
	Convey("Given a standard scaler", t, func() {
		n, err := preprocess.NewNormalizer(preprocess.StandardScalerName, nil)
		So(err, ShouldBeNil)

		Convey("When fit on a spread of values", func() {
			p, err := n.Fit([]float64{2, 4, 6, 8})
			So(err, ShouldBeNil)

			Convey("Then the training mean transforms to zero", func() {
				So(n.Transform(5, p), ShouldAlmostEqual, 0, 1e-12)
			})

			Convey("And transforms are affine in the value", func() {
				a := n.Transform(6, p)
				b := n.Transform(4, p)
				So(a, ShouldAlmostEqual, -b, 1e-12)
			})
		})

		Convey("When fit on identical values", func() {
			p, err := n.Fit([]float64{7, 7, 7})
			So(err, ShouldBeNil)

			Convey("Then transform centers without scaling", func() {
				So(n.Transform(7, p), ShouldEqual, 0)
				So(n.Transform(9, p), ShouldEqual, 2)
			})
		})
	})
}
