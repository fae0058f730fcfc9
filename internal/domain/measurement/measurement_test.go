package measurement_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/seqprep/internal/domain/measurement"
	"github.com/okian/seqprep/internal/domain/preprocess"
	"github.com/okian/seqprep/internal/domain/table"
	"github.com/okian/seqprep/internal/domain/vocabulary"
)

type staticStub struct {
	times map[string]time.Time
}

func (s staticStub) Time(col string) (time.Time, bool) {
	v, ok := s.times[col]
	return v, ok
}
func (s staticStub) Float(string) (float64, bool) { return 0, false }
func (s staticStub) String(string) (string, bool) { return "", false }

func TestConfig(t *testing.T) {
	Convey("Given measurement configs", t, func() {
		Convey("ValuesColumnName resolves by modality", func() {
			uni := &measurement.Config{Name: "hr", Modality: measurement.UnivariateRegression}
			So(uni.ValuesColumnName(), ShouldEqual, "hr")

			multi := &measurement.Config{
				Name:         "lab_name",
				Modality:     measurement.MultivariateRegression,
				ValuesColumn: "lab_value",
			}
			So(multi.ValuesColumnName(), ShouldEqual, "lab_value")
		})

		Convey("IsDropped covers both the modality and the fitted flag", func() {
			c := &measurement.Config{Name: "x", Modality: measurement.SingleLabelClassification}
			So(c.IsDropped(), ShouldBeFalse)
			c.Drop()
			So(c.IsDropped(), ShouldBeTrue)
			So((&measurement.Config{Modality: measurement.Dropped}).IsDropped(), ShouldBeTrue)
		})

		Convey("CanTransform requires fitted state", func() {
			c := &measurement.Config{Name: "hr", Modality: measurement.UnivariateRegression}
			So(c.CanTransform(), ShouldBeFalse)

			c.Metadata = measurement.NewMetadataTable()
			So(c.CanTransform(), ShouldBeFalse)

			c.Metadata.Ensure("hr")
			So(c.CanTransform(), ShouldBeTrue)

			c.Drop()
			So(c.CanTransform(), ShouldBeFalse)
		})

		Convey("Clone is deep enough that annotating a clone leaves the original alone", func() {
			orig := &measurement.Config{
				Name:                "lab_name",
				Modality:            measurement.MultivariateRegression,
				ValuesColumn:        "lab_value",
				PresentInEventTypes: []string{"lab"},
				Metadata:            measurement.NewMetadataTable(),
			}
			orig.Metadata.Ensure("sodium").NormalizerParams = preprocess.Params{"mean": 140}

			cp := orig.Clone()
			cp.Metadata.Ensure("sodium").NormalizerParams["mean"] = 0
			cp.Metadata.Ensure("glucose")
			cp.PresentInEventTypes[0] = "visit"
			cp.Drop()

			So(orig.Metadata.Get("sodium").NormalizerParams["mean"], ShouldEqual, 140)
			So(orig.Metadata.Get("glucose"), ShouldBeNil)
			So(orig.PresentInEventTypes, ShouldResemble, []string{"lab"})
			So(orig.IsDropped(), ShouldBeFalse)
		})

		Convey("Cloning copies a learned vocabulary", func() {
			v, err := vocabulary.New([]string{"a", "b"}, []int{3, 1})
			So(err, ShouldBeNil)
			c := &measurement.Config{Name: "x", Vocabulary: v}
			cp := c.Clone()
			So(cp.Vocabulary, ShouldNotPointTo, c.Vocabulary)
			So(cp.Vocabulary.Symbols(), ShouldResemble, c.Vocabulary.Symbols())
		})
	})

	Convey("Given a metadata table", t, func() {
		mt := measurement.NewMetadataTable()
		mt.Ensure("b")
		mt.Ensure("a")

		Convey("Keys are sorted for deterministic iteration", func() {
			So(mt.Keys(), ShouldResemble, []string{"a", "b"})
		})

		Convey("Ensure is idempotent", func() {
			first := mt.Ensure("a")
			So(mt.Ensure("a"), ShouldEqual, first)
			So(mt.Len(), ShouldEqual, 2)
		})
	})
}

func TestFunctors(t *testing.T) {
	Convey("Given the age functor", t, func() {
		f := measurement.AgeFunctor{DOBColumn: "dob"}
		So(f.OutputKind(), ShouldEqual, table.KindFloat)
		So(f.StaticColumns(), ShouldResemble, []string{"dob"})

		dob := time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
		ts := dob.AddDate(40, 0, 0)

		Convey("It derives age in years at event time", func() {
			res, ok := f.Evaluate(ts, staticStub{times: map[string]time.Time{"dob": dob}})
			So(ok, ShouldBeTrue)
			So(res.Num, ShouldAlmostEqual, 40.0, 0.01)
		})

		Convey("A missing date of birth yields a missing value", func() {
			_, ok := f.Evaluate(ts, staticStub{})
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given the time-of-day functor", t, func() {
		f := measurement.TimeOfDayFunctor{}
		So(f.OutputKind(), ShouldEqual, table.KindString)
		So(f.StaticColumns(), ShouldBeNil)

		at := func(hour int) time.Time {
			return time.Date(2020, 6, 1, hour, 30, 0, 0, time.UTC)
		}

		Convey("Hours bucket into the four day segments", func() {
			cases := map[int]string{
				3:  measurement.TimeOfDayEarlyAM,
				6:  measurement.TimeOfDayAM,
				11: measurement.TimeOfDayAM,
				12: measurement.TimeOfDayPM,
				20: measurement.TimeOfDayPM,
				21: measurement.TimeOfDayLatePM,
				23: measurement.TimeOfDayLatePM,
			}
			for hour, want := range cases {
				res, ok := f.Evaluate(at(hour), nil)
				So(ok, ShouldBeTrue)
				So(res.Str, ShouldEqual, want)
			}
		})
	})
}
