package batch_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/okian/seqprep/internal/domain/batch"
	"github.com/okian/seqprep/internal/domain/dataset"
	"github.com/okian/seqprep/internal/domain/measurement"
	"github.com/okian/seqprep/internal/domain/table"
	"github.com/okian/seqprep/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

var base = time.Date(2021, 6, 1, 9, 0, 0, 0, time.UTC)

// fixture: subject 1 has two lab events with heart rates, subject 2 has a
// static attribute but no events at all.
func fixture() *dataset.Fitted {
	subs := table.New("subject_id", []int64{1, 2})
	_ = subs.AddColumn("sex", table.NewStringColumn([]string{"F", "M"}, []bool{true, true}))

	ev := table.New("event_id", []int64{10, 11})
	valid := []bool{true, true}
	_ = ev.AddColumn("subject_id", table.NewIntColumn([]int64{1, 1}, append([]bool(nil), valid...)))
	_ = ev.AddColumn("timestamp", table.NewTimeColumn(
		[]time.Time{base, base.Add(time.Hour)}, append([]bool(nil), valid...)))
	_ = ev.AddColumn("event_type", table.NewStringColumn([]string{"lab", "lab"}, append([]bool(nil), valid...)))

	ms := table.New("measurement_id", []int64{100, 101})
	_ = ms.AddColumn("event_id", table.NewIntColumn([]int64{10, 11}, append([]bool(nil), valid...)))
	_ = ms.AddColumn("hr", table.NewFloatColumn([]float64{60, 70}, nil))

	cfg := dataset.Config{
		Measurements: map[string]*measurement.Config{
			"hr":  {Name: "hr", Temporality: measurement.Dynamic, Modality: measurement.UnivariateRegression},
			"sex": {Name: "sex", Temporality: measurement.Static, Modality: measurement.SingleLabelClassification},
		},
		MinTrueFloatFrequency: 0.1,
	}
	d, err := dataset.New(cfg, subs, ev, ms)
	So(err, ShouldBeNil)

	f, err := d.Fit(context.Background())
	So(err, ShouldBeNil)
	So(f.Transform(context.Background()), ShouldBeNil)
	return f
}

func TestEncoder(t *testing.T) {
	Convey("Given a fitted dataset with an event-less subject", t, func() {
		f := fixture()
		enc := batch.NewEncoder(f)
		batches, err := enc.EncodeAll(context.Background())
		So(err, ShouldBeNil)
		So(len(batches), ShouldEqual, 2)

		space := f.IndexSpace()
		one, two := batches[0], batches[1]

		Convey("Then times should be relative minutes from the first event", func() {
			So(one.SubjectID, ShouldEqual, 1)
			So(one.StartTime.Equal(base), ShouldBeTrue)
			So(one.Times, ShouldResemble, []float64{0, 60})
		})

		Convey("Then each event should carry its type and measurements", func() {
			So(len(one.DynamicIndices), ShouldEqual, 2)
			So(one.DynamicIndices[0], ShouldResemble, []int{
				space.Encode("event_type", "lab"),
				space.Offset("hr"),
			})
			So(math.IsNaN(one.DynamicValues[0][0]), ShouldBeTrue)
			So(one.DynamicValues[0][1], ShouldEqual, 60)
			So(one.DynamicMeasurementIndices[0], ShouldResemble, []int{
				space.MeasurementIndex("event_type"),
				space.MeasurementIndex("hr"),
			})
		})

		Convey("Then static attributes should resolve through the index space", func() {
			So(one.StaticIndices, ShouldResemble, []int{space.Encode("sex", "F")})
			So(two.StaticIndices, ShouldResemble, []int{space.Encode("sex", "M")})
		})

		Convey("Then the event-less subject should be kept with empty sequences", func() {
			So(two.SubjectID, ShouldEqual, 2)
			So(two.Times, ShouldBeEmpty)
			So(two.DynamicIndices, ShouldBeEmpty)
			So(two.StartTime.IsZero(), ShouldBeTrue)
		})

		Convey("When padding into a rectangular batch", func() {
			p := batch.Pad(batches)

			Convey("Then shapes should match the longest subject", func() {
				So(p.SequenceLengths, ShouldResemble, []int{2, 0})
				So(len(p.Times[1]), ShouldEqual, 2)
				So(p.EventMask[0], ShouldResemble, []bool{true, true})
				So(p.EventMask[1], ShouldResemble, []bool{false, false})
			})

			Convey("Then padding slots should be zeroed with false masks", func() {
				So(p.DynamicIndices[1][0], ShouldResemble, []int{0, 0})
				So(p.DynamicValuesMask[1][0], ShouldResemble, []bool{false, false})
			})

			Convey("Then value masks should flag only numeric observations", func() {
				So(p.DynamicValuesMask[0][0], ShouldResemble, []bool{false, true})
				So(p.DynamicValues[0][0][1], ShouldEqual, 60)
			})
		})
	})

	Convey("Given assigned splits", t, func() {
		f := fixture()
		enc := batch.NewEncoder(f)

		Convey("When encoding a single split", func() {
			batches, err := enc.EncodeSplit(context.Background(), types.SplitHeldOut)
			So(err, ShouldBeNil)

			Convey("Then an unknown split should yield nothing", func() {
				So(batches, ShouldBeEmpty)
			})
		})
	})
}
