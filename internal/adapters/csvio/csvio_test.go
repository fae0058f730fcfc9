package csvio_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/okian/seqprep/internal/adapters/csvio"
	"github.com/okian/seqprep/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRead(t *testing.T) {
	Convey("Given an events CSV", t, func() {
		src := strings.Join([]string{
			"event_id,subject_id,timestamp,event_type,hr",
			"10,1,2021-06-01T09:00:00Z,lab,60.5",
			"11,1,2021-06-01T10:00:00Z,lab,",
		}, "\n")

		tbl, err := csvio.Read(strings.NewReader(src),
			csvio.EventsSchema(map[string]table.Kind{"hr": table.KindFloat}))
		So(err, ShouldBeNil)

		Convey("Then ids and typed columns should parse", func() {
			So(tbl.Len(), ShouldEqual, 2)
			So(tbl.ID(0), ShouldEqual, 10)

			ts, _ := tbl.Column("timestamp")
			v, present := ts.Time(0)
			So(present, ShouldBeTrue)
			So(v.Equal(time.Date(2021, 6, 1, 9, 0, 0, 0, time.UTC)), ShouldBeTrue)

			hr, _ := tbl.Column("hr")
			f, present := hr.Float(0)
			So(present, ShouldBeTrue)
			So(f, ShouldEqual, 60.5)
		})

		Convey("Then empty cells should load as nulls", func() {
			hr, _ := tbl.Column("hr")
			_, present := hr.Float(1)
			So(present, ShouldBeFalse)
		})
	})

	Convey("Given malformed CSV content", t, func() {
		Convey("Then a missing id column should be rejected", func() {
			_, err := csvio.Read(strings.NewReader("a,b\n1,2\n"),
				csvio.Schema{IDColumn: "subject_id"})
			So(err, ShouldWrap, csvio.ErrMissingColumn)
		})

		Convey("Then a non-numeric cell in a typed column should be rejected", func() {
			src := "subject_id,age\n1,abc\n"
			_, err := csvio.Read(strings.NewReader(src),
				csvio.Schema{IDColumn: "subject_id", Kinds: map[string]table.Kind{"age": table.KindFloat}})
			So(err, ShouldWrap, csvio.ErrBadCell)
		})

		Convey("Then an empty file should be rejected", func() {
			_, err := csvio.Read(strings.NewReader(""), csvio.Schema{IDColumn: "subject_id"})
			So(err, ShouldWrap, csvio.ErrMissingHeader)
		})
	})
}

func TestRoundTrip(t *testing.T) {
	Convey("Given a table with every column kind", t, func() {
		tbl := table.New("subject_id", []int64{1, 2})
		_ = tbl.AddColumn("name", table.NewStringColumn([]string{"a", ""}, []bool{true, false}))
		_ = tbl.AddColumn("score", table.NewFloatColumn([]float64{1.5, 0}, []bool{true, false}))
		_ = tbl.AddColumn("seen", table.NewTimeColumn(
			[]time.Time{time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC), {}}, []bool{true, false}))

		var buf bytes.Buffer
		So(csvio.Write(&buf, tbl), ShouldBeNil)

		got, err := csvio.Read(&buf, csvio.Schema{
			IDColumn: "subject_id",
			Kinds: map[string]table.Kind{
				"score": table.KindFloat,
				"seen":  table.KindTime,
			},
		})
		So(err, ShouldBeNil)

		Convey("Then values and nulls should survive", func() {
			So(got.Len(), ShouldEqual, 2)
			score, _ := got.Column("score")
			v, present := score.Float(0)
			So(present, ShouldBeTrue)
			So(v, ShouldEqual, 1.5)
			_, present = score.Float(1)
			So(present, ShouldBeFalse)

			seen, _ := got.Column("seen")
			ts, present := seen.Time(0)
			So(present, ShouldBeTrue)
			So(ts.Equal(time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC)), ShouldBeTrue)
		})
	})
}
