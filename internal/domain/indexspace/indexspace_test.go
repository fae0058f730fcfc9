package indexspace_test

import (
	"testing"

	indexspace "github.com/okian/seqprep/internal/domain/indexspace"
	measurement "github.com/okian/seqprep/internal/domain/measurement"
	vocab "github.com/okian/seqprep/internal/domain/vocabulary"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSpace(t *testing.T) {
	Convey("Given fitted configs with and without vocabularies", t, func() {
		hrVocab, err := vocab.New([]string{"hr__EQ_60", "hr__EQ_70"}, []int{3, 2})
		So(err, ShouldBeNil)
		labVocab, err := vocab.New([]string{"sodium", "glucose"}, []int{5, 4})
		So(err, ShouldBeNil)

		configs := map[string]*measurement.Config{
			"lab": {
				Name:       "lab",
				Modality:   measurement.MultivariateRegression,
				Vocabulary: labVocab,
			},
			"hr": {
				Name:       "hr",
				Modality:   measurement.UnivariateRegression,
				Vocabulary: hrVocab,
			},
			"weight": {
				Name:     "weight",
				Modality: measurement.UnivariateRegression,
			},
		}
		space := indexspace.Build([]string{"admission", "lab_result"}, configs)

		Convey("Then event_type owns the first block starting at one", func() {
			So(space.Offset(indexspace.EventType), ShouldEqual, 1)
			So(space.Encode(indexspace.EventType, "admission"), ShouldEqual, 1)
			So(space.Encode(indexspace.EventType, "lab_result"), ShouldEqual, 2)
		})

		Convey("Then measurements are laid out sorted by name", func() {
			So(space.Measurements(), ShouldResemble,
				[]string{indexspace.EventType, "hr", "lab", "weight"})
		})

		Convey("Then blocks are contiguous with no gaps or overlaps", func() {
			So(space.Offset("hr"), ShouldEqual, 3)
			So(space.Offset("lab"), ShouldEqual, 3+hrVocab.Len())
			So(space.Offset("weight"), ShouldEqual, 3+hrVocab.Len()+labVocab.Len())
			So(space.TotalSize(), ShouldEqual, space.Offset("weight")+1)
		})

		Convey("Then a vocabulary-less column is a singleton named after itself", func() {
			So(space.Encode("weight", "weight"), ShouldEqual, space.Offset("weight"))
			So(space.Encode("weight", "anything_else"), ShouldEqual, 0)
		})

		Convey("Then measurement indices are small and decoupled from value indices", func() {
			So(space.MeasurementIndex(indexspace.EventType), ShouldEqual, 1)
			So(space.MeasurementIndex("hr"), ShouldEqual, 2)
			So(space.MeasurementIndex("lab"), ShouldEqual, 3)
			So(space.MeasurementIndex("weight"), ShouldEqual, 4)
			So(space.MeasurementIndex("nope"), ShouldEqual, 0)
		})

		Convey("Then encode/decode round-trips every present entry", func() {
			for _, m := range space.Measurements() {
				var symbols []string
				switch {
				case m == indexspace.EventType:
					symbols = []string{"admission", "lab_result"}
				case configs[m].Vocabulary != nil:
					symbols = configs[m].Vocabulary.Symbols()
				default:
					symbols = []string{m}
				}
				for _, sym := range symbols {
					idx := space.Encode(m, sym)
					So(idx, ShouldBeGreaterThan, 0)
					entry, ok := space.Decode(idx)
					So(ok, ShouldBeTrue)
					So(entry.Measurement, ShouldEqual, m)
					So(entry.Symbol, ShouldEqual, sym)
				}
			}
		})

		Convey("Then absent lookups produce zero", func() {
			So(space.Encode("hr", "hr__EQ_999"), ShouldEqual, 0)
			So(space.Encode("unknown", "x"), ShouldEqual, 0)
			_, ok := space.Decode(0)
			So(ok, ShouldBeFalse)
			_, ok = space.Decode(space.TotalSize())
			So(ok, ShouldBeFalse)
		})

		Convey("Then rebuilding yields a fresh identical numbering", func() {
			again := indexspace.Build([]string{"admission", "lab_result"}, configs)
			So(again.Offset("lab"), ShouldEqual, space.Offset("lab"))
			So(again.TotalSize(), ShouldEqual, space.TotalSize())
		})
	})
}
