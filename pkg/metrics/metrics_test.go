package metrics_test

import (
	"testing"
	"time"

	"github.com/okian/seqprep/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a manager on a fresh registry", t, func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(metrics.WithPrometheusRegistry(reg))

		Convey("When recording pipeline activity", func() {
			m.RecordRowsRead("events", 100)
			m.RecordColumnFit()
			m.RecordColumnDropped()
			m.SetVocabularySize("event_type", 5)
			m.ObserveStageDuration("fit", 250*time.Millisecond)
			m.SetSplitSubjects("train", 80)
			m.RecordSubjectsEncoded("train", 80)
			m.RecordEventsEncoded(400)

			Convey("Then the registry should hold the metric families", func() {
				families, err := reg.Gather()
				So(err, ShouldBeNil)

				names := make(map[string]struct{}, len(families))
				for _, f := range families {
					names[f.GetName()] = struct{}{}
				}
				So(names, ShouldContainKey, "seqprep_pipeline_rows_read_total")
				So(names, ShouldContainKey, "seqprep_pipeline_columns_fit_total")
				So(names, ShouldContainKey, "seqprep_pipeline_vocabulary_size")
				So(names, ShouldContainKey, "seqprep_pipeline_stage_duration_seconds")
				So(names, ShouldContainKey, "seqprep_pipeline_subjects_encoded_total")
			})
		})

		Convey("When metrics are disabled", func() {
			reg2 := prometheus.NewRegistry()
			off := metrics.NewManager(
				metrics.WithPrometheusRegistry(reg2),
				metrics.WithMetricsEnabled(false),
			)
			off.RecordRowsRead("events", 100)
			off.RecordColumnFit()

			Convey("Then counters should stay at zero", func() {
				families, err := reg2.Gather()
				So(err, ShouldBeNil)
				for _, f := range families {
					for _, metric := range f.GetMetric() {
						if c := metric.GetCounter(); c != nil {
							So(c.GetValue(), ShouldEqual, 0)
						}
					}
				}
			})
		})

		Convey("When overriding namespace and subsystem", func() {
			reg3 := prometheus.NewRegistry()
			metrics.NewManager(
				metrics.WithPrometheusRegistry(reg3),
				metrics.WithNamespace("custom"),
				metrics.WithSubsystem("prep"),
			).RecordColumnFit()

			families, err := reg3.Gather()
			So(err, ShouldBeNil)
			found := false
			for _, f := range families {
				if f.GetName() == "custom_prep_columns_fit_total" {
					found = true
				}
			}
			So(found, ShouldBeTrue)
		})
	})
}
