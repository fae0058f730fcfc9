package config_test

import (
	"context"
	"math"
	"testing"

	"github.com/okian/seqprep/internal/config"
	"github.com/okian/seqprep/internal/domain/bounds"
	"github.com/okian/seqprep/internal/domain/measurement"
	. "github.com/smartystreets/goconvey/convey"
)

func TestValidate(t *testing.T) {
	Convey("Given a default config", t, func() {
		c := config.New()

		Convey("Then it should require input files", func() {
			So(c.Validate(), ShouldWrap, config.ErrInvalidConfig)
		})

		Convey("When input files are set", func() {
			c.SubjectsFile = "subjects.csv"
			c.EventsFile = "events.csv"

			Convey("Then it should validate", func() {
				So(c.Validate(), ShouldBeNil)
			})

			Convey("Then mismatched split fractions should be rejected", func() {
				c.SplitFractions = []float64{0.5}
				So(c.Validate(), ShouldWrap, config.ErrInvalidConfig)
			})

			Convey("Then a multivariate measurement without values column should be rejected", func() {
				c.Measurements = map[string]config.MeasurementSpec{
					"lab": {Temporality: config.TemporalityDynamic, Modality: config.ModalityMultivariate},
				}
				So(c.Validate(), ShouldWrap, config.ErrInvalidConfig)
			})
		})
	})
}

func TestThreshold(t *testing.T) {
	Convey("Given threshold specifications", t, func() {
		Convey("Then a count should resolve as a count", func() {
			v := config.Threshold{Count: 5}.Resolve()
			So(v.IsSet(), ShouldBeTrue)
			So(v.Cutoff(100), ShouldEqual, 5)
		})

		Convey("Then a proportion should scale with the total", func() {
			v := config.Threshold{Proportion: 0.1}.Resolve()
			So(v.Cutoff(100), ShouldEqual, 10)
		})

		Convey("Then the zero threshold should be unset", func() {
			So(config.Threshold{}.Resolve().IsSet(), ShouldBeFalse)
		})
	})
}

func TestBuildMeasurements(t *testing.T) {
	Convey("Given declared measurement specs", t, func() {
		c := config.New()
		c.Measurements = map[string]config.MeasurementSpec{
			"sex": {Temporality: config.TemporalityStatic, Modality: config.ModalitySingleLabel},
			"age": {
				Temporality:      config.TemporalityTimeDependent,
				Modality:         config.ModalityUnivariate,
				Functor:          config.FunctorAge,
				FunctorDOBColumn: "dob",
			},
			"lab": {
				Temporality:         config.TemporalityDynamic,
				Modality:            config.ModalityMultivariate,
				ValuesColumn:        "lab_value",
				PresentInEventTypes: []string{"lab"},
				Metadata: map[string]config.MetadataSpec{
					"potassium": {
						ValueType:        "float",
						DropLowerBound:   &config.BoundSpec{Value: 0, Inclusive: true},
						CensorUpperBound: &config.BoundSpec{Value: 10},
					},
				},
			},
		}

		built, err := c.BuildMeasurements()
		So(err, ShouldBeNil)

		Convey("Then temporalities and modalities should map to domain enums", func() {
			So(built["sex"].Temporality, ShouldEqual, measurement.Static)
			So(built["lab"].Modality, ShouldEqual, measurement.MultivariateRegression)
			So(built["lab"].ValuesColumn, ShouldEqual, "lab_value")
		})

		Convey("Then functors should be constructed", func() {
			So(built["age"].Functor, ShouldResemble, measurement.AgeFunctor{DOBColumn: "dob"})
		})

		Convey("Then declared metadata should carry bounds and overrides", func() {
			meta := built["lab"].Metadata.Get("potassium")
			So(meta, ShouldNotBeNil)
			So(meta.ValueType, ShouldEqual, measurement.Float)
			So(meta.Bounds.DropLower, ShouldResemble, bounds.AtInclusive(0))
			So(meta.Bounds.CensorUpper, ShouldResemble, bounds.At(10))
			So(meta.Bounds.DropUpper.Set, ShouldBeFalse)

			Convey("And declared drop bounds should survive transform", func() {
				v, ok := meta.Bounds.Apply(0)
				So(ok, ShouldBeFalse)
				So(math.IsNaN(v), ShouldBeTrue)
				v, ok = meta.Bounds.Apply(12)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 10)
			})
		})

		Convey("Then an unknown value_type should be rejected", func() {
			c.Measurements["hr"] = config.MeasurementSpec{
				Temporality: config.TemporalityDynamic,
				Modality:    config.ModalityUnivariate,
				Metadata:    map[string]config.MetadataSpec{"hr": {ValueType: "decimal"}},
			}
			_, err := c.BuildMeasurements()
			So(err, ShouldWrap, config.ErrInvalidConfig)
		})

		Convey("Then unknown temporalities should be rejected", func() {
			c.Measurements["bad"] = config.MeasurementSpec{Temporality: "sometimes"}
			_, err := c.BuildMeasurements()
			So(err, ShouldWrap, config.ErrInvalidConfig)
		})

		Convey("Then time-dependent measurements need a functor", func() {
			c.Measurements["tod"] = config.MeasurementSpec{
				Temporality: config.TemporalityTimeDependent,
				Modality:    config.ModalitySingleLabel,
			}
			_, err := c.BuildMeasurements()
			So(err, ShouldWrap, config.ErrInvalidConfig)
		})
	})
}

func TestLoad(t *testing.T) {
	t.Setenv("SEQPREP_SUBJECTS_FILE", "subjects.csv")
	t.Setenv("SEQPREP_EVENTS_FILE", "events.csv")
	t.Setenv("SEQPREP_OUTPUT_DIR", "result")
	t.Setenv("SEQPREP_SEED", "7")

	Convey("Given environment overrides", t, func() {
		cfg, err := config.Load(context.Background())
		So(err, ShouldBeNil)

		Convey("Then env values should override defaults", func() {
			So(cfg.SubjectsFile, ShouldEqual, "subjects.csv")
			So(cfg.OutputDir, ShouldEqual, "result")
			So(cfg.Seed, ShouldEqual, 7)
		})

		Convey("Then untouched defaults should survive", func() {
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.Normalizer, ShouldEqual, "standard_scaler")
		})
	})
}
