package config

import (
	"fmt"

	"github.com/okian/seqprep/internal/domain/bounds"
	"github.com/okian/seqprep/internal/domain/measurement"
)

// Measurement spec string values.
const (
	TemporalityStatic        = "static"
	TemporalityTimeDependent = "functional_time_dependent"
	TemporalityDynamic       = "dynamic"

	ModalitySingleLabel  = "single_label_classification"
	ModalityMultiLabel   = "multi_label_classification"
	ModalityUnivariate   = "univariate_regression"
	ModalityMultivariate = "multivariate_regression"

	FunctorAge       = "age"
	FunctorTimeOfDay = "time_of_day"
)

// BuildMeasurements converts the declared measurement specs into domain
// configurations.
func (c *Config) BuildMeasurements() (map[string]*measurement.Config, error) {
	out := make(map[string]*measurement.Config, len(c.Measurements))
	for name, spec := range c.Measurements {
		cfg := &measurement.Config{
			Name:                name,
			ValuesColumn:        spec.ValuesColumn,
			PresentInEventTypes: append([]string(nil), spec.PresentInEventTypes...),
		}

		switch spec.Temporality {
		case TemporalityStatic:
			cfg.Temporality = measurement.Static
		case TemporalityTimeDependent:
			cfg.Temporality = measurement.FunctionalTimeDependent
		case TemporalityDynamic:
			cfg.Temporality = measurement.Dynamic
		default:
			return nil, fmt.Errorf("%w: measurement %q: unknown temporality %q",
				ErrInvalidConfig, name, spec.Temporality)
		}

		switch spec.Modality {
		case ModalitySingleLabel:
			cfg.Modality = measurement.SingleLabelClassification
		case ModalityMultiLabel:
			cfg.Modality = measurement.MultiLabelClassification
		case ModalityUnivariate:
			cfg.Modality = measurement.UnivariateRegression
		case ModalityMultivariate:
			cfg.Modality = measurement.MultivariateRegression
		default:
			return nil, fmt.Errorf("%w: measurement %q: unknown modality %q",
				ErrInvalidConfig, name, spec.Modality)
		}

		switch spec.Functor {
		case "":
		case FunctorAge:
			if spec.FunctorDOBColumn == "" {
				return nil, fmt.Errorf("%w: measurement %q: age functor needs functor_dob_column",
					ErrInvalidConfig, name)
			}
			cfg.Functor = measurement.AgeFunctor{DOBColumn: spec.FunctorDOBColumn}
		case FunctorTimeOfDay:
			cfg.Functor = measurement.TimeOfDayFunctor{}
		default:
			return nil, fmt.Errorf("%w: measurement %q: unknown functor %q",
				ErrInvalidConfig, name, spec.Functor)
		}
		if cfg.Temporality == measurement.FunctionalTimeDependent && cfg.Functor == nil {
			return nil, fmt.Errorf("%w: measurement %q: time-dependent measurements need a functor",
				ErrInvalidConfig, name)
		}

		if len(spec.Metadata) > 0 {
			md, err := buildMetadata(name, spec.Metadata)
			if err != nil {
				return nil, err
			}
			cfg.Metadata = md
		}

		out[name] = cfg
	}
	return out, nil
}

// buildMetadata converts declared per-key bounds and value-type overrides
// into a metadata table consumed by fitting.
func buildMetadata(name string, specs map[string]MetadataSpec) (*measurement.MetadataTable, error) {
	md := measurement.NewMetadataTable()
	for key, spec := range specs {
		m := md.Ensure(key)
		m.Bounds = bounds.Bounds{
			DropLower:   toBound(spec.DropLowerBound),
			DropUpper:   toBound(spec.DropUpperBound),
			CensorLower: toBound(spec.CensorLowerBound),
			CensorUpper: toBound(spec.CensorUpperBound),
		}
		switch spec.ValueType {
		case "":
		case "integer":
			m.ValueType = measurement.Integer
		case "float":
			m.ValueType = measurement.Float
		case "categorical_integer":
			m.ValueType = measurement.CategoricalInteger
		case "categorical_float":
			m.ValueType = measurement.CategoricalFloat
		case "dropped":
			m.ValueType = measurement.DroppedValue
		default:
			return nil, fmt.Errorf("%w: measurement %q key %q: unknown value_type %q",
				ErrInvalidConfig, name, key, spec.ValueType)
		}
	}
	return md, nil
}

func toBound(spec *BoundSpec) bounds.Bound {
	if spec == nil {
		return bounds.Bound{}
	}
	if spec.Inclusive {
		return bounds.AtInclusive(spec.Value)
	}
	return bounds.At(spec.Value)
}
