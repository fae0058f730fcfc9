// Package measurement defines the declared and inferred configuration of a
// measurement column: its temporality, modality, per-key numeric metadata,
// and learned vocabulary.
package measurement

// Temporality says which table a measurement column lives in.
type Temporality int

// Temporality values.
const (
	Static Temporality = iota
	FunctionalTimeDependent
	Dynamic
)

// String returns the canonical name of the temporality.
func (t Temporality) String() string {
	switch t {
	case Static:
		return "static"
	case FunctionalTimeDependent:
		return "functional_time_dependent"
	case Dynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// Modality is the declared statistical nature of a measurement column.
type Modality int

// Modality values.
const (
	Dropped Modality = iota
	SingleLabelClassification
	MultiLabelClassification
	UnivariateRegression
	MultivariateRegression
)

// String returns the canonical name of the modality.
func (m Modality) String() string {
	switch m {
	case Dropped:
		return "dropped"
	case SingleLabelClassification:
		return "single_label_classification"
	case MultiLabelClassification:
		return "multi_label_classification"
	case UnivariateRegression:
		return "univariate_regression"
	case MultivariateRegression:
		return "multivariate_regression"
	default:
		return "unknown"
	}
}

// ValueType is the inferred (or overridden) numeric subtype of a key within a
// numeric measurement column. The zero value means "not yet inferred".
type ValueType int

// ValueType values.
const (
	Unset ValueType = iota
	Integer
	Float
	CategoricalInteger
	CategoricalFloat
	DroppedValue
)

// String returns the canonical name of the value type.
func (v ValueType) String() string {
	switch v {
	case Unset:
		return "unset"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case CategoricalInteger:
		return "categorical_integer"
	case CategoricalFloat:
		return "categorical_float"
	case DroppedValue:
		return "dropped"
	default:
		return "unknown"
	}
}

// IsCategorical reports whether values of this type are re-expressed as
// categorical key symbols rather than retained numerically.
func (v ValueType) IsCategorical() bool {
	return v == CategoricalInteger || v == CategoricalFloat
}
