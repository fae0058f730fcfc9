package measurement

import (
	"sort"

	"github.com/okian/seqprep/internal/domain/bounds"
	"github.com/okian/seqprep/internal/domain/preprocess"
)

// Metadata is the per-vocabulary-key record of a numeric measurement column:
// declared bounds, the inferred or overridden value type, and fitted model
// parameters.
type Metadata struct {
	Bounds           bounds.Bounds
	ValueType        ValueType
	OutlierParams    preprocess.Params
	NormalizerParams preprocess.Params
}

// Clone returns a deep copy.
func (m *Metadata) Clone() *Metadata {
	out := &Metadata{Bounds: m.Bounds, ValueType: m.ValueType}
	if m.OutlierParams != nil {
		out.OutlierParams = make(preprocess.Params, len(m.OutlierParams))
		for k, v := range m.OutlierParams {
			out.OutlierParams[k] = v
		}
	}
	if m.NormalizerParams != nil {
		out.NormalizerParams = make(preprocess.Params, len(m.NormalizerParams))
		for k, v := range m.NormalizerParams {
			out.NormalizerParams[k] = v
		}
	}
	return out
}

// MetadataTable indexes Metadata records by vocabulary key. Univariate
// columns hold a single record under the measurement's own name.
type MetadataTable struct {
	byKey map[string]*Metadata
}

// NewMetadataTable creates an empty metadata table.
func NewMetadataTable() *MetadataTable {
	return &MetadataTable{byKey: make(map[string]*Metadata)}
}

// Len returns the number of keys.
func (t *MetadataTable) Len() int { return len(t.byKey) }

// Get returns the record for a key, or nil.
func (t *MetadataTable) Get(key string) *Metadata {
	return t.byKey[key]
}

// Ensure returns the record for a key, creating an empty one if needed.
func (t *MetadataTable) Ensure(key string) *Metadata {
	m, ok := t.byKey[key]
	if !ok {
		m = &Metadata{}
		t.byKey[key] = m
	}
	return m
}

// Set stores a record for a key.
func (t *MetadataTable) Set(key string, m *Metadata) { t.byKey[key] = m }

// Keys returns all keys sorted by name for deterministic iteration.
func (t *MetadataTable) Keys() []string {
	keys := make([]string, 0, len(t.byKey))
	for k := range t.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy.
func (t *MetadataTable) Clone() *MetadataTable {
	out := NewMetadataTable()
	for k, m := range t.byKey {
		out.byKey[k] = m.Clone()
	}
	return out
}
