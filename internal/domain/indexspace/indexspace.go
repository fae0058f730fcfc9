// Package indexspace builds the unified vocabulary index space: one flat,
// deterministic integer numbering covering the event-type vocabulary and
// every fitted measurement vocabulary, plus a parallel measurement-index
// numbering identifying which column an index came from.
package indexspace

import (
	"sort"

	"github.com/okian/seqprep/internal/domain/measurement"
)

// EventType is the reserved measurement name for the event-type vocabulary,
// always assigned the first block.
const EventType = "event_type"

// Entry is the decoded meaning of a unified index.
type Entry struct {
	Measurement string
	Symbol      string
}

// Space is an immutable unified index space. Index 0 is reserved for
// "absent"; real indices start at 1 with the event-type vocabulary.
type Space struct {
	measurements   []string
	measurementIdx map[string]int
	offsets        map[string]int
	unified        map[string]map[string]int
	entries        []Entry // position = unified index - 1
}

// Build constructs the space from the event-type vocabulary (in frequency
// order) and the fitted, non-dropped measurement configs. Construction is
// deterministic: measurements are laid out sorted by name after event_type.
// Callers must rebuild from scratch whenever any fitted vocabulary changes;
// indices are never reused across rebuilds.
func Build(eventTypes []string, configs map[string]*measurement.Config) *Space {
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	s := &Space{
		measurements:   append([]string{EventType}, names...),
		measurementIdx: make(map[string]int, len(names)+1),
		offsets:        make(map[string]int, len(names)+1),
		unified:        make(map[string]map[string]int, len(names)+1),
	}

	offset := 1
	for i, m := range s.measurements {
		s.measurementIdx[m] = i + 1
		s.offsets[m] = offset

		var symbols []string
		switch {
		case m == EventType:
			symbols = eventTypes
		case configs[m].Vocabulary != nil:
			symbols = configs[m].Vocabulary.Symbols()
		}

		if symbols == nil {
			// Vocabulary-less columns (pure numeric) occupy one slot named
			// after the measurement itself.
			s.unified[m] = map[string]int{m: offset}
			s.entries = append(s.entries, Entry{Measurement: m, Symbol: m})
			offset++
			continue
		}

		block := make(map[string]int, len(symbols))
		for j, sym := range symbols {
			block[sym] = offset + j
			s.entries = append(s.entries, Entry{Measurement: m, Symbol: sym})
		}
		s.unified[m] = block
		offset += len(symbols)
	}
	return s
}

// Measurements returns the measurement layout order, event_type first.
func (s *Space) Measurements() []string { return append([]string(nil), s.measurements...) }

// MeasurementIndex returns the small per-measurement index (1-based), or 0
// for an unknown measurement.
func (s *Space) MeasurementIndex(m string) int { return s.measurementIdx[m] }

// Offset returns the first unified index of the measurement's block, or 0
// for an unknown measurement.
func (s *Space) Offset(m string) int { return s.offsets[m] }

// Encode maps a measurement/symbol pair to its unified index; 0 means
// absent.
func (s *Space) Encode(m, symbol string) int {
	block, ok := s.unified[m]
	if !ok {
		return 0
	}
	return block[symbol]
}

// Decode resolves a unified index back to its measurement and symbol.
func (s *Space) Decode(index int) (Entry, bool) {
	if index < 1 || index > len(s.entries) {
		return Entry{}, false
	}
	return s.entries[index-1], true
}

// TotalSize returns one past the largest assigned index, i.e. the size of an
// embedding table covering the space including the reserved 0.
func (s *Space) TotalSize() int { return len(s.entries) + 1 }
