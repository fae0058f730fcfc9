// Package vocabulary implements the ordered symbol table learned for
// categorical measurement columns: deduplicated symbols with observation
// frequencies, an always-present UNK element, and rare-symbol collapsing.
package vocabulary

import (
	"fmt"

	"github.com/okian/seqprep/internal/domain/types"
)

// UNK is the reserved symbol absorbing unknown and collapsed-rare
// observations. It always occupies position 0.
const UNK = "UNK"

// Vocabulary is an ordered, deduplicated symbol table with observation
// frequencies. It is immutable after construction except for Filter.
type Vocabulary struct {
	symbols []string
	counts  []int
	freqs   []float64
	index   map[string]int // symbol -> position
	total   int
}

// New builds a vocabulary from observed symbols and their counts. UNK is
// prepended when absent. Symbols must be unique and counts non-negative.
func New(symbols []string, counts []int) (*Vocabulary, error) {
	if len(symbols) != len(counts) {
		return nil, fmt.Errorf("%w: %d symbols, %d counts", ErrLengthMismatch, len(symbols), len(counts))
	}
	if len(symbols) == 0 {
		return nil, ErrEmptyVocabulary
	}

	v := &Vocabulary{index: make(map[string]int, len(symbols)+1)}
	v.push(UNK, 0)
	for i, s := range symbols {
		if counts[i] < 0 {
			return nil, fmt.Errorf("%w: symbol %q has count %d", ErrNegativeCount, s, counts[i])
		}
		if s == UNK {
			v.counts[0] += counts[i]
			continue
		}
		if _, dup := v.index[s]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSymbol, s)
		}
		v.push(s, counts[i])
	}
	v.renormalize()
	return v, nil
}

func (v *Vocabulary) push(symbol string, count int) {
	v.index[symbol] = len(v.symbols)
	v.symbols = append(v.symbols, symbol)
	v.counts = append(v.counts, count)
	v.freqs = append(v.freqs, 0)
}

func (v *Vocabulary) renormalize() {
	v.total = 0
	for _, c := range v.counts {
		v.total += c
	}
	for i, c := range v.counts {
		if v.total > 0 {
			v.freqs[i] = float64(c) / float64(v.total)
		} else {
			v.freqs[i] = 0
		}
	}
}

// Len returns the number of symbols, UNK included.
func (v *Vocabulary) Len() int { return len(v.symbols) }

// Symbols returns the ordered symbol list, UNK first.
func (v *Vocabulary) Symbols() []string { return append([]string(nil), v.symbols...) }

// Contains reports whether the symbol is in the vocabulary.
func (v *Vocabulary) Contains(symbol string) bool {
	_, ok := v.index[symbol]
	return ok
}

// Index returns the 1-based index of the symbol; 0 is reserved for
// "missing" and returned for unknown symbols.
func (v *Vocabulary) Index(symbol string) int {
	pos, ok := v.index[symbol]
	if !ok {
		return 0
	}
	return pos + 1
}

// Position returns the 0-based position of the symbol in the ordered list.
func (v *Vocabulary) Position(symbol string) (int, bool) {
	pos, ok := v.index[symbol]
	return pos, ok
}

// Symbol returns the symbol at a 1-based index.
func (v *Vocabulary) Symbol(idx int) (string, bool) {
	if idx < 1 || idx > len(v.symbols) {
		return "", false
	}
	return v.symbols[idx-1], true
}

// Frequency returns the observation frequency of the symbol.
func (v *Vocabulary) Frequency(symbol string) float64 {
	pos, ok := v.index[symbol]
	if !ok {
		return 0
	}
	return v.freqs[pos]
}

// OnlyUNK reports whether every observed symbol has collapsed into UNK.
func (v *Vocabulary) OnlyUNK() bool { return len(v.symbols) == 1 }

// Clone returns a deep copy.
func (v *Vocabulary) Clone() *Vocabulary {
	out := &Vocabulary{
		symbols: append([]string(nil), v.symbols...),
		counts:  append([]int(nil), v.counts...),
		freqs:   append([]float64(nil), v.freqs...),
		index:   make(map[string]int, len(v.index)),
		total:   v.total,
	}
	for s, p := range v.index {
		out.index[s] = p
	}
	return out
}

// Filter collapses every symbol observed fewer times than the cutoff into
// UNK. The cutoff is resolved against totalObservations, the number of rows
// the vocabulary was fit over. Collapsed counts are absorbed by UNK so the
// frequency mass is preserved.
func (v *Vocabulary) Filter(totalObservations int, minValid types.CountOrProportion) {
	if !minValid.IsSet() {
		return
	}

	kept := &Vocabulary{index: make(map[string]int, len(v.symbols))}
	kept.push(UNK, v.counts[0])
	for i := 1; i < len(v.symbols); i++ {
		if minValid.LessThan(v.counts[i], totalObservations) {
			kept.counts[0] += v.counts[i]
			continue
		}
		kept.push(v.symbols[i], v.counts[i])
	}
	kept.renormalize()
	*v = *kept
}
