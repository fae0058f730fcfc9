package batch

import "math"

// Padded is a right-padded, rectangular view over a set of subject batches,
// shaped for direct tensor consumption: [subject][event][observation].
// Padding slots hold zero indices and zero values with their masks false.
type Padded struct {
	SubjectIDs      []int64 `json:"subject_ids"`
	SequenceLengths []int   `json:"sequence_lengths"`

	Times     [][]float64 `json:"times"`
	EventMask [][]bool    `json:"event_mask"`

	DynamicIndices            [][][]int     `json:"dynamic_indices"`
	DynamicValues             [][][]float64 `json:"dynamic_values"`
	DynamicValuesMask         [][][]bool    `json:"dynamic_values_mask"`
	DynamicMeasurementIndices [][][]int     `json:"dynamic_measurement_indices"`

	StaticIndices            [][]int `json:"static_indices"`
	StaticMeasurementIndices [][]int `json:"static_measurement_indices"`
}

// Pad assembles subject batches into one rectangular batch. Sequence and
// observation dimensions are padded to the longest subject and the densest
// event respectively; the static dimension to the widest static side.
func Pad(batches []SubjectBatch) *Padded {
	maxT, maxM, maxS := 0, 0, 0
	for _, b := range batches {
		if len(b.Times) > maxT {
			maxT = len(b.Times)
		}
		for _, obs := range b.DynamicIndices {
			if len(obs) > maxM {
				maxM = len(obs)
			}
		}
		if len(b.StaticIndices) > maxS {
			maxS = len(b.StaticIndices)
		}
	}

	p := &Padded{
		SubjectIDs:                make([]int64, len(batches)),
		SequenceLengths:           make([]int, len(batches)),
		Times:                     make([][]float64, len(batches)),
		EventMask:                 make([][]bool, len(batches)),
		DynamicIndices:            make([][][]int, len(batches)),
		DynamicValues:             make([][][]float64, len(batches)),
		DynamicValuesMask:         make([][][]bool, len(batches)),
		DynamicMeasurementIndices: make([][][]int, len(batches)),
		StaticIndices:             make([][]int, len(batches)),
		StaticMeasurementIndices:  make([][]int, len(batches)),
	}
	for bi, b := range batches {
		p.SubjectIDs[bi] = b.SubjectID
		p.SequenceLengths[bi] = len(b.Times)

		times := make([]float64, maxT)
		mask := make([]bool, maxT)
		copy(times, b.Times)
		for t := range b.Times {
			mask[t] = true
		}
		p.Times[bi] = times
		p.EventMask[bi] = mask

		p.DynamicIndices[bi] = make([][]int, maxT)
		p.DynamicValues[bi] = make([][]float64, maxT)
		p.DynamicValuesMask[bi] = make([][]bool, maxT)
		p.DynamicMeasurementIndices[bi] = make([][]int, maxT)
		for t := 0; t < maxT; t++ {
			idx := make([]int, maxM)
			vals := make([]float64, maxM)
			vmask := make([]bool, maxM)
			meas := make([]int, maxM)
			if t < len(b.DynamicIndices) {
				copy(idx, b.DynamicIndices[t])
				copy(meas, b.DynamicMeasurementIndices[t])
				for j, v := range b.DynamicValues[t] {
					if !math.IsNaN(v) {
						vals[j] = v
						vmask[j] = true
					}
				}
			}
			p.DynamicIndices[bi][t] = idx
			p.DynamicValues[bi][t] = vals
			p.DynamicValuesMask[bi][t] = vmask
			p.DynamicMeasurementIndices[bi][t] = meas
		}

		sIdx := make([]int, maxS)
		sMeas := make([]int, maxS)
		copy(sIdx, b.StaticIndices)
		copy(sMeas, b.StaticMeasurementIndices)
		p.StaticIndices[bi] = sIdx
		p.StaticMeasurementIndices[bi] = sMeas
	}
	return p
}
