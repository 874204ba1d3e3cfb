// Package simpoint loads and validates the set of sampled intervals
// that drives a sampled-simulation run.
//
// A SimPoint names one representative interval of the workload: where
// it starts, how long it is, and how much of the whole program it
// stands for (its weight). The set is built once at startup and never
// changes afterwards.
package simpoint

import (
	"errors"
	"fmt"
	"sort"
)

// ErrMalformedInput reports descriptor input that cannot form a valid
// set: mismatched list lengths, duplicate intervals, intervals out of
// order, or unusable weights.
var ErrMalformedInput = errors.New("malformed simpoint input")

// ErrInvalidSimPointIndex reports a requested descriptor index outside
// the set.
var ErrInvalidSimPointIndex = errors.New("invalid simpoint index")

// Descriptor describes one sampled interval.
type Descriptor struct {
	// Index is the descriptor's position in the set, contiguous from 0.
	Index int

	// IntervalStart is the retired-instruction count at which the
	// interval begins.
	IntervalStart uint64

	// IntervalLength is the interval's length in retired instructions.
	IntervalLength uint64

	// Warmup is the number of instructions executed in the detailed
	// model before measurement begins. Capped at IntervalStart: warmup
	// cannot run before the start of the program.
	Warmup uint64

	// Weight is the normalized share of the whole program this
	// interval represents. Weights across a set sum to 1.
	Weight float64
}

// CheckpointStart returns the retired-instruction count at which the
// checkpoint for this interval is captured. The checkpoint is taken
// Warmup instructions before the interval so a restored run replays
// the warmup in the detailed model.
func (d Descriptor) CheckpointStart() uint64 {
	return d.IntervalStart - d.Warmup
}

// Set is an ordered, immutable collection of descriptors.
type Set struct {
	descriptors []Descriptor
}

// NewSet builds a set from two positionally-paired lists: the sampled
// interval numbers and their weights. Interval numbers are in units of
// intervalLength, so interval i starts at i*intervalLength retired
// instructions. The requested warmup is applied per entry, capped at
// each entry's interval start. Weights are normalized to sum to 1.
func NewSet(
	intervals []uint64,
	weights []float64,
	intervalLength uint64,
	warmup uint64,
) (*Set, error) {
	if len(intervals) != len(weights) {
		return nil, fmt.Errorf(
			"%w: %d intervals but %d weights",
			ErrMalformedInput, len(intervals), len(weights))
	}
	if len(intervals) == 0 {
		return nil, fmt.Errorf("%w: empty interval list", ErrMalformedInput)
	}
	// A zero interval length is a valid degenerate for a single entry;
	// with more entries every interval would start at 0.
	if intervalLength == 0 && len(intervals) > 1 {
		return nil, fmt.Errorf(
			"%w: interval length 0 with %d entries collapses all interval starts",
			ErrMalformedInput, len(intervals))
	}

	var weightSum float64
	for i, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf(
				"%w: weight %g of entry %d is negative",
				ErrMalformedInput, w, i)
		}
		weightSum += w
	}
	if weightSum == 0 {
		return nil, fmt.Errorf("%w: weights sum to zero", ErrMalformedInput)
	}

	descriptors := make([]Descriptor, len(intervals))
	for i, interval := range intervals {
		if i > 0 && interval <= intervals[i-1] {
			return nil, fmt.Errorf(
				"%w: interval %d at position %d does not increase over %d",
				ErrMalformedInput, interval, i, intervals[i-1])
		}

		start := interval * intervalLength
		entryWarmup := warmup
		if entryWarmup > start {
			entryWarmup = start
		}

		descriptors[i] = Descriptor{
			Index:          i,
			IntervalStart:  start,
			IntervalLength: intervalLength,
			Warmup:         entryWarmup,
			Weight:         weights[i] / weightSum,
		}
	}

	return &Set{descriptors: descriptors}, nil
}

// Len returns the number of descriptors in the set.
func (s *Set) Len() int {
	return len(s.descriptors)
}

// At returns the descriptor at index i, or ErrInvalidSimPointIndex when
// i is outside [0, Len).
func (s *Set) At(i int) (Descriptor, error) {
	if i < 0 || i >= len(s.descriptors) {
		return Descriptor{}, fmt.Errorf(
			"%w: %d not in [0, %d)", ErrInvalidSimPointIndex, i, len(s.descriptors))
	}
	return s.descriptors[i], nil
}

// Descriptors returns a copy of the ordered descriptor list.
func (s *Set) Descriptors() []Descriptor {
	out := make([]Descriptor, len(s.descriptors))
	copy(out, s.descriptors)
	return out
}

// sortPairs orders interval/weight pairs by interval number. SimPoint
// files list entries in cluster order, not execution order.
func sortPairs(intervals []uint64, weights []float64) ([]uint64, []float64) {
	type pair struct {
		interval uint64
		weight   float64
	}
	pairs := make([]pair, len(intervals))
	for i := range intervals {
		pairs[i] = pair{intervals[i], weights[i]}
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].interval < pairs[j].interval
	})

	outIntervals := make([]uint64, len(pairs))
	outWeights := make([]float64, len(pairs))
	for i, p := range pairs {
		outIntervals[i] = p.interval
		outWeights[i] = p.weight
	}
	return outIntervals, outWeights
}
