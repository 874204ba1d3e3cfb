// Package stats collects measurement records at phase boundaries.
//
// The controller treats statistics as an opaque sink: it only resets
// and dumps. Each dump produces one record tagged with the phase that
// ended; external analysis combines measurement records with the
// descriptor weights.
package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/xid"

	"github.com/sarchlab/phasesim/timing/cache"
	"github.com/sarchlab/phasesim/timing/core"
)

// Phase labels for dumped records.
const (
	PhaseCapture     = "capture"
	PhaseWarmup      = "warmup"
	PhaseMeasurement = "measurement"
	PhaseRun         = "run"
)

// CoreStats holds one core slot's detailed-model counters.
type CoreStats struct {
	Slot  int             `json:"slot"`
	Stats core.Statistics `json:"stats"`
}

// CacheStats holds one cache level's counters.
type CacheStats struct {
	Level string           `json:"level"`
	Stats cache.Statistics `json:"stats"`
}

// Snapshot is a point-in-time copy of every counter the machine
// exposes.
type Snapshot struct {
	// Retired is the retired-instruction count at snapshot time.
	Retired uint64 `json:"retired"`

	Cores  []CoreStats  `json:"cores"`
	Caches []CacheStats `json:"caches,omitempty"`
}

// Provider is the machine side of the sink: something that can report
// and zero its counters. The board implements it.
type Provider interface {
	StatsSnapshot() Snapshot
	ResetStats()
}

// Record is one dumped measurement.
type Record struct {
	// ID uniquely identifies the record across runs.
	ID string `json:"id"`

	// Phase names the phase the record closes (warmup records are
	// discarded by analysis, measurement records are weighted in).
	Phase string `json:"phase"`

	// SimPointIndex is the sampled interval the record belongs to, or
	// -1 for records outside a sampled run.
	SimPointIndex int `json:"simpoint_index"`

	DumpedAt time.Time `json:"dumped_at"`

	Snapshot Snapshot `json:"snapshot"`
}

// Sink accumulates records dumped at phase boundaries.
type Sink struct {
	provider Provider
	records  []Record
}

// NewSink creates a sink over the given provider.
func NewSink(provider Provider) *Sink {
	return &Sink{provider: provider}
}

// Reset zeroes the provider's counters, discarding everything since the
// previous boundary.
func (s *Sink) Reset() {
	s.provider.ResetStats()
}

// Dump snapshots the provider's counters into a new record.
func (s *Sink) Dump(phase string, simPointIndex int) Record {
	record := Record{
		ID:            xid.New().String(),
		Phase:         phase,
		SimPointIndex: simPointIndex,
		DumpedAt:      time.Now(),
		Snapshot:      s.provider.StatsSnapshot(),
	}
	s.records = append(s.records, record)
	return record
}

// Records returns a copy of all dumped records in dump order.
func (s *Sink) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// WriteJSON writes the dumped records as a JSON array.
func (s *Sink) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.records); err != nil {
		return fmt.Errorf("encode statistics records: %w", err)
	}
	return nil
}

// WriteFile writes the dumped records to a JSON file.
func (s *Sink) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create statistics file: %w", err)
	}
	defer f.Close()

	if err := s.WriteJSON(f); err != nil {
		return err
	}
	return f.Close()
}
