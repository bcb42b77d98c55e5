package audio

import (
	"math"
	"sync/atomic"
)

// Stats is a snapshot of the synth's diagnostic counters.
type Stats struct {
	Samples      int64   `json:"samples"`
	ActiveVoices int64   `json:"activeVoices"`
	NotesOn      int64   `json:"notesOn"`
	NotesOff     int64   `json:"notesOff"`
	Pruned       int64   `json:"pruned"`
	Peak         float64 `json:"peak"` // of the latest block
}

// stats is written by the audio path with plain atomic stores so that
// readers never take the synth lock.
type stats struct {
	samples      atomic.Int64
	activeVoices atomic.Int64
	notesOn      atomic.Int64
	notesOff     atomic.Int64
	pruned       atomic.Int64
	peak         atomic.Uint64
}

func (s *stats) publish(samples int64, activeVoices int, pruned int64, peak float64) {
	s.samples.Store(samples)
	s.activeVoices.Store(int64(activeVoices))
	s.pruned.Store(pruned)
	s.peak.Store(math.Float64bits(peak))
}

func (s *stats) snapshot() Stats {
	return Stats{
		Samples:      s.samples.Load(),
		ActiveVoices: s.activeVoices.Load(),
		NotesOn:      s.notesOn.Load(),
		NotesOff:     s.notesOff.Load(),
		Pruned:       s.pruned.Load(),
		Peak:         math.Float64frombits(s.peak.Load()),
	}
}
