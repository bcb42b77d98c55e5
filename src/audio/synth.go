package audio

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
)

// Synth owns the live voices. Note events and sample generation may come from
// different goroutines; a single mutex orders them.
type Synth struct {
	mu           sync.Mutex
	params       *Params
	osc          *osc
	reverb       *reverb
	secPerSample float64
	// pooled + active = maxPoly
	pooled []*voice
	active []*voice
	voices [maxPoly]*voice // by note, nil when silent
	pos    int64
	pruned int64
	stats  stats
}

// NewSynth builds a synth from a copy of p.
func NewSynth(p *Params) *Synth {
	p = p.Clone()
	pooled := make([]*voice, maxPoly)
	for i := 0; i < len(pooled); i++ {
		pooled[i] = newVoice()
	}
	s := &Synth{
		params:       p,
		osc:          newOsc(p.sampleRate),
		reverb:       newReverb(),
		secPerSample: 1.0 / p.sampleRate,
		pooled:       pooled,
		active:       make([]*voice, 0, maxPoly),
	}
	s.reverb.applyParams(p.sampleRate, p.reverbParams)
	return s
}

func checkNote(note int) {
	if note < 0 || note >= maxPoly {
		panic(fmt.Sprintf("note out of range: %d", note))
	}
}

// NoteOn starts a voice for note. While a voice for the same note is still
// live (held or releasing) the event is ignored, unless retrigger is set, in
// which case that voice restarts from silence with the new velocity.
func (s *Synth) NoteOn(note int, velocity int) {
	checkNote(note)
	s.mu.Lock()
	defer s.mu.Unlock()
	if v := s.voices[note]; v != nil {
		if !s.params.retrigger {
			return
		}
		v.initWithNote(s.params.adsrParams, note, velocity)
		s.stats.notesOn.Add(1)
		return
	}
	// the pool is as large as the note range, so it cannot run dry here
	lenPooled := len(s.pooled)
	v := s.pooled[lenPooled-1]
	s.pooled = s.pooled[:lenPooled-1]
	s.active = append(s.active, v)
	s.voices[note] = v
	v.initWithNote(s.params.adsrParams, note, velocity)
	s.stats.notesOn.Add(1)
}

// NoteOff releases the voice for note, if any.
func (s *Synth) NoteOff(note int) {
	checkNote(note)
	s.mu.Lock()
	defer s.mu.Unlock()
	if v := s.voices[note]; v != nil {
		v.noteOff()
		s.stats.notesOff.Add(1)
	}
}

// GenerateSample returns the next output sample.
func (s *Synth) GenerateSample() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	value := s.generateSample()
	s.stats.publish(s.pos, len(s.active), s.pruned, math.Abs(value))
	return value
}

// Fill writes len(out) consecutive samples holding the lock once.
func (s *Synth) Fill(out []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	peak := 0.0
	for i := range out {
		out[i] = s.generateSample()
		peak = math.Max(peak, math.Abs(out[i]))
	}
	s.stats.publish(s.pos, len(s.active), s.pruned, peak)
}

func (s *Synth) generateSample() float64 {
	sum := 0.0
	count := len(s.active)
	for _, v := range s.active {
		sum += s.osc.generate(v.phase, v.freq) * v.currentAmplitude()
		v.step(s.secPerSample)
	}
	for j := len(s.active) - 1; j >= 0; j-- {
		v := s.active[j]
		if !v.isActive() {
			s.active = append(s.active[:j], s.active[j+1:]...)
			s.voices[v.note] = nil
			s.pooled = append(s.pooled, v)
			s.pruned++
		}
	}
	out := 0.0
	if count > 0 {
		out = sum / math.Sqrt(float64(count)) * s.params.gain
	}
	out = softClip(out)
	if r := s.params.reverbParams; r.enabled {
		out = (1-r.mix)*out + r.mix*s.reverb.process(out)
	}
	s.pos++
	return out
}

// softClip saturates with tanh and stays strictly inside (-1, 1).
func softClip(x float64) float64 {
	y := math.Tanh(x)
	if y >= 1 {
		return math.Nextafter(1, 0)
	}
	if y <= -1 {
		return math.Nextafter(-1, 0)
	}
	return y
}

// ActiveVoices returns the number of live voices.
func (s *Synth) ActiveVoices() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Stats returns the counters published by the latest Fill or GenerateSample.
func (s *Synth) Stats() Stats {
	return s.stats.snapshot()
}

// SetParam changes one parameter. New envelope settings apply to notes
// started afterwards.
func (s *Synth) SetParam(group string, key string, value string) error {
	if group == "engine" && key == "sample_rate" {
		return fmt.Errorf("sample rate cannot change while running")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.params.Set(group, key, value); err != nil {
		return err
	}
	if group == "reverb" {
		s.reverb.applyParams(s.params.sampleRate, s.params.reverbParams)
	}
	return nil
}

// ParamsJSON ...
func (s *Synth) ParamsJSON() json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.ToJSON()
}
