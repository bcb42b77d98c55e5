package audio

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ----- Delay ----- //

type delay struct {
	cursor int
	past   []float64
}

func (d *delay) applyParams(sampleRate float64, millis float64) {
	length := int(sampleRate * millis / 1000)
	if length < 1 {
		length = 1
	}
	if length == len(d.past) {
		return
	}
	if cap(d.past) >= length {
		d.past = d.past[0:length]
	} else {
		d.past = make([]float64, length)
	}
	d.clear()
}

func (d *delay) clear() {
	for i := range d.past {
		d.past[i] = 0
	}
	d.cursor = 0
}

// step overwrites the oldest sample, so the line never grows past its capacity.
func (d *delay) step(in float64) {
	d.past[d.cursor] = in
	d.cursor++
	if d.cursor >= len(d.past) {
		d.cursor = 0
	}
}

// getLatest returns the most recently written sample (0 before the first step).
func (d *delay) getLatest() float64 {
	return d.past[(d.cursor+len(d.past)-1)%len(d.past)]
}

// ----- Reverb Params ----- //

type reverbParams struct {
	enabled bool
	delay   float64 // ms
	decay   float64 // [0,1)
	mix     float64 // [0,1]
}

type reverbJSON struct {
	Enabled bool    `json:"enabled"`
	Delay   float64 `json:"delay"`
	Decay   float64 `json:"decay"`
	Mix     float64 `json:"mix"`
}

func newReverbParams() *reverbParams {
	return &reverbParams{
		enabled: false,
		delay:   50,
		decay:   0.5,
		mix:     0.3,
	}
}

func (r *reverbParams) toJSON() json.RawMessage {
	return toRawMessage(&reverbJSON{
		Enabled: r.enabled,
		Delay:   r.delay,
		Decay:   r.decay,
		Mix:     r.mix,
	})
}
func (r *reverbParams) set(key string, value string) error {
	switch key {
	case "enabled":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		r.enabled = enabled
	case "delay":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		if value <= 0 {
			return fmt.Errorf("reverb delay must be positive, got %v", value)
		}
		r.delay = value
	case "decay":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		if value < 0 || value >= 1 {
			return fmt.Errorf("reverb decay must be in [0, 1), got %v", value)
		}
		r.decay = value
	case "mix":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		if value < 0 || value > 1 {
			return fmt.Errorf("reverb mix must be in [0, 1], got %v", value)
		}
		r.mix = value
	default:
		return fmt.Errorf("unknown reverb key %q", key)
	}
	return nil
}

// ----- Reverb ----- //

// reverb is a one-tap feedback loop on the latest buffered output, no
// diffusion. The ring buffer only bounds memory; it does not set the tap.
type reverb struct {
	delay *delay
	decay float64 // [0,1)
}

func newReverb() *reverb {
	return &reverb{delay: &delay{}}
}

func (r *reverb) applyParams(sampleRate float64, p *reverbParams) {
	r.delay.applyParams(sampleRate, p.delay)
	r.decay = p.decay
}

func (r *reverb) process(in float64) float64 {
	out := in + r.decay*r.delay.getLatest()
	r.delay.step(out)
	return out
}
