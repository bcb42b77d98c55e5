package audio

// ----- OSC ----- //

// osc is a band-limited sawtooth. The phase lives in the voice, so one osc
// serves every voice of a synth.
type osc struct {
	sampleRate float64
}

func newOsc(sampleRate float64) *osc {
	return &osc{sampleRate: sampleRate}
}

// generate returns the sample at phase in [0, 1) for a voice sounding at freq.
func (o *osc) generate(phase float64, freq float64) float64 {
	dt := freq / o.sampleRate
	value := 2*phase - 1
	value -= polyBLEP(phase, dt)
	return value
}

// polyBLEP is the residual of a band-limited step around the wrap at phase 0/1.
// dt is the phase increment per sample.
func polyBLEP(t float64, dt float64) float64 {
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}
