package audio

import "math"

// ----- Voice ----- //

type voice struct {
	note      int
	freq      float64
	phase     float64 // 0-1
	amplitude float64 // velocity / 127
	adsr      *adsr
}

func newVoice() *voice {
	return &voice{adsr: &adsr{}}
}

// velocity is clamped to 0-127 so that amplitude stays in [0, 1].
func (v *voice) initWithNote(p *adsrParams, note int, velocity int) {
	if velocity < 0 {
		velocity = 0
	} else if velocity > 127 {
		velocity = 127
	}
	v.note = note
	v.freq = noteToFreq(note)
	v.phase = 0
	v.amplitude = float64(velocity) / 127
	v.adsr.init(p)
}

func (v *voice) step(dt float64) {
	v.phase += v.freq * dt
	_, v.phase = math.Modf(v.phase)
	v.adsr.step(dt)
}

func (v *voice) noteOff() {
	if v.adsr.stage != stageRelease {
		v.adsr.noteOff()
	}
}

func (v *voice) isActive() bool {
	return v.adsr.isActive()
}

func (v *voice) currentAmplitude() float64 {
	return v.amplitude * v.adsr.value
}
