package audio

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ----- ADSR Params ----- //

type adsrParams struct {
	attack  float64 // ms
	decay   float64 // ms
	sustain float64 // 0-1
	release float64 // ms
	curve   int     // decay and release shape
}
type adsrJSON struct {
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`
	Curve   string  `json:"curve"`
}

func newAdsrParams() *adsrParams {
	return &adsrParams{
		attack:  5,
		decay:   20,
		sustain: 0.7,
		release: 10,
		curve:   curveLinear,
	}
}

func (a *adsrParams) toJSON() json.RawMessage {
	return toRawMessage(&adsrJSON{
		Attack:  a.attack,
		Decay:   a.decay,
		Sustain: a.sustain,
		Release: a.release,
		Curve:   curveKindToString(a.curve),
	})
}
func (a *adsrParams) set(key string, value string) error {
	if key == "curve" {
		curve, err := curveKindFromString(value)
		if err != nil {
			return err
		}
		a.curve = curve
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	switch key {
	case "attack", "decay", "release":
		if v < 0 || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a non-negative duration in ms, got %v", key, v)
		}
	case "sustain":
		if v < 0 || v > 1 {
			return fmt.Errorf("sustain must be in [0, 1], got %v", v)
		}
	default:
		return fmt.Errorf("unknown adsr key %q", key)
	}
	switch key {
	case "attack":
		a.attack = v
	case "decay":
		a.decay = v
	case "sustain":
		a.sustain = v
	case "release":
		a.release = v
	}
	return nil
}

// ----- ADSR ----- //

const (
	stageAttack = iota
	stageDecay
	stageSustain
	stageRelease
)

const activeThreshold = 0.001

// Rate of the one-pole smoother applied on top of the stage target.
const smoothingRate = 50.0

/*
  1 +     x
    |    / \
    |   /   \
  s +  /     x--------x
    | /                \
    |/                  \
  0 +-----+--+--------+---
    |a    |d |        |r |
*/
type adsr struct {
	attack         float64 // ms
	decay          float64 // ms
	sustain        float64 // 0-1
	release        float64 // ms
	curve          int
	stage          int
	elapsed        float64 // ms since the current stage began
	value          float64
	valueAtNoteOff float64
}

func (a *adsr) init(p *adsrParams) {
	a.attack = p.attack
	a.decay = p.decay
	a.sustain = p.sustain
	a.release = p.release
	a.curve = p.curve
	a.stage = stageAttack
	a.elapsed = 0
	a.value = 0
	a.valueAtNoteOff = 0
}

// noteOff enters the release stage. Release is terminal, so a second call is ignored.
func (a *adsr) noteOff() {
	if a.stage == stageRelease {
		return
	}
	a.stage = stageRelease
	a.elapsed = 0
	a.valueAtNoteOff = a.value
}

func (a *adsr) isActive() bool {
	return a.value > activeThreshold || a.stage != stageRelease
}

// step advances the envelope by dt seconds.
func (a *adsr) step(dt float64) {
	a.elapsed += dt * 1000
	target := 0.0
	switch a.stage {
	case stageAttack:
		t := stageProgress(a.elapsed, a.attack)
		target = t
		if t >= 1 {
			a.stage = stageDecay
			a.elapsed = 0
		}
	case stageDecay:
		t := stageProgress(a.elapsed, a.decay)
		target = interpolate(a.curve, 1, a.sustain, t)
		if t >= 1 || math.Abs(target-a.sustain) < activeThreshold {
			a.stage = stageSustain
			a.elapsed = 0
			target = a.sustain
		}
	case stageSustain:
		target = a.sustain
	case stageRelease:
		t := stageProgress(a.elapsed, a.release)
		target = interpolate(a.curve, a.valueAtNoteOff, 0, t)
	}
	a.value += (target - a.value) * (1 - math.Exp(-smoothingRate*dt))
}

func stageProgress(elapsed float64, duration float64) float64 {
	if duration <= 0 {
		return 1
	}
	t := elapsed / duration
	if t > 1 {
		return 1
	}
	return t
}
