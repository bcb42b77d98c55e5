package audio

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	defaultSampleRate = 48000
	defaultGain       = 2.0
)

// Params is the synth configuration. The sample rate is fixed once a Synth is
// built from it; everything else may change while notes are sounding.
type Params struct {
	sampleRate   float64
	gain         float64
	retrigger    bool
	adsrParams   *adsrParams
	reverbParams *reverbParams
}

// NewParams returns the default configuration.
func NewParams() *Params {
	return &Params{
		sampleRate:   defaultSampleRate,
		gain:         defaultGain,
		retrigger:    false,
		adsrParams:   newAdsrParams(),
		reverbParams: newReverbParams(),
	}
}

type paramsJSON struct {
	SampleRate float64         `json:"sampleRate"`
	Gain       float64         `json:"gain"`
	Retrigger  bool            `json:"retrigger"`
	Adsr       json.RawMessage `json:"adsr"`
	Reverb     json.RawMessage `json:"reverb"`
}

// SampleRate ...
func (p *Params) SampleRate() float64 {
	return p.sampleRate
}

// ToJSON ...
func (p *Params) ToJSON() json.RawMessage {
	return toRawMessage(&paramsJSON{
		SampleRate: p.sampleRate,
		Gain:       p.gain,
		Retrigger:  p.retrigger,
		Adsr:       p.adsrParams.toJSON(),
		Reverb:     p.reverbParams.toJSON(),
	})
}

// Set updates one value. group is "engine", "adsr" or "reverb".
func (p *Params) Set(group string, key string, value string) error {
	switch group {
	case "engine":
		return p.set(key, value)
	case "adsr":
		return p.adsrParams.set(key, value)
	case "reverb":
		return p.reverbParams.set(key, value)
	}
	return fmt.Errorf("unknown params group %q", group)
}

func (p *Params) set(key string, value string) error {
	switch key {
	case "sample_rate":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		if value <= 0 {
			return fmt.Errorf("sample rate must be positive, got %v", value)
		}
		p.sampleRate = value
	case "gain":
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		if value < 0 {
			return fmt.Errorf("gain must not be negative, got %v", value)
		}
		p.gain = value
	case "retrigger":
		value, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		p.retrigger = value
	default:
		return fmt.Errorf("unknown engine key %q", key)
	}
	return nil
}

// Clone returns a deep copy.
func (p *Params) Clone() *Params {
	adsr := *p.adsrParams
	reverb := *p.reverbParams
	return &Params{
		sampleRate:   p.sampleRate,
		gain:         p.gain,
		retrigger:    p.retrigger,
		adsrParams:   &adsr,
		reverbParams: &reverb,
	}
}
