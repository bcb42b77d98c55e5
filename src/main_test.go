package main

import (
	"encoding/json"
	"testing"
)

func TestParamsFromFlags(t *testing.T) {
	p, err := paramsFromFlags()
	expectNoError(t, err)
	expectEqual(t, p.SampleRate(), 48000.0)
	var j struct {
		Gain float64 `json:"gain"`
		Adsr struct {
			Curve string `json:"curve"`
		} `json:"adsr"`
	}
	expectNoError(t, json.Unmarshal(p.ToJSON(), &j))
	expectEqual(t, j.Gain, 2.0)
	expectEqual(t, j.Adsr.Curve, "linear")

	defer func(prev string) { *curve = prev }(*curve)
	*curve = "cubic"
	_, err = paramsFromFlags()
	expectError(t, err)
}
