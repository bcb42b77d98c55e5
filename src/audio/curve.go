package audio

import (
	"fmt"
	"math"
)

// ----- Curve Kind ----- //

/*
  [linear]               [exponential]
  1 +\                   1 +\
    |  \                   | \
    |    \                 |  `.
    |      \               |    `-.
  s +        `----       s +       `------
    +--------+--           +--------+--
    |  decay |             |  decay |
*/

const (
	curveLinear = iota
	curveExponential
)

// Residual distance to the target is e^-5 (< 1%) at the end of the stage.
const exponentialSteepness = 5.0

func curveKindFromString(s string) (int, error) {
	switch s {
	case "linear":
		return curveLinear, nil
	case "exponential":
		return curveExponential, nil
	}
	return curveLinear, fmt.Errorf("unknown curve kind %q", s)
}

func curveKindToString(kind int) string {
	switch kind {
	case curveExponential:
		return "exponential"
	default:
		return "linear"
	}
}

// interpolate moves from initialValue to targetValue as t goes 0 -> 1.
func interpolate(kind int, initialValue float64, targetValue float64, t float64) float64 {
	if t >= 1 {
		return targetValue
	}
	if t <= 0 {
		return initialValue
	}
	switch kind {
	case curveExponential:
		return setTargetAtTime(initialValue, targetValue, t*exponentialSteepness)
	default:
		return t*targetValue + (1-t)*initialValue
	}
}

// 63% closer to target when pos=1.0
func setTargetAtTime(initialValue float64, targetValue float64, pos float64) float64 {
	return targetValue + (initialValue-targetValue)*math.Exp(-pos)
}
