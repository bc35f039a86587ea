package markset

import (
	"fmt"
	"math"
	"strings"
)

// RoundingMode selects how final marks are rounded.
type RoundingMode string

const (
	// RoundHalfUp rounds halves away from zero, matching the legacy report cards.
	RoundHalfUp RoundingMode = "half_up"
	// RoundHalfEven rounds halves to the nearest even digit.
	RoundHalfEven RoundingMode = "half_even"
)

// DefaultFinalDecimals is the number of decimals kept on final marks.
const DefaultFinalDecimals = 1

// noiseDigits strips binary representation error before rounding.
const noiseDigits = 1e6

// ParseRoundingMode validates a configured rounding mode; empty means half_up.
func ParseRoundingMode(raw string) (RoundingMode, error) {
	switch RoundingMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", RoundHalfUp:
		return RoundHalfUp, nil
	case RoundHalfEven:
		return RoundHalfEven, nil
	default:
		return "", fmt.Errorf("unsupported rounding mode %q", raw)
	}
}

// Round rounds v to decimals places with the given mode.
func Round(v float64, decimals int, mode RoundingMode) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	if decimals < 0 {
		decimals = 0
	}
	scale := math.Pow(10, float64(decimals))
	scaled := math.Round(v*scale*noiseDigits) / noiseDigits
	var rounded float64
	if mode == RoundHalfEven {
		rounded = math.RoundToEven(scaled)
	} else {
		rounded = math.Round(scaled)
	}
	return rounded / scale
}

func round1(v float64) float64 {
	return Round(v, 1, RoundHalfUp)
}
