// Package util provides small numeric helpers shared by the label engine.
package util

import "math"

// IsFinite reports whether f is neither NaN nor an infinity.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Clamp limits v to [lo, hi]. NaN is returned unchanged so callers can decide
// how to treat it.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// angleResolution is the finest rotation step kept, in degrees.
const angleResolution = 1e9

// NormalizeDegrees maps any finite angle into [0, 360), snapped to a
// nanodegree so repeated increments land back on the same value.
func NormalizeDegrees(deg float64) float64 {
	r := math.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	r = math.Round(r*angleResolution) / angleResolution
	// -1e-14 + 360 rounds to 360
	if r >= 360 {
		r = 0
	}
	return r
}

// PositiveOr returns v when it is finite and > 0, otherwise fallback.
func PositiveOr(v, fallback float64) float64 {
	if !IsFinite(v) || v <= 0 {
		return fallback
	}
	return v
}
