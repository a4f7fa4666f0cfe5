package math

import (
	m "math"

	"golang.org/x/exp/constraints"
)

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// IsFinite reports whether f is neither NaN nor an infinity.
func IsFinite(f float32) bool {
	return !m.IsNaN(float64(f)) && !m.IsInf(float64(f), 0)
}

// WrapRadians folds an angle into [0, 2π).
func WrapRadians(angle float32) float32 {
	wrapped := float32(m.Mod(float64(angle), float64(K_PI_2)))
	if wrapped < 0 {
		wrapped += K_PI_2
	}
	if wrapped >= K_PI_2 {
		wrapped = 0
	}
	return wrapped
}
