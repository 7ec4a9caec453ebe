// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"
	"math"
)

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// RadToDeg converts a scalar, a slice, a 3-array or a YPR from radians to degrees.
// The result has the same shape as the input.
func RadToDeg(v any) (any, error) {
	return convertUnits(v, Degrees, true)
}

// DegToRad is the inverse of RadToDeg.
func DegToRad(v any) (any, error) {
	return convertUnits(v, Radians, false)
}

func convertUnits(v any, f func(float64) float64, toDegrees bool) (any, error) {
	switch t := v.(type) {
	case float64:
		return f(t), nil
	case float32:
		return float32(f(float64(t))), nil
	case int:
		return f(float64(t)), nil
	case []float64:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = f(x)
		}
		return out, nil
	case [3]float64:
		return [3]float64{f(t[0]), f(t[1]), f(t[2])}, nil
	case YPR:
		if toDegrees {
			return t.ToDegrees(), nil
		}
		return t.ToRadians(), nil
	default:
		return nil, fmt.Errorf("%T: %w", v, ErrTypeMismatch)
	}
}
