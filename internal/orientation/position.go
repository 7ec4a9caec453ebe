// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"
	"math"
)

// Position is a Cartesian position in metres.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Array returns [x, y, z].
func (p Position) Array() [3]float64 {
	return [3]float64{p.X, p.Y, p.Z}
}

func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z}
}

func (p Position) Sub(o Position) Position {
	return Position{X: p.X - o.X, Y: p.Y - o.Y, Z: p.Z - o.Z}
}

// Scale multiplies every coordinate by f.
func (p Position) Scale(f float64) Position {
	return Position{X: p.X * f, Y: p.Y * f, Z: p.Z * f}
}

// ScaleAxes multiplies each coordinate by its own factor.
func (p Position) ScaleAxes(f [3]float64) Position {
	return Position{X: p.X * f[0], Y: p.Y * f[1], Z: p.Z * f[2]}
}

// DistanceTo returns the Euclidean distance between p and o.
func (p Position) DistanceTo(o Position) float64 {
	d := p.Sub(o)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}

func (p Position) String() string {
	return fmt.Sprintf("Position(x=%.3f, y=%.3f, z=%.3f)", p.X, p.Y, p.Z)
}
