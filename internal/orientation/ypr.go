// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"
	"math"
)

// Sequence names which angle is applied about which axis.
//
//	"ypr": q = Rx(roll) * Ry(pitch) * Rz(yaw)
//	"rpy": q = Rx(yaw)  * Ry(pitch) * Rz(roll)
type Sequence string

const (
	SequenceYPR Sequence = "ypr"
	SequenceRPY Sequence = "rpy"
)

// ParseSequence validates a sequence name.
func ParseSequence(s string) (Sequence, error) {
	switch Sequence(s) {
	case SequenceYPR, SequenceRPY:
		return Sequence(s), nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrInvalidSequence)
	}
}

// YPR holds yaw, pitch and roll. Angles are always wrapped into (-π, π]
// or (-180, 180] when Degrees is set. Build values with NewYPR.
type YPR struct {
	Yaw      float64  `json:"yaw"`
	Pitch    float64  `json:"pitch"`
	Roll     float64  `json:"roll"`
	Sequence Sequence `json:"sequence"`
	Degrees  bool     `json:"degrees"`
}

// NewYPR wraps the angles into the canonical range for the given unit.
func NewYPR(yaw, pitch, roll float64, seq Sequence, degrees bool) (YPR, error) {
	if seq != SequenceYPR && seq != SequenceRPY {
		return YPR{}, fmt.Errorf("%q: %w", seq, ErrInvalidSequence)
	}
	half := math.Pi
	if degrees {
		half = 180
	}
	return YPR{
		Yaw:      wrap(yaw, half),
		Pitch:    wrap(pitch, half),
		Roll:     wrap(roll, half),
		Sequence: seq,
		Degrees:  degrees,
	}, nil
}

func mustYPR(yaw, pitch, roll float64, seq Sequence, degrees bool) YPR {
	ypr, err := NewYPR(yaw, pitch, roll, seq, degrees)
	if err != nil {
		panic(err)
	}
	return ypr
}

// wrap maps a into (-half, half].
func wrap(a, half float64) float64 {
	full := 2 * half
	r := math.Mod(a+half, full)
	if r <= 0 {
		r += full
	}
	return r - half
}

// Array returns [yaw, pitch, roll].
func (a YPR) Array() [3]float64 {
	return [3]float64{a.Yaw, a.Pitch, a.Roll}
}

func (a YPR) compatible(b YPR) error {
	if a.Sequence != b.Sequence {
		return fmt.Errorf("sequence %q vs %q: %w", a.Sequence, b.Sequence, ErrIncompatibleOperand)
	}
	if a.Degrees != b.Degrees {
		return fmt.Errorf("mixed degrees and radians: %w", ErrIncompatibleOperand)
	}
	return nil
}

// Add returns the wrapped angle-wise sum.
func (a YPR) Add(b YPR) (YPR, error) {
	if err := a.compatible(b); err != nil {
		return YPR{}, err
	}
	return NewYPR(a.Yaw+b.Yaw, a.Pitch+b.Pitch, a.Roll+b.Roll, a.Sequence, a.Degrees)
}

// Sub returns the wrapped angle-wise difference.
func (a YPR) Sub(b YPR) (YPR, error) {
	if err := a.compatible(b); err != nil {
		return YPR{}, err
	}
	return NewYPR(a.Yaw-b.Yaw, a.Pitch-b.Pitch, a.Roll-b.Roll, a.Sequence, a.Degrees)
}

// ToDegrees returns the angles in degrees. Already converted values are returned as is.
func (a YPR) ToDegrees() YPR {
	if a.Degrees {
		return a
	}
	return mustYPR(Degrees(a.Yaw), Degrees(a.Pitch), Degrees(a.Roll), a.Sequence, true)
}

// ToRadians returns the angles in radians.
func (a YPR) ToRadians() YPR {
	if !a.Degrees {
		return a
	}
	return mustYPR(Radians(a.Yaw), Radians(a.Pitch), Radians(a.Roll), a.Sequence, false)
}

func (a YPR) String() string {
	unit := "rad"
	if a.Degrees {
		unit = "deg"
	}
	return fmt.Sprintf("YPR(yaw=%.4f, pitch=%.4f, roll=%.4f, %s, %s)", a.Yaw, a.Pitch, a.Roll, unit, a.Sequence)
}
