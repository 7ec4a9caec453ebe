// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package zeroing keeps the reference pose of one tracker and reports
// samples relative to it.
//
// A reference is captured lazily: on the first sample after construction
// and on the first sample after Zero. That sample is reported as the
// identity. Orientation and position references are independent.
package zeroing

import (
	"fmt"

	"github.com/relabs-tech/head_tracker/internal/orientation"
)

// Orientation is the reference for quaternion sources.
// Relative orientation is current * inverse(reference).
type Orientation struct {
	ref     orientation.Quaternion
	inv     orientation.Quaternion
	have    bool
	pending bool
}

// NewOrientation returns a reference that captures the next sample.
func NewOrientation() *Orientation {
	return &Orientation{pending: true}
}

// Zero makes the next sample the new reference.
func (o *Orientation) Zero() { o.pending = true }

// Pending reports whether the next sample will be captured.
func (o *Orientation) Pending() bool { return o.pending }

// Reference returns the captured reference, if any.
func (o *Orientation) Reference() (orientation.Quaternion, bool) {
	return o.ref, o.have
}

// Relative returns q relative to the reference. A zero-norm q cannot be
// captured and fails with orientation.ErrDegenerateInput.
func (o *Orientation) Relative(q orientation.Quaternion) (orientation.Quaternion, error) {
	if o.pending || !o.have {
		inv, err := q.Inverse()
		if err != nil {
			return orientation.Quaternion{}, fmt.Errorf("zeroing: capture reference: %w", err)
		}
		o.ref, o.inv = q, inv
		o.have, o.pending = true, false
		return orientation.Identity(), nil
	}
	return q.Mul(o.inv), nil
}

// RelativeYPR zeroes a YPR sample by going through quaternions. The result
// keeps the sample's sequence and is in radians.
func (o *Orientation) RelativeYPR(a orientation.YPR) (orientation.YPR, error) {
	rel, err := o.Relative(orientation.EulerToQuaternion(a))
	if err != nil {
		return orientation.YPR{}, err
	}
	return orientation.QuaternionToEuler(rel, a.Sequence, false)
}

// Matrix is the reference for rotation matrix sources.
// Relative orientation is current * referenceᵀ.
type Matrix struct {
	ref     orientation.RotationMatrix
	have    bool
	pending bool
}

func NewMatrix() *Matrix {
	return &Matrix{pending: true}
}

func (m *Matrix) Zero() { m.pending = true }

func (m *Matrix) Reference() (orientation.RotationMatrix, bool) {
	return m.ref, m.have
}

// Relative returns r relative to the reference.
func (m *Matrix) Relative(r orientation.RotationMatrix) orientation.RotationMatrix {
	if m.pending || !m.have {
		m.ref = r
		m.have, m.pending = true, false
		return orientation.IdentityMatrix()
	}
	return r.Mul(m.ref.T())
}

// Position is the reference for translations. The delta to the reference
// is rotated into the reference frame and then mapped by Convention.
type Position struct {
	Convention orientation.Convention

	t       [3]float64
	rT      orientation.RotationMatrix
	have    bool
	pending bool
}

// NewPosition returns a position reference that maps its output with conv.
func NewPosition(conv orientation.Convention) *Position {
	return &Position{Convention: conv, pending: true}
}

func (p *Position) Zero() { p.pending = true }

// Relative returns the position of t relative to the reference. r is the
// device rotation at the time of t; only the one captured with the
// reference is used.
func (p *Position) Relative(t [3]float64, r orientation.RotationMatrix) orientation.Position {
	if p.pending || !p.have {
		p.t = t
		p.rT = r.T()
		p.have, p.pending = true, false
		return orientation.Position{}
	}
	delta := [3]float64{t[0] - p.t[0], t[1] - p.t[1], t[2] - p.t[2]}
	v := p.Convention.Vector(p.rT.MulVec(delta))
	return orientation.Position{X: v[0], Y: v[1], Z: v[2]}
}

// Pose bundles an orientation and a position reference for sources that
// report both. Zero resets both.
type Pose struct {
	Orientation *Orientation
	Position    *Position
}

// NewPose returns references that both capture the next sample.
func NewPose(conv orientation.Convention) *Pose {
	return &Pose{Orientation: NewOrientation(), Position: NewPosition(conv)}
}

func (p *Pose) Zero() {
	p.Orientation.Zero()
	p.Position.Zero()
}

func (p *Pose) ZeroOrientation() { p.Orientation.Zero() }
func (p *Pose) ZeroPosition()    { p.Position.Zero() }
