// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
)

// gimbalEps is how close the middle angle may get to 0 or π before the
// first angle is pinned to zero.
const gimbalEps = 1e-6

// Axis indices into [x, y, z].
const (
	axisX = iota
	axisY
	axisZ
)

// QuaternionToEuler decomposes q into yaw, pitch and roll (radians) for the
// given sequence. It implements the general Euler extraction of Bernardes and
// Viollet: both sequences decompose about the axis triple (z, y, x); extrinsic
// reverses that triple. Pitch lands in [-π/2, π/2]. At the poles the first
// angle is set to zero and the whole rotation is carried by the third.
//
// The quaternion does not need to be normalised.
func QuaternionToEuler(q Quaternion, seq Sequence, extrinsic bool) (YPR, error) {
	if _, err := ParseSequence(string(seq)); err != nil {
		return YPR{}, err
	}

	axes := [3]int{axisZ, axisY, axisX}
	if extrinsic {
		axes = [3]int{axisX, axisY, axisZ}
	}
	t1, t2, t3 := eulerAngles(q, axes)

	// t1 belongs to the first axis of the triple. For "ypr" that is yaw,
	// for "rpy" it is roll; extrinsic swaps the roles.
	yawFirst := seq == SequenceYPR
	if extrinsic {
		yawFirst = !yawFirst
	}
	if yawFirst {
		return NewYPR(t1, t2, t3, seq, false)
	}
	return NewYPR(t3, t2, t1, seq, false)
}

func eulerAngles(q Quaternion, axes [3]int) (float64, float64, float64) {
	i, j, k := axes[0], axes[1], axes[2]
	e := float64((i - j) * (j - k) * (k - i) / 2)

	v := [3]float64{q.X, q.Y, q.Z}
	q0, qi, qj, qk := q.W, v[i], v[j], v[k]

	a := q0 - qj
	b := qi + e*qk
	c := qj + q0
	d := e*qk - qi

	theta2 := 2 * math.Atan2(math.Hypot(c, d), math.Hypot(a, b))
	thetaPlus := math.Atan2(b, a)
	thetaMinus := math.Atan2(d, c)

	var theta1, theta3 float64
	switch {
	case math.Abs(theta2) <= gimbalEps:
		theta3 = 2 * thetaPlus
	case math.Abs(theta2-math.Pi) <= gimbalEps:
		theta3 = 2 * thetaMinus
	default:
		theta1 = thetaPlus - thetaMinus
		theta3 = thetaPlus + thetaMinus
	}

	theta3 *= e
	theta2 -= math.Pi / 2

	return wrapAtan(theta1), wrapAtan(theta2), wrapAtan(theta3)
}

func wrapAtan(a float64) float64 {
	return math.Atan2(math.Sin(a), math.Cos(a))
}

// EulerToQuaternion composes the rotation described by a. Degree values are
// converted first. The two sequences use different half-angle products and
// must not be merged.
func EulerToQuaternion(a YPR) Quaternion {
	a = a.ToRadians()

	wa, za := math.Cos(a.Yaw*0.5), math.Sin(a.Yaw*0.5)
	wb, yb := math.Cos(a.Pitch*0.5), math.Sin(a.Pitch*0.5)
	wc, xc := math.Cos(a.Roll*0.5), math.Sin(a.Roll*0.5)

	if a.Sequence == SequenceRPY {
		return Quaternion{
			W: wa*wb*wc - za*yb*xc,
			X: za*wb*wc + wa*yb*xc,
			Y: wa*yb*wc - za*wb*xc,
			Z: wa*wb*xc + za*yb*wc,
		}
	}
	return Quaternion{
		W: wc*wb*wa - xc*yb*za,
		X: wc*yb*za + xc*wb*wa,
		Y: wc*yb*wa - xc*wb*za,
		Z: wc*wb*za + xc*yb*wa,
	}
}
