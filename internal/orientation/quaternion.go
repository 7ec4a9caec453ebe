// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Quaternion is a (w, x, y, z) rotation. It is not required to be unit length.
type Quaternion struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Identity returns the quaternion that represents no rotation.
func Identity() Quaternion {
	return Quaternion{W: 1}
}

// QuaternionFromSlice builds a quaternion from [w, x, y, z].
func QuaternionFromSlice(v []float64) (Quaternion, error) {
	if len(v) != 4 {
		return Quaternion{}, fmt.Errorf("quaternion needs 4 components, got %d", len(v))
	}
	return Quaternion{W: v[0], X: v[1], Y: v[2], Z: v[3]}, nil
}

func fromNumber(n quat.Number) Quaternion {
	return Quaternion{W: n.Real, X: n.Imag, Y: n.Jmag, Z: n.Kmag}
}

func (q Quaternion) number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

// Array returns the components as [w, x, y, z].
func (q Quaternion) Array() [4]float64 {
	return [4]float64{q.W, q.X, q.Y, q.Z}
}

// Mul returns the Hamilton product q*o. The product is not commutative.
func (q Quaternion) Mul(o Quaternion) Quaternion {
	return fromNumber(quat.Mul(q.number(), o.number()))
}

// Add returns the component-wise sum.
func (q Quaternion) Add(o Quaternion) Quaternion {
	return fromNumber(quat.Add(q.number(), o.number()))
}

// Neg returns -q, which describes the same rotation as q.
func (q Quaternion) Neg() Quaternion {
	return Quaternion{W: -q.W, X: -q.X, Y: -q.Y, Z: -q.Z}
}

// Conjugate returns (w, -x, -y, -z).
func (q Quaternion) Conjugate() Quaternion {
	return fromNumber(quat.Conj(q.number()))
}

// Norm returns the Euclidean length of q.
func (q Quaternion) Norm() float64 {
	return quat.Abs(q.number())
}

// Normalize returns q scaled to unit length.
func (q Quaternion) Normalize() (Quaternion, error) {
	n := q.Norm()
	if n == 0 {
		return Quaternion{}, fmt.Errorf("normalize: %w", ErrDegenerateInput)
	}
	return fromNumber(quat.Scale(1/n, q.number())), nil
}

// Inverse returns the multiplicative inverse conj(q)/|q|².
func (q Quaternion) Inverse() (Quaternion, error) {
	if q.Norm() == 0 {
		return Quaternion{}, fmt.Errorf("inverse: %w", ErrDegenerateInput)
	}
	return fromNumber(quat.Inv(q.number())), nil
}

// IsNaN reports whether any component is NaN.
func (q Quaternion) IsNaN() bool {
	return math.IsNaN(q.W) || math.IsNaN(q.X) || math.IsNaN(q.Y) || math.IsNaN(q.Z)
}

// SameRotation reports whether q and o describe the same rotation within tol,
// accepting the double cover (o == -q).
func (q Quaternion) SameRotation(o Quaternion, tol float64) bool {
	return q.near(o, tol) || q.near(o.Neg(), tol)
}

func (q Quaternion) near(o Quaternion, tol float64) bool {
	return math.Abs(q.W-o.W) <= tol &&
		math.Abs(q.X-o.X) <= tol &&
		math.Abs(q.Y-o.Y) <= tol &&
		math.Abs(q.Z-o.Z) <= tol
}

func (q Quaternion) String() string {
	return fmt.Sprintf("Quaternion(w=%.4f, x=%.4f, y=%.4f, z=%.4f)", q.W, q.X, q.Y, q.Z)
}
