// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// RotationMatrix is a 3x3 rotation matrix acting on column vectors.
type RotationMatrix struct {
	m *mat.Dense
}

// IdentityMatrix returns the 3x3 identity.
func IdentityMatrix() RotationMatrix {
	return RotationMatrix{m: mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})}
}

// NewRotationMatrix builds a matrix from 9 row-major values.
func NewRotationMatrix(rowMajor []float64) (RotationMatrix, error) {
	if len(rowMajor) != 9 {
		return RotationMatrix{}, fmt.Errorf("rotation matrix needs 9 values, got %d", len(rowMajor))
	}
	data := make([]float64, 9)
	copy(data, rowMajor)
	return RotationMatrix{m: mat.NewDense(3, 3, data)}, nil
}

// RotationFromTransform extracts the upper-left 3x3 block of a row-major 4x4
// homogeneous transform.
func RotationFromTransform(t [16]float64) RotationMatrix {
	return RotationMatrix{m: mat.NewDense(3, 3, []float64{
		t[0], t[1], t[2],
		t[4], t[5], t[6],
		t[8], t[9], t[10],
	})}
}

// At returns element (i, j).
func (r RotationMatrix) At(i, j int) float64 {
	return r.m.At(i, j)
}

// RowMajor returns a copy of the 9 values in row-major order.
func (r RotationMatrix) RowMajor() []float64 {
	out := make([]float64, 0, 9)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out = append(out, r.m.At(i, j))
		}
	}
	return out
}

// Mul returns r * o.
func (r RotationMatrix) Mul(o RotationMatrix) RotationMatrix {
	var out mat.Dense
	out.Mul(r.m, o.m)
	return RotationMatrix{m: &out}
}

// T returns the transpose, which is the inverse for a proper rotation.
func (r RotationMatrix) T() RotationMatrix {
	return RotationMatrix{m: mat.DenseCopyOf(r.m.T())}
}

// MulVec returns r * v.
func (r RotationMatrix) MulVec(v [3]float64) [3]float64 {
	var out mat.VecDense
	out.MulVec(r.m, mat.NewVecDense(3, []float64{v[0], v[1], v[2]}))
	return [3]float64{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
}

// Det returns the determinant.
func (r RotationMatrix) Det() float64 {
	return mat.Det(r.m)
}

// Orthonormalize returns the closest proper rotation to r (polar
// decomposition via SVD). Landmark fits often carry a small scale or shear.
func (r RotationMatrix) Orthonormalize() (RotationMatrix, error) {
	var svd mat.SVD
	if ok := svd.Factorize(r.m, mat.SVDFull); !ok {
		return RotationMatrix{}, fmt.Errorf("orthonormalize: SVD failed")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var out mat.Dense
	out.Mul(&u, v.T())
	if mat.Det(&out) < 0 {
		// Flip the axis of the smallest singular value.
		for i := 0; i < 3; i++ {
			u.Set(i, 2, -u.At(i, 2))
		}
		out.Mul(&u, v.T())
	}
	return RotationMatrix{m: &out}, nil
}

// MatrixFromQuaternion returns the rotation matrix of q. q is normalised first.
func MatrixFromQuaternion(q Quaternion) (RotationMatrix, error) {
	u, err := q.Normalize()
	if err != nil {
		return RotationMatrix{}, err
	}
	w, x, y, z := u.W, u.X, u.Y, u.Z
	return RotationMatrix{m: mat.NewDense(3, 3, []float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	})}, nil
}

// QuaternionFromMatrix converts a proper rotation matrix to a unit quaternion
// with a non-negative scalar part (Shepperd's method).
func QuaternionFromMatrix(r RotationMatrix) Quaternion {
	m00, m01, m02 := r.At(0, 0), r.At(0, 1), r.At(0, 2)
	m10, m11, m12 := r.At(1, 0), r.At(1, 1), r.At(1, 2)
	m20, m21, m22 := r.At(2, 0), r.At(2, 1), r.At(2, 2)

	var q Quaternion
	trace := m00 + m11 + m22
	switch {
	case trace > 0:
		s := 2 * math.Sqrt(trace+1)
		q = Quaternion{W: s / 4, X: (m21 - m12) / s, Y: (m02 - m20) / s, Z: (m10 - m01) / s}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = Quaternion{W: (m21 - m12) / s, X: s / 4, Y: (m01 + m10) / s, Z: (m02 + m20) / s}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = Quaternion{W: (m02 - m20) / s, X: (m01 + m10) / s, Y: s / 4, Z: (m12 + m21) / s}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = Quaternion{W: (m10 - m01) / s, X: (m02 + m20) / s, Y: (m12 + m21) / s, Z: s / 4}
	}
	if q.W < 0 {
		q = q.Neg()
	}
	return q
}

// RotationFromVector converts a Rodrigues rotation vector (axis * angle) to a matrix.
func RotationFromVector(rvec [3]float64) RotationMatrix {
	theta := math.Sqrt(rvec[0]*rvec[0] + rvec[1]*rvec[1] + rvec[2]*rvec[2])
	if theta < 1e-12 {
		return IdentityMatrix()
	}
	s := math.Sin(theta/2) / theta
	q := Quaternion{W: math.Cos(theta / 2), X: rvec[0] * s, Y: rvec[1] * s, Z: rvec[2] * s}
	m, _ := MatrixFromQuaternion(q)
	return m
}

// MatrixToYPR decomposes a rotation matrix with the same singularity handling
// as QuaternionToEuler.
func MatrixToYPR(r RotationMatrix, seq Sequence) (YPR, error) {
	return QuaternionToEuler(QuaternionFromMatrix(r), seq, false)
}
