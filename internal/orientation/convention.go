// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

// Convention maps one coordinate system onto another as data:
// out[i] = Sign[i] * in[Perm[i]].
type Convention struct {
	Name string
	Perm [3]int
	Sign [3]float64
}

// Head frame used by every tracker output: x forward, y left, z up.
var (
	IdentityConvention = Convention{Name: "identity", Perm: [3]int{0, 1, 2}, Sign: [3]float64{1, 1, 1}}

	// CameraToHead maps the landmark camera frame (x right, y down, z
	// forward, looking at the face) onto the head frame.
	CameraToHead = Convention{Name: "camera-to-head", Perm: [3]int{2, 0, 1}, Sign: [3]float64{-1, 1, -1}}

	// CameraPosition maps a translation already rotated into the reference
	// head frame onto output coordinates.
	CameraPosition = Convention{Name: "camera-position", Perm: [3]int{2, 0, 1}, Sign: [3]float64{1, -1, 1}}

	// OpenXRToHead maps the OpenXR view space (x right, y up, z back).
	OpenXRToHead = Convention{Name: "openxr-to-head", Perm: [3]int{2, 0, 1}, Sign: [3]float64{-1, -1, 1}}
)

// Vector remaps a 3-vector.
func (c Convention) Vector(v [3]float64) [3]float64 {
	return [3]float64{
		c.Sign[0] * v[c.Perm[0]],
		c.Sign[1] * v[c.Perm[1]],
		c.Sign[2] * v[c.Perm[2]],
	}
}

// Position remaps a position.
func (c Convention) Position(p Position) Position {
	v := c.Vector(p.Array())
	return Position{X: v[0], Y: v[1], Z: v[2]}
}

// Det is the determinant of the mapping, +1 for a proper rotation and -1
// when the mapping mirrors the space.
func (c Convention) Det() float64 {
	parity := 1.0
	p := c.Perm
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if p[i] > p[j] {
				parity = -parity
			}
		}
	}
	return parity * c.Sign[0] * c.Sign[1] * c.Sign[2]
}

// Rotation expresses the rotation q in the target frame. The vector part is
// a pseudo-vector, so a mirroring mapping flips its sign to keep the result a
// valid rotation.
func (c Convention) Rotation(q Quaternion) Quaternion {
	v := c.Vector([3]float64{q.X, q.Y, q.Z})
	d := c.Det()
	return Quaternion{W: q.W, X: d * v[0], Y: d * v[1], Z: d * v[2]}
}

// Components remaps the raw (x, y, z) components of q without any
// correction. Output targets use it to encode their own wire conventions.
func (c Convention) Components(q Quaternion) Quaternion {
	v := c.Vector([3]float64{q.X, q.Y, q.Z})
	return Quaternion{W: q.W, X: v[0], Y: v[1], Z: v[2]}
}

// AngleConvention adjusts YPR angles (degrees) for a target: the offset is
// added first, then the angle is optionally inverted.
type AngleConvention struct {
	Offset [3]float64
	Invert [3]bool
}

// Apply returns [yaw, pitch, roll] in degrees for the target.
func (a AngleConvention) Apply(ypr YPR) [3]float64 {
	v := ypr.ToDegrees().Array()
	for i := range v {
		v[i] += a.Offset[i]
		if a.Invert[i] {
			v[i] = -v[i]
		}
	}
	return v
}
