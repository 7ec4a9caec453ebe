// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"encoding/json"
	"fmt"
)

// Kind tags the variant held by an Orientation.
type Kind int

const (
	KindNone Kind = iota
	KindQuaternion
	KindYPR
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindQuaternion:
		return "quaternion"
	case KindYPR:
		return "ypr"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Orientation is either a Quaternion, a YPR or nothing at all.
// Consumers switch on Kind.
type Orientation struct {
	kind Kind
	q    Quaternion
	ypr  YPR
}

// None returns the absent orientation.
func None() Orientation {
	return Orientation{}
}

func FromQuaternion(q Quaternion) Orientation {
	return Orientation{kind: KindQuaternion, q: q}
}

func FromYPR(a YPR) Orientation {
	return Orientation{kind: KindYPR, ypr: a}
}

func (o Orientation) Kind() Kind { return o.kind }

// Valid reports whether o holds a value.
func (o Orientation) Valid() bool { return o.kind != KindNone }

// Quaternion returns the quaternion variant.
func (o Orientation) Quaternion() (Quaternion, bool) {
	return o.q, o.kind == KindQuaternion
}

// YPR returns the YPR variant.
func (o Orientation) YPR() (YPR, bool) {
	return o.ypr, o.kind == KindYPR
}

// AsQuaternion converts whatever o holds to a quaternion.
func (o Orientation) AsQuaternion() (Quaternion, bool) {
	switch o.kind {
	case KindQuaternion:
		return o.q, true
	case KindYPR:
		return EulerToQuaternion(o.ypr), true
	case KindNone:
		return Quaternion{}, false
	default:
		panic(fmt.Sprintf("orientation: unknown kind %v", o.kind))
	}
}

// AsYPR converts whatever o holds to radians in the requested sequence.
func (o Orientation) AsYPR(seq Sequence) (YPR, bool) {
	switch o.kind {
	case KindYPR:
		if o.ypr.Sequence == seq {
			return o.ypr.ToRadians(), true
		}
		ypr, err := QuaternionToEuler(EulerToQuaternion(o.ypr), seq, false)
		return ypr, err == nil
	case KindQuaternion:
		ypr, err := QuaternionToEuler(o.q, seq, false)
		return ypr, err == nil
	case KindNone:
		return YPR{}, false
	default:
		panic(fmt.Sprintf("orientation: unknown kind %v", o.kind))
	}
}

func (o Orientation) String() string {
	switch o.kind {
	case KindQuaternion:
		return o.q.String()
	case KindYPR:
		return o.ypr.String()
	default:
		return "None"
	}
}

// Pose is one sample from a tracker. Either part may be missing.
type Pose struct {
	Orientation Orientation
	Position    *Position
}

// Empty reports whether the pose carries neither orientation nor position.
func (p Pose) Empty() bool {
	return !p.Orientation.Valid() && p.Position == nil
}

// PoseJSON is the wire form published on MQTT and served by the web monitor.
type PoseJSON struct {
	Quaternion *Quaternion `json:"quaternion,omitempty"`
	YPR        *YPR        `json:"ypr,omitempty"`
	Position   *Position   `json:"position,omitempty"`
}

// MarshalJSON encodes the pose as PoseJSON.
func (p Pose) MarshalJSON() ([]byte, error) {
	var out PoseJSON
	switch p.Orientation.Kind() {
	case KindQuaternion:
		q, _ := p.Orientation.Quaternion()
		out.Quaternion = &q
	case KindYPR:
		a, _ := p.Orientation.YPR()
		out.YPR = &a
	case KindNone:
	}
	out.Position = p.Position
	return json.Marshal(out)
}

// UnmarshalJSON decodes PoseJSON. A quaternion wins over YPR if both are present.
func (p *Pose) UnmarshalJSON(data []byte) error {
	var in PoseJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch {
	case in.Quaternion != nil:
		p.Orientation = FromQuaternion(*in.Quaternion)
	case in.YPR != nil:
		a, err := NewYPR(in.YPR.Yaw, in.YPR.Pitch, in.YPR.Roll, in.YPR.Sequence, in.YPR.Degrees)
		if err != nil {
			return err
		}
		p.Orientation = FromYPR(a)
	default:
		p.Orientation = None()
	}
	p.Position = in.Position
	return nil
}

// Source is anything that can provide poses over time.
type Source interface {
	Next() (Pose, error)
}
