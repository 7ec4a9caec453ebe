// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hmd

import (
	"fmt"
	"log"

	"github.com/relabs-tech/head_tracker/internal/orientation"
	"github.com/relabs-tech/head_tracker/internal/tracker"
	"github.com/relabs-tech/head_tracker/internal/zeroing"
)

// Format selects how orientation is reported.
type Format string

const (
	FormatQuaternion Format = "q"
	FormatYPR        Format = "ypr"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatQuaternion, FormatYPR:
		return Format(s), nil
	default:
		return "", fmt.Errorf("hmd: orientation format %q: %w", s, tracker.ErrConfiguration)
	}
}

// Location is the view pose reported by the runtime, in OpenXR view space
// (x right, y up, z back).
type Location struct {
	Orientation      orientation.Quaternion `json:"orientation"`
	Position         [3]float64             `json:"position"`
	OrientationValid bool                   `json:"orientation_valid"`
	PositionValid    bool                   `json:"position_valid"`
}

// Locator wraps the XR runtime session.
type Locator interface {
	Open() error
	// Locate returns the pose for the next predicted display time.
	Locate() (Location, error)
	Close() error
}

// Tracker reports the headset pose relative to a reference.
type Tracker struct {
	loc    Locator
	format Format
	open   bool

	rot *zeroing.Orientation
	pos *zeroing.Position
}

var _ tracker.Tracker = (*Tracker)(nil)

func New(loc Locator, format Format) (*Tracker, error) {
	if loc == nil {
		return nil, fmt.Errorf("hmd: nil locator: %w", tracker.ErrConfiguration)
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	return &Tracker{
		loc:    loc,
		format: format,
		rot:    zeroing.NewOrientation(),
		pos:    zeroing.NewPosition(orientation.OpenXRToHead),
	}, nil
}

func (t *Tracker) Open() error {
	if t.open {
		return nil
	}
	if err := t.loc.Open(); err != nil {
		return fmt.Errorf("hmd: open session: %w: %w", tracker.ErrDeviceUnavailable, err)
	}
	t.open = true
	log.Println("hmd: session open")
	return nil
}

func (t *Tracker) Close() error {
	if !t.open {
		return nil
	}
	t.open = false
	return t.loc.Close()
}

func (t *Tracker) Zero() {
	t.rot.Zero()
	t.pos.Zero()
}

func (t *Tracker) ZeroOrientation() { t.rot.Zero() }
func (t *Tracker) ZeroPosition()    { t.pos.Zero() }

// ReadPose locates the view once. Parts the runtime flags as invalid are
// left out of the pose.
func (t *Tracker) ReadPose() (orientation.Pose, error) {
	if !t.open {
		return orientation.Pose{}, fmt.Errorf("hmd: %w", tracker.ErrNotOpen)
	}
	l, err := t.loc.Locate()
	if err != nil {
		return orientation.Pose{}, fmt.Errorf("hmd: locate: %w", err)
	}

	var pose orientation.Pose
	if l.OrientationValid {
		rel, err := t.rot.Relative(l.Orientation)
		if err != nil {
			return orientation.Pose{}, fmt.Errorf("hmd: %w", err)
		}
		q := orientation.OpenXRToHead.Rotation(rel)
		if t.format == FormatYPR {
			a, err := orientation.QuaternionToEuler(q, orientation.SequenceYPR, false)
			if err != nil {
				return orientation.Pose{}, err
			}
			pose.Orientation = orientation.FromYPR(a)
		} else {
			pose.Orientation = orientation.FromQuaternion(q)
		}
	}
	if l.PositionValid {
		// Translations stay in the runtime's reference space.
		p := t.pos.Relative(l.Position, orientation.IdentityMatrix())
		pose.Position = &p
	}
	return pose, nil
}

func (t *Tracker) ReadOrientation() (orientation.Orientation, error) {
	p, err := t.ReadPose()
	return p.Orientation, err
}

func (t *Tracker) ReadPosition() (*orientation.Position, error) {
	p, err := t.ReadPose()
	return p.Position, err
}
