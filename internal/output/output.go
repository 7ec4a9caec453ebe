// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package output forwards poses to renderers and monitors. Each target
// declares what it can consume by implementing one or more of the sender
// interfaces; Fanout only calls what a target supports.
package output

import (
	"errors"
	"fmt"
	"io"

	"github.com/relabs-tech/head_tracker/internal/orientation"
	"github.com/relabs-tech/head_tracker/internal/tracker"
)

// OrientationSender consumes orientations.
type OrientationSender interface {
	SendOrientation(orientation.Orientation) error
}

// PositionSender consumes positions in metres.
type PositionSender interface {
	SendPosition(orientation.Position) error
}

// PoseSender consumes whole poses. Fanout prefers it over the other two.
type PoseSender interface {
	SendPose(orientation.Pose) error
}

func SupportsOrientation(t any) bool {
	_, ok := t.(OrientationSender)
	return ok
}

func SupportsPosition(t any) bool {
	_, ok := t.(PositionSender)
	return ok
}

func supportsPose(t any) bool {
	_, ok := t.(PoseSender)
	return ok
}

// Fanout hands each pose to every target according to its capabilities.
type Fanout struct {
	targets []any
}

var _ tracker.Sink = (*Fanout)(nil)

// NewFanout rejects targets that cannot consume anything.
func NewFanout(targets ...any) (*Fanout, error) {
	for i, t := range targets {
		if !supportsPose(t) && !SupportsOrientation(t) && !SupportsPosition(t) {
			return nil, fmt.Errorf("output: target %d (%T) accepts neither orientation nor position: %w", i, t, tracker.ErrConfiguration)
		}
	}
	return &Fanout{targets: targets}, nil
}

// Send delivers p to every target and joins their errors. A target never
// sees a part the pose does not carry.
func (f *Fanout) Send(p orientation.Pose) error {
	var errs []error
	for _, t := range f.targets {
		if s, ok := t.(PoseSender); ok {
			if err := s.SendPose(p); err != nil {
				errs = append(errs, fmt.Errorf("%T: %w", t, err))
			}
			continue
		}
		if s, ok := t.(OrientationSender); ok && p.Orientation.Valid() {
			if err := s.SendOrientation(p.Orientation); err != nil {
				errs = append(errs, fmt.Errorf("%T: orientation: %w", t, err))
			}
		}
		if s, ok := t.(PositionSender); ok && p.Position != nil {
			if err := s.SendPosition(*p.Position); err != nil {
				errs = append(errs, fmt.Errorf("%T: position: %w", t, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes every target that holds a resource.
func (f *Fanout) Close() error {
	var errs []error
	for _, t := range f.targets {
		if c, ok := t.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
