// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package tracker

import (
	"fmt"

	"github.com/relabs-tech/head_tracker/internal/orientation"
	"github.com/relabs-tech/head_tracker/internal/zeroing"
)

// SourceTracker turns an orientation.Source, such as the mock source, into
// a Tracker with zeroing.
type SourceTracker struct {
	src  orientation.Source
	open bool
	ref  *zeroing.Pose
}

var _ Tracker = (*SourceTracker)(nil)

func NewSourceTracker(src orientation.Source) *SourceTracker {
	return &SourceTracker{src: src, ref: zeroing.NewPose(orientation.IdentityConvention)}
}

func (s *SourceTracker) Open() error {
	s.open = true
	return nil
}

func (s *SourceTracker) Close() error {
	s.open = false
	return nil
}

func (s *SourceTracker) Zero() { s.ref.Zero() }

func (s *SourceTracker) ReadPose() (orientation.Pose, error) {
	if !s.open {
		return orientation.Pose{}, fmt.Errorf("source: %w", ErrNotOpen)
	}
	p, err := s.src.Next()
	if err != nil {
		return orientation.Pose{}, err
	}

	var out orientation.Pose
	if q, ok := p.Orientation.AsQuaternion(); ok {
		rel, err := s.ref.Orientation.Relative(q)
		if err != nil {
			return orientation.Pose{}, err
		}
		out.Orientation = orientation.FromQuaternion(rel)
	}
	if p.Position != nil {
		rel := s.ref.Position.Relative(p.Position.Array(), orientation.IdentityMatrix())
		out.Position = &rel
	}
	return out, nil
}
