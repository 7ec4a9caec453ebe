// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"strings"

	"github.com/relabs-tech/head_tracker/internal/orientation"
)

// FormatPose renders a pose as one console line, angles in degrees.
func FormatPose(p orientation.Pose) string {
	var b strings.Builder
	b.WriteString("[POSE]")
	if a, ok := p.Orientation.AsYPR(orientation.SequenceYPR); ok {
		d := a.ToDegrees()
		fmt.Fprintf(&b, "  YAW=%7.2f  PITCH=%7.2f  ROLL=%7.2f", d.Yaw, d.Pitch, d.Roll)
	}
	if q, ok := p.Orientation.Quaternion(); ok {
		fmt.Fprintf(&b, "  Q=[%.3f %.3f %.3f %.3f]", q.W, q.X, q.Y, q.Z)
	}
	if p.Position != nil {
		fmt.Fprintf(&b, "  X=%6.3f Y=%6.3f Z=%6.3f", p.Position.X, p.Position.Y, p.Position.Z)
	}
	if p.Empty() {
		b.WriteString("  none")
	}
	return b.String()
}
