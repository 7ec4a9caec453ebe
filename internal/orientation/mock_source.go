// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
)

type mockSource struct {
	clk   clock.Clock
	start time.Time
}

// NewMockSource creates a mock source that sweeps the head slowly through
// yaw, pitch and roll. Pass nil to use the wall clock.
func NewMockSource(clk clock.Clock) Source {
	if clk == nil {
		clk = clock.New()
	}
	return &mockSource{clk: clk, start: clk.Now()}
}

func (m *mockSource) Next() (Pose, error) {
	elapsed := m.clk.Since(m.start).Seconds()

	ypr, err := NewYPR(
		Radians(math.Mod(elapsed*30, 360)),
		Radians(15*math.Cos(elapsed*0.7)),
		Radians(20*math.Sin(elapsed)),
		SequenceYPR,
		false,
	)
	if err != nil {
		return Pose{}, err
	}
	pos := Position{X: 0.05 * math.Sin(elapsed*0.5)}

	return Pose{
		Orientation: FromQuaternion(EulerToQuaternion(ypr)),
		Position:    &pos,
	}, nil
}
