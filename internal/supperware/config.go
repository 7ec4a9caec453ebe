// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package supperware drives the Supperware Head Tracker 1 over MIDI SysEx.
package supperware

import (
	"fmt"
	"math"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/relabs-tech/head_tracker/internal/tracker"
)

// Format is the orientation format the tracker is asked to send.
type Format string

const (
	FormatYPR        Format = "ypr"
	FormatQuaternion Format = "q"
	FormatMatrix     Format = "orth"
)

// Gestures controls the tap gestures of the tracker.
type Gestures string

const (
	GesturesPreserve Gestures = "preserve"
	GesturesOn       Gestures = "on"
	GesturesOff      Gestures = "off"
)

// Chirality tells the tracker which side of the head the cable leaves.
type Chirality string

const (
	ChiralityPreserve Chirality = "preserve"
	ChiralityLeft     Chirality = "left"
	ChiralityRight    Chirality = "right"
)

// Config is the tracker setup sent with the open block.
type Config struct {
	RefreshRate int // Hz: 25, 50 or 100
	RawFormat   bool
	Compass     bool
	Format      Format
	Gestures    Gestures
	Chirality   Chirality
	// CentralPull slowly pulls yaw back to the front when the compass is off.
	CentralPull bool
	// CentralPullRate is in degrees per second, in steps of 0.05.
	CentralPullRate float64
	// ForceCompassCalibration asks for a compass calibration on open.
	ForceCompassCalibration bool

	// Timeout bounds one ReadOrientation call. Defaults to 250 ms.
	Timeout time.Duration
	Clock   clock.Clock
}

// DefaultConfig matches the tracker's factory behaviour: 50 Hz YPR, no
// compass, gestures and chirality left as they are.
func DefaultConfig() Config {
	return Config{
		RefreshRate:     50,
		Format:          FormatYPR,
		Gestures:        GesturesPreserve,
		Chirality:       ChiralityPreserve,
		CentralPullRate: 0.3,
	}
}

// Validate checks every field. Nothing is clamped.
func (c Config) Validate() error {
	switch c.RefreshRate {
	case 25, 50, 100:
	default:
		return fmt.Errorf("supperware: refresh rate %d Hz (want 25, 50 or 100): %w", c.RefreshRate, tracker.ErrConfiguration)
	}
	switch c.Format {
	case FormatYPR, FormatQuaternion, FormatMatrix:
	default:
		return fmt.Errorf("supperware: orientation format %q (want ypr, q or orth): %w", c.Format, tracker.ErrConfiguration)
	}
	switch c.Gestures {
	case GesturesPreserve, GesturesOn, GesturesOff:
	default:
		return fmt.Errorf("supperware: gestures %q (want preserve, on or off): %w", c.Gestures, tracker.ErrConfiguration)
	}
	switch c.Chirality {
	case ChiralityPreserve, ChiralityLeft, ChiralityRight:
	default:
		return fmt.Errorf("supperware: chirality %q (want preserve, left or right): %w", c.Chirality, tracker.ErrConfiguration)
	}
	if c.CentralPull {
		if _, err := centralPullStep(c.CentralPullRate); err != nil {
			return err
		}
	}
	return nil
}

// centralPullStep quantises a pull rate to the 7-bit parameter value.
func centralPullStep(rate float64) (byte, error) {
	step := int(math.Round(rate/0.05)) - 1
	if math.IsNaN(rate) || step < 0 || step > 127 {
		return 0, fmt.Errorf("supperware: central pull rate %.2f deg/s (want 0.05 to 6.40): %w", rate, tracker.ErrConfiguration)
	}
	return byte(step), nil
}
