// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package tracker holds what every head tracker shares: the Tracker
// interface, the error classes and the polling loop that feeds output sinks.
package tracker

import (
	"errors"

	"github.com/relabs-tech/head_tracker/internal/orientation"
)

var (
	// ErrConfiguration is returned by constructors for invalid parameters.
	// Values are never clamped silently.
	ErrConfiguration = errors.New("tracker: invalid configuration")

	// ErrDeviceUnavailable is returned when the underlying port or device
	// cannot be opened or has gone away. It is fatal; nothing retries.
	ErrDeviceUnavailable = errors.New("tracker: device unavailable")

	// ErrNotOpen is returned when reading from a tracker that is not open.
	ErrNotOpen = errors.New("tracker: not open")
)

// Tracker is a source of head poses.
//
// ReadPose returns an empty pose (and a nil error) when no complete sample
// was available in time; callers simply poll again.
type Tracker interface {
	Open() error
	Close() error
	ReadPose() (orientation.Pose, error)
	// Zero makes the next sample the new reference for both orientation
	// and position.
	Zero()
}

// Fatal reports whether err should stop a polling loop.
func Fatal(err error) bool {
	return errors.Is(err, ErrDeviceUnavailable) || errors.Is(err, ErrNotOpen) || errors.Is(err, ErrConfiguration)
}
