// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package cam tracks the head with a webcam face landmarker. The landmark
// model and the PnP solver are external; this package turns their output
// into a zeroed head pose.
package cam

import (
	"fmt"
	"math"

	"github.com/relabs-tech/head_tracker/internal/tracker"
)

// Format selects how orientation is reported.
type Format string

const (
	FormatQuaternion Format = "q"
	FormatYPR        Format = "ypr"
)

// MeshSize is the number of landmarks in a face mesh.
const MeshSize = 478

// Default landmarks: nose tip, chin, outer eye corners and mouth corners.
var (
	DefaultLandmarkIndices = []int{1, 152, 33, 263, 61, 291}

	// DefaultLandmarkPoints are the matching model points in metres, in the
	// camera frame (x right, y down, z forward).
	DefaultLandmarkPoints = [][3]float64{
		{0.0, 0.0, 0.0},
		{0.0, -0.063, -0.033},
		{-0.043, 0.032, -0.026},
		{0.043, 0.032, -0.026},
		{-0.028, -0.028, -0.025},
		{0.028, -0.028, -0.025},
	}
)

// Config configures a webcam tracker.
type Config struct {
	CameraIndex int
	// ModelPath is handed to the detector. Empty means its built-in model.
	ModelPath string
	Format    Format

	MinFaceDetectionConfidence float64
	MinFacePresenceConfidence  float64
	MinTrackingConfidence      float64

	LandmarkIndices []int
	LandmarkPoints  [][3]float64
}

// DefaultConfig tracks quaternions from camera 0 with confidence 0.8.
func DefaultConfig() Config {
	return Config{
		Format:                     FormatQuaternion,
		MinFaceDetectionConfidence: 0.8,
		MinFacePresenceConfidence:  0.8,
		MinTrackingConfidence:      0.8,
		LandmarkIndices:            DefaultLandmarkIndices,
		LandmarkPoints:             DefaultLandmarkPoints,
	}
}

// Validate fails fast on any out of range value.
func (c Config) Validate() error {
	switch c.Format {
	case FormatQuaternion, FormatYPR:
	default:
		return fmt.Errorf("cam: orientation format %q (want \"q\" or \"ypr\"): %w", c.Format, tracker.ErrConfiguration)
	}
	if c.CameraIndex < 0 {
		return fmt.Errorf("cam: camera index %d: %w", c.CameraIndex, tracker.ErrConfiguration)
	}

	for name, v := range map[string]float64{
		"min face detection confidence": c.MinFaceDetectionConfidence,
		"min face presence confidence":  c.MinFacePresenceConfidence,
		"min tracking confidence":       c.MinTrackingConfidence,
	} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("cam: %s %v not in [0, 1]: %w", name, v, tracker.ErrConfiguration)
		}
	}

	if len(c.LandmarkIndices) != len(c.LandmarkPoints) {
		return fmt.Errorf("cam: %d landmark indices but %d model points: %w",
			len(c.LandmarkIndices), len(c.LandmarkPoints), tracker.ErrConfiguration)
	}
	// PnP needs at least four correspondences.
	if len(c.LandmarkIndices) < 4 {
		return fmt.Errorf("cam: %d landmarks, need at least 4: %w", len(c.LandmarkIndices), tracker.ErrConfiguration)
	}
	for _, idx := range c.LandmarkIndices {
		if idx < 0 || idx >= MeshSize {
			return fmt.Errorf("cam: landmark index %d outside the %d point mesh: %w", idx, MeshSize, tracker.ErrConfiguration)
		}
	}
	return nil
}
