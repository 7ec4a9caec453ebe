// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cam

import (
	"fmt"
	"log"

	"github.com/relabs-tech/head_tracker/internal/orientation"
	"github.com/relabs-tech/head_tracker/internal/tracker"
	"github.com/relabs-tech/head_tracker/internal/zeroing"
)

// Landmark is a face landmark in normalised image coordinates.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Detection is the landmarker result for one frame. Either part may be
// missing when no face was found.
type Detection struct {
	// Transform is the facial transformation matrix, row-major 4x4.
	Transform *[16]float64 `json:"transform,omitempty"`
	Landmarks []Landmark   `json:"landmarks,omitempty"`
}

// DetectorOptions are passed to the detector on open.
type DetectorOptions struct {
	CameraIndex                int
	ModelPath                  string
	MinFaceDetectionConfidence float64
	MinFacePresenceConfidence  float64
	MinTrackingConfidence      float64
}

// Detector grabs a frame and runs the face landmarker on it.
type Detector interface {
	Open(DetectorOptions) error
	// FrameSize is valid after Open.
	FrameSize() (width, height int)
	// Detect returns false when no frame could be read.
	Detect() (Detection, bool, error)
	Close() error
}

// Intrinsics is a pinhole camera matrix.
type Intrinsics struct {
	Fx, Fy, Cx, Cy float64
}

// DefaultIntrinsics guesses the camera matrix from the frame size: focal
// length equal to the width, principal point in the centre.
func DefaultIntrinsics(width, height int) Intrinsics {
	return Intrinsics{Fx: float64(width), Fy: float64(width), Cx: float64(width) / 2, Cy: float64(height) / 2}
}

// Solver estimates the head pose from 3D model points and their pixels.
// It returns a Rodrigues rotation vector and a translation in metres.
type Solver interface {
	SolvePnP(object [][3]float64, image [][2]float64, k Intrinsics) (rvec, tvec [3]float64, ok bool)
}

// Tracker is a webcam head tracker. Orientation comes from the
// transformation matrix, position from the PnP solution. A nil solver
// disables position.
type Tracker struct {
	cfg    Config
	det    Detector
	solver Solver

	open   bool
	width  int
	height int
	k      Intrinsics

	rot *zeroing.Matrix
	pos *zeroing.Position
}

var _ tracker.Tracker = (*Tracker)(nil)

func New(det Detector, solver Solver, cfg Config) (*Tracker, error) {
	if det == nil {
		return nil, fmt.Errorf("cam: nil detector: %w", tracker.ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Tracker{
		cfg:    cfg,
		det:    det,
		solver: solver,
		rot:    zeroing.NewMatrix(),
		pos:    zeroing.NewPosition(orientation.CameraPosition),
	}, nil
}

func (t *Tracker) Open() error {
	if t.open {
		return nil
	}
	err := t.det.Open(DetectorOptions{
		CameraIndex:                t.cfg.CameraIndex,
		ModelPath:                  t.cfg.ModelPath,
		MinFaceDetectionConfidence: t.cfg.MinFaceDetectionConfidence,
		MinFacePresenceConfidence:  t.cfg.MinFacePresenceConfidence,
		MinTrackingConfidence:      t.cfg.MinTrackingConfidence,
	})
	if err != nil {
		return fmt.Errorf("cam: open camera %d: %w: %w", t.cfg.CameraIndex, tracker.ErrDeviceUnavailable, err)
	}
	t.width, t.height = t.det.FrameSize()
	t.k = DefaultIntrinsics(t.width, t.height)
	t.open = true
	log.Printf("cam: camera %d open (%dx%d)", t.cfg.CameraIndex, t.width, t.height)
	return nil
}

func (t *Tracker) Close() error {
	if !t.open {
		return nil
	}
	t.open = false
	return t.det.Close()
}

func (t *Tracker) Zero() {
	t.rot.Zero()
	t.pos.Zero()
}

func (t *Tracker) ZeroOrientation() { t.rot.Zero() }
func (t *Tracker) ZeroPosition()    { t.pos.Zero() }

// ReadPose reads one frame. A frame without a face gives an empty pose.
func (t *Tracker) ReadPose() (orientation.Pose, error) {
	if !t.open {
		return orientation.Pose{}, fmt.Errorf("cam: %w", tracker.ErrNotOpen)
	}
	det, ok, err := t.det.Detect()
	if err != nil {
		return orientation.Pose{}, fmt.Errorf("cam: detect: %w", err)
	}
	if !ok {
		return orientation.Pose{}, nil
	}

	var pose orientation.Pose
	if det.Transform != nil {
		o, err := t.orientation(*det.Transform)
		if err != nil {
			return orientation.Pose{}, err
		}
		pose.Orientation = o
	}
	if p, ok := t.position(det.Landmarks); ok {
		pose.Position = &p
	}
	return pose, nil
}

// ReadOrientation is ReadPose without the position.
func (t *Tracker) ReadOrientation() (orientation.Orientation, error) {
	p, err := t.ReadPose()
	return p.Orientation, err
}

func (t *Tracker) orientation(transform [16]float64) (orientation.Orientation, error) {
	r, err := orientation.RotationFromTransform(transform).Orthonormalize()
	if err != nil {
		return orientation.None(), fmt.Errorf("cam: %w", err)
	}
	rel := t.rot.Relative(r)
	q := orientation.CameraToHead.Rotation(orientation.QuaternionFromMatrix(rel))

	switch t.cfg.Format {
	case FormatYPR:
		a, err := orientation.QuaternionToEuler(q, orientation.SequenceYPR, false)
		if err != nil {
			return orientation.None(), err
		}
		return orientation.FromYPR(a), nil
	default:
		return orientation.FromQuaternion(q), nil
	}
}

// ImagePoints converts the configured landmarks to pixels. It returns false
// when the mesh is too short.
func (t *Tracker) ImagePoints(landmarks []Landmark) ([][2]float64, bool) {
	out := make([][2]float64, 0, len(t.cfg.LandmarkIndices))
	for _, idx := range t.cfg.LandmarkIndices {
		if idx >= len(landmarks) {
			return nil, false
		}
		l := landmarks[idx]
		out = append(out, [2]float64{l.X * float64(t.width), l.Y * float64(t.height)})
	}
	return out, true
}

func (t *Tracker) position(landmarks []Landmark) (orientation.Position, bool) {
	if t.solver == nil || len(landmarks) == 0 {
		return orientation.Position{}, false
	}
	image, ok := t.ImagePoints(landmarks)
	if !ok {
		return orientation.Position{}, false
	}
	rvec, tvec, ok := t.solver.SolvePnP(t.cfg.LandmarkPoints, image, t.k)
	if !ok {
		return orientation.Position{}, false
	}
	return t.pos.Relative(tvec, orientation.RotationFromVector(rvec)), true
}
