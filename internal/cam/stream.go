// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package cam

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/relabs-tech/head_tracker/internal/tracker"
)

// StreamDetector reads detections produced by an external landmarker
// process, one JSON Detection per line.
type StreamDetector struct {
	open          func(DetectorOptions) (io.ReadCloser, error)
	width, height int

	rc      io.ReadCloser
	scanner *bufio.Scanner
}

// NewStreamDetector reads from whatever open returns for the detector
// options. The frame size must match the landmarker's input.
func NewStreamDetector(open func(DetectorOptions) (io.ReadCloser, error), width, height int) *StreamDetector {
	return &StreamDetector{open: open, width: width, height: height}
}

func (s *StreamDetector) Open(opts DetectorOptions) error {
	if s.width <= 0 || s.height <= 0 {
		return fmt.Errorf("cam: frame size %dx%d: %w", s.width, s.height, tracker.ErrConfiguration)
	}
	rc, err := s.open(opts)
	if err != nil {
		return err
	}
	s.rc = rc
	s.scanner = bufio.NewScanner(rc)
	// A full mesh line is about 30 kB.
	s.scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return nil
}

func (s *StreamDetector) FrameSize() (int, int) { return s.width, s.height }

// Detect returns the next line. Blank lines are frames without a face.
// The end of the stream is reported as tracker.ErrDeviceUnavailable.
func (s *StreamDetector) Detect() (Detection, bool, error) {
	if s.scanner == nil {
		return Detection{}, false, fmt.Errorf("cam: stream: %w", tracker.ErrNotOpen)
	}
	if !s.scanner.Scan() {
		err := s.scanner.Err()
		if err == nil {
			err = io.EOF
		}
		return Detection{}, false, fmt.Errorf("cam: stream: %w: %w", tracker.ErrDeviceUnavailable, err)
	}
	line := s.scanner.Bytes()
	if len(line) == 0 {
		return Detection{}, true, nil
	}
	var d Detection
	if err := json.Unmarshal(line, &d); err != nil {
		return Detection{}, false, fmt.Errorf("cam: bad detection line: %w", err)
	}
	return d, true, nil
}

func (s *StreamDetector) Close() error {
	if s.rc == nil {
		return nil
	}
	err := s.rc.Close()
	s.rc, s.scanner = nil, nil
	if errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return err
}
