// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/relabs-tech/head_tracker/internal/tracker"
)

// StreamLocator reads locations written by an external XR bridge, one JSON
// Location per line.
type StreamLocator struct {
	open    func() (io.ReadCloser, error)
	rc      io.ReadCloser
	scanner *bufio.Scanner
}

func NewStreamLocator(open func() (io.ReadCloser, error)) *StreamLocator {
	return &StreamLocator{open: open}
}

func (s *StreamLocator) Open() error {
	rc, err := s.open()
	if err != nil {
		return err
	}
	s.rc = rc
	s.scanner = bufio.NewScanner(rc)
	return nil
}

// Locate returns the next location. A blank line is a frame where the
// runtime had no valid pose.
func (s *StreamLocator) Locate() (Location, error) {
	if s.scanner == nil {
		return Location{}, fmt.Errorf("hmd: stream: %w", tracker.ErrNotOpen)
	}
	if !s.scanner.Scan() {
		err := s.scanner.Err()
		if err == nil {
			err = io.EOF
		}
		return Location{}, fmt.Errorf("hmd: stream: %w: %w", tracker.ErrDeviceUnavailable, err)
	}
	var l Location
	if len(s.scanner.Bytes()) == 0 {
		return l, nil
	}
	if err := json.Unmarshal(s.scanner.Bytes(), &l); err != nil {
		return Location{}, fmt.Errorf("hmd: bad location line: %w", err)
	}
	return l, nil
}

func (s *StreamLocator) Close() error {
	if s.rc == nil {
		return nil
	}
	err := s.rc.Close()
	s.rc, s.scanner = nil, nil
	return err
}
