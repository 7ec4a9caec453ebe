// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package supperware

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/relabs-tech/head_tracker/internal/midi"
	"github.com/relabs-tech/head_tracker/internal/orientation"
	"github.com/relabs-tech/head_tracker/internal/tracker"
	"github.com/relabs-tech/head_tracker/internal/zeroing"
)

const defaultTimeout = 250 * time.Millisecond

// Opener opens the MIDI connection of a tracker.
type Opener func() (midi.Conn, error)

// Tracker reads a Head Tracker 1. It is not safe for concurrent use.
type Tracker struct {
	cfg     Config
	open    Opener
	conn    midi.Conn
	clk     clock.Clock
	timeout time.Duration

	quat   *zeroing.Orientation
	matrix *zeroing.Matrix

	skipped int
}

var _ tracker.Tracker = (*Tracker)(nil)

// New validates cfg. The port is not touched until Open.
func New(open Opener, cfg Config) (*Tracker, error) {
	if open == nil {
		return nil, fmt.Errorf("supperware: nil opener: %w", tracker.ErrConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Tracker{
		cfg:     cfg,
		open:    open,
		clk:     clk,
		timeout: timeout,
		quat:    zeroing.NewOrientation(),
		matrix:  zeroing.NewMatrix(),
	}, nil
}

// Open opens the port and sends the configuration block.
func (t *Tracker) Open() error {
	if t.conn != nil {
		return nil
	}
	msg, err := OpenMessage(t.cfg)
	if err != nil {
		return err
	}
	conn, err := t.open()
	if err != nil {
		return fmt.Errorf("supperware: open: %w", err)
	}
	if err := conn.WriteMessage(msg); err != nil {
		conn.Close()
		return fmt.Errorf("supperware: configure: %w", err)
	}
	t.conn = conn
	log.Printf("supperware: Head Tracker 1 open (%d Hz, format %s)", t.cfg.RefreshRate, t.cfg.Format)
	return nil
}

// Close switches the output off and releases the port.
func (t *Tracker) Close() error {
	if t.conn == nil {
		return nil
	}
	werr := t.conn.WriteMessage(CloseMessage())
	cerr := t.conn.Close()
	t.conn = nil
	log.Println("supperware: Head Tracker 1 closed")
	return errors.Join(werr, cerr)
}

// ReadReport waits at most the timeout for the next orientation report in
// the configured format. It returns false when none arrived.
func (t *Tracker) ReadReport() (Report, bool, error) {
	if t.conn == nil {
		return Report{}, false, fmt.Errorf("supperware: %w", tracker.ErrNotOpen)
	}
	deadline := t.clk.Now().Add(t.timeout)
	for {
		msg, err := t.conn.ReadMessage()
		if err != nil {
			return Report{}, false, fmt.Errorf("supperware: %w", err)
		}
		var data []byte
		if msg != nil && msg.GetSysEx(&data) {
			if r, ok := ParseReport(data); ok && r.Format == t.cfg.Format {
				return r, true, nil
			}
			t.skipped++
		}
		if !t.clk.Now().Before(deadline) {
			return Report{}, false, nil
		}
	}
}

// ReadOrientation returns the absolute orientation. Matrix reports are
// returned as quaternions.
func (t *Tracker) ReadOrientation() (orientation.Orientation, error) {
	r, ok, err := t.ReadReport()
	if err != nil || !ok {
		return orientation.None(), err
	}
	switch r.Format {
	case FormatYPR:
		a, err := r.YPR()
		if err != nil {
			return orientation.None(), err
		}
		return orientation.FromYPR(a), nil
	case FormatQuaternion:
		q, err := r.Quaternion()
		if err != nil {
			return orientation.None(), err
		}
		return orientation.FromQuaternion(q), nil
	case FormatMatrix:
		m, err := r.Matrix()
		if err != nil {
			return orientation.None(), err
		}
		return orientation.FromQuaternion(orientation.QuaternionFromMatrix(m)), nil
	default:
		return orientation.None(), fmt.Errorf("supperware: unknown format %q", r.Format)
	}
}

// ReadPose returns the orientation relative to the reference. Matrix
// sources are zeroed as matrices and reported as YPR.
func (t *Tracker) ReadPose() (orientation.Pose, error) {
	r, ok, err := t.ReadReport()
	if err != nil || !ok {
		return orientation.Pose{}, err
	}

	switch r.Format {
	case FormatYPR:
		a, err := r.YPR()
		if err != nil {
			return orientation.Pose{}, err
		}
		rel, err := t.quat.RelativeYPR(a)
		if err != nil {
			return orientation.Pose{}, err
		}
		return orientation.Pose{Orientation: orientation.FromYPR(rel)}, nil
	case FormatQuaternion:
		q, err := r.Quaternion()
		if err != nil {
			return orientation.Pose{}, err
		}
		rel, err := t.quat.Relative(q)
		if err != nil {
			return orientation.Pose{}, err
		}
		return orientation.Pose{Orientation: orientation.FromQuaternion(rel)}, nil
	case FormatMatrix:
		m, err := r.Matrix()
		if err != nil {
			return orientation.Pose{}, err
		}
		a, err := orientation.MatrixToYPR(t.matrix.Relative(m), orientation.SequenceYPR)
		if err != nil {
			return orientation.Pose{}, err
		}
		return orientation.Pose{Orientation: orientation.FromYPR(a)}, nil
	default:
		return orientation.Pose{}, fmt.Errorf("supperware: unknown format %q", r.Format)
	}
}

// Zero makes the next report the reference.
func (t *Tracker) Zero() {
	t.quat.Zero()
	t.matrix.Zero()
}

// Skipped counts SysEx blocks that were not usable reports.
func (t *Tracker) Skipped() int { return t.skipped }
