// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package iem

import (
	"fmt"
	"log"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/relabs-tech/head_tracker/internal/midi"
	"github.com/relabs-tech/head_tracker/internal/orientation"
	"github.com/relabs-tech/head_tracker/internal/tracker"
	"github.com/relabs-tech/head_tracker/internal/zeroing"
)

// Opener opens the MIDI connection of a tracker.
type Opener func() (midi.Conn, error)

// Config configures a MrHeadTracker.
type Config struct {
	Format Format
	// Timeout bounds one ReadOrientation call. Defaults to DefaultTimeout.
	Timeout time.Duration
	Clock   clock.Clock
}

// Tracker reads MrHeadTracker samples. It is not safe for concurrent use.
type Tracker struct {
	open    Opener
	conn    midi.Conn
	dec     *Decoder
	ref     *zeroing.Orientation
	clk     clock.Clock
	timeout time.Duration
	format  Format
}

var _ tracker.Tracker = (*Tracker)(nil)

// New validates cfg. The port is not touched until Open.
func New(open Opener, cfg Config) (*Tracker, error) {
	if open == nil {
		return nil, fmt.Errorf("iem: nil opener: %w", tracker.ErrConfiguration)
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	dec, err := NewDecoder(cfg.Format, clk, timeout)
	if err != nil {
		return nil, err
	}
	return &Tracker{
		open:    open,
		dec:     dec,
		ref:     zeroing.NewOrientation(),
		clk:     clk,
		timeout: timeout,
		format:  cfg.Format,
	}, nil
}

// Open opens the port. Failures wrap tracker.ErrDeviceUnavailable.
func (t *Tracker) Open() error {
	if t.conn != nil {
		return nil
	}
	conn, err := t.open()
	if err != nil {
		return fmt.Errorf("iem: open: %w", err)
	}
	t.conn = conn
	t.dec.Reset()
	log.Printf("iem: MrHeadTracker open (format %s)", t.format)
	return nil
}

// Close releases the port. It is safe to call on a closed tracker.
func (t *Tracker) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	t.dec.Reset()
	log.Println("iem: MrHeadTracker closed")
	return err
}

// ReadOrientation waits at most the timeout for a complete sample and
// returns the absolute orientation. When the time runs out the partial cycle
// is dropped and orientation.None() is returned with a nil error.
func (t *Tracker) ReadOrientation() (orientation.Orientation, error) {
	if t.conn == nil {
		return orientation.None(), fmt.Errorf("iem: %w", tracker.ErrNotOpen)
	}
	deadline := t.clk.Now().Add(t.timeout)
	for {
		msg, err := t.conn.ReadMessage()
		if err != nil {
			return orientation.None(), fmt.Errorf("iem: %w", err)
		}
		if msg != nil {
			if o, ok := t.dec.Handle(msg); ok {
				return o, nil
			}
		}
		if !t.clk.Now().Before(deadline) {
			t.dec.Reset()
			return orientation.None(), nil
		}
	}
}

// ReadPose returns the orientation relative to the reference. The
// MrHeadTracker reports no position.
func (t *Tracker) ReadPose() (orientation.Pose, error) {
	o, err := t.ReadOrientation()
	if err != nil || !o.Valid() {
		return orientation.Pose{}, err
	}

	switch o.Kind() {
	case orientation.KindQuaternion:
		q, _ := o.Quaternion()
		rel, err := t.ref.Relative(q)
		if err != nil {
			return orientation.Pose{}, err
		}
		return orientation.Pose{Orientation: orientation.FromQuaternion(rel)}, nil
	case orientation.KindYPR:
		a, _ := o.YPR()
		rel, err := t.ref.RelativeYPR(a)
		if err != nil {
			return orientation.Pose{}, err
		}
		return orientation.Pose{Orientation: orientation.FromYPR(rel)}, nil
	case orientation.KindNone:
		return orientation.Pose{}, nil
	default:
		panic(fmt.Sprintf("iem: unknown orientation kind %v", o.Kind()))
	}
}

// Zero makes the next sample the reference.
func (t *Tracker) Zero() {
	t.ref.Zero()
}

// Decoder exposes the slot state, mainly for diagnostics.
func (t *Tracker) Decoder() *Decoder { return t.dec }
