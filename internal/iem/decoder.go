// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package iem reads the MrHeadTracker, a MIDI head tracker that sends each
// orientation component as two 7-bit control changes.
package iem

import (
	"fmt"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/relabs-tech/head_tracker/internal/midi"
	"github.com/relabs-tech/head_tracker/internal/orientation"
	"github.com/relabs-tech/head_tracker/internal/tracker"
)

// Format selects what the tracker reports.
type Format string

const (
	FormatQuaternion Format = "q"
	FormatYPR        Format = "ypr"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatQuaternion, FormatYPR:
		return Format(s), nil
	default:
		return "", fmt.Errorf("iem: orientation format %q (want \"q\" or \"ypr\"): %w", s, tracker.ErrConfiguration)
	}
}

// DefaultTimeout is how long a partial cycle may wait for its missing bytes.
const DefaultTimeout = 250 * time.Millisecond

// Controller numbers. The MSB of w, x, y, z arrive on CC 16-19 and the LSB
// on CC 48-51.
const (
	ccMSBFirst = 16
	ccLSBFirst = 48
)

// Slot indices: component*2 + half.
const (
	halfMSB = 0
	halfLSB = 1
	compW   = 0
	compX   = 1
	compY   = 2
	compZ   = 3
)

// SlotName returns a readable name such as "w_lsb".
func SlotName(i int) string {
	half := "msb"
	if i%2 == halfLSB {
		half = "lsb"
	}
	return fmt.Sprintf("%c_%s", "wxyz"[i/2], half)
}

// slotFor maps a controller number to its slot.
func slotFor(cc uint8) (int, bool) {
	switch {
	case cc >= ccMSBFirst && cc < ccMSBFirst+4:
		return int(cc-ccMSBFirst)*2 + halfMSB, true
	case cc >= ccLSBFirst && cc < ccLSBFirst+4:
		return int(cc-ccLSBFirst)*2 + halfLSB, true
	default:
		return 0, false
	}
}

type slot struct {
	value byte
	set   bool
}

// State of the current cycle.
type State int

const (
	AwaitingBytes State = iota
	Complete
)

func (s State) String() string {
	if s == Complete {
		return "complete"
	}
	return "awaiting"
}

// Decoder rebuilds one orientation sample from control changes arriving in
// any order. The first value for a slot wins within a cycle; repeats are
// ignored. A cycle that sees no new byte for longer than the timeout is
// dropped before the next byte is applied.
type Decoder struct {
	format   Format
	required int
	clk      clock.Clock
	timeout  time.Duration

	slots        [8]slot
	filled       int
	lastActivity time.Time

	ignored int
}

// NewDecoder returns a decoder for format. A nil clock means the wall clock
// and a non-positive timeout means DefaultTimeout.
func NewDecoder(format Format, clk clock.Clock, timeout time.Duration) (*Decoder, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	required := 8
	if format == FormatYPR {
		required = 6
	}
	return &Decoder{format: format, required: required, clk: clk, timeout: timeout}, nil
}

// Required is the number of slots a cycle needs: 8 for quaternions, 6 for YPR.
func (d *Decoder) Required() int { return d.required }

// Filled is the number of slots set in the current cycle.
func (d *Decoder) Filled() int { return d.filled }

// Ignored counts duplicates and bytes for slots the format does not use.
func (d *Decoder) Ignored() int { return d.ignored }

func (d *Decoder) State() State {
	if d.filled == d.required {
		return Complete
	}
	return AwaitingBytes
}

// Reset clears every slot at once.
func (d *Decoder) Reset() {
	d.slots = [8]slot{}
	d.filled = 0
}

// Expired reports whether a partial cycle has waited longer than the timeout.
func (d *Decoder) Expired() bool {
	return d.filled > 0 && d.clk.Since(d.lastActivity) > d.timeout
}

// Handle feeds a MIDI message. Anything but a control change is ignored.
func (d *Decoder) Handle(msg gomidi.Message) (orientation.Orientation, bool) {
	var ch, cc, val uint8
	if !msg.GetControlChange(&ch, &cc, &val) {
		return orientation.None(), false
	}
	return d.HandleControlChange(cc, val)
}

// HandleControlChange applies one controller value. When it completes the
// cycle the sample is returned and the decoder is reset.
func (d *Decoder) HandleControlChange(cc, value uint8) (orientation.Orientation, bool) {
	i, ok := slotFor(cc)
	if !ok {
		return orientation.None(), false
	}
	if d.format == FormatYPR && i/2 == compZ {
		d.ignored++
		return orientation.None(), false
	}

	if d.Expired() {
		d.Reset()
	}
	d.lastActivity = d.clk.Now()

	if d.slots[i].set {
		d.ignored++
		return orientation.None(), false
	}
	d.slots[i] = slot{value: value & 0x7f, set: true}
	d.filled++

	if d.filled < d.required {
		return orientation.None(), false
	}
	sample := d.sample()
	d.Reset()
	return sample, true
}

func (d *Decoder) component(c int) float64 {
	return midi.Decode14(d.slots[c*2+halfMSB].value, d.slots[c*2+halfLSB].value)
}

// sample builds the orientation from a complete cycle.
func (d *Decoder) sample() orientation.Orientation {
	w, x, y := d.component(compW), d.component(compX), d.component(compY)
	if d.format == FormatYPR {
		// Yaw travels on the y channel and roll on the w channel.
		a, err := orientation.NewYPR(y*math.Pi, x*math.Pi, w*math.Pi, orientation.SequenceYPR, false)
		if err != nil {
			return orientation.None()
		}
		return orientation.FromYPR(a)
	}
	return orientation.FromQuaternion(orientation.Quaternion{W: w, X: x, Y: y, Z: d.component(compZ)})
}
