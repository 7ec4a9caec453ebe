// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package supperware

import (
	"bytes"
	"fmt"
	"math"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/relabs-tech/head_tracker/internal/midi"
	"github.com/relabs-tech/head_tracker/internal/orientation"
)

// Manufacturer ID and device byte that start every SysEx block.
var header = []byte{0x00, 0x21, 0x42}

// Parameter numbers of the configuration block.
const (
	paramSensor      = 0
	paramOutput      = 1
	paramCompass     = 3
	paramGestures    = 4
	paramCentralPull = 6
)

// Message ids following the header. A configure block is a list of
// parameter/value pairs.
const (
	msgConfigure      = 0x00
	reportOrientation = 0x40
)

// OpenMessage builds the configuration block that starts streaming.
func OpenMessage(c Config) (gomidi.Message, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	data := append(append([]byte{}, header...), msgConfigure)

	// 0: sensors on, refresh rate in bits 5-4.
	var rate byte
	switch c.RefreshRate {
	case 25:
		rate = 0b01
	case 100:
		rate = 0b10
	}
	data = append(data, paramSensor, 0b1000000|rate<<4|0b1000)

	// 1: raw data in bits 5-4, orientation format in bits 3-2, output on.
	var raw, format byte
	if c.RawFormat {
		raw = 0b10
		if c.Compass {
			raw = 0b01
		}
	}
	switch c.Format {
	case FormatQuaternion:
		format = 0b01
	case FormatMatrix:
		format = 0b10
	}
	data = append(data, paramOutput, raw<<4|format<<2|0b01)

	// 3: compass on, central pull off, forced calibration.
	var compass byte
	if c.Compass {
		compass |= 1 << 4
	}
	if !c.CentralPull {
		compass |= 1 << 3
	}
	if c.ForceCompassCalibration {
		compass |= 1 << 2
	}
	data = append(data, paramCompass, compass)

	// 4: only sent when something changes.
	if c.Gestures != GesturesPreserve || c.Chirality != ChiralityPreserve {
		var g, ch byte
		switch c.Gestures {
		case GesturesOff:
			g = 0b100
		case GesturesOn:
			g = 0b110
		}
		switch c.Chirality {
		case ChiralityRight:
			ch = 0b01
		case ChiralityLeft:
			ch = 0b10
		}
		data = append(data, paramGestures, g<<2|ch)
	}

	if c.CentralPull {
		step, err := centralPullStep(c.CentralPullRate)
		if err != nil {
			return nil, err
		}
		data = append(data, paramCentralPull, step)
	}

	return gomidi.SysEx(data), nil
}

// CloseMessage switches the data output off.
func CloseMessage() gomidi.Message {
	data := append(append([]byte{}, header...), msgConfigure, paramOutput, 0x00)
	return gomidi.SysEx(data)
}

// valueCount is the number of 14-bit values in a report of each format.
var valueCount = map[Format]int{
	FormatYPR:        3,
	FormatQuaternion: 4,
	FormatMatrix:     9,
}

var formatCodes = []Format{FormatYPR, FormatQuaternion, FormatMatrix}

// Report is one decoded orientation report. Values are in [-1, 1).
type Report struct {
	Format Format
	Values []float64
}

// ParseReport decodes a SysEx payload without its F0/F7 framing. It
// returns false for anything that is not a complete orientation report.
func ParseReport(data []byte) (Report, bool) {
	if len(data) < len(header)+2 || !bytes.Equal(data[:len(header)], header) {
		return Report{}, false
	}
	body := data[len(header):]
	if body[0] != reportOrientation || int(body[1]) >= len(formatCodes) {
		return Report{}, false
	}
	format := formatCodes[body[1]]
	pairs := body[2:]
	n := valueCount[format]
	if len(pairs) != 2*n {
		return Report{}, false
	}
	values := make([]float64, n)
	for i := range values {
		values[i] = midi.Decode14(pairs[2*i], pairs[2*i+1])
	}
	return Report{Format: format, Values: values}, true
}

// EncodeReport builds the SysEx block for a report. Simulated devices and
// tests use it.
func EncodeReport(r Report) (gomidi.Message, error) {
	code := -1
	for i, f := range formatCodes {
		if f == r.Format {
			code = i
		}
	}
	if code < 0 || len(r.Values) != valueCount[r.Format] {
		return nil, fmt.Errorf("supperware: cannot encode %d values as %q", len(r.Values), r.Format)
	}
	data := append(append([]byte{}, header...), reportOrientation, byte(code))
	for _, v := range r.Values {
		msb, lsb := midi.Encode14(v)
		data = append(data, msb, lsb)
	}
	return gomidi.SysEx(data), nil
}

// YPR returns the angles of a YPR report, scaled by π.
func (r Report) YPR() (orientation.YPR, error) {
	if r.Format != FormatYPR {
		return orientation.YPR{}, fmt.Errorf("supperware: %q report has no angles", r.Format)
	}
	return orientation.NewYPR(r.Values[0]*math.Pi, r.Values[1]*math.Pi, r.Values[2]*math.Pi, orientation.SequenceYPR, false)
}

// Quaternion returns the (w, x, y, z) of a quaternion report.
func (r Report) Quaternion() (orientation.Quaternion, error) {
	if r.Format != FormatQuaternion {
		return orientation.Quaternion{}, fmt.Errorf("supperware: %q report has no quaternion", r.Format)
	}
	return orientation.QuaternionFromSlice(r.Values)
}

// Matrix returns the row-major rotation of a matrix report, orthonormalised
// to undo the 14-bit quantisation.
func (r Report) Matrix() (orientation.RotationMatrix, error) {
	if r.Format != FormatMatrix {
		return orientation.RotationMatrix{}, fmt.Errorf("supperware: %q report has no matrix", r.Format)
	}
	m, err := orientation.NewRotationMatrix(r.Values)
	if err != nil {
		return orientation.RotationMatrix{}, err
	}
	return m.Orthonormalize()
}
