// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package midi

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/relabs-tech/head_tracker/internal/tracker"
)

// Conn is a bidirectional MIDI connection as the trackers use it.
//
// ReadMessage waits at most one read timeout and returns (nil, nil) when
// nothing complete arrived in that time.
type Conn interface {
	ReadMessage() (gomidi.Message, error)
	WriteMessage(gomidi.Message) error
	Close() error
}

// SerialOptions configures a serial MIDI port.
type SerialOptions struct {
	PortName string
	// BaudRate is 31250 for a DIN MIDI interface. USB serial bridges
	// usually run at 115200.
	BaudRate uint
	// ReadTimeout bounds a single read. The serial driver works in
	// 100 ms steps. Defaults to 100 ms.
	ReadTimeout time.Duration
}

// Port frames MIDI messages from a byte stream. It does no reading in the
// background: every ReadMessage call reads from the stream directly.
type Port struct {
	name    string
	rw      io.ReadWriteCloser
	framer  Framer
	pending []gomidi.Message
	buf     []byte
	closed  bool
}

// OpenSerial opens a serial port in timed-read mode.
func OpenSerial(opts SerialOptions) (*Port, error) {
	if opts.PortName == "" {
		return nil, fmt.Errorf("midi: empty port name: %w", tracker.ErrConfiguration)
	}
	if opts.BaudRate == 0 {
		opts.BaudRate = 31250
	}
	timeout := opts.ReadTimeout
	if timeout <= 0 {
		timeout = 100 * time.Millisecond
	}

	serialOpts := serial.OpenOptions{
		PortName:              opts.PortName,
		BaudRate:              opts.BaudRate,
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		MinimumReadSize:       0,
		InterCharacterTimeout: uint(timeout / time.Millisecond),
	}

	rw, err := serial.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("midi: open %s: %w: %w", opts.PortName, tracker.ErrDeviceUnavailable, err)
	}
	log.Printf("midi: serial port opened on %s at %d baud", opts.PortName, opts.BaudRate)

	p := NewPort(rw)
	p.name = opts.PortName
	return p, nil
}

// NewPort wraps any byte stream, for example a virtual port or a test pipe.
func NewPort(rw io.ReadWriteCloser) *Port {
	return &Port{name: "stream", rw: rw, buf: make([]byte, 256)}
}

// ReadMessage returns the next complete message.
//
// A serial port in timed mode reports an empty read as io.EOF, so io.EOF
// means "nothing yet" here and not a closed device.
func (p *Port) ReadMessage() (gomidi.Message, error) {
	if p.closed {
		return nil, fmt.Errorf("midi: read %s: %w", p.name, tracker.ErrNotOpen)
	}
	for len(p.pending) == 0 {
		n, err := p.rw.Read(p.buf)
		if n > 0 {
			p.pending = append(p.pending, p.framer.Write(p.buf[:n])...)
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("midi: read %s: %w: %w", p.name, tracker.ErrDeviceUnavailable, err)
		}
		if n == 0 {
			return nil, nil
		}
	}
	msg := p.pending[0]
	p.pending = p.pending[1:]
	return msg, nil
}

// WriteMessage sends msg as is.
func (p *Port) WriteMessage(msg gomidi.Message) error {
	if p.closed {
		return fmt.Errorf("midi: write %s: %w", p.name, tracker.ErrNotOpen)
	}
	if _, err := p.rw.Write([]byte(msg)); err != nil {
		return fmt.Errorf("midi: write %s: %w: %w", p.name, tracker.ErrDeviceUnavailable, err)
	}
	return nil
}

// Close releases the port. Closing twice is a no-op.
func (p *Port) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.pending = nil
	p.framer.Reset()
	return p.rw.Close()
}

// Dropped returns the number of stray bytes discarded by the framer.
func (p *Port) Dropped() int { return p.framer.Dropped() }
