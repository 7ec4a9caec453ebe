// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// MaxSysEx bounds the size of a SysEx message kept by the framer. Longer
// messages are discarded.
const MaxSysEx = 1024

// Framer turns a raw MIDI byte stream into complete messages. It handles
// running status, real-time bytes interleaved anywhere and SysEx blocks.
// Data bytes that belong to no message are counted and dropped.
type Framer struct {
	running byte // last channel voice status, 0 when cleared
	cur     []byte
	need    int

	inSysEx bool
	sysex   []byte

	dropped int
}

// systemCommonLen is the number of data bytes of each defined system
// common message.
var systemCommonLen = map[byte]int{
	0xF1: 1, // MTC quarter frame
	0xF2: 2, // song position
	0xF3: 1, // song select
	0xF6: 0, // tune request
}

func channelDataLen(status byte) int {
	switch status & 0xF0 {
	case 0xC0, 0xD0:
		return 1
	default:
		return 2
	}
}

// Dropped returns how many bytes were discarded so far.
func (f *Framer) Dropped() int { return f.dropped }

// Write feeds p and returns every message completed by it.
func (f *Framer) Write(p []byte) []gomidi.Message {
	var out []gomidi.Message
	for _, b := range p {
		if msg, ok := f.Feed(b); ok {
			out = append(out, msg)
		}
	}
	return out
}

// Feed consumes one byte. It returns a message when b completes one.
func (f *Framer) Feed(b byte) (gomidi.Message, bool) {
	switch {
	case b >= 0xF8:
		// Real-time messages do not disturb anything in progress.
		return gomidi.Message{b}, true

	case b == 0xF0:
		f.abort()
		f.running = 0
		f.inSysEx = true
		f.sysex = append(f.sysex[:0], b)
		return nil, false

	case b == 0xF7:
		if !f.inSysEx {
			f.dropped++
			return nil, false
		}
		f.inSysEx = false
		msg := make(gomidi.Message, len(f.sysex)+1)
		copy(msg, f.sysex)
		msg[len(f.sysex)] = b
		f.sysex = f.sysex[:0]
		return msg, true

	case b >= 0x80:
		f.abort()
		if b >= 0xF0 {
			f.running = 0
			n, ok := systemCommonLen[b]
			if !ok {
				f.dropped++
				return nil, false
			}
			f.cur = append(f.cur[:0], b)
			f.need = n
			if n == 0 {
				return f.emit()
			}
			return nil, false
		}
		f.running = b
		f.cur = append(f.cur[:0], b)
		f.need = channelDataLen(b)
		return nil, false
	}

	// Data byte.
	if f.inSysEx {
		if len(f.sysex) >= MaxSysEx {
			f.dropped += len(f.sysex) + 1
			f.inSysEx = false
			f.sysex = f.sysex[:0]
			return nil, false
		}
		f.sysex = append(f.sysex, b)
		return nil, false
	}
	if len(f.cur) == 0 {
		if f.running == 0 {
			f.dropped++
			return nil, false
		}
		f.cur = append(f.cur, f.running)
		f.need = channelDataLen(f.running)
	}
	f.cur = append(f.cur, b)
	if len(f.cur)-1 < f.need {
		return nil, false
	}
	return f.emit()
}

// abort throws away an unfinished message. A status byte in the middle of
// a SysEx block terminates it without a valid end.
func (f *Framer) abort() {
	if f.inSysEx {
		f.dropped += len(f.sysex)
		f.inSysEx = false
		f.sysex = f.sysex[:0]
	}
	if len(f.cur) > 0 {
		f.dropped += len(f.cur)
		f.cur = f.cur[:0]
	}
}

func (f *Framer) emit() (gomidi.Message, bool) {
	msg := make(gomidi.Message, len(f.cur))
	copy(msg, f.cur)
	f.cur = f.cur[:0]
	return msg, true
}

// Reset clears all state, including running status.
func (f *Framer) Reset() {
	f.running = 0
	f.cur = f.cur[:0]
	f.inSysEx = false
	f.sysex = f.sysex[:0]
}
