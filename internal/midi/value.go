// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package midi

import "math"

// Decode14 joins two 7-bit data bytes into a value in [-1, 1).
// (64, 0) is exactly 0.
func Decode14(msb, lsb byte) float64 {
	return float64(int(msb&0x7f)*128+int(lsb&0x7f))/8192.0 - 1
}

// Encode14 is the inverse of Decode14. Values outside [-1, 1) are clamped
// to the representable range.
func Encode14(v float64) (msb, lsb byte) {
	raw := int(math.Round((v + 1) * 8192))
	if raw < 0 {
		raw = 0
	}
	if raw > 0x3fff {
		raw = 0x3fff
	}
	return byte(raw >> 7), byte(raw & 0x7f)
}
