// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import "errors"

var (
	// ErrDegenerateInput is returned when an operation needs a non-zero norm.
	ErrDegenerateInput = errors.New("orientation: zero-norm quaternion")

	// ErrIncompatibleOperand is returned when two YPR values differ in sequence or unit.
	ErrIncompatibleOperand = errors.New("orientation: incompatible operands")

	// ErrTypeMismatch is returned by the unit helpers for unsupported input shapes.
	ErrTypeMismatch = errors.New("orientation: unsupported input type")

	// ErrInvalidSequence is returned for rotation sequences other than "ypr" and "rpy".
	ErrInvalidSequence = errors.New("orientation: sequence must be \"ypr\" or \"rpy\"")
)
