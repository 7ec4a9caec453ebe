// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"log"

	"github.com/relabs-tech/head_tracker/internal/config"
	"github.com/relabs-tech/head_tracker/internal/orientation"
	"github.com/relabs-tech/head_tracker/internal/output"
)

// oscFactory creates an OSC client. Tests swap it for a fake.
var oscFactory = output.NewOSCClient

// NewOSCTargets returns one target per OSC renderer with a non-zero port.
func NewOSCTargets(cfg *config.Config) ([]any, error) {
	var targets []any

	if cfg.SceneRotatorPort != 0 {
		targets = append(targets, output.NewSceneRotator(oscFactory(cfg.OSCHost, cfg.SceneRotatorPort), cfg.SceneRotatorAddress))
		log.Printf("output: IEM SceneRotator at %s:%d", cfg.OSCHost, cfg.SceneRotatorPort)
	}
	if cfg.DirectivityShaperPort != 0 {
		d, err := output.NewDirectivityShaper(
			oscFactory(cfg.OSCHost, cfg.DirectivityShaperPort),
			cfg.DirectivityShaperAddr,
			orientation.AngleConvention{Offset: cfg.DirectivityShaperOffset, Invert: cfg.DirectivityShaperInvert},
		)
		if err != nil {
			return nil, err
		}
		targets = append(targets, d)
		log.Printf("output: IEM DirectivityShaper at %s:%d", cfg.OSCHost, cfg.DirectivityShaperPort)
	}
	if cfg.SPARTAPort != 0 {
		targets = append(targets, output.NewSPARTA(
			oscFactory(cfg.OSCHost, cfg.SPARTAPort),
			orientation.AngleConvention{Offset: cfg.SPARTAOffset, Invert: cfg.SPARTAInvert},
		))
		log.Printf("output: SPARTA at %s:%d", cfg.OSCHost, cfg.SPARTAPort)
	}
	if cfg.TASCARPort != 0 {
		t, err := output.NewTASCAR(oscFactory(cfg.OSCHost, cfg.TASCARPort), cfg.TASCARAddress)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
		log.Printf("output: TASCAR %s at %s:%d", cfg.TASCARAddress, cfg.OSCHost, cfg.TASCARPort)
	}
	return targets, nil
}
