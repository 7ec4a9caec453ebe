// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package tracker

import (
	"context"
	"log"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/relabs-tech/head_tracker/internal/orientation"
)

// Sink receives every pose the loop reads.
type Sink interface {
	Send(orientation.Pose) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(orientation.Pose) error

func (f SinkFunc) Send(p orientation.Pose) error { return f(p) }

// RunOptions tunes Run. The zero value polls as fast as the tracker returns.
type RunOptions struct {
	// Interval is the minimum time between two reads.
	Interval time.Duration
	// ZeroRequests triggers Tracker.Zero before the next read.
	ZeroRequests <-chan struct{}
	// Clock defaults to the wall clock.
	Clock clock.Clock
	// Name prefixes log lines.
	Name string
}

// Run polls t until ctx is done or the tracker fails fatally. Empty poses
// are skipped, sink errors are logged and the loop keeps going.
func Run(ctx context.Context, t Tracker, sink Sink, opts RunOptions) error {
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	name := opts.Name
	if name == "" {
		name = "tracker"
	}

	var sent, empty uint64
	defer func() {
		log.Printf("%s: loop stopped after %d poses (%d empty reads)", name, sent, empty)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-opts.ZeroRequests:
			log.Printf("%s: zero requested", name)
			t.Zero()
		default:
		}

		start := clk.Now()
		pose, err := t.ReadPose()
		switch {
		case err != nil && Fatal(err):
			return err
		case err != nil:
			log.Printf("%s: read error: %v", name, err)
		case pose.Empty():
			empty++
		default:
			if err := sink.Send(pose); err != nil {
				log.Printf("%s: sink error: %v", name, err)
			}
			sent++
		}

		if opts.Interval <= 0 {
			continue
		}
		wait := opts.Interval - clk.Since(start)
		if wait <= 0 {
			continue
		}
		timer := clk.Timer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}
