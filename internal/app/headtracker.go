// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/head_tracker/internal/config"
	"github.com/relabs-tech/head_tracker/internal/output"
	"github.com/relabs-tech/head_tracker/internal/tracker"
)

// RunHeadTracker reads the configured tracker and forwards every pose to
// the configured outputs until SIGINT or SIGTERM. SIGUSR1 or any message
// on the zero topic re-zeroes the tracker.
func RunHeadTracker() error {
	cfg := config.Get()

	t, err := NewTracker(cfg)
	if err != nil {
		return err
	}

	targets, err := NewOSCTargets(cfg)
	if err != nil {
		return err
	}

	zero := make(chan struct{}, 1)
	requestZero := func() {
		select {
		case zero <- struct{}{}:
		default:
		}
	}

	if cfg.MQTTBroker != "" {
		client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDTracker)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)
		targets = append(targets, output.NewMQTT(client, cfg.TopicPose))

		if cfg.TopicZero != "" {
			token := client.Subscribe(cfg.TopicZero, 0, func(_ mqtt.Client, _ mqtt.Message) {
				requestZero()
			})
			if token.Wait() && token.Error() != nil {
				return token.Error()
			}
			log.Printf("headtracker: zero requests on %s", cfg.TopicZero)
		}
	}

	if cfg.DisplayEnabled {
		d, closeBus, err := openDisplay(cfg)
		if err != nil {
			return err
		}
		defer closeBus()
		targets = append(targets, d)
	}

	if len(targets) == 0 {
		log.Println("headtracker: no outputs configured")
	}
	fanout, err := output.NewFanout(targets...)
	if err != nil {
		return err
	}
	defer fanout.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	usr1 := make(chan os.Signal, 1)
	signal.Notify(usr1, syscall.SIGUSR1)
	defer signal.Stop(usr1)
	go func() {
		for {
			select {
			case <-usr1:
				requestZero()
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := t.Open(); err != nil {
		return fmt.Errorf("open %s tracker: %w", cfg.TrackerSource, err)
	}
	defer func() {
		if err := t.Close(); err != nil {
			log.Printf("headtracker: close error: %v", err)
		}
	}()
	log.Printf("headtracker: %s tracker running (%s, %d outputs)", cfg.TrackerSource, cfg.OrientFormat, len(targets))

	return tracker.Run(ctx, t, fanout, tracker.RunOptions{
		Interval:     time.Duration(cfg.SampleInterval) * time.Millisecond,
		ZeroRequests: zero,
		Name:         cfg.TrackerSource,
	})
}
