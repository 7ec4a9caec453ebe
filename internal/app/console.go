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

	"github.com/relabs-tech/head_tracker/internal/config"
	"github.com/relabs-tech/head_tracker/internal/orientation"
	"github.com/relabs-tech/head_tracker/internal/tracker"
)

// RunConsoleMQTT prints every pose published on MQTT.
func RunConsoleMQTT() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}

	if err := subscribePoses(client, cfg.TopicPose, func(p orientation.Pose) {
		fmt.Println(FormatPose(p))
	}); err != nil {
		return err
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

// RunMockConsole prints the mock source without any hardware or broker.
func RunMockConsole() error {
	cfg := config.Get()
	t := tracker.NewSourceTracker(orientation.NewMockSource(nil))
	if err := t.Open(); err != nil {
		return err
	}
	defer t.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer := tracker.SinkFunc(func(p orientation.Pose) error {
		_, err := fmt.Println(FormatPose(p))
		return err
	})
	return tracker.Run(ctx, t, printer, tracker.RunOptions{
		Interval: time.Duration(cfg.ConsoleLogInterval) * time.Millisecond,
		Name:     "console",
	})
}
