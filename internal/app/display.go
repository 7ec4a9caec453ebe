// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/head_tracker/internal/config"
	"github.com/relabs-tech/head_tracker/internal/orientation"
	"github.com/relabs-tech/head_tracker/internal/output"
)

// openDisplay initialises the SSD1306 OLED and shows the splash screen.
func openDisplay(cfg *config.Config) (*output.Display, func(), error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized on %s", bus)

	d := output.NewDisplay(dev, time.Duration(cfg.DisplayUpdateInterval)*time.Millisecond, nil)
	if err := d.Splash("Head tracker", cfg.TrackerSource); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}
	return d, func() { bus.Close() }, nil
}

// RunDisplay shows the poses published on MQTT on a local OLED.
func RunDisplay() error {
	cfg := config.Get()

	d, closeBus, err := openDisplay(cfg)
	if err != nil {
		return err
	}
	defer closeBus()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribePoses(client, cfg.TopicPose, func(p orientation.Pose) {
		if err := d.SendPose(p); err != nil {
			log.Printf("display: %v", err)
		}
	}); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Println("display: shutting down")
	return nil
}
