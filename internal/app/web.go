// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"net/http"

	"github.com/relabs-tech/head_tracker/internal/config"
	"github.com/relabs-tech/head_tracker/internal/orientation"
	"github.com/relabs-tech/head_tracker/internal/output"
)

// RunWeb serves the live pose monitor fed from MQTT.
func RunWeb() error {
	cfg := config.Get()
	monitor := output.NewMonitor()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribePoses(client, cfg.TopicPose, func(p orientation.Pose) {
		if err := monitor.SendPose(p); err != nil {
			log.Printf("web: %v", err)
		}
	}); err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, monitor.Handler(cfg.WebStaticDir))
}
