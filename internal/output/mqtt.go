// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package output

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/head_tracker/internal/orientation"
)

// Publisher is the part of mqtt.Client the publisher uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTT publishes every pose as retained JSON so late subscribers see the
// last one straight away.
type MQTT struct {
	client Publisher
	topic  string
}

func NewMQTT(client Publisher, topic string) *MQTT {
	return &MQTT{client: client, topic: topic}
}

func (m *MQTT) SendPose(p orientation.Pose) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("mqtt: marshal pose: %w", err)
	}
	if token := m.client.Publish(m.topic, 0, true, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt: publish %s: %w", m.topic, token.Error())
	}
	return nil
}
