// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker          string `yaml:"mqtt_broker"`
	MQTTClientIDTracker string `yaml:"mqtt_client_id_tracker"`
	MQTTClientIDConsole string `yaml:"mqtt_client_id_console"`
	MQTTClientIDWeb     string `yaml:"mqtt_client_id_web"`
	MQTTClientIDDisplay string `yaml:"mqtt_client_id_display"`

	// Topics
	TopicPose string `yaml:"topic_pose"`
	TopicZero string `yaml:"topic_zero"` // any message on it re-zeroes the tracker

	// Tracker
	TrackerSource  string `yaml:"tracker_source"` // mock, iem, supperware, cam, hmd
	OrientFormat   string `yaml:"orient_format"`  // q, ypr, orth (supperware only)
	SampleInterval int    `yaml:"sample_interval"`

	// MIDI trackers
	MIDIPort     string `yaml:"midi_port"`
	MIDIBaudRate int    `yaml:"midi_baud_rate"`
	MIDITimeout  int    `yaml:"midi_timeout"` // milliseconds

	// Supperware
	SupperwareRefreshRate     int     `yaml:"supperware_refresh_rate"`
	SupperwareCompass         bool    `yaml:"supperware_compass"`
	SupperwareRawFormat       bool    `yaml:"supperware_raw_format"`
	SupperwareGestures        string  `yaml:"supperware_gestures"`
	SupperwareChirality       string  `yaml:"supperware_chirality"`
	SupperwareCentralPull     bool    `yaml:"supperware_central_pull"`
	SupperwareCentralPullRate float64 `yaml:"supperware_central_pull_rate"`

	// Webcam landmarker, run as an external process writing JSON lines
	CamIndex                int     `yaml:"cam_index"`
	CamModelPath            string  `yaml:"cam_model_path"`
	CamDetectorCommand      string  `yaml:"cam_detector_command"`
	CamFrameWidth           int     `yaml:"cam_frame_width"`
	CamFrameHeight          int     `yaml:"cam_frame_height"`
	CamMinFaceDetectionConf float64 `yaml:"cam_min_face_detection_confidence"`
	CamMinFacePresenceConf  float64 `yaml:"cam_min_face_presence_confidence"`
	CamMinTrackingConf      float64 `yaml:"cam_min_tracking_confidence"`

	// HMD bridge, run as an external process writing JSON lines
	HMDLocatorCommand string `yaml:"hmd_locator_command"`

	// OSC outputs. A port of 0 disables the target.
	OSCHost                 string     `yaml:"osc_host"`
	SceneRotatorPort        int        `yaml:"scenerotator_port"`
	SceneRotatorAddress     string     `yaml:"scenerotator_address"`
	DirectivityShaperPort   int        `yaml:"directivityshaper_port"`
	DirectivityShaperAddr   string     `yaml:"directivityshaper_address"`
	DirectivityShaperOffset [3]float64 `yaml:"directivityshaper_offset"`
	DirectivityShaperInvert [3]bool    `yaml:"directivityshaper_invert"`
	SPARTAPort              int        `yaml:"sparta_port"`
	SPARTAOffset            [3]float64 `yaml:"sparta_offset"`
	SPARTAInvert            [3]bool    `yaml:"sparta_invert"`
	TASCARPort              int        `yaml:"tascar_port"`
	TASCARAddress           string     `yaml:"tascar_address"`

	// Timing
	ConsoleLogInterval int `yaml:"console_log_interval"` // milliseconds

	// Web Server
	WebServerPort int    `yaml:"web_server_port"`
	WebStaticDir  string `yaml:"web_static_dir"`

	// Display
	DisplayEnabled        bool   `yaml:"display_enabled"`
	DisplayI2CBus         string `yaml:"display_i2c_bus"` // empty picks the first bus
	DisplayUpdateInterval int    `yaml:"display_update_interval"` // milliseconds
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Defaults returns the values used for keys a file leaves out.
func Defaults() *Config {
	return &Config{
		MQTTClientIDTracker: "headtracker",
		MQTTClientIDConsole: "headtracker-console",
		MQTTClientIDWeb:     "headtracker-web",
		MQTTClientIDDisplay: "headtracker-display",
		TopicPose:           "headtracker/pose",
		TopicZero:           "headtracker/zero",

		TrackerSource:  "mock",
		OrientFormat:   "q",
		SampleInterval: 10,

		MIDIBaudRate: 31250,
		MIDITimeout:  250,

		SupperwareRefreshRate:     50,
		SupperwareGestures:        "preserve",
		SupperwareChirality:       "preserve",
		SupperwareCentralPullRate: 0.3,

		CamFrameWidth:           640,
		CamFrameHeight:          480,
		CamMinFaceDetectionConf: 0.8,
		CamMinFacePresenceConf:  0.8,
		CamMinTrackingConf:      0.8,

		OSCHost:               "127.0.0.1",
		SceneRotatorAddress:   "/SceneRotator/",
		DirectivityShaperAddr: "/DirectivityShaper/",

		ConsoleLogInterval: 100,

		WebServerPort: 8080,
		WebStaticDir:  "web",

		DisplayUpdateInterval: 200,
	}
}

// Load reads the configuration file and returns a Config struct. Files
// ending in .yaml or .yml are YAML, everything else is KEY=VALUE lines.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	default:
		if err := cfg.parseLines(data); err != nil {
			return nil, err
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) parseLines(data []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := c.setValue(key, value); err != nil {
			return fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

func parseInt(key, value string, min, max int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%s must be %d-%d, got %d", key, min, max, v)
	}
	return v, nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseBool(key, value string) (bool, error) {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

// splitTriple splits "a,b,c" into three trimmed fields.
func splitTriple(key, value string) ([3]string, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return [3]string{}, fmt.Errorf("%s needs 3 comma separated values, got %q", key, value)
	}
	return [3]string{strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])}, nil
}

func parseFloatTriple(key, value string) ([3]float64, error) {
	var out [3]float64
	parts, err := splitTriple(key, value)
	if err != nil {
		return out, err
	}
	for i, p := range parts {
		if out[i], err = parseFloat(key, p); err != nil {
			return out, err
		}
	}
	return out, nil
}

func parseBoolTriple(key, value string) ([3]bool, error) {
	var out [3]bool
	parts, err := splitTriple(key, value)
	if err != nil {
		return out, err
	}
	for i, p := range parts {
		if out[i], err = parseBool(key, p); err != nil {
			return out, err
		}
	}
	return out, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_TRACKER":
		c.MQTTClientIDTracker = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_POSE":
		c.TopicPose = value
	case "TOPIC_ZERO":
		c.TopicZero = value

	// Tracker
	case "TRACKER_SOURCE":
		c.TrackerSource = value
	case "ORIENT_FORMAT":
		c.OrientFormat = value
	case "SAMPLE_INTERVAL":
		c.SampleInterval, err = parseInt(key, value, 0, 10000)

	// MIDI
	case "MIDI_PORT":
		c.MIDIPort = value
	case "MIDI_BAUD_RATE":
		c.MIDIBaudRate, err = parseInt(key, value, 1, 4000000)
	case "MIDI_TIMEOUT":
		c.MIDITimeout, err = parseInt(key, value, 1, 60000)

	// Supperware
	case "SUPPERWARE_REFRESH_RATE":
		c.SupperwareRefreshRate, err = parseInt(key, value, 25, 100)
	case "SUPPERWARE_COMPASS":
		c.SupperwareCompass, err = parseBool(key, value)
	case "SUPPERWARE_RAW_FORMAT":
		c.SupperwareRawFormat, err = parseBool(key, value)
	case "SUPPERWARE_GESTURES":
		c.SupperwareGestures = value
	case "SUPPERWARE_CHIRALITY":
		c.SupperwareChirality = value
	case "SUPPERWARE_CENTRAL_PULL":
		c.SupperwareCentralPull, err = parseBool(key, value)
	case "SUPPERWARE_CENTRAL_PULL_RATE":
		c.SupperwareCentralPullRate, err = parseFloat(key, value)

	// Webcam
	case "CAM_INDEX":
		c.CamIndex, err = parseInt(key, value, 0, 63)
	case "CAM_MODEL_PATH":
		c.CamModelPath = value
	case "CAM_DETECTOR_COMMAND":
		c.CamDetectorCommand = value
	case "CAM_FRAME_WIDTH":
		c.CamFrameWidth, err = parseInt(key, value, 1, 16384)
	case "CAM_FRAME_HEIGHT":
		c.CamFrameHeight, err = parseInt(key, value, 1, 16384)
	case "CAM_MIN_FACE_DETECTION_CONFIDENCE":
		c.CamMinFaceDetectionConf, err = parseFloat(key, value)
	case "CAM_MIN_FACE_PRESENCE_CONFIDENCE":
		c.CamMinFacePresenceConf, err = parseFloat(key, value)
	case "CAM_MIN_TRACKING_CONFIDENCE":
		c.CamMinTrackingConf, err = parseFloat(key, value)

	// HMD
	case "HMD_LOCATOR_COMMAND":
		c.HMDLocatorCommand = value

	// OSC
	case "OSC_HOST":
		c.OSCHost = value
	case "SCENEROTATOR_PORT":
		c.SceneRotatorPort, err = parseInt(key, value, 0, 65535)
	case "SCENEROTATOR_ADDRESS":
		c.SceneRotatorAddress = value
	case "DIRECTIVITYSHAPER_PORT":
		c.DirectivityShaperPort, err = parseInt(key, value, 0, 65535)
	case "DIRECTIVITYSHAPER_ADDRESS":
		c.DirectivityShaperAddr = value
	case "DIRECTIVITYSHAPER_OFFSET":
		c.DirectivityShaperOffset, err = parseFloatTriple(key, value)
	case "DIRECTIVITYSHAPER_INVERT":
		c.DirectivityShaperInvert, err = parseBoolTriple(key, value)
	case "SPARTA_PORT":
		c.SPARTAPort, err = parseInt(key, value, 0, 65535)
	case "SPARTA_OFFSET":
		c.SPARTAOffset, err = parseFloatTriple(key, value)
	case "SPARTA_INVERT":
		c.SPARTAInvert, err = parseBoolTriple(key, value)
	case "TASCAR_PORT":
		c.TASCARPort, err = parseInt(key, value, 0, 65535)
	case "TASCAR_ADDRESS":
		c.TASCARAddress = value

	// Timing
	case "CONSOLE_LOG_INTERVAL":
		c.ConsoleLogInterval, err = parseInt(key, value, 1, 60000)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value, 0, 65535)
	case "WEB_STATIC_DIR":
		c.WebStaticDir = value

	// Display
	case "DISPLAY_ENABLED":
		c.DisplayEnabled, err = parseBool(key, value)
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		c.DisplayUpdateInterval, err = parseInt(key, value, 1, 60000)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks values that depend on each other. Device specific
// values are checked again by the tracker constructors.
func (c *Config) validate() error {
	switch c.TrackerSource {
	case "mock":
	case "iem", "supperware":
		if c.MIDIPort == "" {
			return fmt.Errorf("MIDI_PORT is required for TRACKER_SOURCE=%s", c.TrackerSource)
		}
	case "cam":
		if c.CamDetectorCommand == "" {
			return fmt.Errorf("CAM_DETECTOR_COMMAND is required for TRACKER_SOURCE=cam")
		}
	case "hmd":
		if c.HMDLocatorCommand == "" {
			return fmt.Errorf("HMD_LOCATOR_COMMAND is required for TRACKER_SOURCE=hmd")
		}
	default:
		return fmt.Errorf("TRACKER_SOURCE must be mock, iem, supperware, cam or hmd, got %q", c.TrackerSource)
	}

	switch c.OrientFormat {
	case "q", "ypr":
	case "orth":
		if c.TrackerSource != "supperware" {
			return fmt.Errorf("ORIENT_FORMAT=orth is only supported by the supperware tracker")
		}
	default:
		return fmt.Errorf("ORIENT_FORMAT must be q, ypr or orth, got %q", c.OrientFormat)
	}

	if c.MQTTBroker != "" && c.TopicPose == "" {
		return fmt.Errorf("TOPIC_POSE is required when MQTT_BROKER is set")
	}
	if c.TASCARPort != 0 && c.TASCARAddress == "" {
		return fmt.Errorf("TASCAR_ADDRESS is required when TASCAR_PORT is set")
	}
	if c.ConsoleLogInterval <= 0 {
		return fmt.Errorf("CONSOLE_LOG_INTERVAL must be positive")
	}
	if c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
