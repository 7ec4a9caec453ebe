// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/relabs-tech/head_tracker/internal/cam"
	"github.com/relabs-tech/head_tracker/internal/config"
	"github.com/relabs-tech/head_tracker/internal/hmd"
	"github.com/relabs-tech/head_tracker/internal/iem"
	"github.com/relabs-tech/head_tracker/internal/midi"
	"github.com/relabs-tech/head_tracker/internal/orientation"
	"github.com/relabs-tech/head_tracker/internal/supperware"
	"github.com/relabs-tech/head_tracker/internal/tracker"
)

// NewTracker builds the tracker named by TRACKER_SOURCE. Nothing is opened.
func NewTracker(cfg *config.Config) (tracker.Tracker, error) {
	serial := func() (midi.Conn, error) {
		return midi.OpenSerial(midi.SerialOptions{
			PortName: cfg.MIDIPort,
			BaudRate: uint(cfg.MIDIBaudRate),
		})
	}
	timeout := time.Duration(cfg.MIDITimeout) * time.Millisecond

	switch cfg.TrackerSource {
	case "mock":
		return tracker.NewSourceTracker(orientation.NewMockSource(nil)), nil

	case "iem":
		format, err := iem.ParseFormat(cfg.OrientFormat)
		if err != nil {
			return nil, err
		}
		return iem.New(serial, iem.Config{Format: format, Timeout: timeout})

	case "supperware":
		sw := supperware.DefaultConfig()
		sw.RefreshRate = cfg.SupperwareRefreshRate
		sw.RawFormat = cfg.SupperwareRawFormat
		sw.Compass = cfg.SupperwareCompass
		sw.Format = supperware.Format(cfg.OrientFormat)
		sw.Gestures = supperware.Gestures(cfg.SupperwareGestures)
		sw.Chirality = supperware.Chirality(cfg.SupperwareChirality)
		sw.CentralPull = cfg.SupperwareCentralPull
		sw.CentralPullRate = cfg.SupperwareCentralPullRate
		sw.Timeout = timeout
		return supperware.New(serial, sw)

	case "cam":
		cc := cam.DefaultConfig()
		cc.CameraIndex = cfg.CamIndex
		cc.ModelPath = cfg.CamModelPath
		cc.Format = cam.Format(cfg.OrientFormat)
		cc.MinFaceDetectionConfidence = cfg.CamMinFaceDetectionConf
		cc.MinFacePresenceConfidence = cfg.CamMinFacePresenceConf
		cc.MinTrackingConfidence = cfg.CamMinTrackingConf
		det := cam.NewStreamDetector(func(o cam.DetectorOptions) (io.ReadCloser, error) {
			return startProcess(cfg.CamDetectorCommand, detectorArgs(o)...)
		}, cfg.CamFrameWidth, cfg.CamFrameHeight)
		// The landmarker stream carries no PnP solution, so position stays off.
		return cam.New(det, nil, cc)

	case "hmd":
		loc := hmd.NewStreamLocator(func() (io.ReadCloser, error) {
			return startProcess(cfg.HMDLocatorCommand)
		})
		return hmd.New(loc, hmd.Format(cfg.OrientFormat))

	default:
		return nil, fmt.Errorf("unknown tracker source %q: %w", cfg.TrackerSource, tracker.ErrConfiguration)
	}
}

func detectorArgs(o cam.DetectorOptions) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	args := []string{
		"--camera", strconv.Itoa(o.CameraIndex),
		"--min-face-detection-confidence", f(o.MinFaceDetectionConfidence),
		"--min-face-presence-confidence", f(o.MinFacePresenceConfidence),
		"--min-tracking-confidence", f(o.MinTrackingConfidence),
	}
	if o.ModelPath != "" {
		args = append(args, "--model", o.ModelPath)
	}
	return args
}

// process is the stdout of a helper process. Closing it stops the process.
type process struct {
	cmd *exec.Cmd
	io.ReadCloser
}

func (p *process) Close() error {
	p.ReadCloser.Close()
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	// The exit status of a killed helper is not interesting.
	p.cmd.Wait()
	return nil
}

// startProcess runs cmdline plus extra arguments and returns its stdout.
func startProcess(cmdline string, extra ...string) (io.ReadCloser, error) {
	args := append(strings.Fields(cmdline), extra...)
	if len(args) == 0 {
		return nil, fmt.Errorf("empty helper command: %w", tracker.ErrConfiguration)
	}
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stderr = os.Stderr
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", args[0], err)
	}
	return &process{cmd: cmd, ReadCloser: out}, nil
}
