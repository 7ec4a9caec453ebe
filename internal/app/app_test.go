package app

import (
	"io"
	"strings"
	"testing"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/head_tracker/internal/cam"
	"github.com/relabs-tech/head_tracker/internal/config"
	"github.com/relabs-tech/head_tracker/internal/hmd"
	"github.com/relabs-tech/head_tracker/internal/iem"
	"github.com/relabs-tech/head_tracker/internal/orientation"
	"github.com/relabs-tech/head_tracker/internal/output"
	"github.com/relabs-tech/head_tracker/internal/supperware"
	"github.com/relabs-tech/head_tracker/internal/tracker"
)

func TestNewTracker(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(*config.Config)
		expect any
	}{
		{"mock", func(c *config.Config) {}, &tracker.SourceTracker{}},
		{"iem", func(c *config.Config) {
			c.TrackerSource, c.MIDIPort, c.OrientFormat = "iem", "/dev/null", "ypr"
		}, &iem.Tracker{}},
		{"supperware", func(c *config.Config) {
			c.TrackerSource, c.MIDIPort, c.OrientFormat = "supperware", "/dev/null", "orth"
		}, &supperware.Tracker{}},
		{"cam", func(c *config.Config) {
			c.TrackerSource, c.CamDetectorCommand = "cam", "landmarker"
		}, &cam.Tracker{}},
		{"hmd", func(c *config.Config) {
			c.TrackerSource, c.HMDLocatorCommand = "hmd", "xr-bridge"
		}, &hmd.Tracker{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Defaults()
			tc.setup(cfg)
			tr, err := NewTracker(cfg)
			require.NoError(t, err)
			assert.IsType(t, tc.expect, tr)
		})
	}
}

func TestNewTrackerErrors(t *testing.T) {
	cfg := config.Defaults()
	cfg.TrackerSource = "gps"
	_, err := NewTracker(cfg)
	assert.ErrorIs(t, err, tracker.ErrConfiguration)

	cfg = config.Defaults()
	cfg.TrackerSource, cfg.MIDIPort, cfg.OrientFormat = "iem", "/dev/null", "orth"
	_, err = NewTracker(cfg)
	assert.ErrorIs(t, err, tracker.ErrConfiguration)

	cfg = config.Defaults()
	cfg.TrackerSource, cfg.MIDIPort = "supperware", "/dev/null"
	cfg.SupperwareRefreshRate = 60
	_, err = NewTracker(cfg)
	assert.ErrorIs(t, err, tracker.ErrConfiguration)

	cfg = config.Defaults()
	cfg.TrackerSource, cfg.CamDetectorCommand = "cam", "landmarker"
	cfg.CamMinTrackingConf = 2
	_, err = NewTracker(cfg)
	assert.ErrorIs(t, err, tracker.ErrConfiguration)
}

func TestMockTrackerRuns(t *testing.T) {
	tr, err := NewTracker(config.Defaults())
	require.NoError(t, err)
	require.NoError(t, tr.Open())
	defer tr.Close()

	p, err := tr.ReadPose()
	require.NoError(t, err)
	assert.True(t, p.Orientation.Valid())
	require.NotNil(t, p.Position)
}

type recordingOSC struct {
	host string
	port int
	sent *[]string
}

func (r recordingOSC) Send(p osc.Packet) error {
	*r.sent = append(*r.sent, p.(*osc.Message).Address)
	return nil
}

func TestNewOSCTargets(t *testing.T) {
	var sent []string
	var ports []int
	oscFactory = func(host string, port int) output.OSCClient {
		ports = append(ports, port)
		return recordingOSC{host: host, port: port, sent: &sent}
	}
	defer func() { oscFactory = output.NewOSCClient }()

	cfg := config.Defaults()
	targets, err := NewOSCTargets(cfg)
	require.NoError(t, err)
	assert.Empty(t, targets)

	cfg.SceneRotatorPort = 8000
	cfg.DirectivityShaperPort = 8001
	cfg.SPARTAPort = 9000
	cfg.TASCARPort = 9877
	cfg.TASCARAddress = "/scene/listener"
	targets, err = NewOSCTargets(cfg)
	require.NoError(t, err)
	require.Len(t, targets, 4)
	assert.Equal(t, []int{8000, 8001, 9000, 9877}, ports)
	assert.Equal(t, []string{"/DirectivityShaper/probeLock"}, sent)

	f, err := output.NewFanout(targets...)
	require.NoError(t, err)
	pos := orientation.Position{}
	require.NoError(t, f.Send(orientation.Pose{Orientation: orientation.FromQuaternion(orientation.Identity()), Position: &pos}))
	assert.Contains(t, sent, "/SceneRotator/quaternions")
	assert.Contains(t, sent, "/ypr")
	assert.Contains(t, sent, "/scene/listener/zyxeuler")
	assert.Contains(t, sent, "/scene/listener/pos")

	cfg.TASCARAddress = "listener"
	_, err = NewOSCTargets(cfg)
	assert.Error(t, err)
}

func TestFormatPose(t *testing.T) {
	assert.Equal(t, "[POSE]  none", FormatPose(orientation.Pose{}))

	a, err := orientation.NewYPR(90, 0, 0, orientation.SequenceYPR, true)
	require.NoError(t, err)
	pos := orientation.Position{X: 0.1}
	line := FormatPose(orientation.Pose{Orientation: orientation.FromYPR(a), Position: &pos})
	assert.Contains(t, line, "YAW=  90.00")
	assert.Contains(t, line, "X= 0.100")
	assert.NotContains(t, line, "Q=")

	line = FormatPose(orientation.Pose{Orientation: orientation.FromQuaternion(orientation.Identity())})
	assert.Contains(t, line, "Q=[1.000 0.000 0.000 0.000]")
	assert.Contains(t, line, "YAW=")
}

func TestDetectorArgs(t *testing.T) {
	args := detectorArgs(cam.DetectorOptions{CameraIndex: 2, MinTrackingConfidence: 0.5, ModelPath: "face.task"})
	assert.Equal(t, []string{
		"--camera", "2",
		"--min-face-detection-confidence", "0",
		"--min-face-presence-confidence", "0",
		"--min-tracking-confidence", "0.5",
		"--model", "face.task",
	}, args)
}

func TestStartProcess(t *testing.T) {
	rc, err := startProcess("echo hello", "world")
	require.NoError(t, err)
	out, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello world", strings.TrimSpace(string(out)))
	require.NoError(t, rc.Close())

	_, err = startProcess("   ")
	assert.ErrorIs(t, err, tracker.ErrConfiguration)

	_, err = startProcess("/no/such/helper")
	assert.Error(t, err)
}
