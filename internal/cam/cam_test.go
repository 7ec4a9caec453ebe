package cam

import (
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/head_tracker/internal/orientation"
	"github.com/relabs-tech/head_tracker/internal/tracker"
)

type fakeDetector struct {
	opts    DetectorOptions
	openErr error
	frames  []Detection
	missing bool
	closed  bool
}

func (d *fakeDetector) Open(opts DetectorOptions) error {
	d.opts = opts
	return d.openErr
}

func (d *fakeDetector) FrameSize() (int, int) { return 640, 480 }

func (d *fakeDetector) Detect() (Detection, bool, error) {
	if d.missing || len(d.frames) == 0 {
		return Detection{}, false, nil
	}
	f := d.frames[0]
	d.frames = d.frames[1:]
	return f, true, nil
}

func (d *fakeDetector) Close() error {
	d.closed = true
	return nil
}

type fakeSolver struct {
	tvecs [][3]float64
	image [][2]float64
	k     Intrinsics
}

func (s *fakeSolver) SolvePnP(object [][3]float64, image [][2]float64, k Intrinsics) ([3]float64, [3]float64, bool) {
	s.image, s.k = image, k
	if len(s.tvecs) == 0 {
		return [3]float64{}, [3]float64{}, false
	}
	tv := s.tvecs[0]
	s.tvecs = s.tvecs[1:]
	return [3]float64{}, tv, true
}

// transform embeds a rotation vector in a 4x4 transform with a translation.
func transform(rvec [3]float64) *[16]float64 {
	r := orientation.RotationFromVector(rvec).RowMajor()
	return &[16]float64{
		r[0], r[1], r[2], 0.01,
		r[3], r[4], r[5], -0.02,
		r[6], r[7], r[8], -0.4,
		0, 0, 0, 1,
	}
}

func mesh(x, y float64) []Landmark {
	out := make([]Landmark, MeshSize)
	for i := range out {
		out[i] = Landmark{X: x, Y: y}
	}
	return out
}

func TestConfigValidation(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cases := []struct {
		name string
		cfg  func(*Config)
	}{
		{"format", func(c *Config) { c.Format = "orth" }},
		{"camera index", func(c *Config) { c.CameraIndex = -1 }},
		{"detection above one", func(c *Config) { c.MinFaceDetectionConfidence = 1.5 }},
		{"presence negative", func(c *Config) { c.MinFacePresenceConfidence = -0.1 }},
		{"tracking NaN", func(c *Config) { c.MinTrackingConfidence = math.NaN() }},
		{"length mismatch", func(c *Config) { c.LandmarkIndices = []int{1, 152, 33, 263, 61} }},
		{"too few points", func(c *Config) {
			c.LandmarkIndices = []int{1, 2, 3}
			c.LandmarkPoints = [][3]float64{{}, {}, {}}
		}},
		{"index outside mesh", func(c *Config) { c.LandmarkIndices = []int{1, 152, 33, 263, 61, 500} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.cfg(&cfg)
			assert.ErrorIs(t, cfg.Validate(), tracker.ErrConfiguration)
			_, err := New(&fakeDetector{}, nil, cfg)
			assert.ErrorIs(t, err, tracker.ErrConfiguration)
		})
	}

	// Boundaries are valid.
	cfg := DefaultConfig()
	cfg.MinFaceDetectionConfidence = 0
	cfg.MinTrackingConfidence = 1
	assert.NoError(t, cfg.Validate())

	_, err := New(nil, nil, DefaultConfig())
	assert.ErrorIs(t, err, tracker.ErrConfiguration)
}

func TestOpenPassesOptions(t *testing.T) {
	det := &fakeDetector{}
	cfg := DefaultConfig()
	cfg.CameraIndex = 2
	cfg.MinTrackingConfidence = 0.6
	tr, err := New(det, nil, cfg)
	require.NoError(t, err)

	_, err = tr.ReadPose()
	assert.ErrorIs(t, err, tracker.ErrNotOpen)

	require.NoError(t, tr.Open())
	assert.Equal(t, 2, det.opts.CameraIndex)
	assert.Equal(t, 0.6, det.opts.MinTrackingConfidence)

	require.NoError(t, tr.Close())
	assert.True(t, det.closed)

	failing, err := New(&fakeDetector{openErr: errors.New("busy")}, nil, DefaultConfig())
	require.NoError(t, err)
	assert.ErrorIs(t, failing.Open(), tracker.ErrDeviceUnavailable)
}

func TestOrientationRelativeToFirstFrame(t *testing.T) {
	det := &fakeDetector{frames: []Detection{
		{Transform: transform([3]float64{0, 0.2, 0})},
		{Transform: transform([3]float64{0, 0.5, 0})},
	}}
	cfg := DefaultConfig()
	cfg.Format = FormatYPR
	tr, err := New(det, nil, cfg)
	require.NoError(t, err)
	require.NoError(t, tr.Open())

	p, err := tr.ReadPose()
	require.NoError(t, err)
	a, ok := p.Orientation.YPR()
	require.True(t, ok)
	arr := a.Array()
	assert.InDeltaSlice(t, []float64{0, 0, 0}, arr[:], 1e-9)
	assert.Nil(t, p.Position, "no solver, no position")

	// Turning about the camera's down axis is a yaw to the right.
	p, err = tr.ReadPose()
	require.NoError(t, err)
	a, _ = p.Orientation.YPR()
	assert.InDelta(t, -0.3, a.Yaw, 1e-9)
	assert.InDelta(t, 0, a.Pitch, 1e-9)
	assert.InDelta(t, 0, a.Roll, 1e-9)
}

func TestOrientationQuaternionAndZero(t *testing.T) {
	det := &fakeDetector{frames: []Detection{
		{Transform: transform([3]float64{0.1, 0, 0})},
		{Transform: transform([3]float64{0.4, 0, 0})},
		{Transform: transform([3]float64{0.4, 0, 0})},
	}}
	tr, err := New(det, nil, DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, tr.Open())

	_, err = tr.ReadPose()
	require.NoError(t, err)

	o, err := tr.ReadOrientation()
	require.NoError(t, err)
	q, ok := o.Quaternion()
	require.True(t, ok)
	// Camera x (right) maps onto head y (left): a pitch.
	want := orientation.Quaternion{W: math.Cos(0.15), Y: math.Sin(0.15)}
	assert.True(t, q.SameRotation(want, 1e-9), "got %v", q)

	tr.ZeroOrientation()
	o, err = tr.ReadOrientation()
	require.NoError(t, err)
	q, _ = o.Quaternion()
	assert.True(t, q.SameRotation(orientation.Identity(), 1e-9))
}

func TestPositionFromSolver(t *testing.T) {
	det := &fakeDetector{frames: []Detection{
		{Landmarks: mesh(0.5, 0.25)},
		{Landmarks: mesh(0.5, 0.25)},
		{Landmarks: mesh(0.5, 0.25)},
		{Landmarks: mesh(0.5, 0.25)[:10]},
	}}
	solver := &fakeSolver{tvecs: [][3]float64{{0, 0, 0.5}, {0.01, 0.02, 0.55}, {0.01, 0.02, 0.55}}}
	tr, err := New(det, solver, DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, tr.Open())

	p, err := tr.ReadPose()
	require.NoError(t, err)
	require.NotNil(t, p.Position)
	assert.Equal(t, orientation.Position{}, *p.Position)
	assert.False(t, p.Orientation.Valid())

	assert.Equal(t, Intrinsics{Fx: 640, Fy: 640, Cx: 320, Cy: 240}, solver.k)
	require.Len(t, solver.image, 6)
	assert.Equal(t, [2]float64{320, 120}, solver.image[0])

	p, err = tr.ReadPose()
	require.NoError(t, err)
	require.NotNil(t, p.Position)
	assert.InDelta(t, 0.05, p.Position.X, 1e-9)
	assert.InDelta(t, -0.01, p.Position.Y, 1e-9)
	assert.InDelta(t, 0.02, p.Position.Z, 1e-9)

	tr.ZeroPosition()
	p, err = tr.ReadPose()
	require.NoError(t, err)
	assert.Equal(t, orientation.Position{}, *p.Position)

	// A short mesh cannot feed the solver.
	p, err = tr.ReadPose()
	require.NoError(t, err)
	assert.True(t, p.Empty())
}

func TestNoFrame(t *testing.T) {
	tr, err := New(&fakeDetector{missing: true}, nil, DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, tr.Open())

	p, err := tr.ReadPose()
	require.NoError(t, err)
	assert.True(t, p.Empty())
}

type nopCloser struct{ io.Reader }

func (nopCloser) Close() error { return nil }

func TestStreamDetector(t *testing.T) {
	input := strings.Join([]string{
		`{"transform":[1,0,0,0,0,1,0,0,0,0,1,0,0,0,0,1]}`,
		``,
		`{"landmarks":[{"x":0.1,"y":0.2}]}`,
		`not json`,
	}, "\n")
	var got DetectorOptions
	s := NewStreamDetector(func(o DetectorOptions) (io.ReadCloser, error) {
		got = o
		return nopCloser{strings.NewReader(input)}, nil
	}, 640, 480)

	_, _, err := s.Detect()
	assert.ErrorIs(t, err, tracker.ErrNotOpen)

	require.NoError(t, s.Open(DetectorOptions{CameraIndex: 1}))
	assert.Equal(t, 1, got.CameraIndex)
	w, h := s.FrameSize()
	assert.Equal(t, [2]int{640, 480}, [2]int{w, h})

	d, ok, err := s.Detect()
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, d.Transform)
	assert.Equal(t, 1.0, d.Transform[15])

	d, ok, err = s.Detect()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, d.Transform)

	d, ok, err = s.Detect()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []Landmark{{X: 0.1, Y: 0.2}}, d.Landmarks)

	_, _, err = s.Detect()
	require.Error(t, err)
	assert.False(t, tracker.Fatal(err))

	_, _, err = s.Detect()
	assert.ErrorIs(t, err, tracker.ErrDeviceUnavailable)
	require.NoError(t, s.Close())

	bad := NewStreamDetector(nil, 0, 0)
	assert.ErrorIs(t, bad.Open(DetectorOptions{}), tracker.ErrConfiguration)
}
