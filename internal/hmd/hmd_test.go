package hmd

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

type fakeLocator struct {
	openErr error
	locs    []Location
	closed  bool
}

func (f *fakeLocator) Open() error { return f.openErr }

func (f *fakeLocator) Locate() (Location, error) {
	if len(f.locs) == 0 {
		return Location{}, errors.New("no frame")
	}
	l := f.locs[0]
	f.locs = f.locs[1:]
	return l, nil
}

func (f *fakeLocator) Close() error {
	f.closed = true
	return nil
}

// aboutUp is a rotation of angle about the OpenXR up axis.
func aboutUp(angle float64) orientation.Quaternion {
	return orientation.Quaternion{W: math.Cos(angle / 2), Y: math.Sin(angle / 2)}
}

func valid(q orientation.Quaternion, p [3]float64) Location {
	return Location{Orientation: q, Position: p, OrientationValid: true, PositionValid: true}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("ypr")
	require.NoError(t, err)
	assert.Equal(t, FormatYPR, f)

	_, err = ParseFormat("orth")
	assert.ErrorIs(t, err, tracker.ErrConfiguration)

	_, err = New(&fakeLocator{}, "euler")
	assert.ErrorIs(t, err, tracker.ErrConfiguration)
	_, err = New(nil, FormatQuaternion)
	assert.ErrorIs(t, err, tracker.ErrConfiguration)
}

func TestLifecycle(t *testing.T) {
	loc := &fakeLocator{}
	tr, err := New(loc, FormatQuaternion)
	require.NoError(t, err)

	_, err = tr.ReadPose()
	assert.ErrorIs(t, err, tracker.ErrNotOpen)

	require.NoError(t, tr.Open())
	require.NoError(t, tr.Close())
	assert.True(t, loc.closed)
	require.NoError(t, tr.Close())

	bad, err := New(&fakeLocator{openErr: errors.New("no runtime")}, FormatQuaternion)
	require.NoError(t, err)
	assert.ErrorIs(t, bad.Open(), tracker.ErrDeviceUnavailable)
}

func TestPoseRelativeToFirstFrame(t *testing.T) {
	loc := &fakeLocator{locs: []Location{
		valid(aboutUp(0.2), [3]float64{0.1, 1.6, 0.3}),
		valid(aboutUp(0.7), [3]float64{0.15, 1.62, 0.2}),
	}}
	tr, err := New(loc, FormatYPR)
	require.NoError(t, err)
	require.NoError(t, tr.Open())

	p, err := tr.ReadPose()
	require.NoError(t, err)
	a, ok := p.Orientation.YPR()
	require.True(t, ok)
	arr := a.Array()
	assert.InDeltaSlice(t, []float64{0, 0, 0}, arr[:], 1e-9)
	require.NotNil(t, p.Position)
	assert.Equal(t, orientation.Position{}, *p.Position)

	// Turning left about up is a positive yaw. Moving forward (-z) and
	// right (+x) maps to +x and -y in the head frame.
	p, err = tr.ReadPose()
	require.NoError(t, err)
	a, _ = p.Orientation.YPR()
	assert.InDelta(t, 0.5, a.Yaw, 1e-9)
	assert.InDelta(t, 0, a.Pitch, 1e-9)
	assert.InDelta(t, 0, a.Roll, 1e-9)
	assert.InDelta(t, 0.1, p.Position.X, 1e-9)
	assert.InDelta(t, -0.05, p.Position.Y, 1e-9)
	assert.InDelta(t, 0.02, p.Position.Z, 1e-9)
}

func TestIndependentZeroing(t *testing.T) {
	loc := &fakeLocator{locs: []Location{
		valid(aboutUp(0.2), [3]float64{0, 0, 0}),
		valid(aboutUp(0.4), [3]float64{0, 0, -0.1}),
		valid(aboutUp(0.4), [3]float64{0, 0, -0.1}),
		valid(aboutUp(0.4), [3]float64{0, 0, -0.1}),
	}}
	tr, err := New(loc, FormatQuaternion)
	require.NoError(t, err)
	require.NoError(t, tr.Open())

	_, err = tr.ReadPose()
	require.NoError(t, err)
	_, err = tr.ReadPose()
	require.NoError(t, err)

	tr.ZeroPosition()
	p, err := tr.ReadPose()
	require.NoError(t, err)
	assert.Equal(t, orientation.Position{}, *p.Position)
	q, _ := p.Orientation.Quaternion()
	want := orientation.Quaternion{W: math.Cos(0.1), Z: math.Sin(0.1)}
	assert.True(t, q.SameRotation(want, 1e-9), "orientation kept its reference: %v", q)

	tr.ZeroOrientation()
	o, err := tr.ReadOrientation()
	require.NoError(t, err)
	q, _ = o.Quaternion()
	assert.True(t, q.SameRotation(orientation.Identity(), 1e-9))
}

func TestInvalidParts(t *testing.T) {
	loc := &fakeLocator{locs: []Location{
		{},
		{Orientation: aboutUp(0.1), OrientationValid: true},
		{Position: [3]float64{1, 2, 3}, PositionValid: true},
		{Orientation: orientation.Quaternion{}, OrientationValid: true},
	}}
	tr, err := New(loc, FormatQuaternion)
	require.NoError(t, err)
	require.NoError(t, tr.Open())

	p, err := tr.ReadPose()
	require.NoError(t, err)
	assert.True(t, p.Empty())

	p, err = tr.ReadPose()
	require.NoError(t, err)
	assert.True(t, p.Orientation.Valid())
	assert.Nil(t, p.Position)

	pos, err := tr.ReadPosition()
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, orientation.Position{}, *pos)

	// A zero quaternion cannot become the reference.
	tr.ZeroOrientation()
	_, err = tr.ReadPose()
	assert.ErrorIs(t, err, orientation.ErrDegenerateInput)

	_, err = tr.ReadPose()
	require.Error(t, err)
	assert.False(t, tracker.Fatal(err))
}

func TestStreamLocator(t *testing.T) {
	input := `{"orientation":{"w":1,"x":0,"y":0,"z":0},"position":[0,1.6,0],"orientation_valid":true,"position_valid":true}

{oops
`
	s := NewStreamLocator(func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(input)), nil })
	_, err := s.Locate()
	assert.ErrorIs(t, err, tracker.ErrNotOpen)
	require.NoError(t, s.Open())

	l, err := s.Locate()
	require.NoError(t, err)
	assert.True(t, l.OrientationValid)
	assert.Equal(t, [3]float64{0, 1.6, 0}, l.Position)

	l, err = s.Locate()
	require.NoError(t, err)
	assert.False(t, l.OrientationValid || l.PositionValid)

	_, err = s.Locate()
	require.Error(t, err)
	assert.False(t, tracker.Fatal(err))

	_, err = s.Locate()
	assert.ErrorIs(t, err, tracker.ErrDeviceUnavailable)
	require.NoError(t, s.Close())
}
