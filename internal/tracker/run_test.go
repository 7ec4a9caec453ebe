package tracker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/head_tracker/internal/orientation"
)

type fakeTracker struct {
	poses  []orientation.Pose
	errs   []error
	reads  int
	zeroes []int // read index at which Zero was called
}

func (f *fakeTracker) Open() error  { return nil }
func (f *fakeTracker) Close() error { return nil }
func (f *fakeTracker) Zero()        { f.zeroes = append(f.zeroes, f.reads) }

func (f *fakeTracker) ReadPose() (orientation.Pose, error) {
	i := f.reads
	f.reads++
	if i < len(f.errs) && f.errs[i] != nil {
		return orientation.Pose{}, f.errs[i]
	}
	if i < len(f.poses) {
		return f.poses[i], nil
	}
	return orientation.Pose{}, nil
}

func quatPose(w float64) orientation.Pose {
	return orientation.Pose{Orientation: orientation.FromQuaternion(orientation.Quaternion{W: w})}
}

func TestRunDeliversPosesAndSkipsEmpty(t *testing.T) {
	ft := &fakeTracker{
		poses: []orientation.Pose{quatPose(1), {}, quatPose(0.5), quatPose(0.25)},
		errs:  []error{nil, nil, nil, nil},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []orientation.Pose
	sink := SinkFunc(func(p orientation.Pose) error {
		got = append(got, p)
		if len(got) == 3 {
			cancel()
		}
		return nil
	})

	require.NoError(t, Run(ctx, ft, sink, RunOptions{}))
	require.Len(t, got, 3)
	assert.Equal(t, quatPose(1), got[0])
	assert.Equal(t, quatPose(0.5), got[1])
	assert.Equal(t, quatPose(0.25), got[2])
}

func TestRunStopsOnFatalError(t *testing.T) {
	ft := &fakeTracker{
		poses: []orientation.Pose{quatPose(1), {}, {}},
		errs:  []error{nil, errors.New("checksum"), fmt.Errorf("read: %w", ErrDeviceUnavailable)},
	}

	err := Run(context.Background(), ft, SinkFunc(func(orientation.Pose) error { return errors.New("full") }), RunOptions{Name: "test"})
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
	assert.Equal(t, 3, ft.reads)
}

func TestRunHandlesZeroRequests(t *testing.T) {
	ft := &fakeTracker{poses: []orientation.Pose{quatPose(1), quatPose(1)}}
	zero := make(chan struct{}, 1)
	zero <- struct{}{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n := 0
	sink := SinkFunc(func(orientation.Pose) error {
		n++
		if n == 2 {
			cancel()
		}
		return nil
	})

	require.NoError(t, Run(ctx, ft, sink, RunOptions{ZeroRequests: zero}))
	assert.Equal(t, []int{0}, ft.zeroes)
}

func TestRunWaitsForInterval(t *testing.T) {
	mock := clock.NewMock()
	ft := &fakeTracker{poses: []orientation.Pose{quatPose(1), quatPose(1), quatPose(1)}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sent := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, ft, SinkFunc(func(orientation.Pose) error {
			sent <- struct{}{}
			return nil
		}), RunOptions{Interval: 100 * time.Millisecond, Clock: mock})
	}()

	<-sent
	select {
	case <-sent:
		t.Fatal("second pose delivered before the interval elapsed")
	case <-time.After(20 * time.Millisecond):
	}

	// Keep advancing until the timer registered by Run fires.
	require.Eventually(t, func() bool {
		mock.Add(100 * time.Millisecond)
		select {
		case <-sent:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	cancel()
	mock.Add(100 * time.Millisecond)
	require.NoError(t, <-done)
}

func TestFatal(t *testing.T) {
	assert.True(t, Fatal(fmt.Errorf("x: %w", ErrNotOpen)))
	assert.True(t, Fatal(ErrConfiguration))
	assert.False(t, Fatal(errors.New("transient")))
	assert.False(t, Fatal(nil))
}

type stepSource struct {
	poses []orientation.Pose
}

func (s *stepSource) Next() (orientation.Pose, error) {
	p := s.poses[0]
	s.poses = s.poses[1:]
	return p, nil
}

func TestSourceTracker(t *testing.T) {
	yaw := func(a float64) orientation.Orientation {
		return orientation.FromQuaternion(orientation.Quaternion{W: math.Cos(a / 2), Z: math.Sin(a / 2)})
	}
	p1 := orientation.Position{X: 1, Y: 2}
	p2 := orientation.Position{X: 1.5, Y: 2}
	src := &stepSource{poses: []orientation.Pose{
		{Orientation: yaw(0.3), Position: &p1},
		{Orientation: yaw(0.5), Position: &p2},
		{Orientation: yaw(0.5)},
	}}
	st := NewSourceTracker(src)

	_, err := st.ReadPose()
	assert.ErrorIs(t, err, ErrNotOpen)
	require.NoError(t, st.Open())

	p, err := st.ReadPose()
	require.NoError(t, err)
	q, _ := p.Orientation.Quaternion()
	assert.True(t, q.SameRotation(orientation.Identity(), 1e-9))
	assert.Equal(t, orientation.Position{}, *p.Position)

	p, err = st.ReadPose()
	require.NoError(t, err)
	q, _ = p.Orientation.Quaternion()
	assert.True(t, q.SameRotation(orientation.Quaternion{W: math.Cos(0.1), Z: math.Sin(0.1)}, 1e-9))
	assert.InDelta(t, 0.5, p.Position.X, 1e-12)

	st.Zero()
	p, err = st.ReadPose()
	require.NoError(t, err)
	q, _ = p.Orientation.Quaternion()
	assert.True(t, q.SameRotation(orientation.Identity(), 1e-9))
	assert.Nil(t, p.Position)
	require.NoError(t, st.Close())
}
