package midi

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/relabs-tech/head_tracker/internal/tracker"
)

func TestDecode14(t *testing.T) {
	cases := []struct {
		msb, lsb byte
		want     float64
	}{
		{64, 0, 0.0},
		{0, 0, -1.0},
		{127, 127, 16383.0/8192.0 - 1},
		{96, 0, 0.5},
		{32, 0, -0.5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Decode14(tc.msb, tc.lsb), "msb=%d lsb=%d", tc.msb, tc.lsb)
	}
	assert.InDelta(t, 0.9998779, Decode14(127, 127), 1e-7)
}

func TestEncode14(t *testing.T) {
	msb, lsb := Encode14(0)
	assert.Equal(t, [2]byte{64, 0}, [2]byte{msb, lsb})

	msb, lsb = Encode14(-1)
	assert.Equal(t, [2]byte{0, 0}, [2]byte{msb, lsb})

	msb, lsb = Encode14(1)
	assert.Equal(t, [2]byte{127, 127}, [2]byte{msb, lsb}, "clamped")

	msb, lsb = Encode14(-3)
	assert.Equal(t, [2]byte{0, 0}, [2]byte{msb, lsb}, "clamped")

	for _, v := range []float64{-0.75, -0.1234, 0.333, 0.9} {
		msb, lsb := Encode14(v)
		assert.InDelta(t, v, Decode14(msb, lsb), 1.0/8192)
	}
}

func TestFramerChannelMessages(t *testing.T) {
	var f Framer
	msgs := f.Write([]byte{0xB0, 48, 10, 0xB0, 16, 64})
	require.Len(t, msgs, 2)
	assert.Equal(t, gomidi.Message{0xB0, 48, 10}, msgs[0])

	var ch, cc, val uint8
	require.True(t, msgs[1].GetControlChange(&ch, &cc, &val))
	assert.Equal(t, uint8(0), ch)
	assert.Equal(t, uint8(16), cc)
	assert.Equal(t, uint8(64), val)
}

func TestFramerRunningStatus(t *testing.T) {
	var f Framer
	msgs := f.Write([]byte{0xB2, 48, 1, 49, 2, 50, 3})
	require.Len(t, msgs, 3)
	assert.Equal(t, gomidi.Message{0xB2, 49, 2}, msgs[1])
	assert.Equal(t, gomidi.Message{0xB2, 50, 3}, msgs[2])

	// Program change carries one data byte.
	msgs = f.Write([]byte{0xC0, 5, 6})
	require.Len(t, msgs, 2)
	assert.Equal(t, gomidi.Message{0xC0, 6}, msgs[1])
}

func TestFramerRealtimeInterleaved(t *testing.T) {
	var f Framer
	msgs := f.Write([]byte{0xB0, 0xF8, 48, 0xFE, 7})
	require.Len(t, msgs, 3)
	assert.Equal(t, gomidi.Message{0xF8}, msgs[0])
	assert.Equal(t, gomidi.Message{0xFE}, msgs[1])
	assert.Equal(t, gomidi.Message{0xB0, 48, 7}, msgs[2])
}

func TestFramerSysEx(t *testing.T) {
	var f Framer
	msgs := f.Write([]byte{0xF0, 0x00, 0x21, 0xF8, 0x42, 0x40, 0xF7})
	require.Len(t, msgs, 2)
	assert.Equal(t, gomidi.Message{0xF8}, msgs[0])
	assert.Equal(t, gomidi.Message{0xF0, 0x00, 0x21, 0x42, 0x40, 0xF7}, msgs[1])

	var data []byte
	require.True(t, msgs[1].GetSysEx(&data))
	assert.Equal(t, []byte{0x00, 0x21, 0x42, 0x40}, data)

	// SysEx clears running status.
	msgs = f.Write([]byte{0xB0, 1, 2, 0xF0, 0x7D, 0xF7, 3, 4})
	require.Len(t, msgs, 2)
	assert.Equal(t, 2, f.Dropped())
}

func TestFramerDropsStrayBytes(t *testing.T) {
	var f Framer
	assert.Empty(t, f.Write([]byte{1, 2, 0xF7}))
	assert.Equal(t, 3, f.Dropped())

	// A status byte inside a SysEx block aborts it.
	msgs := f.Write([]byte{0xF0, 0x01, 0x02, 0x90, 60, 100, 0xF7})
	require.Len(t, msgs, 1)
	assert.Equal(t, gomidi.Message{0x90, 60, 100}, msgs[0])

	// Undefined system common bytes are dropped.
	before := f.Dropped()
	assert.Empty(t, f.Write([]byte{0xF4}))
	assert.Equal(t, before+1, f.Dropped())

	// Tune request has no data.
	msgs = f.Write([]byte{0xF6})
	require.Len(t, msgs, 1)
}

func TestFramerOversizedSysEx(t *testing.T) {
	var f Framer
	stream := append([]byte{0xF0}, bytes.Repeat([]byte{0x01}, MaxSysEx+10)...)
	stream = append(stream, 0xF7)
	assert.Empty(t, f.Write(stream))
	assert.Greater(t, f.Dropped(), MaxSysEx)
}

// fakeStream hands out its chunks one Read at a time.
type fakeStream struct {
	chunks  [][]byte
	written bytes.Buffer
	readErr error
	closed  bool
}

func (s *fakeStream) Read(p []byte) (int, error) {
	if len(s.chunks) == 0 {
		if s.readErr != nil {
			return 0, s.readErr
		}
		return 0, io.EOF
	}
	n := copy(p, s.chunks[0])
	s.chunks = s.chunks[1:]
	return n, nil
}

func (s *fakeStream) Write(p []byte) (int, error) { return s.written.Write(p) }
func (s *fakeStream) Close() error                { s.closed = true; return nil }

func TestPortReadMessage(t *testing.T) {
	s := &fakeStream{chunks: [][]byte{{0xB0, 48}, {5, 0xB0, 16, 64}}}
	p := NewPort(s)

	msg, err := p.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, gomidi.Message{0xB0, 48, 5}, msg)

	msg, err = p.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, gomidi.Message{0xB0, 16, 64}, msg)

	// An empty timed read is not an error.
	msg, err = p.ReadMessage()
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestPortErrors(t *testing.T) {
	s := &fakeStream{readErr: errors.New("input/output error")}
	p := NewPort(s)

	_, err := p.ReadMessage()
	assert.ErrorIs(t, err, tracker.ErrDeviceUnavailable)

	require.NoError(t, p.WriteMessage(gomidi.ControlChange(0, 48, 1)))
	assert.Equal(t, []byte{0xB0, 48, 1}, s.written.Bytes())

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, s.closed)

	_, err = p.ReadMessage()
	assert.ErrorIs(t, err, tracker.ErrNotOpen)
	assert.ErrorIs(t, p.WriteMessage(gomidi.Message{0xF8}), tracker.ErrNotOpen)
}

func TestOpenSerialErrors(t *testing.T) {
	_, err := OpenSerial(SerialOptions{})
	assert.ErrorIs(t, err, tracker.ErrConfiguration)

	_, err = OpenSerial(SerialOptions{PortName: "/dev/does-not-exist-midi"})
	assert.ErrorIs(t, err, tracker.ErrDeviceUnavailable)
}
