package ws2812

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/norasector/ledscope/pkg/pulse"
	"github.com/norasector/ledscope/pkg/pulse/trace"
)

func newReader(t *testing.T) *FrameReader {
	t.Helper()
	r, err := NewFrameReader(pulse.DefaultTiming)
	require.NoError(t, err)
	return r
}

func encodeFrames(t *testing.T, frames ...[]Color) *trace.Trace {
	t.Helper()
	enc, err := pulse.NewEncoder(pulse.DefaultSymbol)
	require.NoError(t, err)

	tr := trace.New(pulse.Low, nil)
	start := 2 * time.Microsecond
	for _, colors := range frames {
		var edges []pulse.Edge
		edges, start = EncodeFrame(enc, start, colors, pulse.DefaultTiming.IdleReset)
		tr.Append(edges...)
	}
	return tr
}

func TestColorBits(t *testing.T) {
	c := Color{G: 255, R: 15, B: 128}
	assert.Equal(t, []pulse.Bit{
		1, 1, 1, 1, 1, 1, 1, 1,
		0, 0, 0, 0, 1, 1, 1, 1,
		1, 0, 0, 0, 0, 0, 0, 0,
	}, c.Bits())

	got, err := DecodeColor(c.Bits())
	require.NoError(t, err)
	assert.Equal(t, c, got)

	_, err = DecodeColor(c.Bits()[:23])
	assert.Error(t, err)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#0fff80")
	require.NoError(t, err)
	assert.Equal(t, Color{R: 15, G: 255, B: 128}, c)
	assert.Equal(t, "0fff80", c.String())

	for _, bad := range []string{"fff", "zzzzzz", "1234567"} {
		_, err := ParseColor(bad)
		assert.Error(t, err, bad)
	}

	colors, err := ParseColors("ff0000, 00ff00,,0000ff")
	require.NoError(t, err)
	assert.Equal(t, []Color{{R: 255}, {G: 255}, {B: 255}}, colors)
}

func TestColorJSON(t *testing.T) {
	b, err := json.Marshal([]Color{{R: 1, G: 2, B: 3}})
	require.NoError(t, err)
	assert.Equal(t, `["010203"]`, string(b))

	var got []Color
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, []Color{{R: 1, G: 2, B: 3}}, got)
}

func TestReadFrameLatched(t *testing.T) {
	want := []Color{{R: 15, G: 255, B: 128}}
	colors, err := newReader(t).ReadFrameLatched(context.Background(), encodeFrames(t, want).Source(), 1)
	require.NoError(t, err)
	assert.Equal(t, want, colors)
}

func TestReadFrameBlack(t *testing.T) {
	colors, err := newReader(t).ReadFrame(context.Background(), encodeFrames(t, []Color{{}}).Source(), 1)
	require.NoError(t, err)
	assert.Equal(t, []Color{{}}, colors)
}

func TestReadFrameMissingLatch(t *testing.T) {
	enc, err := pulse.NewEncoder(pulse.DefaultSymbol)
	require.NoError(t, err)
	// second frame starts right away, no latch
	first, next := EncodeFrame(enc, 0, []Color{{R: 1}}, 0)
	second, _ := EncodeFrame(enc, next, []Color{{R: 2}}, 0)

	_, err = newReader(t).ReadFrameLatched(context.Background(), trace.New(pulse.Low, append(first, second...)).Source(), 1)
	assert.True(t, errors.Is(err, pulse.ErrUnexpectedEdge))
}

func TestReadFrames(t *testing.T) {
	frames := [][]Color{
		{{R: 255}, {G: 255}, {B: 255}},
		{{R: 1, G: 2, B: 3}, {}, {R: 0xaa, G: 0x55, B: 0xf0}},
	}
	got, err := newReader(t).ReadFrames(context.Background(), encodeFrames(t, frames...).Source(), 3)
	require.NoError(t, err)
	assert.Equal(t, frames, got)
}

func TestReadFramesTruncated(t *testing.T) {
	tr := encodeFrames(t, []Color{{R: 9}, {G: 9}})
	tr.Edges = tr.Edges[:30]

	got, err := newReader(t).ReadFrames(context.Background(), tr.Source(), 2)
	assert.True(t, errors.Is(err, pulse.ErrIncompleteTrace))
	assert.Empty(t, got)
}

func TestReadFramesTrailingRisingEdge(t *testing.T) {
	frames := [][]Color{{{R: 9}, {G: 9}}}
	tr := encodeFrames(t, frames...)
	tr.Append(pulse.Edge{Time: tr.Edges[len(tr.Edges)-1].Time + 2*pulse.DefaultTiming.IdleReset, Level: pulse.High})

	got, err := newReader(t).ReadFrames(context.Background(), tr.Source(), 2)
	assert.True(t, errors.Is(err, pulse.ErrIncompleteTrace))
	assert.Contains(t, err.Error(), "frame 1")
	assert.Equal(t, frames, got)
}

func TestReadFrameBadPixelCount(t *testing.T) {
	_, err := newReader(t).ReadFrame(context.Background(), trace.New(pulse.Low, nil).Source(), 0)
	assert.Error(t, err)
}
