package file

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/norasector/ledscope/pkg/pulse"
	"github.com/norasector/ledscope/pkg/pulse/sampled"
	"github.com/norasector/ledscope/pkg/pulse/trace"
)

func testTrace() *trace.Trace {
	return trace.New(pulse.Low, []pulse.Edge{
		{Time: time.Microsecond, Level: pulse.High},
		{Time: 1400 * time.Nanosecond, Level: pulse.Low},
		{Time: 2250 * time.Nanosecond, Level: pulse.High},
		{Time: 3100 * time.Nanosecond, Level: pulse.Low},
	})
}

func collect(t *testing.T, d *FileDevice) []pulse.Edge {
	edges := make(chan pulse.Edge)
	errc := make(chan error, 1)
	go func() {
		defer close(edges)
		errc <- d.Start(context.Background(), edges)
	}()

	var got []pulse.Edge
	for e := range edges {
		got = append(got, e)
	}
	require.NoError(t, <-errc)
	return got
}

func TestFileDeviceReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.edg")
	require.NoError(t, trace.Save(path, testTrace()))

	d, err := NewFileDevice(path, 0, sampled.Options{})
	require.NoError(t, err)
	assert.Equal(t, pulse.Low, d.InitialLevel())
	assert.Nil(t, d.Samples())
	assert.Equal(t, testTrace().Edges, collect(t, d))
}

func TestFileDevicePaced(t *testing.T) {
	tr := trace.New(pulse.Low, []pulse.Edge{
		{Time: 0, Level: pulse.High},
		{Time: 20 * time.Millisecond, Level: pulse.Low},
	})
	d := NewTraceDevice(tr, 1)

	start := time.Now()
	got := collect(t, d)
	assert.Len(t, got, 2)
	assert.True(t, time.Since(start) >= 20*time.Millisecond)
}

func TestFileDeviceSamples(t *testing.T) {
	// 100 MHz: one 400ns high pulse.
	samples := make([]float32, 200)
	for i := 50; i < 90; i++ {
		samples[i] = 1
	}
	path := filepath.Join(t.TempDir(), "scope.f32")
	require.NoError(t, sampled.SaveSamples(path, samples))

	d, err := NewFileDevice(path, 0, sampled.Options{SampleRate: 100e6})
	require.NoError(t, err)
	assert.Len(t, d.Samples(), 200)
	assert.Equal(t, 100000000, d.SampleRate())
	assert.Equal(t, float32(0.5), d.Threshold())
	assert.Equal(t, []pulse.Edge{
		{Time: 500 * time.Nanosecond, Level: pulse.High},
		{Time: 900 * time.Nanosecond, Level: pulse.Low},
	}, collect(t, d))

	_, err = NewFileDevice(path, 0, sampled.Options{})
	assert.Error(t, err)
}

func TestFileDeviceStop(t *testing.T) {
	d := NewTraceDevice(testTrace(), 0)
	require.NoError(t, d.Stop())
	require.NoError(t, d.Stop())

	// Unbuffered and never read: Start only returns because of Stop.
	err := d.Start(context.Background(), make(chan pulse.Edge))
	assert.NoError(t, err)
}

func TestFileDeviceCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := NewTraceDevice(testTrace(), 0)
	err := d.Start(ctx, make(chan pulse.Edge))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewFileDeviceErrors(t *testing.T) {
	_, err := NewFileDevice(filepath.Join(t.TempDir(), "missing.edg"), 0, sampled.Options{})
	assert.Error(t, err)

	_, err = NewFileDevice("capture.edg", -1, sampled.Options{})
	assert.Error(t, err)
}
