package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/norasector/ledscope/pkg/pulse"
)

const sampleConfig = `
profile: ws2812b
pixels: 3
timing:
  idle_reset: 80us
  threshold: 600ns
captures:
  - name: bench
    path: captures/bench.edg
  - path: captures/scope.f32
    sample_rate: 100000000
    lowpass_cutoff: 20000000
    agc_rate: 0.001
    speedup: 1
outputs:
  log: true
  json_lines: frames.jsonl
viz_server:
  port: 8080
  update_interval: 500ms
influxdb:
  host: http://localhost:8086
  organization: lab
  bucket: ledscope
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, 3, c.Pixels)
	require.Len(t, c.Captures, 2)
	assert.Equal(t, "bench", c.Captures[0].Name)
	assert.Equal(t, "capture-1", c.Captures[1].Name)
	assert.Equal(t, 100000000, c.Captures[1].SampleRate)
	assert.Equal(t, 0.001, c.Captures[1].AGCRate)
	assert.Equal(t, 500*time.Millisecond, c.VizServer.UpdateInterval)
	assert.Equal(t, "lab", c.InfluxDB.Organization)
	assert.True(t, c.Outputs.Log)

	p, err := c.ResolveProfile()
	require.NoError(t, err)
	assert.Equal(t, 80*time.Microsecond, p.Timing.IdleReset)
	assert.Equal(t, 600*time.Nanosecond, p.Timing.Threshold)
	assert.Equal(t, pulse.DefaultTiming.MinPulse, p.Timing.MinPulse)
	assert.Equal(t, pulse.DefaultSymbol, p.Symbol)
}

func TestParseDefaults(t *testing.T) {
	c, err := Parse([]byte("captures:\n  - path: a.csv\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPixels, c.Pixels)

	p, err := c.ResolveProfile()
	require.NoError(t, err)
	assert.Equal(t, pulse.DefaultProfile, p.Name)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown field", "pixles: 3\n"},
		{"missing path", "captures:\n  - name: x\n"},
		{"negative pixels", "pixels: -1\n"},
		{"negative speedup", "captures:\n  - path: a.csv\n    speedup: -2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestResolveProfileInvalid(t *testing.T) {
	c := &Config{Timing: TimingConfig{Threshold: time.Microsecond}}
	_, err := c.ResolveProfile()
	assert.True(t, errors.Is(err, pulse.ErrInvalidTiming))

	c = &Config{Profile: "nope"}
	_, err = c.ResolveProfile()
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledscope.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bench", c.Captures[0].Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
