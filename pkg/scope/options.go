package scope

import (
	"time"

	"github.com/norasector/ledscope/pkg/pulse"
	"github.com/norasector/ledscope/pkg/scope/device"
	"github.com/norasector/ledscope/pkg/scope/output"
)

const (
	defaultReplayGrace = 100 * time.Millisecond
	edgeBufferSize     = 4096
	pulsePlotSize      = 1024
	histogramSize      = 8192
	histogramBins      = 64
	waveformPlotSize   = 4096
)

type Options struct {
	Captures []Capture
	Pixels   int
	Profile  pulse.Profile
	Outputs  []FrameOutput
	// ReplayGrace is added to the wall-clock wait of every idle check, so that
	// a device replaying faster than real time is judged on capture time.
	ReplayGrace time.Duration
}

// Capture is one data line being decoded.
type Capture struct {
	Name   string
	Device device.Device
}

// FrameOutput receives every decoded frame, in order per capture.
type FrameOutput interface {
	WriteFrame(f *output.Frame) error
}

// sampledDevice is implemented by devices that slice an analog capture.
type sampledDevice interface {
	Samples() []float32
	SampleRate() int
	Threshold() float32
}
