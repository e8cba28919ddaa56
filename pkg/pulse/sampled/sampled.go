// Package sampled recovers edges from analog scope captures. Samples run
// through optional gain control and low-pass stages, then a hysteresis
// slicer, and an edge detector timestamps the level changes.
package sampled

import (
	"errors"
	"fmt"
	"time"

	"github.com/racerxdl/segdsp/dsp"

	"github.com/norasector/ledscope/pkg/dsp/agc/rmsagc"
	"github.com/norasector/ledscope/pkg/dsp/filters/fir"
	"github.com/norasector/ledscope/pkg/dsp/processor"
	"github.com/norasector/ledscope/pkg/dsp/viz"
	"github.com/norasector/ledscope/pkg/pulse"
	"github.com/norasector/ledscope/pkg/pulse/trace"
)

type Options struct {
	SampleRate int
	// Threshold is the slicing level. Zero picks the midpoint of the filtered
	// capture's range.
	Threshold  float32
	Hysteresis float32
	Invert     bool
	// AGCRate enables the RMS gain control when positive.
	AGCRate float64
	// LowPassCutoff in Hz enables the FIR low-pass when positive.
	LowPassCutoff     float64
	LowPassTransition float64
	Window            fir.WindowType

	// Name and Viz plot every float stage of the chain when Viz is set.
	Name string
	Viz  *viz.Server
	// Metrics receives per-stage durations when not nil.
	Metrics map[string]interface{}
}

const (
	agcTarget  = 1.0
	agcMaxGain = 100
)

var ErrNoSamples = errors.New("no samples")

// Edges slices samples into a recorded trace.
func Edges(samples []float32, opts Options) (*trace.Trace, error) {
	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", opts.SampleRate)
	}
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	name := opts.Name
	if name == "" {
		name = "sampled"
	}
	proc := processor.NewProcessor(name, opts.Viz)

	if opts.AGCRate > 0 {
		proc.AddBlock(processor.NewDSPWorkerFF("agc", "RMS AGC", opts.SampleRate,
			rmsagc.NewRMSAGC(opts.AGCRate, agcTarget, agcMaxGain)))
	}

	delay := 0
	if opts.LowPassCutoff > 0 {
		if opts.LowPassCutoff >= float64(opts.SampleRate)/2 {
			return nil, fmt.Errorf("low-pass cutoff %.0f Hz above Nyquist for %d Hz", opts.LowPassCutoff, opts.SampleRate)
		}
		transition := opts.LowPassTransition
		if transition <= 0 {
			transition = opts.LowPassCutoff / 2
		}
		taps := fir.MakeLowPass(1.0, float64(opts.SampleRate), opts.LowPassCutoff, transition, opts.Window)
		proc.AddBlock(processor.NewDSPWorkerFF("lowpass", "Low pass", opts.SampleRate, dsp.MakeFloatFirFilter(taps)))
		delay = fir.GroupDelay(taps)
	}

	proc.AddBlock(processor.NewDSPWorkerFB("slicer", "Slicer", opts.SampleRate,
		NewSlicer(opts.Threshold, opts.Hysteresis, opts.Invert)))

	levels, err := proc.ProcessFloatToBinary(samples, opts.Metrics)
	if err != nil {
		return nil, err
	}

	det := NewEdgeDetector(opts.SampleRate, delay)
	edges := make([]pulse.Edge, det.PredictOutputSize(len(levels)))
	n := det.WorkBuffer(levels, edges)

	t := trace.New(det.Initial(), edges[:n])
	t.End = det.Timestamp(len(levels))
	return t, nil
}

// Midpoint is halfway between the lowest and highest sample.
func Midpoint(samples []float32) float32 {
	lo, hi := samples[0], samples[0]
	for _, s := range samples[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	return lo + (hi-lo)/2
}

// EdgeDetector turns a stream of levels into timestamped edges. delay is the
// group delay (in samples) of any filter that ran upstream.
type EdgeDetector struct {
	sampleRate int
	delay      int
	index      int
	level      byte
	initial    byte
	primed     bool
}

func NewEdgeDetector(sampleRate, delay int) *EdgeDetector {
	return &EdgeDetector{sampleRate: sampleRate, delay: delay}
}

// Timestamp converts a sample index into capture time.
func (d *EdgeDetector) Timestamp(index int) time.Duration {
	index -= d.delay
	if index < 0 {
		index = 0
	}
	return time.Duration(int64(index) * int64(time.Second) / int64(d.sampleRate))
}

func (d *EdgeDetector) Initial() pulse.Level {
	return pulse.Level(d.initial)
}

func (d *EdgeDetector) WorkBuffer(input []byte, output []pulse.Edge) int {
	n := 0
	for _, lv := range input {
		if !d.primed {
			d.primed = true
			d.level = lv
			d.initial = lv
		} else if lv != d.level {
			d.level = lv
			output[n] = pulse.Edge{Time: d.Timestamp(d.index), Level: pulse.Level(lv)}
			n++
		}
		d.index++
	}
	return n
}

// PredictOutputSize is the worst case: every sample toggles.
func (d *EdgeDetector) PredictOutputSize(inputSize int) int {
	return inputSize
}
