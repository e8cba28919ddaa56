package file

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/norasector/ledscope/pkg/pulse"
	"github.com/norasector/ledscope/pkg/pulse/sampled"
	"github.com/norasector/ledscope/pkg/pulse/trace"
)

// SamplesExt marks raw float32 scope captures.
const SamplesExt = ".f32"

// FileDevice replays a recorded capture.
type FileDevice struct {
	path    string
	trace   *trace.Trace
	samples []float32
	opts    sampled.Options
	speedup float64

	done     chan struct{}
	stopOnce sync.Once
}

// NewFileDevice loads an edge trace, or a sampled capture when path ends in
// .f32. A speedup of 0 replays as fast as the consumer reads; otherwise edges
// are paced at capture time divided by speedup.
func NewFileDevice(path string, speedup float64, opts sampled.Options) (*FileDevice, error) {
	if speedup < 0 {
		return nil, fmt.Errorf("speedup must not be negative, got %v", speedup)
	}
	f := &FileDevice{
		path:    path,
		speedup: speedup,
		done:    make(chan struct{}),
	}

	if strings.EqualFold(filepath.Ext(path), SamplesExt) {
		samples, err := sampled.LoadSamples(path)
		if err != nil {
			return nil, err
		}
		t, err := sampled.Edges(samples, opts)
		if err != nil {
			return nil, fmt.Errorf("slicing %s: %w", path, err)
		}
		f.samples = samples
		f.opts = opts
		f.trace = t
		return f, nil
	}

	t, err := trace.Load(path)
	if err != nil {
		return nil, err
	}
	f.trace = t
	return f, nil
}

// NewTraceDevice replays an in-memory trace.
func NewTraceDevice(t *trace.Trace, speedup float64) *FileDevice {
	return &FileDevice{
		path:    "memory",
		trace:   t,
		speedup: speedup,
		done:    make(chan struct{}),
	}
}

func (f *FileDevice) Path() string {
	return f.path
}

// Samples returns the raw samples of a sampled capture, or nil.
func (f *FileDevice) Samples() []float32 {
	return f.samples
}

func (f *FileDevice) SampleRate() int {
	return f.opts.SampleRate
}

// Threshold is the slicing level used for a sampled capture.
func (f *FileDevice) Threshold() float32 {
	if f.opts.Threshold != 0 || len(f.samples) == 0 {
		return f.opts.Threshold
	}
	return sampled.Midpoint(f.samples)
}

func (f *FileDevice) Trace() *trace.Trace {
	return f.trace
}

func (f *FileDevice) InitialLevel() pulse.Level {
	return f.trace.Initial
}

func (f *FileDevice) Start(ctx context.Context, edges chan<- pulse.Edge) error {
	start := time.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for _, e := range f.trace.Edges {
		if f.speedup > 0 {
			due := start.Add(time.Duration(float64(e.Time) / f.speedup))
			if wait := time.Until(due); wait > 0 {
				timer.Reset(wait)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-f.done:
					return nil
				case <-timer.C:
				}
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case edges <- e:
		}
	}
	return nil
}

func (f *FileDevice) Stop() error {
	f.stopOnce.Do(func() {
		close(f.done)
	})
	return nil
}
