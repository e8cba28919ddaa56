package pulse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// PulseObserver is called for every measured pulse that passed the envelope check.
type PulseObserver func(index int, width time.Duration, b Bit)

// Decoder turns high pulses into bits. It holds no per-decode state, so a
// single Decoder may be shared by goroutines decoding independent sources.
type Decoder struct {
	timing   Timing
	observer PulseObserver
	logger   zerolog.Logger
}

type DecoderOption func(d *Decoder)

func WithPulseObserver(obs PulseObserver) DecoderOption {
	return func(d *Decoder) {
		d.observer = obs
	}
}

func WithLogger(logger zerolog.Logger) DecoderOption {
	return func(d *Decoder) {
		d.logger = logger
	}
}

func NewDecoder(timing Timing, opts ...DecoderOption) (*Decoder, error) {
	if err := timing.Validate(); err != nil {
		return nil, err
	}
	d := &Decoder{
		timing: timing,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *Decoder) Timing() Timing {
	return d.timing
}

// Decode reads n high pulses from src and classifies each one. The source is
// not closed.
func (d *Decoder) Decode(ctx context.Context, src EdgeSource, n int) ([]Bit, error) {
	bits := make([]Bit, 0, n)
	pr := pulseReader{src: src}

	for i := 0; i < n; i++ {
		width, err := pr.next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				d.logger.Debug().
					Int("decoded", len(bits)).
					Int("expected", n).
					Bool("unterminated", pr.open).
					Msg("edge source ended early")
				return bits, &IncompleteTraceError{Decoded: bits, Unterminated: pr.open}
			}
			return bits, fmt.Errorf("decoding bit %d: %w", i, err)
		}

		b, ok := d.timing.Classify(width)
		if !ok {
			d.logger.Debug().
				Int("pulse_index", i).
				Int64("measured_ns", width.Nanoseconds()).
				Msg("pulse outside timing envelope")
			return bits, &TimingViolationError{
				PulseIndex: i,
				Measured:   width,
				Min:        d.timing.MinPulse,
				Max:        d.timing.MaxPulse,
			}
		}

		if d.observer != nil {
			d.observer(i, width, b)
		}
		bits = append(bits, b)
	}

	return bits, nil
}

// MeasurePulses returns the raw widths of up to limit high pulses (all remaining
// pulses if limit <= 0). The end of the source is not an error here.
func MeasurePulses(ctx context.Context, src EdgeSource, limit int) ([]time.Duration, error) {
	var widths []time.Duration
	pr := pulseReader{src: src}

	for limit <= 0 || len(widths) < limit {
		width, err := pr.next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return widths, err
		}
		widths = append(widths, width)
	}
	return widths, nil
}

type pulseReader struct {
	src     EdgeSource
	last    time.Duration
	started bool
	index   int
	// open is set between a rising edge and its falling edge
	open bool
}

func (p *pulseReader) edge(ctx context.Context) (Edge, error) {
	if err := ctx.Err(); err != nil {
		return Edge{}, err
	}
	e, err := p.src.NextEdge(ctx)
	if err != nil {
		return e, err
	}
	if p.started && e.Time < p.last {
		return e, fmt.Errorf("%w: edge %d at %s precedes %s", ErrNonMonotonic, p.index, e.Time, p.last)
	}
	p.started = true
	p.last = e.Time
	p.index++
	return e, nil
}

// next waits for a rising edge and returns the time until the following falling edge.
func (p *pulseReader) next(ctx context.Context) (time.Duration, error) {
	var rise Edge
	for {
		e, err := p.edge(ctx)
		if err != nil {
			return 0, err
		}
		if e.Level == High {
			rise = e
			p.open = true
			break
		}
	}
	for {
		e, err := p.edge(ctx)
		if err != nil {
			return 0, err
		}
		if e.Level == Low {
			p.open = false
			return e.Time - rise.Time, nil
		}
	}
}
