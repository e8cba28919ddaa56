package ws2812

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/norasector/ledscope/pkg/pulse"
)

// FrameReader decodes pixel frames from an edge source.
type FrameReader struct {
	decoder *pulse.Decoder
	timing  pulse.Timing
}

func NewFrameReader(timing pulse.Timing, opts ...pulse.DecoderOption) (*FrameReader, error) {
	d, err := pulse.NewDecoder(timing, opts...)
	if err != nil {
		return nil, err
	}
	return &FrameReader{decoder: d, timing: timing}, nil
}

func (r *FrameReader) Timing() pulse.Timing {
	return r.timing
}

// ReadFrame decodes the colors of pixels LEDs without looking at what follows them.
func (r *FrameReader) ReadFrame(ctx context.Context, src pulse.EdgeSource, pixels int) ([]Color, error) {
	if pixels <= 0 {
		return nil, fmt.Errorf("pixel count must be positive, got %d", pixels)
	}
	bits, err := r.decoder.Decode(ctx, src, pixels*BitsPerPixel)
	if err != nil {
		return nil, err
	}

	colors := make([]Color, pixels)
	for i := range colors {
		if colors[i], err = DecodeColor(bits[i*BitsPerPixel : (i+1)*BitsPerPixel]); err != nil {
			return nil, err
		}
	}
	return colors, nil
}

// ReadFrameLatched decodes a frame and then requires the line to stay low
// for the latch period.
func (r *FrameReader) ReadFrameLatched(ctx context.Context, src pulse.WaitSource, pixels int) ([]Color, error) {
	colors, err := r.ReadFrame(ctx, src, pixels)
	if err != nil {
		return nil, err
	}
	if err := pulse.CheckIdle(ctx, src, r.timing.IdleReset); err != nil {
		return colors, fmt.Errorf("latch after %d pixels: %w", pixels, err)
	}
	return colors, nil
}

// ReadFrames decodes latched frames until the source runs out. A source that
// ends low between frames is not an error. One that ends on a lone rising
// edge is.
func (r *FrameReader) ReadFrames(ctx context.Context, src pulse.WaitSource, pixels int) ([][]Color, error) {
	var frames [][]Color
	for {
		colors, err := r.ReadFrameLatched(ctx, src, pixels)
		if err != nil {
			var it *pulse.IncompleteTraceError
			if errors.As(err, &it) && it.Clean() {
				return frames, nil
			}
			return frames, fmt.Errorf("frame %d: %w", len(frames), err)
		}
		frames = append(frames, colors)
	}
}

// EncodeFrame renders colors starting at start, followed by a latch. next is
// where the following frame may begin.
func EncodeFrame(enc *pulse.Encoder, start time.Duration, colors []Color, latch time.Duration) (edges []pulse.Edge, next time.Duration) {
	for _, c := range colors {
		var e []pulse.Edge
		e, start = enc.EncodeBits(start, c.Bits())
		edges = append(edges, e...)
	}
	return edges, start + latch
}
