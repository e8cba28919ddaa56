package scope

import (
	"errors"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"

	"github.com/norasector/ledscope/pkg/pulse"
	"github.com/norasector/ledscope/pkg/pulse/stats"
	"github.com/norasector/ledscope/pkg/scope/output"
	"github.com/norasector/ledscope/pkg/ws2812"
)

const (
	measurementDecoded = "ledscope.frame.decoded"
	measurementFailed  = "ledscope.frame.failed"
)

func (s *Scope) frameDecoded(c Capture, plots *capturePlots, index int, colors []ws2812.Color, widths []time.Duration, decodeUs int64, position time.Duration) error {
	summary := stats.Summarize(widths, s.opts.Profile.Timing)
	fields := summary.Fields()
	fields["pixels"] = len(colors)
	fields["frame_index"] = index
	fields["decode_duration_us"] = decodeUs

	s.writeAPI.WritePoint(influxdb2.NewPoint(measurementDecoded,
		map[string]string{
			"capture": c.Name,
		}, fields, time.Now()))

	if plots != nil {
		plots.widths.Append(widths...)
		plots.histogram.Append(widths...)
	}

	frame := &output.Frame{
		Capture:     c.Name,
		Index:       index,
		Pixels:      colors,
		CaptureTime: position,
		DecodedAt:   time.Now().UTC(),
	}
	for _, out := range s.opts.Outputs {
		if err := out.WriteFrame(frame); err != nil {
			return err
		}
	}

	s.logger.Debug().
		Str("capture", c.Name).
		Int("frame", index).
		Int("valid", summary.Valid).
		Int64("margin_ns", summary.Margin.Nanoseconds()).
		Msg("frame decoded")
	return nil
}

func (s *Scope) frameFailed(c Capture, plots *capturePlots, index int, err error, widths []time.Duration) {
	fields := map[string]interface{}{
		"frame_index":  index,
		"decoded_bits": len(widths),
	}

	var violation *pulse.TimingViolationError
	if errors.As(err, &violation) {
		fields["measured_ns"] = violation.Measured.Nanoseconds()
		widths = append(widths, violation.Measured)
	}

	s.writeAPI.WritePoint(influxdb2.NewPoint(measurementFailed,
		map[string]string{
			"capture": c.Name,
			"reason":  failureReason(err),
		}, fields, time.Now()))

	if plots != nil {
		plots.widths.Append(widths...)
		plots.histogram.Append(widths...)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, pulse.ErrTimingViolation):
		return "timing_violation"
	case errors.Is(err, pulse.ErrUnexpectedEdge):
		return "missing_latch"
	case errors.Is(err, pulse.ErrIdleNotReached):
		return "idle_not_reached"
	case errors.Is(err, pulse.ErrIncompleteTrace):
		var it *pulse.IncompleteTraceError
		if errors.As(err, &it) && it.Unterminated {
			return "unterminated_pulse"
		}
		return "incomplete"
	case errors.Is(err, pulse.ErrNonMonotonic):
		return "non_monotonic"
	default:
		return "other"
	}
}
