package pulse

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrTimingViolation = errors.New("pulse timing violation")
	ErrIncompleteTrace = errors.New("incomplete trace")
	ErrUnexpectedEdge  = errors.New("unexpected edge during idle period")
	ErrIdleNotReached  = errors.New("signal not idle")
	ErrTimeout         = errors.New("timed out waiting for edge")
	ErrInvalidTiming   = errors.New("invalid timing")
	ErrNonMonotonic    = errors.New("edge timestamps not monotonic")
	ErrBitCount        = errors.New("bit count is not a multiple of 8")
)

// TimingViolationError reports a pulse outside the (MinPulse, MaxPulse) envelope.
type TimingViolationError struct {
	PulseIndex int
	Measured   time.Duration
	Min        time.Duration
	Max        time.Duration
}

func (e *TimingViolationError) Error() string {
	return fmt.Sprintf("pulse %d: measured %dns, want between %dns and %dns",
		e.PulseIndex, e.Measured.Nanoseconds(), e.Min.Nanoseconds(), e.Max.Nanoseconds())
}

func (e *TimingViolationError) Is(target error) bool {
	return target == ErrTimingViolation
}

// IncompleteTraceError is returned when the edge source ends before all
// requested bits were decoded. Decoded holds the bits read so far.
// Unterminated is set when the source ended on a rising edge that was never
// followed by a falling one.
type IncompleteTraceError struct {
	Decoded      []Bit
	Unterminated bool
}

func (e *IncompleteTraceError) Error() string {
	if e.Unterminated {
		return fmt.Sprintf("incomplete trace: source ended high after %d bits", len(e.Decoded))
	}
	return fmt.Sprintf("incomplete trace: source ended after %d bits", len(e.Decoded))
}

// Clean reports whether the source ended between frames with the line low.
func (e *IncompleteTraceError) Clean() bool {
	return len(e.Decoded) == 0 && !e.Unterminated
}

func (e *IncompleteTraceError) Is(target error) bool {
	return target == ErrIncompleteTrace
}

type UnexpectedEdgeError struct {
	Edge Edge
}

func (e *UnexpectedEdgeError) Error() string {
	return fmt.Sprintf("unexpected %s edge at %dns during idle period", e.Edge.Level, e.Edge.Time.Nanoseconds())
}

func (e *UnexpectedEdgeError) Is(target error) bool {
	return target == ErrUnexpectedEdge
}
