// Package pulse decodes pulse-width encoded serial bits (WS2812 style) from a
// stream of timestamped signal edges.
package pulse

import (
	"context"
	"time"
)

type Level uint8

const (
	Low Level = iota
	High
)

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// Edge is a transition of the observed signal. Level is the level after the
// transition, so a rising edge carries High.
type Edge struct {
	Time  time.Duration
	Level Level
}

// Bit holds a decoded symbol, 0 or 1.
type Bit = byte

// EdgeSource produces the edges of a single signal in temporal order.
// NextEdge returns io.EOF once the source is exhausted.
type EdgeSource interface {
	NextEdge(ctx context.Context) (Edge, error)
}

// EdgeWaiter observes a signal with a bounded wait. WaitEdge returns ErrTimeout
// when no edge occurs within timeout of the last observed point in time.
type EdgeWaiter interface {
	Level() Level
	WaitEdge(ctx context.Context, timeout time.Duration) (Edge, error)
}

// WaitSource is a source that can be used both to decode bits and to check idle periods.
type WaitSource interface {
	EdgeSource
	EdgeWaiter
}
