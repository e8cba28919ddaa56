package trace

import (
	"context"
	"io"
	"time"

	"github.com/norasector/ledscope/pkg/pulse"
)

// ChanSource reads edges pushed by a device. Idle periods are judged on edge
// timestamps, with a wall-clock timer as the fallback when nothing arrives.
type ChanSource struct {
	edges   <-chan pulse.Edge
	level   pulse.Level
	cursor  time.Duration
	pending *pulse.Edge
	grace   time.Duration
}

func NewChanSource(edges <-chan pulse.Edge, initial pulse.Level) *ChanSource {
	return &ChanSource{
		edges: edges,
		level: initial,
	}
}

// SetGrace extends the wall-clock fallback of WaitEdge by d, so a producer
// that replays faster than real time is not mistaken for an idle line.
func (c *ChanSource) SetGrace(d time.Duration) {
	c.grace = d
}

// Position is the capture time up to which the line has been observed.
func (c *ChanSource) Position() time.Duration {
	return c.cursor
}

func (c *ChanSource) accept(e pulse.Edge) pulse.Edge {
	c.level = e.Level
	if e.Time > c.cursor {
		c.cursor = e.Time
	}
	return e
}

func (c *ChanSource) NextEdge(ctx context.Context) (pulse.Edge, error) {
	if c.pending != nil {
		e := *c.pending
		c.pending = nil
		return c.accept(e), nil
	}

	select {
	case <-ctx.Done():
		return pulse.Edge{}, ctx.Err()
	case e, ok := <-c.edges:
		if !ok {
			return pulse.Edge{}, io.EOF
		}
		return c.accept(e), nil
	}
}

func (c *ChanSource) Level() pulse.Level {
	return c.level
}

func (c *ChanSource) WaitEdge(ctx context.Context, timeout time.Duration) (pulse.Edge, error) {
	deadline := c.cursor + timeout

	var e pulse.Edge
	if c.pending != nil {
		e = *c.pending
		c.pending = nil
	} else {
		timer := time.NewTimer(timeout + c.grace)
		defer timer.Stop()

		var ok bool
		select {
		case <-ctx.Done():
			return pulse.Edge{}, ctx.Err()
		case <-timer.C:
			c.cursor = deadline
			return pulse.Edge{}, pulse.ErrTimeout
		case e, ok = <-c.edges:
			if !ok {
				return pulse.Edge{}, io.EOF
			}
		}
	}

	if e.Time >= deadline {
		c.pending = &e
		c.cursor = deadline
		return pulse.Edge{}, pulse.ErrTimeout
	}
	return c.accept(e), nil
}
