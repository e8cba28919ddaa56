// Package trace provides recorded and streamed edge sources.
package trace

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/norasector/ledscope/pkg/pulse"
)

// Trace is a recorded capture of one signal.
type Trace struct {
	Initial pulse.Level
	Edges   []pulse.Edge
	// End is the time the capture stopped. Zero means the line is assumed to
	// hold its last level indefinitely.
	End time.Duration
}

func New(initial pulse.Level, edges []pulse.Edge) *Trace {
	return &Trace{Initial: initial, Edges: edges}
}

// Append adds edges, keeping End past the last edge if it was set.
func (t *Trace) Append(edges ...pulse.Edge) {
	t.Edges = append(t.Edges, edges...)
	if n := len(t.Edges); t.End > 0 && n > 0 && t.End < t.Edges[n-1].Time {
		t.End = t.Edges[n-1].Time
	}
}

func (t *Trace) Duration() time.Duration {
	if t.End > 0 {
		return t.End
	}
	if len(t.Edges) == 0 {
		return 0
	}
	return t.Edges[len(t.Edges)-1].Time
}

// Source returns an independent reader positioned at the start of the capture.
func (t *Trace) Source() *Reader {
	return &Reader{trace: t, level: t.Initial}
}

// Reader walks a Trace. It is not safe for concurrent use.
type Reader struct {
	trace  *Trace
	pos    int
	level  pulse.Level
	cursor time.Duration
}

func (r *Reader) NextEdge(ctx context.Context) (pulse.Edge, error) {
	if err := ctx.Err(); err != nil {
		return pulse.Edge{}, err
	}
	if r.pos >= len(r.trace.Edges) {
		return pulse.Edge{}, io.EOF
	}
	e := r.trace.Edges[r.pos]
	r.pos++
	r.level = e.Level
	r.cursor = e.Time
	return e, nil
}

func (r *Reader) Level() pulse.Level {
	return r.level
}

// Position reports the capture time the reader has advanced to.
func (r *Reader) Position() time.Duration {
	return r.cursor
}

func (r *Reader) WaitEdge(ctx context.Context, timeout time.Duration) (pulse.Edge, error) {
	if err := ctx.Err(); err != nil {
		return pulse.Edge{}, err
	}
	deadline := r.cursor + timeout

	if r.pos < len(r.trace.Edges) {
		if e := r.trace.Edges[r.pos]; e.Time < deadline {
			return r.NextEdge(ctx)
		}
		r.cursor = deadline
		return pulse.Edge{}, pulse.ErrTimeout
	}

	if r.trace.End > 0 && r.trace.End < deadline {
		return pulse.Edge{}, fmt.Errorf("%w: capture ends %s after %s, waiting %s",
			pulse.ErrIncompleteTrace, r.trace.End-r.cursor, r.cursor, timeout)
	}
	r.cursor = deadline
	return pulse.Edge{}, pulse.ErrTimeout
}
