package device

import (
	"context"

	"github.com/norasector/ledscope/pkg/pulse"
)

// Device produces the edges of one data line.
type Device interface {
	// Start emits edges in capture order until the capture ends, ctx is
	// canceled or Stop is called. It does not close edges.
	Start(ctx context.Context, edges chan<- pulse.Edge) error
	Stop() error
	// InitialLevel is the line level before the first edge.
	InitialLevel() pulse.Level
}
