package pulse_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/norasector/ledscope/pkg/pulse"
	"github.com/norasector/ledscope/pkg/pulse/trace"
)

func TestCheckIdle(t *testing.T) {
	idle := pulse.DefaultTiming.IdleReset

	tests := []struct {
		name    string
		trace   *trace.Trace
		skip    int
		wantErr error
	}{
		{
			name:  "quiescent",
			trace: trace.New(pulse.Low, nil),
		},
		{
			name:  "next edge after window",
			trace: trace.New(pulse.Low, []pulse.Edge{{Time: idle + time.Nanosecond, Level: pulse.High}}),
		},
		{
			name:    "edge before window",
			trace:   trace.New(pulse.Low, []pulse.Edge{{Time: idle / 2, Level: pulse.High}}),
			wantErr: pulse.ErrUnexpectedEdge,
		},
		{
			name:    "line high",
			trace:   trace.New(pulse.High, nil),
			wantErr: pulse.ErrIdleNotReached,
		},
		{
			name:  "after last bit",
			trace: pulseTrain(400*time.Nanosecond, 850*time.Nanosecond),
			skip:  4,
		},
		{
			name:    "capture too short",
			trace:   &trace.Trace{End: idle / 4},
			wantErr: pulse.ErrIncompleteTrace,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := tt.trace.Source()
			for i := 0; i < tt.skip; i++ {
				_, err := src.NextEdge(context.Background())
				require.NoError(t, err)
			}

			err := pulse.CheckIdle(context.Background(), src, idle)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestCheckIdleReportsEdge(t *testing.T) {
	edge := pulse.Edge{Time: 10 * time.Microsecond, Level: pulse.High}
	err := pulse.CheckIdle(context.Background(), trace.New(pulse.Low, []pulse.Edge{edge}).Source(), 50*time.Microsecond)

	var ue *pulse.UnexpectedEdgeError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, edge, ue.Edge)
}

func TestWaitIdle(t *testing.T) {
	tr := pulseTrain(repeat(400*time.Nanosecond, 3)...)
	lastBit := tr.Edges[len(tr.Edges)-1].Time
	// a second burst well after the latch
	tr.Append(pulse.Edge{Time: lastBit + 80*time.Microsecond, Level: pulse.High},
		pulse.Edge{Time: lastBit + 80*time.Microsecond + 400, Level: pulse.Low})

	src := tr.Source()
	require.NoError(t, pulse.WaitIdle(context.Background(), src, 50*time.Microsecond, time.Microsecond))
	assert.True(t, src.Position()-lastBit >= 50*time.Microsecond, "stopped at %s", src.Position())
	assert.Equal(t, pulse.Low, src.Level())

	bits, err := newDecoder(t).Decode(context.Background(), src, 1)
	require.NoError(t, err)
	assert.Equal(t, []pulse.Bit{0}, bits)
}

func TestWaitIdleInvalidStep(t *testing.T) {
	err := pulse.WaitIdle(context.Background(), trace.New(pulse.Low, nil).Source(), time.Microsecond, 0)
	assert.True(t, errors.Is(err, pulse.ErrInvalidTiming))
}
