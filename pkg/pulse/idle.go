package pulse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// CheckIdle verifies the signal is low now and stays low, without any edge,
// for at least timeout. An exhausted waiter counts as a line that stays put.
func CheckIdle(ctx context.Context, w EdgeWaiter, timeout time.Duration) error {
	if w.Level() != Low {
		return fmt.Errorf("%w: level high before idle window", ErrIdleNotReached)
	}

	e, err := w.WaitEdge(ctx, timeout)
	switch {
	case err == nil:
		return &UnexpectedEdgeError{Edge: e}
	case errors.Is(err, ErrTimeout), errors.Is(err, io.EOF):
		if w.Level() != Low {
			return fmt.Errorf("%w: level high after idle window", ErrIdleNotReached)
		}
		return nil
	default:
		return err
	}
}

// WaitIdle blocks until the signal has been low for window, checking in
// increments of step. Low time is only reset by edges that leave the line high.
func WaitIdle(ctx context.Context, w EdgeWaiter, window, step time.Duration) error {
	if step <= 0 || window <= 0 {
		return fmt.Errorf("%w: idle window %s and step %s must be positive", ErrInvalidTiming, window, step)
	}

	var low time.Duration
	for low < window {
		e, err := w.WaitEdge(ctx, step)
		switch {
		case err == nil:
			if e.Level == High {
				low = 0
			}
		case errors.Is(err, ErrTimeout):
			if w.Level() == Low {
				low += step
			}
		case errors.Is(err, io.EOF):
			if w.Level() == Low {
				return nil
			}
			return fmt.Errorf("%w: source ended with line high", ErrIdleNotReached)
		default:
			return err
		}
	}
	return nil
}
