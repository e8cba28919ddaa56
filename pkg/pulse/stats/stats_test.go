package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/norasector/ledscope/pkg/pulse"
)

func TestSummarize(t *testing.T) {
	widths := []time.Duration{400, 420, 380, 850, 870, 950}
	s := Summarize(widths, pulse.DefaultTiming)

	assert.Equal(t, 6, s.Count)
	assert.Equal(t, 1, s.Violations)
	assert.Equal(t, time.Duration(380), s.Min)
	assert.Equal(t, time.Duration(950), s.Max)

	assert.Equal(t, 3, s.Zero.Count)
	assert.Equal(t, time.Duration(400), s.Zero.Mean)
	assert.Equal(t, time.Duration(20), s.Zero.StdDev)

	assert.Equal(t, 2, s.One.Count)
	assert.Equal(t, time.Duration(860), s.One.Mean)

	// 870 is 30ns from the 900ns bound
	assert.Equal(t, time.Duration(30), s.Margin)
	assert.Equal(t, 5, s.Valid)
}

func TestSummarizeMarginOnThreshold(t *testing.T) {
	// 625ns is a valid zero sitting exactly on the threshold
	s := Summarize([]time.Duration{625}, pulse.DefaultTiming)
	assert.Equal(t, 1, s.Valid)
	assert.Equal(t, 0, s.Violations)
	assert.Equal(t, time.Duration(0), s.Margin)

	f := s.Fields()
	assert.Equal(t, int64(0), f["margin_ns"])
	assert.Equal(t, 1, f["valid"])
}

func TestSummarizeNoValidPulses(t *testing.T) {
	s := Summarize([]time.Duration{100, 950}, pulse.DefaultTiming)
	assert.Equal(t, 2, s.Violations)
	assert.Equal(t, 0, s.Valid)

	f := s.Fields()
	_, ok := f["margin_ns"]
	assert.False(t, ok)
	assert.Equal(t, 0, f["valid"])
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, pulse.DefaultTiming)
	assert.Equal(t, Summary{}, s)
}

func TestSummaryFields(t *testing.T) {
	f := Summarize([]time.Duration{400}, pulse.DefaultTiming).Fields()
	assert.Equal(t, int64(400), f["zero_mean_ns"])
	assert.Equal(t, 1, f["pulses"])
	assert.Equal(t, int64(100), f["margin_ns"])
}
