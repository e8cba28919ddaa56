// Package stats summarizes measured pulse widths against a timing envelope.
package stats

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/norasector/ledscope/pkg/pulse"
)

type SymbolStats struct {
	Count  int
	Mean   time.Duration
	StdDev time.Duration
}

type Summary struct {
	Count      int
	Min        time.Duration
	Max        time.Duration
	Zero       SymbolStats
	One        SymbolStats
	Violations int
	// Valid counts pulses inside the envelope. Margin only means something
	// when Valid > 0.
	Valid int
	// Margin is the smallest distance from any valid pulse to the threshold
	// or to either envelope bound.
	Margin time.Duration
}

func Summarize(widths []time.Duration, timing pulse.Timing) Summary {
	s := Summary{Count: len(widths)}
	if len(widths) == 0 {
		return s
	}

	all := make([]float64, len(widths))
	var zeros, ones []float64
	var margin float64

	for i, w := range widths {
		ns := float64(w)
		all[i] = ns

		b, ok := timing.Classify(w)
		if !ok {
			s.Violations++
			continue
		}
		s.Valid++
		if b == 1 {
			ones = append(ones, ns)
		} else {
			zeros = append(zeros, ns)
		}

		m := minOf(
			abs(ns-float64(timing.Threshold)),
			ns-float64(timing.MinPulse),
			float64(timing.MaxPulse)-ns,
		)
		if s.Valid == 1 || m < margin {
			margin = m
		}
	}

	s.Min = time.Duration(floats.Min(all))
	s.Max = time.Duration(floats.Max(all))
	s.Zero = symbolStats(zeros)
	s.One = symbolStats(ones)
	s.Margin = time.Duration(margin)
	return s
}

func symbolStats(x []float64) SymbolStats {
	if len(x) == 0 {
		return SymbolStats{}
	}
	mean, std := stat.MeanStdDev(x, nil)
	if len(x) < 2 {
		std = 0
	}
	return SymbolStats{
		Count:  len(x),
		Mean:   time.Duration(mean),
		StdDev: time.Duration(std),
	}
}

func minOf(v ...float64) float64 {
	return floats.Min(v)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// Fields flattens a summary for metrics points. margin_ns is left out when
// no pulse was valid, so a zero margin always means a pulse sat on a boundary.
func (s Summary) Fields() map[string]interface{} {
	f := map[string]interface{}{
		"pulses":       s.Count,
		"violations":   s.Violations,
		"valid":        s.Valid,
		"width_min_ns": s.Min.Nanoseconds(),
		"width_max_ns": s.Max.Nanoseconds(),
		"zero_count":   s.Zero.Count,
		"zero_mean_ns": s.Zero.Mean.Nanoseconds(),
		"zero_std_ns":  s.Zero.StdDev.Nanoseconds(),
		"one_count":    s.One.Count,
		"one_mean_ns":  s.One.Mean.Nanoseconds(),
		"one_std_ns":   s.One.StdDev.Nanoseconds(),
	}
	if s.Valid > 0 {
		f["margin_ns"] = s.Margin.Nanoseconds()
	}
	return f
}
