package rmsagc

import (
	"math"
)

// RMSAGC is a root-mean-squared automatic gain controller. Gain is capped at
// maxGain so that long idle stretches do not blow up the next pulse.
type RMSAGC struct {
	alpha   float64
	beta    float64
	target  float64
	maxGain float64
	average float64
}

// NewRMSAGC scales the signal toward an RMS of target, tracking the average
// power with weight alpha per sample. maxGain <= 0 leaves the gain uncapped.
func NewRMSAGC(alpha, target, maxGain float64) *RMSAGC {
	return &RMSAGC{
		alpha:   alpha,
		beta:    1 - alpha,
		target:  target,
		maxGain: maxGain,
		average: 1.0,
	}
}

func (r *RMSAGC) PredictOutputSize(inputSize int) int {
	return inputSize
}

// Gain is the gain that would be applied to the next sample.
func (r *RMSAGC) Gain() float64 {
	if r.average <= 0 {
		return r.capped(math.Inf(1))
	}
	return r.capped(r.target / math.Sqrt(r.average))
}

func (r *RMSAGC) capped(g float64) float64 {
	if r.maxGain > 0 && g > r.maxGain {
		return r.maxGain
	}
	if math.IsInf(g, 1) {
		return r.target
	}
	return g
}

func (r *RMSAGC) WorkBuffer(input, output []float32) int {
	for i := 0; i < len(input); i++ {
		cur := float64(input[i])
		r.average = r.beta*r.average + r.alpha*cur*cur
		output[i] = float32(cur * r.Gain())
	}

	return len(input)
}

func (r *RMSAGC) Reset() {
	r.average = 1.0
}
