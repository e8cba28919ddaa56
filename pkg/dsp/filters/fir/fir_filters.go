// Package fir designs windowed-sinc FIR taps for cleaning up sampled captures
// before they are sliced into logic levels.
package fir

// computeNTaps sizes a filter so the window's stopband attenuation is reached
// within transitionWidth. The result is always odd so the filter has an
// integer group delay.
func computeNTaps(sampleRate float64, transitionWidth float64, winType WindowType) int {
	maxAttenuation := windowMaxAttenuation[winType]
	ntaps := int(
		float64(maxAttenuation) * sampleRate / (22.0 * transitionWidth))
	ntaps |= 1

	return ntaps
}

// GroupDelay is the delay, in samples, of a symmetric filter with the given taps.
func GroupDelay(taps []float32) int {
	if len(taps) == 0 {
		return 0
	}
	return (len(taps) - 1) / 2
}
