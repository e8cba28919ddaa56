package sampled

// Slicer takes input float32 samples and returns one byte per sample with
// value 0 or 1, switching only once a sample clears the hysteresis band
// around the threshold. A zero threshold is taken from the midpoint of the
// first buffer.
type Slicer struct {
	threshold  float32
	hysteresis float32
	invert     bool
	auto       bool
	state      byte
	primed     bool
}

func NewSlicer(threshold, hysteresis float32, invert bool) *Slicer {
	return &Slicer{
		threshold:  threshold,
		hysteresis: hysteresis,
		invert:     invert,
		auto:       threshold == 0,
	}
}

func (s *Slicer) Threshold() float32 {
	return s.threshold
}

// invert is for probes wired through an inverting level shifter.
func (s *Slicer) slice(f float32) byte {
	if !s.primed {
		s.primed = true
		if f >= s.threshold {
			s.state = 1
		}
	}

	half := s.hysteresis / 2
	switch {
	case s.state == 0 && f > s.threshold+half:
		s.state = 1
	case s.state == 1 && f < s.threshold-half:
		s.state = 0
	}

	if s.invert {
		return s.state ^ 1
	}
	return s.state
}

func (s *Slicer) WorkBuffer(input []float32, output []byte) int {
	if s.auto && !s.primed && len(input) > 0 {
		s.threshold = Midpoint(input)
	}
	for i := 0; i < len(input); i++ {
		output[i] = s.slice(input[i])
	}
	return len(input)
}

func (s *Slicer) PredictOutputSize(inputSize int) int {
	return inputSize
}

func (s *Slicer) Reset() {
	s.state = 0
	s.primed = false
	if s.auto {
		s.threshold = 0
	}
}
