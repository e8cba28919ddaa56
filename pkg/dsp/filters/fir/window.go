package fir

import (
	"fmt"
	"math"
	"strings"
)

type WindowFunc func(int) []float32

type WindowType int

const (
	Hamming  WindowType = 0
	Hann     WindowType = 1
	Blackman WindowType = 3
)

var (
	windowMaxAttenuation = map[WindowType]int{
		Hamming:  53,
		Hann:     44,
		Blackman: 74,
	}
	windowFuncs = map[WindowType]WindowFunc{
		Hamming:  HammingWindow,
		Hann:     HannWindow,
		Blackman: BlackmanWindow,
	}
)

// ParseWindowType maps a config name to a window; empty selects Hamming.
func ParseWindowType(name string) (WindowType, error) {
	switch strings.ToLower(name) {
	case "", "hamming":
		return Hamming, nil
	case "hann":
		return Hann, nil
	case "blackman":
		return Blackman, nil
	}
	return Hamming, fmt.Errorf("unknown window type %q", name)
}

func cosWindow1(ntaps int, c0, c1, c2 float64) []float32 {
	ret := make([]float32, ntaps)
	M := float64(ntaps - 1)

	for i := 0; i < ntaps; i++ {
		fi := float64(i)
		ret[i] = float32(c0 - c1*math.Cos((2*math.Pi*fi)/M) +
			c2*math.Cos((4*math.Pi*fi)/M))
	}
	return ret
}

func BlackmanWindow(ntaps int) []float32 {
	return cosWindow1(ntaps, 0.42, 0.5, 0.08)
}

func HammingWindow(ntaps int) []float32 {
	ret := make([]float32, ntaps)
	M := float64(ntaps - 1)

	for i := 0; i < ntaps; i++ {
		ret[i] = float32(0.54 - 0.46*math.Cos((2.0*math.Pi*float64(i))/M))
	}

	return ret
}

func HannWindow(taps int) []float32 {
	ret := make([]float32, taps)
	M := float64(taps - 1)
	for i := 0; i < taps; i++ {
		cosVal := 2 * math.Pi * float64(i)
		ret[i] = float32(0.5 - 0.5*math.Cos(cosVal/M))
	}
	return ret
}
