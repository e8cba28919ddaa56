package processor

import "github.com/norasector/ledscope/pkg/dsp/viz"

type DataType int

const (
	DataTypeFloat DataType = iota
	DataTypeBytes
)

func (d DataType) String() string {
	switch d {
	case DataTypeFloat:
		return "float"
	case DataTypeBytes:
		return "bytes"
	}
	return "unknown"
}

// DSPWorker is one block of a sample chain.
type DSPWorker struct {
	Name        string
	DisplayName string
	SampleRate  int

	inputDataType  DataType
	outputDataType DataType

	fbWorker FBWorker
	ffWorker FFWorker

	fOutputBuffer []float32
	bOutputBuffer []byte

	waveform    *viz.WaveformPlotter
	vizSize     int
	plotType    viz.PlotType
	plotOptions []viz.PlotOptions
}

type DSPWorkerOption func(r *DSPWorker)

func WithPlotOptions(opts []viz.PlotOptions) DSPWorkerOption {
	return func(r *DSPWorker) {
		r.plotOptions = append(r.plotOptions, opts...)
	}
}

func WithVizLength(length int) DSPWorkerOption {
	return func(r *DSPWorker) {
		r.vizSize = length
	}
}

func WithPlotType(plotType viz.PlotType) DSPWorkerOption {
	return func(r *DSPWorker) {
		r.plotType = plotType
	}
}

func baseWorker(name, displayName string, sampleRate int) *DSPWorker {
	return &DSPWorker{
		Name:        name,
		DisplayName: displayName,
		SampleRate:  sampleRate,
	}
}

func NewDSPWorkerFF(name, displayName string, sampleRate int, worker FFWorker, opts ...DSPWorkerOption) *DSPWorker {
	ret := baseWorker(name, displayName, sampleRate)
	ret.inputDataType = DataTypeFloat
	ret.outputDataType = DataTypeFloat
	ret.ffWorker = worker

	for _, opt := range opts {
		opt(ret)
	}

	return ret
}

func NewDSPWorkerFB(name, displayName string, sampleRate int, worker FBWorker, opts ...DSPWorkerOption) *DSPWorker {
	ret := baseWorker(name, displayName, sampleRate)
	ret.inputDataType = DataTypeFloat
	ret.outputDataType = DataTypeBytes
	ret.fbWorker = worker

	for _, opt := range opts {
		opt(ret)
	}

	return ret
}

// Float in, binary bytes out (1 level per byte)
type FBWorker interface {
	WorkBuffer([]float32, []byte) int
	PredictOutputSize(int) int
}

type FFWorker interface {
	WorkBuffer([]float32, []float32) int
	PredictOutputSize(int) int
}
