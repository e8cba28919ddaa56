package viz

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
)

type PlotType int

const (
	PlotTypeDefault PlotType = iota
	PlotTypeScatter
	PlotTypeLines
)

// WaveformPlotter draws the most recent analog samples of a sampled capture
// against the slicing threshold.
type WaveformPlotter struct {
	mu          sync.Mutex
	samples     []float32
	size        int
	name        string
	sampleRate  int
	threshold   float64
	plotFunc    func(*plot.Plot, ...interface{}) error
	plotOptions []PlotOptions
}

func NewWaveformPlotter(name string, size, sampleRate int) *WaveformPlotter {
	return &WaveformPlotter{
		samples:    make([]float32, 0, size),
		size:       size,
		name:       name,
		sampleRate: sampleRate,
		plotFunc:   plotutil.AddLines,
	}
}

func (w *WaveformPlotter) Name() string {
	return w.name
}

func (w *WaveformPlotter) Size() int {
	return w.size
}

func (w *WaveformPlotter) SetPlotType(tp PlotType) {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch tp {
	case PlotTypeScatter:
		w.plotFunc = plotutil.AddScatters
	default:
		w.plotFunc = plotutil.AddLines
	}
}

func (w *WaveformPlotter) SetThreshold(threshold float32) {
	w.mu.Lock()
	w.threshold = float64(threshold)
	w.mu.Unlock()
}

func (w *WaveformPlotter) AppendFloat(f []float32) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.samples = append(w.samples, f...)
	if len(w.samples) > w.size {
		w.samples = w.samples[len(w.samples)-w.size:]
	}
}

func (w *WaveformPlotter) AddPlotOption(opt PlotOptions) {
	w.mu.Lock()
	w.plotOptions = append(w.plotOptions, opt)
	w.mu.Unlock()
}

func (w *WaveformPlotter) GetImage() *ImageContainer {
	w.mu.Lock()
	if len(w.samples) == 0 {
		w.mu.Unlock()
		return nil
	}
	usPerSample := 1e6 / float64(w.sampleRate)
	pts := make(plotter.XYs, len(w.samples))
	for i, s := range w.samples {
		pts[i] = plotter.XY{X: float64(i) * usPerSample, Y: float64(s)}
	}
	threshold := w.threshold
	plotFunc := w.plotFunc
	opts := append([]PlotOptions(nil), w.plotOptions...)
	w.mu.Unlock()

	p := plotWithDefaults()
	p.Title.Text = w.name
	p.Y.Label.Text = "Amplitude"
	p.X.Label.Text = "t (us)"

	for _, opt := range opts {
		opt(p)
	}

	p.Add(plotter.NewGrid())

	if err := plotFunc(p, "f(t)", pts); err != nil {
		log.Warn().Err(err).Str("plot", w.name).Msg("error adding samples")
		return nil
	}
	span := pts[len(pts)-1].X
	if err := addHorizontal(p, fmt.Sprintf("threshold %.3f", threshold), threshold, span, colorThreshold); err != nil {
		log.Warn().Err(err).Str("plot", w.name).Msg("error adding threshold")
		return nil
	}

	img, err := render(w.name, p)
	if err != nil {
		log.Warn().Err(err).Str("plot", w.name).Msg("error rendering plot")
		return nil
	}
	return img
}
