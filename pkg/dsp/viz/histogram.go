package viz

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/plot/plotter"
)

// HistogramPlotter shows the distribution of recent pulse widths; a healthy
// capture has two tight clusters either side of the threshold.
type HistogramPlotter struct {
	mu          sync.Mutex
	widths      plotter.Values
	size        int
	bins        int
	name        string
	plotOptions []PlotOptions
}

func NewHistogramPlotter(name string, size, bins int) *HistogramPlotter {
	return &HistogramPlotter{
		size: size,
		bins: bins,
		name: name,
	}
}

func (h *HistogramPlotter) Name() string {
	return h.name
}

func (h *HistogramPlotter) AddPlotOption(opt PlotOptions) {
	h.mu.Lock()
	h.plotOptions = append(h.plotOptions, opt)
	h.mu.Unlock()
}

func (h *HistogramPlotter) Append(widths ...time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, w := range widths {
		h.widths = append(h.widths, float64(w.Nanoseconds()))
	}
	if len(h.widths) > h.size {
		h.widths = h.widths[len(h.widths)-h.size:]
	}
}

func (h *HistogramPlotter) GetImage() *ImageContainer {
	h.mu.Lock()
	if len(h.widths) == 0 {
		h.mu.Unlock()
		return nil
	}
	values := append(plotter.Values(nil), h.widths...)
	opts := append([]PlotOptions(nil), h.plotOptions...)
	h.mu.Unlock()

	p := plotWithDefaults()
	p.Title.Text = h.name
	p.X.Label.Text = "Pulse width (ns)"
	p.Y.Label.Text = "Count"

	for _, opt := range opts {
		opt(p)
	}

	hist, err := plotter.NewHist(values, h.bins)
	if err != nil {
		log.Warn().Err(err).Str("plot", h.name).Msg("error building histogram")
		return nil
	}
	hist.FillColor = colorThreshold
	p.Add(hist)

	img, err := render(h.name, p)
	if err != nil {
		log.Warn().Err(err).Str("plot", h.name).Msg("error rendering plot")
		return nil
	}
	return img
}
