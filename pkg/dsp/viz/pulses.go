package viz

import (
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/norasector/ledscope/pkg/pulse"
)

// PulseWidthPlotter draws the most recent pulse widths against the decode envelope.
type PulseWidthPlotter struct {
	mu          sync.Mutex
	widths      []float64
	size        int
	name        string
	timing      pulse.Timing
	plotOptions []PlotOptions
}

func NewPulseWidthPlotter(name string, size int, timing pulse.Timing) *PulseWidthPlotter {
	return &PulseWidthPlotter{
		widths: make([]float64, 0, size),
		size:   size,
		name:   name,
		timing: timing,
	}
}

func (p *PulseWidthPlotter) Name() string {
	return p.name
}

func (p *PulseWidthPlotter) AddPlotOption(opt PlotOptions) {
	p.mu.Lock()
	p.plotOptions = append(p.plotOptions, opt)
	p.mu.Unlock()
}

func (p *PulseWidthPlotter) Append(widths ...time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, w := range widths {
		p.widths = append(p.widths, float64(w.Nanoseconds()))
	}
	if len(p.widths) > p.size {
		p.widths = p.widths[len(p.widths)-p.size:]
	}
}

func (p *PulseWidthPlotter) GetImage() *ImageContainer {
	p.mu.Lock()
	if len(p.widths) == 0 {
		p.mu.Unlock()
		return nil
	}
	pts := make(plotter.XYs, len(p.widths))
	for i, w := range p.widths {
		pts[i] = plotter.XY{X: float64(i), Y: w}
	}
	opts := append([]PlotOptions(nil), p.plotOptions...)
	p.mu.Unlock()

	pl := plotWithDefaults()
	pl.Title.Text = p.name
	pl.Y.Label.Text = "Pulse width (ns)"
	pl.X.Label.Text = "Pulse"
	pl.Y.Min = 0
	pl.Y.Max = float64(p.timing.MaxPulse.Nanoseconds()) * 1.25

	for _, opt := range opts {
		opt(pl)
	}

	pl.Add(plotter.NewGrid())

	if err := plotutil.AddScatters(pl, "width", pts); err != nil {
		log.Warn().Err(err).Str("plot", p.name).Msg("error adding scatter")
		return nil
	}

	span := float64(len(pts))
	for _, ref := range []struct {
		label string
		value time.Duration
		color color.Color
	}{
		{"min", p.timing.MinPulse, colorEnvelope},
		{"threshold", p.timing.Threshold, colorThreshold},
		{"max", p.timing.MaxPulse, colorEnvelope},
	} {
		if err := addHorizontal(pl, fmt.Sprintf("%s %dns", ref.label, ref.value.Nanoseconds()), float64(ref.value.Nanoseconds()), span, ref.color); err != nil {
			log.Warn().Err(err).Str("plot", p.name).Msg("error adding reference line")
			return nil
		}
	}

	img, err := render(p.name, pl)
	if err != nil {
		log.Warn().Err(err).Str("plot", p.name).Msg("error rendering plot")
		return nil
	}
	return img
}

func addHorizontal(pl *plot.Plot, label string, y, span float64, c color.Color) error {
	l, err := plotter.NewLine(plotter.XYs{{X: 0, Y: y}, {X: span, Y: y}})
	if err != nil {
		return err
	}
	l.LineStyle.Color = c
	l.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	pl.Add(l)
	pl.Legend.Add(label, l)
	return nil
}
