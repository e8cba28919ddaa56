package scope

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/influxdata/influxdb-client-go/api"
	"github.com/norasector/ledscope/pkg/dsp/viz"
	"github.com/norasector/ledscope/pkg/pulse"
	"github.com/norasector/ledscope/pkg/pulse/trace"
	"github.com/norasector/ledscope/pkg/util"
	"github.com/norasector/ledscope/pkg/ws2812"
	"golang.org/x/sync/errgroup"
)

// Scope decodes WS2812 frames from any number of captures concurrently.
type Scope struct {
	opts      Options
	writeAPI  api.WriteAPI
	vizServer *viz.Server
	logger    zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

type ScopeOption func(s *Scope) error

func WithInfluxDB(influxClient api.WriteAPI) ScopeOption {
	return func(s *Scope) error {
		s.writeAPI = influxClient
		return nil
	}
}

func WithImageServer(vizServer *viz.Server) ScopeOption {
	return func(s *Scope) error {
		s.vizServer = vizServer
		return nil
	}
}

func WithLogger(logger zerolog.Logger) ScopeOption {
	return func(s *Scope) error {
		s.logger = logger
		return nil
	}
}

func NewScope(options Options, opts ...ScopeOption) (*Scope, error) {
	s := &Scope{
		opts:     options,
		writeAPI: &util.MockWriteAPI{}, // overwritten with option
		logger:   log.Logger,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if len(s.opts.Captures) == 0 {
		return nil, fmt.Errorf("must specify at least one capture")
	}
	if s.opts.Pixels <= 0 {
		return nil, fmt.Errorf("pixel count must be positive, got %d", s.opts.Pixels)
	}
	if s.opts.Profile.Timing == (pulse.Timing{}) {
		s.opts.Profile = pulse.Profiles[pulse.DefaultProfile]
	}
	if err := s.opts.Profile.Timing.Validate(); err != nil {
		return nil, err
	}
	if s.opts.ReplayGrace == 0 {
		s.opts.ReplayGrace = defaultReplayGrace
	}

	seen := make(map[string]struct{}, len(s.opts.Captures))
	for _, c := range s.opts.Captures {
		if c.Device == nil {
			return nil, fmt.Errorf("capture %s has no device", c.Name)
		}
		if _, ok := seen[c.Name]; ok {
			return nil, fmt.Errorf("duplicate capture name %s", c.Name)
		}
		seen[c.Name] = struct{}{}
	}

	return s, nil
}

func (s *Scope) Stop() error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	if s.vizServer != nil {
		s.vizServer.Stop(context.TODO())
	}

	var firstErr error
	for _, c := range s.opts.Captures {
		if err := c.Device.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Start decodes every capture until its device runs out. With an image
// server configured it keeps serving plots until ctx is done.
func (s *Scope) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	if s.vizServer != nil {
		eg.Go(func() error {
			return s.vizServer.Run(ctx)
		})
	}

	eg.Go(func() error {
		capEg, capCtx := errgroup.WithContext(ctx)
		for _, c := range s.opts.Captures {
			thisCapture := c
			capEg.Go(func() error {
				return s.runCapture(capCtx, thisCapture)
			})
		}
		if err := capEg.Wait(); err != nil {
			return err
		}
		s.writeAPI.Flush()
		s.logger.Info().Int("captures", len(s.opts.Captures)).Msg("all captures finished")
		return nil
	})

	s.logger.Info().
		Str("profile", s.opts.Profile.Name).
		Int("pixels", s.opts.Pixels).
		Int("captures", len(s.opts.Captures)).
		Msg("Starting")

	return eg.Wait()
}

func (s *Scope) runCapture(ctx context.Context, c Capture) error {
	edges := make(chan pulse.Edge, edgeBufferSize)
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer close(edges)
		return c.Device.Start(ctx, edges)
	})

	eg.Go(func() error {
		// Release the device if decoding stops before it runs out.
		defer c.Device.Stop()
		return s.decodeCapture(ctx, c, edges)
	})

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("capture %s: %w", c.Name, err)
	}
	return nil
}

type capturePlots struct {
	widths    *viz.PulseWidthPlotter
	histogram *viz.HistogramPlotter
}

func (s *Scope) registerPlots(c Capture) *capturePlots {
	if s.vizServer == nil {
		return nil
	}
	timing := s.opts.Profile.Timing
	plots := &capturePlots{
		widths:    viz.NewPulseWidthPlotter("pulse_widths", pulsePlotSize, timing),
		histogram: viz.NewHistogramPlotter("pulse_histogram", histogramSize, histogramBins),
	}
	s.vizServer.Register(c.Name, plots.widths)
	s.vizServer.Register(c.Name, plots.histogram)

	if sd, ok := c.Device.(sampledDevice); ok && len(sd.Samples()) > 0 {
		samples := sd.Samples()
		if len(samples) > waveformPlotSize {
			samples = samples[:waveformPlotSize]
		}
		wf := viz.NewWaveformPlotter("waveform", waveformPlotSize, sd.SampleRate())
		wf.SetThreshold(sd.Threshold())
		wf.AppendFloat(samples)
		s.vizServer.Register(c.Name, wf)
	}
	return plots
}

func (s *Scope) decodeCapture(ctx context.Context, c Capture, edges <-chan pulse.Edge) error {
	logger := s.logger.With().Str("capture", c.Name).Logger()
	timing := s.opts.Profile.Timing

	src := trace.NewChanSource(edges, c.Device.InitialLevel())
	src.SetGrace(s.opts.ReplayGrace)

	var widths []time.Duration
	reader, err := ws2812.NewFrameReader(timing,
		pulse.WithLogger(logger),
		pulse.WithPulseObserver(func(_ int, width time.Duration, _ pulse.Bit) {
			widths = append(widths, width)
		}))
	if err != nil {
		return err
	}

	plots := s.registerPlots(c)
	resyncStep := timing.IdleReset / 4

	decoded, failed := 0, 0
	for index := 0; ; index++ {
		widths = widths[:0]

		var colors []ws2812.Color
		us, err := util.TimeOperationErr(func() error {
			var err error
			colors, err = reader.ReadFrameLatched(ctx, src, s.opts.Pixels)
			return err
		})

		if err == nil {
			decoded++
			if err := s.frameDecoded(c, plots, index, colors, widths, us, src.Position()); err != nil {
				return err
			}
			continue
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		var incomplete *pulse.IncompleteTraceError
		if errors.As(err, &incomplete) && incomplete.Clean() {
			logger.Info().Int("decoded", decoded).Int("failed", failed).Msg("capture ended")
			return nil
		}

		failed++
		s.frameFailed(c, plots, index, err, widths)
		logger.Warn().Err(err).Int("frame", index).Msg("frame failed, resyncing")

		if incomplete != nil {
			logger.Info().Int("decoded", decoded).Int("failed", failed).Msg("capture ended mid-frame")
			return nil
		}

		if err := pulse.WaitIdle(ctx, src, timing.IdleReset, resyncStep); err != nil {
			if errors.Is(err, pulse.ErrIdleNotReached) {
				logger.Info().Int("decoded", decoded).Int("failed", failed).Msg("capture ended before resync")
				return nil
			}
			return err
		}
	}
}
