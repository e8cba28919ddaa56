package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/norasector/ledscope/pkg/dsp/filters/fir"
	"github.com/norasector/ledscope/pkg/dsp/viz"
	"github.com/norasector/ledscope/pkg/pulse"
	"github.com/norasector/ledscope/pkg/pulse/sampled"
	"github.com/norasector/ledscope/pkg/pulse/trace"
	"github.com/norasector/ledscope/pkg/scope"
	"github.com/norasector/ledscope/pkg/scope/config"
	"github.com/norasector/ledscope/pkg/scope/device/file"
	"github.com/norasector/ledscope/pkg/scope/output"
	"github.com/norasector/ledscope/pkg/ws2812"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)
	configFile := flag.String("config", "ledscope.yaml", "YAML config file")
	generate := flag.String("generate", "", "write a synthetic capture (.edg or .csv) instead of decoding")
	colors := flag.String("colors", "000000", "frames for -generate: pixels as rrggbb separated by ',', frames separated by ';'")
	profileName := flag.String("profile", pulse.DefaultProfile, "timing profile for -generate: "+strings.Join(pulse.ProfileNames(), ", "))
	debug := flag.Bool("debug", false, "enable debug logging")

	flag.Parse()
	if *debug {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	}

	if *generate != "" {
		if err := generateCapture(*generate, *profileName, *colors); err != nil {
			log.Fatal().Err(err).Str("path", *generate).Msg("failed to generate capture")
		}
		log.Info().Str("path", *generate).Msg("capture written")
		return
	}

	opts, err := config.Load(*configFile)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configFile).Msg("error loading config")
	}
	profile, err := opts.ResolveProfile()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid timing")
	}
	if len(opts.Captures) == 0 {
		log.Fatal().Msg("no captures configured")
	}

	var vizServer *viz.Server
	if opts.VizServer.Port > 0 {
		vizServer = viz.NewServer(opts.VizServer.Port, opts.VizServer.UpdateInterval)
	}

	var captures []scope.Capture
	for _, c := range opts.Captures {
		log.Info().Str("capture", c.Name).Str("path", c.Path).Msg("initializing device...")
		window, err := fir.ParseWindowType(c.Window)
		if err != nil {
			log.Fatal().Str("capture", c.Name).Err(err).Msg("invalid window")
		}
		device, err := file.NewFileDevice(c.Path, c.Speedup, sampled.Options{
			SampleRate:    c.SampleRate,
			Threshold:     c.SliceLevel,
			Hysteresis:    c.Hysteresis,
			Invert:        c.Invert,
			AGCRate:       c.AGCRate,
			LowPassCutoff: c.LowPassCutoff,
			Window:        window,
			Name:          c.Name,
			Viz:           vizServer,
		})
		if err != nil {
			log.Fatal().Str("capture", c.Name).Err(err).Msg("failed to open capture")
		}
		captures = append(captures, scope.Capture{Name: c.Name, Device: device})
	}

	var outputs []scope.FrameOutput
	if opts.Outputs.Log {
		outputs = append(outputs, output.NewLogOutput(log.Logger))
	}
	if opts.Outputs.JSONLines != "" {
		f, err := os.Create(opts.Outputs.JSONLines)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create json output")
		}
		defer f.Close()
		outputs = append(outputs, output.NewJSONLinesOutput(f))
	}

	scopeOpts := []scope.ScopeOption{scope.WithLogger(log.Logger)}

	if opts.InfluxDB.Host != "" {
		client := influxdb2.NewClient(opts.InfluxDB.Host, opts.InfluxDB.Token)
		defer client.Close()
		var influxWriteAPI api.WriteAPI = client.WriteAPI(opts.InfluxDB.Organization, opts.InfluxDB.Bucket)
		scopeOpts = append(scopeOpts, scope.WithInfluxDB(influxWriteAPI))
	}

	if vizServer != nil {
		scopeOpts = append(scopeOpts, scope.WithImageServer(vizServer))
		log.Info().Int("port", opts.VizServer.Port).Msg("serving plots until interrupted")
	}

	sc, err := scope.NewScope(scope.Options{
		Captures: captures,
		Pixels:   opts.Pixels,
		Profile:  profile,
		Outputs:  outputs,
	}, scopeOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scope")
	}

	eg, ctx := errgroup.WithContext(context.Background())
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	eg.Go(func() error {

		select {
		case <-sigChan:
		case <-ctx.Done():
		}

		return sc.Stop()
	})

	eg.Go(func() error {
		// Decoding every capture ends the run.
		defer cancel()
		return sc.Start(ctx)
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("exited program")
	}
}

func generateCapture(path, profileName, colors string) error {
	profile, err := pulse.LookupProfile(profileName)
	if err != nil {
		return err
	}
	enc, err := pulse.NewEncoder(profile.Symbol)
	if err != nil {
		return err
	}

	tr := trace.New(pulse.Low, nil)
	start := profile.Timing.IdleReset
	for i, frame := range strings.Split(colors, ";") {
		pixels, err := ws2812.ParseColors(frame)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		var edges []pulse.Edge
		edges, start = ws2812.EncodeFrame(enc, start, pixels, profile.Timing.IdleReset+10*time.Microsecond)
		tr.Append(edges...)
	}
	tr.End = start
	return trace.Save(path, tr)
}
