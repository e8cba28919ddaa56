package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/norasector/ledscope/pkg/pulse"
)

type Config struct {
	Profile   string        `yaml:"profile"`
	Timing    TimingConfig  `yaml:"timing"`
	Pixels    int           `yaml:"pixels"`
	Captures  []Capture     `yaml:"captures"`
	Outputs   OutputsConfig `yaml:"outputs"`
	VizServer struct {
		Port           int           `yaml:"port"`
		UpdateInterval time.Duration `yaml:"update_interval"`
	} `yaml:"viz_server"`
	InfluxDB struct {
		Host         string `yaml:"host"`
		Token        string `yaml:"token"`
		Organization string `yaml:"organization"`
		Bucket       string `yaml:"bucket"`
	} `yaml:"influxdb"`
}

// TimingConfig overrides individual fields of the selected profile.
type TimingConfig struct {
	MinPulse  time.Duration `yaml:"min_pulse"`
	MaxPulse  time.Duration `yaml:"max_pulse"`
	Threshold time.Duration `yaml:"threshold"`
	IdleReset time.Duration `yaml:"idle_reset"`
	T0H       time.Duration `yaml:"t0h"`
	T1H       time.Duration `yaml:"t1h"`
	Period    time.Duration `yaml:"period"`
}

type OutputsConfig struct {
	Log       bool   `yaml:"log"`
	JSONLines string `yaml:"json_lines"`
}

type Capture struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
	// Speedup paces replay relative to capture time; 0 replays as fast as possible.
	Speedup float64 `yaml:"speedup"`

	// Only used for sampled (.f32) captures.
	SampleRate    int     `yaml:"sample_rate"`
	SliceLevel    float32 `yaml:"slice_level"`
	Hysteresis    float32 `yaml:"hysteresis"`
	Invert        bool    `yaml:"invert"`
	AGCRate       float64 `yaml:"agc_rate"`
	LowPassCutoff float64 `yaml:"lowpass_cutoff"`
	Window        string  `yaml:"window"`
}

const DefaultPixels = 1

func Load(path string) (*Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return Parse(contents)
}

func Parse(contents []byte) (*Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(contents, &c); err != nil {
		return nil, fmt.Errorf("error unmarshaling yaml: %w", err)
	}
	if c.Pixels == 0 {
		c.Pixels = DefaultPixels
	}
	if c.Pixels < 0 {
		return nil, fmt.Errorf("pixels must be positive, got %d", c.Pixels)
	}
	for i := range c.Captures {
		capture := &c.Captures[i]
		if capture.Path == "" {
			return nil, fmt.Errorf("capture %d: path is required", i)
		}
		if capture.Name == "" {
			capture.Name = fmt.Sprintf("capture-%d", i)
		}
		if capture.Speedup < 0 {
			return nil, fmt.Errorf("capture %s: speedup must not be negative", capture.Name)
		}
	}
	return &c, nil
}

// ResolveProfile applies timing overrides to the named profile and validates the result.
func (c *Config) ResolveProfile() (pulse.Profile, error) {
	p, err := pulse.LookupProfile(c.Profile)
	if err != nil {
		return p, err
	}

	override := func(dst *time.Duration, v time.Duration) {
		if v != 0 {
			*dst = v
		}
	}
	override(&p.Timing.MinPulse, c.Timing.MinPulse)
	override(&p.Timing.MaxPulse, c.Timing.MaxPulse)
	override(&p.Timing.Threshold, c.Timing.Threshold)
	override(&p.Timing.IdleReset, c.Timing.IdleReset)
	override(&p.Symbol.T0H, c.Timing.T0H)
	override(&p.Symbol.T1H, c.Timing.T1H)
	override(&p.Symbol.Period, c.Timing.Period)

	if err := p.Timing.Validate(); err != nil {
		return p, err
	}
	if err := p.Symbol.Validate(); err != nil {
		return p, err
	}
	return p, nil
}
