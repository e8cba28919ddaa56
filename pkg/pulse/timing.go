package pulse

import (
	"fmt"
	"sort"
	"time"
)

// Timing is the decode envelope for one protocol variant.
type Timing struct {
	MinPulse  time.Duration
	MaxPulse  time.Duration
	Threshold time.Duration
	IdleReset time.Duration
}

var DefaultTiming = Timing{
	MinPulse:  300 * time.Nanosecond,
	MaxPulse:  900 * time.Nanosecond,
	Threshold: 625 * time.Nanosecond,
	IdleReset: 50 * time.Microsecond,
}

func (t Timing) Validate() error {
	switch {
	case t.MinPulse < 0:
		return fmt.Errorf("%w: negative min pulse %s", ErrInvalidTiming, t.MinPulse)
	case t.Threshold <= t.MinPulse:
		return fmt.Errorf("%w: threshold %s must exceed min pulse %s", ErrInvalidTiming, t.Threshold, t.MinPulse)
	case t.MaxPulse <= t.Threshold:
		return fmt.Errorf("%w: max pulse %s must exceed threshold %s", ErrInvalidTiming, t.MaxPulse, t.Threshold)
	case t.IdleReset <= 0:
		return fmt.Errorf("%w: idle reset must be positive", ErrInvalidTiming)
	}
	return nil
}

// Classify returns the bit for a pulse of width d. ok is false when d falls
// outside the envelope.
func (t Timing) Classify(d time.Duration) (b Bit, ok bool) {
	if d <= t.MinPulse || d >= t.MaxPulse {
		return 0, false
	}
	if d > t.Threshold {
		return 1, true
	}
	return 0, true
}

// Symbol holds the nominal high times used when generating a waveform.
type Symbol struct {
	T0H    time.Duration
	T1H    time.Duration
	Period time.Duration
}

var DefaultSymbol = Symbol{
	T0H:    400 * time.Nanosecond,
	T1H:    850 * time.Nanosecond,
	Period: 1250 * time.Nanosecond,
}

func (s Symbol) Validate() error {
	if s.T0H <= 0 || s.T1H <= s.T0H || s.Period <= s.T1H {
		return fmt.Errorf("%w: symbol widths must satisfy 0 < T0H < T1H < period (got %s, %s, %s)",
			ErrInvalidTiming, s.T0H, s.T1H, s.Period)
	}
	return nil
}

// Profile pairs decode timing with the nominal symbol widths of an LED family.
type Profile struct {
	Name   string
	Timing Timing
	Symbol Symbol
}

const DefaultProfile = "ws2812b"

var Profiles = map[string]Profile{
	"ws2812b": {
		Name:   "ws2812b",
		Timing: DefaultTiming,
		Symbol: DefaultSymbol,
	},
	"ws2812": {
		Name: "ws2812",
		Timing: Timing{
			MinPulse:  200 * time.Nanosecond,
			MaxPulse:  1000 * time.Nanosecond,
			Threshold: 525 * time.Nanosecond,
			IdleReset: 50 * time.Microsecond,
		},
		Symbol: Symbol{T0H: 350 * time.Nanosecond, T1H: 700 * time.Nanosecond, Period: 1250 * time.Nanosecond},
	},
	"sk6812": {
		Name: "sk6812",
		Timing: Timing{
			MinPulse:  150 * time.Nanosecond,
			MaxPulse:  900 * time.Nanosecond,
			Threshold: 450 * time.Nanosecond,
			IdleReset: 80 * time.Microsecond,
		},
		Symbol: Symbol{T0H: 300 * time.Nanosecond, T1H: 600 * time.Nanosecond, Period: 1250 * time.Nanosecond},
	},
}

func LookupProfile(name string) (Profile, error) {
	if name == "" {
		name = DefaultProfile
	}
	p, ok := Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q (known: %v)", name, ProfileNames())
	}
	return p, nil
}

func ProfileNames() []string {
	ret := make([]string, 0, len(Profiles))
	for name := range Profiles {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}
