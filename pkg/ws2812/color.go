// Package ws2812 reads and writes pixel frames of the WS2812 family of
// addressable LEDs: 24 bits per pixel, green-red-blue, MSB first, frames
// separated by a low latch period.
package ws2812

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/norasector/ledscope/pkg/pulse"
)

const BitsPerPixel = 24

type Color struct {
	R, G, B uint8
}

// Bits returns the wire representation of c.
func (c Color) Bits() []pulse.Bit {
	return pulse.BytesToBits([]byte{c.G, c.R, c.B})
}

func DecodeColor(bits []pulse.Bit) (Color, error) {
	if len(bits) != BitsPerPixel {
		return Color{}, fmt.Errorf("pixel needs %d bits, got %d", BitsPerPixel, len(bits))
	}
	b, err := pulse.BitsToBytes(bits)
	if err != nil {
		return Color{}, err
	}
	return Color{G: b[0], R: b[1], B: b[2]}, nil
}

// String formats c as rrggbb.
func (c Color) String() string {
	return hex.EncodeToString([]byte{c.R, c.G, c.B})
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor accepts rrggbb with an optional leading '#'.
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("color %q: want 6 hex digits", s)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return Color{R: b[0], G: b[1], B: b[2]}, nil
}

// ParseColors parses a comma separated list.
func ParseColors(s string) ([]Color, error) {
	var ret []Color
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := ParseColor(part)
		if err != nil {
			return nil, err
		}
		ret = append(ret, c)
	}
	return ret, nil
}
