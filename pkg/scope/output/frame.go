package output

import (
	"time"

	"github.com/norasector/ledscope/pkg/ws2812"
)

// Frame is one latched frame decoded from a capture. CaptureTime is the
// capture time of the last falling edge of the frame.
type Frame struct {
	Capture     string         `json:"capture"`
	Index       int            `json:"index"`
	Pixels      []ws2812.Color `json:"pixels"`
	CaptureTime time.Duration  `json:"capture_time_ns"`
	DecodedAt   time.Time      `json:"decoded_at"`
}
