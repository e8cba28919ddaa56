package output

import (
	"strings"

	"github.com/rs/zerolog"
)

// LogOutput writes each frame as a structured log line.
type LogOutput struct {
	logger zerolog.Logger
}

func NewLogOutput(logger zerolog.Logger) *LogOutput {
	return &LogOutput{logger: logger}
}

func (l *LogOutput) WriteFrame(f *Frame) error {
	colors := make([]string, len(f.Pixels))
	for i, c := range f.Pixels {
		colors[i] = c.String()
	}
	l.logger.Info().
		Str("capture", f.Capture).
		Int("frame", f.Index).
		Dur("capture_time", f.CaptureTime).
		Str("pixels", strings.Join(colors, ",")).
		Msg("frame decoded")
	return nil
}
