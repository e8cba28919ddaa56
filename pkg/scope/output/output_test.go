package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/norasector/ledscope/pkg/ws2812"
)

func testFrame() *Frame {
	return &Frame{
		Capture:     "bench",
		Index:       2,
		Pixels:      []ws2812.Color{{R: 255}, {G: 0x10, B: 0x20}},
		CaptureTime: 90 * time.Microsecond,
		DecodedAt:   time.Date(2022, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestJSONLinesOutput(t *testing.T) {
	var buf bytes.Buffer
	out := NewJSONLinesOutput(&buf)
	require.NoError(t, out.WriteFrame(testFrame()))
	require.NoError(t, out.WriteFrame(testFrame()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, "bench", got["capture"])
	assert.Equal(t, float64(2), got["index"])
	assert.Equal(t, []interface{}{"ff0000", "001020"}, got["pixels"])
	assert.Equal(t, float64(90000), got["capture_time_ns"])
}

func TestLogOutput(t *testing.T) {
	var buf bytes.Buffer
	out := NewLogOutput(zerolog.New(&buf))
	require.NoError(t, out.WriteFrame(testFrame()))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "frame decoded", got["message"])
	assert.Equal(t, "ff0000,001020", got["pixels"])
	assert.Equal(t, float64(2), got["frame"])
}
