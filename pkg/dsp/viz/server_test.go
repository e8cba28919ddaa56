package viz

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/norasector/ledscope/pkg/pulse"
)

var pngMagic = []byte("\x89PNG")

func testWidths() []time.Duration {
	return []time.Duration{400, 410, 390, 850, 860, 845, 405}
}

func TestPlottersRender(t *testing.T) {
	pw := NewPulseWidthPlotter("widths", 64, pulse.DefaultTiming)
	assert.Nil(t, pw.GetImage())
	pw.Append(testWidths()...)
	img := pw.GetImage()
	require.NotNil(t, img)
	assert.True(t, bytes.HasPrefix(img.Data(), pngMagic))

	h := NewHistogramPlotter("histogram", 64, 16)
	h.Append(testWidths()...)
	img = h.GetImage()
	require.NotNil(t, img)
	assert.True(t, bytes.HasPrefix(img.Data(), pngMagic))
}

func TestWaveformPlotter(t *testing.T) {
	w := NewWaveformPlotter("waveform", 4, 100e6)
	assert.Nil(t, w.GetImage())
	w.SetThreshold(0.5)
	w.AppendFloat([]float32{0, 0, 1, 1, 1, 0})
	assert.Equal(t, []float32{1, 1, 1, 0}, w.samples)

	w.SetPlotType(PlotTypeScatter)
	img := w.GetImage()
	require.NotNil(t, img)
	assert.Equal(t, "waveform", img.Name())
	assert.True(t, bytes.HasPrefix(img.Data(), pngMagic))
}

func TestPlotterWindow(t *testing.T) {
	pw := NewPulseWidthPlotter("widths", 3, pulse.DefaultTiming)
	pw.Append(testWidths()...)
	assert.Equal(t, []float64{860, 845, 405}, pw.widths)
}

func TestServerRoutes(t *testing.T) {
	s := NewServer(0, 10*time.Millisecond)
	pw := NewPulseWidthPlotter("widths", 64, pulse.DefaultTiming)
	pw.Append(testWidths()...)
	s.Register("capture-a", pw)
	s.refresh(true)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}

	resp, err := client.Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/view/capture-a", resp.Header.Get("Location"))

	resp, err = client.Get(srv.URL + "/view/capture-a")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(srv.URL + "/img/capture-a/widths")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp, err = client.Get(srv.URL + "/view/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
