package trace

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/norasector/ledscope/pkg/pulse"
)

func sampleTrace() *Trace {
	return &Trace{
		Initial: pulse.Low,
		Edges: []pulse.Edge{
			{Time: 1000, Level: pulse.High},
			{Time: 1400, Level: pulse.Low},
			{Time: 2250, Level: pulse.High},
			{Time: 3100, Level: pulse.Low},
		},
		End: 60 * time.Microsecond,
	}
}

func TestSaveLoad(t *testing.T) {
	for _, ext := range []string{".csv", ".edg"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "capture"+ext)
			want := sampleTrace()
			require.NoError(t, Save(path, want))

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadUnknownExtension(t *testing.T) {
	_, err := Load("capture.vcd")
	assert.Error(t, err)
}

func TestReadCSVLogicAnalyzerExport(t *testing.T) {
	export := `Time [s],Channel 0
0.000000000,0
0.000001000,1
0.000001400,0
0.000002250,1
0.000002250,1
0.000003100,0
`
	got, err := ReadCSV(strings.NewReader(export))
	require.NoError(t, err)

	want := sampleTrace()
	want.End = 0
	assert.Equal(t, want, got)
}

func TestReadCSVInitialHigh(t *testing.T) {
	got, err := ReadCSV(strings.NewReader("time_ns,level\n0,high\n500,low\n"))
	require.NoError(t, err)
	assert.Equal(t, pulse.High, got.Initial)
	assert.Equal(t, []pulse.Edge{{Time: 500, Level: pulse.Low}}, got.Edges)
}

func TestReadCSVCommentsBetweenRows(t *testing.T) {
	input := `time_ns,level
1000,1
# marker
1400,0
# initial=high
2250,1
# end=5000
3100,0
`
	got, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	want := sampleTrace()
	want.End = 5000
	assert.Equal(t, want, got)
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad level", "100,2\n"},
		{"missing column", "time_ns,level\n100\n"},
		{"bad time after data", "100,1\nabc,0\n"},
		{"backwards", "100,1\n50,0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestMarshalEDGRejectsBackwards(t *testing.T) {
	_, err := MarshalEDG(&Trace{Edges: []pulse.Edge{{Time: 10, Level: pulse.High}, {Time: 5, Level: pulse.Low}}})
	assert.True(t, errors.Is(err, pulse.ErrNonMonotonic))
}

func TestUnmarshalEDGTruncated(t *testing.T) {
	b, err := MarshalEDG(sampleTrace())
	require.NoError(t, err)
	_, err = UnmarshalEDG(b[:len(b)-2])
	assert.Error(t, err)
}
