package trace

import (
	"bufio"
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/norasector/ledscope/pkg/pulse"
)

const (
	FormatCSV = "csv"
	FormatEDG = "edg"
)

// FormatForPath picks a capture format from the file extension.
func FormatForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".edg":
		return FormatEDG, nil
	default:
		return "", errors.Errorf("unsupported capture extension %q", filepath.Ext(path))
	}
}

func Load(path string) (*Trace, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening capture")
	}
	defer f.Close()

	var t *Trace
	switch format {
	case FormatCSV:
		t, err = ReadCSV(f)
	default:
		var b []byte
		if b, err = io.ReadAll(f); err == nil {
			t, err = UnmarshalEDG(b)
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return t, nil
}

func Save(path string, t *Trace) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch format {
	case FormatCSV:
		if err := WriteCSV(&buf, t); err != nil {
			return err
		}
	default:
		b, err := MarshalEDG(t)
		if err != nil {
			return err
		}
		buf.Write(b)
	}

	return errors.Wrapf(os.WriteFile(path, buf.Bytes(), 0o644), "writing %s", path)
}

func parseLevel(s string) (pulse.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "low", "l", "false":
		return pulse.Low, nil
	case "1", "high", "h", "true":
		return pulse.High, nil
	}
	return pulse.Low, errors.Errorf("invalid level %q", s)
}

// ReadCSV parses "time,level" rows. Times are integer nanoseconds unless the
// header marks them as seconds ("Time [s]", as logic analyzers export them).
// Rows that do not change the level are dropped. Without an initial
// directive, a leading row at time zero sets the initial level. Other "#"
// lines are comments, except "# initial=high" before the first edge and
// "# end=<ns>".
func ReadCSV(r io.Reader) (*Trace, error) {
	t := &Trace{}
	scale := 1.0
	level := pulse.Low
	sawData := false
	haveInitial := false
	lineNo := 0

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			body := strings.TrimSpace(line[1:])
			initial := strings.HasPrefix(body, "initial")
			if initial && len(t.Edges) > 0 {
				// the initial level is fixed once edges exist
				continue
			}
			if err := t.directive(body); err != nil {
				return nil, errors.Wrapf(err, "line %d", lineNo)
			}
			if initial {
				haveInitial = true
				level = t.Initial
			}
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			return nil, errors.Errorf("line %d: want time,level", lineNo)
		}

		ts, err := parseTime(fields[0], scale)
		if err != nil {
			if !sawData {
				// header row
				lower := strings.ToLower(fields[0])
				if strings.Contains(lower, "[s]") || strings.Contains(lower, "(s)") {
					scale = float64(time.Second)
				}
				sawData = true
				continue
			}
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}
		sawData = true

		lv, err := parseLevel(fields[1])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNo)
		}

		if ts == 0 && len(t.Edges) == 0 && !haveInitial {
			haveInitial = true
			t.Initial = lv
			level = lv
			continue
		}
		if n := len(t.Edges); n > 0 && ts < t.Edges[n-1].Time {
			return nil, errors.Wrapf(pulse.ErrNonMonotonic, "line %d", lineNo)
		}
		if lv == level {
			continue
		}
		level = lv
		t.Edges = append(t.Edges, pulse.Edge{Time: ts, Level: lv})
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning csv")
	}
	return t, nil
}

func (t *Trace) directive(s string) error {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return nil
	}
	switch strings.TrimSpace(key) {
	case "initial":
		lv, err := parseLevel(value)
		if err != nil {
			return err
		}
		t.Initial = lv
	case "end":
		ns, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return errors.Wrap(err, "parsing end")
		}
		t.End = time.Duration(ns)
	}
	return nil
}

func parseTime(s string, scale float64) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if scale == 1.0 {
		if ns, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.Duration(ns), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(math.Round(f * scale)), nil
}

func WriteCSV(w io.Writer, t *Trace) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("# initial=" + strconv.Itoa(int(t.Initial)) + "\n")
	if t.End > 0 {
		bw.WriteString("# end=" + strconv.FormatInt(t.End.Nanoseconds(), 10) + "\n")
	}
	bw.WriteString("time_ns,level\n")
	for _, e := range t.Edges {
		bw.WriteString(strconv.FormatInt(e.Time.Nanoseconds(), 10))
		bw.WriteByte(',')
		bw.WriteString(strconv.Itoa(int(e.Level)))
		bw.WriteByte('\n')
	}
	return errors.Wrap(bw.Flush(), "writing csv")
}

// EDG captures are protobuf wire-format messages:
//
//	message Capture { repeated Edge edges = 1; uint64 end_ns = 14; uint32 initial = 15; }
//	message Edge    { uint64 delta_ns = 1; uint32 level = 2; }
const (
	edgFieldEdges   protowire.Number = 1
	edgFieldEnd     protowire.Number = 14
	edgFieldInitial protowire.Number = 15

	edgEdgeDelta protowire.Number = 1
	edgEdgeLevel protowire.Number = 2
)

func MarshalEDG(t *Trace) ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, edgFieldInitial, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(t.Initial))
	if t.End > 0 {
		b = protowire.AppendTag(b, edgFieldEnd, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(t.End))
	}

	var last time.Duration
	var rec []byte
	for i, e := range t.Edges {
		if e.Time < last {
			return nil, errors.Wrapf(pulse.ErrNonMonotonic, "edge %d", i)
		}
		rec = rec[:0]
		rec = protowire.AppendTag(rec, edgEdgeDelta, protowire.VarintType)
		rec = protowire.AppendVarint(rec, uint64(e.Time-last))
		rec = protowire.AppendTag(rec, edgEdgeLevel, protowire.VarintType)
		rec = protowire.AppendVarint(rec, uint64(e.Level))

		b = protowire.AppendTag(b, edgFieldEdges, protowire.BytesType)
		b = protowire.AppendBytes(b, rec)
		last = e.Time
	}
	return b, nil
}

func UnmarshalEDG(b []byte) (*Trace, error) {
	t := &Trace{}
	var last time.Duration

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, errors.Wrap(protowire.ParseError(n), "reading tag")
		}
		b = b[n:]

		switch {
		case num == edgFieldInitial && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, errors.Wrap(protowire.ParseError(n), "reading initial level")
			}
			t.Initial = pulse.Level(v & 1)
			b = b[n:]
		case num == edgFieldEnd && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, errors.Wrap(protowire.ParseError(n), "reading end")
			}
			t.End = time.Duration(v)
			b = b[n:]
		case num == edgFieldEdges && typ == protowire.BytesType:
			rec, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, errors.Wrapf(protowire.ParseError(n), "reading edge %d", len(t.Edges))
			}
			e, err := unmarshalEdge(rec, last)
			if err != nil {
				return nil, errors.Wrapf(err, "edge %d", len(t.Edges))
			}
			t.Edges = append(t.Edges, e)
			last = e.Time
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, errors.Wrapf(protowire.ParseError(n), "skipping field %d", num)
			}
			b = b[n:]
		}
	}
	return t, nil
}

func unmarshalEdge(b []byte, last time.Duration) (pulse.Edge, error) {
	e := pulse.Edge{Time: last}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return e, protowire.ParseError(n)
		}
		b = b[n:]
		if typ != protowire.VarintType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return e, protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return e, protowire.ParseError(n)
		}
		b = b[n:]
		switch num {
		case edgEdgeDelta:
			e.Time = last + time.Duration(v)
		case edgEdgeLevel:
			e.Level = pulse.Level(v & 1)
		}
	}
	return e, nil
}
