package util

import (
	"sync"

	"github.com/influxdata/influxdb-client-go/api/write"
)

// MockWriteAPI stands in for an influx WriteAPI and discards everything.
type MockWriteAPI struct{}

func (m *MockWriteAPI) WriteRecord(line string) {}

func (m *MockWriteAPI) WritePoint(point *write.Point) {}

func (m *MockWriteAPI) Flush() {}

func (m *MockWriteAPI) Close() {}

// Errors returns nil; a nil channel never delivers.
func (m *MockWriteAPI) Errors() <-chan error { return nil }

// RecordingWriteAPI keeps every point written so tests can inspect them.
type RecordingWriteAPI struct {
	MockWriteAPI

	mu     sync.Mutex
	points []*write.Point
}

func (r *RecordingWriteAPI) WritePoint(point *write.Point) {
	r.mu.Lock()
	r.points = append(r.points, point)
	r.mu.Unlock()
}

// Points returns the points written so far, filtered by measurement when name is not empty.
func (r *RecordingWriteAPI) Points(name string) []*write.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ret []*write.Point
	for _, p := range r.points {
		if name == "" || p.Name() == name {
			ret = append(ret, p)
		}
	}
	return ret
}
