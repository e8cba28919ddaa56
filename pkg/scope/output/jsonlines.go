package output

import (
	"encoding/json"
	"io"
	"sync"
)

// JSONLinesOutput writes one JSON object per frame. Safe for concurrent use.
type JSONLinesOutput struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONLinesOutput(dest io.Writer) *JSONLinesOutput {
	return &JSONLinesOutput{enc: json.NewEncoder(dest)}
}

func (j *JSONLinesOutput) WriteFrame(f *Frame) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(f)
}
