package sampled

import (
	"bytes"
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
)

// LoadSamples reads a raw capture of little-endian float32 samples.
func LoadSamples(path string) ([]float32, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading samples")
	}
	if len(b)%4 != 0 {
		return nil, errors.Errorf("%s: size %d is not a multiple of 4", path, len(b))
	}
	samples := make([]float32, len(b)/4)
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, samples); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return samples, nil
}

func SaveSamples(path string, samples []float32) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, samples); err != nil {
		return errors.Wrap(err, "encoding samples")
	}
	return errors.Wrapf(os.WriteFile(path, buf.Bytes(), 0o644), "writing %s", path)
}
