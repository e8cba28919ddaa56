package pulse

import (
	"fmt"
	"time"
)

// Encoder generates the edges of a pulse train, one rising and one falling
// edge per bit.
type Encoder struct {
	sym Symbol
}

func NewEncoder(sym Symbol) (*Encoder, error) {
	if err := sym.Validate(); err != nil {
		return nil, err
	}
	return &Encoder{sym: sym}, nil
}

func (e *Encoder) Symbol() Symbol {
	return e.sym
}

// EncodeBits returns the edges for bits, the first rising edge at start, and
// the time at which the next bit period would begin.
func (e *Encoder) EncodeBits(start time.Duration, bits []Bit) ([]Edge, time.Duration) {
	edges := make([]Edge, 0, 2*len(bits))
	t := start
	for _, b := range bits {
		width := e.sym.T0H
		if b != 0 {
			width = e.sym.T1H
		}
		edges = append(edges, Edge{Time: t, Level: High}, Edge{Time: t + width, Level: Low})
		t += e.sym.Period
	}
	return edges, t
}

func (e *Encoder) EncodeBytes(start time.Duration, data []byte) ([]Edge, time.Duration) {
	return e.EncodeBits(start, BytesToBits(data))
}

// BytesToBits expands data MSB first.
func BytesToBits(data []byte) []Bit {
	bits := make([]Bit, 0, 8*len(data))
	for _, v := range data {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (v>>uint(i))&1)
		}
	}
	return bits
}

// BitsToBytes packs MSB first bits into bytes.
func BitsToBytes(bits []Bit) ([]byte, error) {
	if len(bits)%8 != 0 {
		return nil, fmt.Errorf("%w: got %d bits", ErrBitCount, len(bits))
	}
	ret := make([]byte, len(bits)/8)
	for i, b := range bits {
		ret[i/8] = ret[i/8]<<1 | (b & 1)
	}
	return ret, nil
}
