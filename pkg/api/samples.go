package api

import (
	"fmt"

	"src.guictl.dev/pkg/codec"
)

// Samples is the data of a curve. It has either one row (y values, plotted
// against their indices) or two rows (x values and y values). An empty
// Samples clears the curve.
type Samples [][]float64

// Y returns Samples with only y values.
func Y(y ...float64) Samples { return Samples{y} }

// XY returns Samples with x and y values.
func XY(x, y []float64) Samples { return Samples{x, y} }

// Validate checks that s has zero, one or two rows, and that two rows have the
// same length.
func (s Samples) Validate() error {
	switch len(s) {
	case 0, 1:
		return nil
	case 2:
		if len(s[0]) != len(s[1]) {
			return fmt.Errorf("%w: x has %d samples but y has %d",
				ErrInvalidParams, len(s[0]), len(s[1]))
		}
		return nil
	default:
		return fmt.Errorf("%w: curve data must have 1 or 2 rows, got %d",
			ErrInvalidParams, len(s))
	}
}

// Split returns the x and y rows. x is nil for one-row Samples.
func (s Samples) Split() (x, y []float64) {
	switch len(s) {
	case 1:
		return nil, s[0]
	case 2:
		return s[0], s[1]
	}
	return nil, nil
}

// Len returns the number of samples.
func (s Samples) Len() int {
	_, y := s.Split()
	return len(y)
}

// EncodeSamples encodes s with the codec package.
func EncodeSamples(s Samples) ([]byte, error) {
	return codec.Marshal([][]float64(s))
}

// DecodeSamples decodes and validates Samples encoded by EncodeSamples.
func DecodeSamples(data []byte) (Samples, error) {
	var rows [][]float64
	if err := codec.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	s := Samples(rows)
	return s, s.Validate()
}

// EncodeErrors encodes error bar lengths. A nil slice encodes to nil.
func EncodeErrors(e []float64) ([]byte, error) {
	if e == nil {
		return nil, nil
	}
	return codec.Marshal(e)
}

// DecodeErrors decodes error bar lengths encoded by EncodeErrors.
func DecodeErrors(data []byte) ([]float64, error) {
	var e []float64
	if err := codec.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return e, nil
}
