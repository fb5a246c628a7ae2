// Package codec implements the binary object codec used for payloads that do
// not map cleanly onto JSON, such as numeric arrays and scalar values that may
// be a boolean, a number or nil.
//
// The encoding is MessagePack. It round-trips nil, booleans, numbers,
// strings, slices (arrays and tuples) and maps.
package codec

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Marshal encodes v.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactFloats(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("codec: encode %T: %w", v, err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data into the value pointed to by v. Empty data decodes
// as nil and leaves v untouched.
func Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("codec: decode into %T: %w", v, err)
	}
	return nil
}

// Decode decodes data into a generic Go value: nil, bool, int64, uint64,
// float32, float64, string, []byte, []any or map[string]any.
func Decode(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	v, err := dec.DecodeInterface()
	if err != nil {
		return nil, fmt.Errorf("codec: decode: %w", err)
	}
	return v, nil
}

// ToFloat converts a numeric value as returned by Decode to a float64.
func ToFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}
