package api

import (
	"fmt"
	"strconv"

	"src.guictl.dev/pkg/codec"
)

// ValueKind is the kind of a Value.
type ValueKind uint8

const (
	NoValue ValueKind = iota
	BoolValue
	NumberValue
)

// Value is the data of a scalar widget. The zero value holds nothing.
type Value struct {
	kind ValueKind
	b    bool
	f    float64
}

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: BoolValue, b: b} }

// Number returns a numeric Value.
func Number(f float64) Value { return Value{kind: NumberValue, f: f} }

func (v Value) Kind() ValueKind { return v.kind }

// IsSet returns whether v holds a value.
func (v Value) IsSet() bool { return v.kind != NoValue }

// AsBool returns the boolean held by v, and whether v is a boolean.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == BoolValue }

// AsNumber returns the number held by v, and whether v is a number.
func (v Value) AsNumber() (float64, bool) { return v.f, v.kind == NumberValue }

func (v Value) String() string {
	switch v.kind {
	case BoolValue:
		return strconv.FormatBool(v.b)
	case NumberValue:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		return "nil"
	}
}

// Interface returns v as nil, a bool or a float64.
func (v Value) Interface() any {
	switch v.kind {
	case BoolValue:
		return v.b
	case NumberValue:
		return v.f
	default:
		return nil
	}
}

// EncodeValue encodes v with the codec package.
func EncodeValue(v Value) ([]byte, error) {
	return codec.Marshal(v.Interface())
}

// DecodeValue decodes a Value encoded by EncodeValue. Any numeric encoding is
// accepted as a number.
func DecodeValue(data []byte) (Value, error) {
	raw, err := codec.Decode(data)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	switch raw := raw.(type) {
	case nil:
		return Value{}, nil
	case bool:
		return Bool(raw), nil
	}
	if f, ok := codec.ToFloat(raw); ok {
		return Number(f), nil
	}
	return Value{}, fmt.Errorf("%w: %T is not a scalar value", ErrInvalidParams, raw)
}
