package store

import (
	"errors"
	"fmt"
)

// ErrNotDecodable is returned by Value.Decode for values that were not loaded from a store.
var ErrNotDecodable = errors.New("value was not loaded from a store and cannot be decoded")

// Value is the value of a key. It is either a structured value, which is encoded
// with the codec of the store, or a raw byte sequence, which is stored as is.
// Which of the two is used on disk is decided by the serialize option of the key,
// not by the variant passed to Set.
//
// The zero Value is a structured null.
type Value struct {
	raw  bool
	data any
	b    []byte

	// set for values loaded from a store
	unmarshal func(b []byte, v any) error
}

// Structured returns a structured value.
func Structured(v any) Value {
	return Value{data: v}
}

// Raw returns a raw byte value.
func Raw(b []byte) Value {
	return Value{raw: true, b: b}
}

// LoadedStructured returns a structured value decoded from b. unmarshal is used by Decode.
// It is meant for IStore implementations.
func LoadedStructured(data any, b []byte, unmarshal func(b []byte, v any) error) Value {
	return Value{data: data, b: b, unmarshal: unmarshal}
}

// IsRaw reports whether v is a raw byte value.
func (v Value) IsRaw() bool {
	return v.raw
}

// IsNull reports whether v is a structured null.
func (v Value) IsNull() bool {
	return !v.raw && v.data == nil
}

// Interface returns the structured value, or the bytes of a raw value.
func (v Value) Interface() any {
	if v.raw {
		return v.b
	}
	return v.data
}

// Bytes returns the byte representation used when the value is stored without serialization.
// Raw values return their bytes, strings and byte slices are converted directly,
// null is empty and everything else is formatted with fmt.
func (v Value) Bytes() []byte {
	if v.raw {
		return v.b
	}
	switch d := v.data.(type) {
	case nil:
		return []byte{}
	case []byte:
		return d
	case string:
		return []byte(d)
	default:
		return fmt.Append(nil, d)
	}
}

// String returns the value formatted for humans.
func (v Value) String() string {
	if v.raw {
		return string(v.b)
	}
	if v.data == nil {
		return "null"
	}
	return fmt.Sprint(v.data)
}

// Decode decodes a structured value loaded from a store into dst.
// Raw values are copied into dst if it is a *[]byte or *string.
func (v Value) Decode(dst any) error {
	if v.raw {
		switch d := dst.(type) {
		case *[]byte:
			*d = append([]byte(nil), v.b...)
			return nil
		case *string:
			*d = string(v.b)
			return nil
		default:
			return fmt.Errorf("cannot decode raw value into %T", dst)
		}
	}
	if v.unmarshal == nil {
		return ErrNotDecodable
	}
	return v.unmarshal(v.b, dst)
}
