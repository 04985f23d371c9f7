package codec

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"reflect"
)

func init() {
	// containers produced by decoding into interface values
	gob.Register(map[string]any{})
	gob.Register([]any{})
}

// NewGOBCodec creates a new codec using Go's binary gob format.
// Values of named types must be registered with gob.Register before they are stored.
func NewGOBCodec() ICodec {
	return &gobCodecImpl{}
}

// gobCodecImpl implements the ICodec interface using gob encoding
type gobCodecImpl struct {
}

// gobEnvelope carries the value as an interface so any registered type can be decoded into an any
type gobEnvelope struct {
	V any
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.ICodec)
// --------------------------------------------------------------------------

func (g gobCodecImpl) Name() string {
	return "gob"
}

func (g gobCodecImpl) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(&gobEnvelope{V: v}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g gobCodecImpl) Unmarshal(b []byte, v any) error {
	var env gobEnvelope
	dec := gob.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&env); err != nil {
		return err
	}

	dst := reflect.ValueOf(v)
	if dst.Kind() != reflect.Pointer || dst.IsNil() {
		return fmt.Errorf("gob: unmarshal destination must be a non-nil pointer, got %T", v)
	}
	elem := dst.Elem()

	if env.V == nil {
		elem.Set(reflect.Zero(elem.Type()))
		return nil
	}

	src := reflect.ValueOf(env.V)
	switch {
	case src.Type().AssignableTo(elem.Type()):
		elem.Set(src)
	case src.Kind() == reflect.Map && elem.Kind() == reflect.Map && src.Type().Key().AssignableTo(elem.Type().Key()):
		// e.g. map[string]any into a named map type
		out := reflect.MakeMapWithSize(elem.Type(), src.Len())
		iter := src.MapRange()
		for iter.Next() {
			val := iter.Value()
			if !val.Type().AssignableTo(elem.Type().Elem()) {
				return fmt.Errorf("gob: cannot assign map value %s to %s", val.Type(), elem.Type().Elem())
			}
			out.SetMapIndex(iter.Key(), val)
		}
		elem.Set(out)
	case src.Type().ConvertibleTo(elem.Type()) && src.Kind() == elem.Kind():
		elem.Set(src.Convert(elem.Type()))
	default:
		return fmt.Errorf("gob: cannot decode %s into %s", src.Type(), elem.Type())
	}
	return nil
}
