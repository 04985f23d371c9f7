package codec

import "fmt"

// ICodec is the interface for all structured value encodings.
type ICodec interface {
	// Name returns the name the codec is selected by (and recorded on disk with).
	Name() string
	// Marshal encodes v into a byte array
	// It returns the encoded byte array and an error if any
	Marshal(v any) ([]byte, error)
	// Unmarshal decodes a byte array into v
	// It takes a byte array and a pointer to the destination as parameters
	// It returns an error if any
	Unmarshal(b []byte, v any) error
}

// Names lists the names accepted by ByName.
var Names = []string{"json", "gob"}

// ByName returns the codec registered under name.
func ByName(name string) (ICodec, error) {
	switch name {
	case "json":
		return NewJSONCodec(), nil
	case "gob":
		return NewGOBCodec(), nil
	default:
		return nil, fmt.Errorf("invalid codec %s (expected one of %v)", name, Names)
	}
}
