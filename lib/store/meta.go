package store

import (
	"encoding/json"
	"fmt"
	"math"
)

// Reserved metadata names
const (
	MetaTTL       = "ttl"       // absolute expiration timestamp (unix seconds), 0 = never
	MetaSerialize = "serialize" // false = the value is stored as raw bytes
)

// Meta is the metadata mapping of a key.
// Besides the reserved names, arbitrary caller defined names are preserved as is.
type Meta map[string]any

// TTL returns the ttl of the metadata, 0 if unset.
func (m Meta) TTL() int64 {
	ttl, _ := ToInt64(m[MetaTTL])
	return ttl
}

// Serialize returns whether the value is stored serialized (true if unset).
func (m Meta) Serialize() bool {
	if b, ok := m[MetaSerialize].(bool); ok {
		return b
	}
	return true
}

// Expired returns whether the ttl is set and lies before now (unix seconds).
func (m Meta) Expired(now int64) bool {
	ttl := m.TTL()
	return ttl != 0 && ttl < now
}

// ValidateMeta checks that value is acceptable for the metadata entry name.
func ValidateMeta(name string, value any) error {
	switch name {
	case MetaTTL:
		if _, ok := ToInt64(value); !ok {
			return NewError(RetCInvalidOperation, fmt.Sprintf("metadata %q must be an integer, got %T", name, value))
		}
	case MetaSerialize:
		if _, ok := value.(bool); !ok {
			return NewError(RetCInvalidOperation, fmt.Sprintf("metadata %q must be a bool, got %T", name, value))
		}
	}
	return nil
}

// ToInt64 converts the integer representations produced by the supported codecs to int64.
func ToInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
