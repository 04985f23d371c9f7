package codec

import (
	"reflect"
	"testing"
)

// testCodecs is a map of codec name to factory function
var testCodecs = map[string]func() ICodec{
	"JSON": NewJSONCodec,
	"GOB":  NewGOBCodec,
}

// testMetadata creates a set of metadata mappings as they are written by the store
func testMetadata() []map[string]any {
	return []map[string]any{
		// Empty mapping
		{},

		// Only a ttl
		{"ttl": int64(0)},

		// ttl and serialize flag
		{"ttl": int64(1700000000), "serialize": false},

		// Caller defined options
		{"ttl": int64(42), "owner": "alice", "flag": true},

		// Integers beyond the exact range of float64
		{"ttl": int64(1<<60 + 1), "count": int64(-(1<<60 + 3))},
	}
}

// TestMetadataRoundTrip tests that metadata mappings survive an encode/decode cycle
func TestMetadataRoundTrip(t *testing.T) {
	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			c := factory()

			for i, meta := range testMetadata() {
				data, err := c.Marshal(meta)
				if err != nil {
					t.Errorf("Failed to marshal mapping %d: %v", i, err)
					continue
				}

				var result map[string]any
				if err := c.Unmarshal(data, &result); err != nil {
					t.Errorf("Failed to unmarshal mapping %d: %v", i, err)
					continue
				}

				if len(result) != len(meta) {
					t.Errorf("Mapping %d has %d entries after round trip, expected %d", i, len(result), len(meta))
				}
				for k, v := range meta {
					got := result[k]
					if !reflect.DeepEqual(v, got) {
						t.Errorf("Mapping %d entry %q: expected %#v, got %#v", i, k, v, got)
					}
				}
			}
		})
	}
}

// TestStructuredValues tests plain values decoded into an interface and into a typed destination
func TestStructuredValues(t *testing.T) {
	values := []any{nil, "v1", true, []any{"a", "b"}, map[string]any{"k": "v"}}

	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			c := factory()

			for _, v := range values {
				data, err := c.Marshal(v)
				if err != nil {
					t.Fatalf("Failed to marshal %#v: %v", v, err)
				}
				var result any
				if err := c.Unmarshal(data, &result); err != nil {
					t.Fatalf("Failed to unmarshal %#v: %v", v, err)
				}
				if !reflect.DeepEqual(v, result) {
					t.Errorf("Expected %#v, got %#v", v, result)
				}
			}

			data, err := c.Marshal("typed")
			if err != nil {
				t.Fatalf("Failed to marshal: %v", err)
			}
			var s string
			if err := c.Unmarshal(data, &s); err != nil {
				t.Fatalf("Failed to unmarshal into string: %v", err)
			}
			if s != "typed" {
				t.Errorf("Expected typed, got %s", s)
			}
		})
	}
}

// TestNumbers tests that integers keep their exact value and fractions stay float64
func TestNumbers(t *testing.T) {
	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			c := factory()

			values := []any{int64(5), int64(1<<60 + 1), 2.5, []any{int64(1), 1.5}, map[string]any{"n": int64(7)}}
			for _, v := range values {
				data, err := c.Marshal(v)
				if err != nil {
					t.Fatalf("Failed to marshal %#v: %v", v, err)
				}
				var result any
				if err := c.Unmarshal(data, &result); err != nil {
					t.Fatalf("Failed to unmarshal %#v: %v", v, err)
				}
				if !reflect.DeepEqual(v, result) {
					t.Errorf("Expected %#v, got %#v", v, result)
				}
			}
		})
	}

	var n int
	if err := NewJSONCodec().Unmarshal([]byte("12"), &n); err != nil || n != 12 {
		t.Errorf("Expected 12, got %d (%v)", n, err)
	}
	var result any
	if err := NewJSONCodec().Unmarshal([]byte("1 2"), &result); err == nil {
		t.Errorf("Expected an error for trailing data, got %#v", result)
	}
}

// TestCorruptInput tests that garbage input is reported as an error
func TestCorruptInput(t *testing.T) {
	for name, factory := range testCodecs {
		t.Run(name, func(t *testing.T) {
			var result any
			if err := factory().Unmarshal([]byte("not encoded{"), &result); err == nil {
				t.Errorf("Expected an error for corrupt input, got %#v", result)
			}
		})
	}
}

func TestByName(t *testing.T) {
	for _, name := range Names {
		c, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%s) failed: %v", name, err)
		}
		if c.Name() != name {
			t.Errorf("Expected codec %s, got %s", name, c.Name())
		}
	}
	if _, err := ByName("php"); err == nil {
		t.Errorf("Expected an error for unknown codec")
	}
}
