package testing

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/fKV/lib/store"
)

// StoreFactory is a function that creates a new, empty instance of an IStore implementation
type StoreFactory func(t testing.TB) store.IStore

// RunStoreTests runs a comprehensive test suite for an IStore implementation.
func RunStoreTests(t *testing.T, name string, factory StoreFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory(t))
		})

		t.Run("Has", func(t *testing.T) {
			testHas(t, factory(t))
		})

		t.Run("Expire", func(t *testing.T) {
			testExpire(t, factory(t))
		})

		t.Run("Touch", func(t *testing.T) {
			testTouch(t, factory(t))
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory(t))
		})

		t.Run("Meta", func(t *testing.T) {
			testMeta(t, factory(t))
		})

		t.Run("RawValues", func(t *testing.T) {
			testRawValues(t, factory(t))
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory(t))
		})

		t.Run("Index", func(t *testing.T) {
			testIndex(t, factory(t))
		})

		t.Run("ConcurrentWriters", func(t *testing.T) {
			testConcurrentWriters(t, factory(t))
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory(t))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// past returns a ttl that already expired
func past() int64 {
	return time.Now().Add(-time.Minute).Unix()
}

// future returns a ttl that will not expire during the test
func future() int64 {
	return time.Now().Add(time.Hour).Unix()
}

func mustSet(t testing.TB, s store.IStore, key string, value store.Value, ttl int64) {
	t.Helper()
	if err := s.Set(key, value, ttl); err != nil {
		t.Fatalf("Unexpected error during Set(%s): %v", key, err)
	}
}

// getString returns the structured string value of key
func getString(t testing.TB, s store.IStore, key string) (string, bool) {
	t.Helper()
	val, ok, err := s.Get(key)
	if err != nil {
		t.Fatalf("Unexpected error during Get(%s): %v", key, err)
	}
	if !ok {
		return "", false
	}
	str, isStr := val.Interface().(string)
	if !isStr {
		t.Fatalf("Expected a string value for %s, got %#v", key, val.Interface())
	}
	return str, true
}

func mustHas(t testing.TB, s store.IStore, key string) bool {
	t.Helper()
	ok, err := s.Has(key)
	if err != nil {
		t.Fatalf("Unexpected error during Has(%s): %v", key, err)
	}
	return ok
}

func mustMeta(t testing.TB, s store.IStore, key, name string) (any, bool) {
	t.Helper()
	v, ok, err := s.Meta(key, name)
	if err != nil {
		t.Fatalf("Unexpected error during Meta(%s, %s): %v", key, name, err)
	}
	return v, ok
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, s store.IStore) {
	testKey := "test-key"

	mustSet(t, s, testKey, store.Structured("test-value1"), 0)
	if result, ok := getString(t, s, testKey); !ok || result != "test-value1" {
		t.Errorf("Expected value test-value1, got %q (found=%v)", result, ok)
	}

	mustSet(t, s, testKey, store.Structured("test-value2"), 0)
	if result, ok := getString(t, s, testKey); !ok || result != "test-value2" {
		t.Errorf("Expected value test-value2, got %q (found=%v)", result, ok)
	}

	if _, ok := getString(t, s, "nonexistent-key"); ok {
		t.Errorf("Expected nonexistent key to return found=false")
	}

	structured := map[string]any{"name": "alice", "admin": true, "tags": []any{"a", "b"}}
	mustSet(t, s, "structured", store.Structured(structured), 0)
	val, ok, err := s.Get("structured")
	if err != nil || !ok {
		t.Fatalf("Expected structured value to be found, err=%v", err)
	}
	m, isMap := val.Interface().(map[string]any)
	if !isMap || m["name"] != "alice" || m["admin"] != true {
		t.Errorf("Structured value mismatch: %#v", val.Interface())
	}

	// the ttl defaults to 0 (never expires)
	if ttl, ok := mustMeta(t, s, testKey, store.MetaTTL); !ok || ttl != int64(0) {
		t.Errorf("Expected ttl 0 after Set, got %#v (found=%v)", ttl, ok)
	}
}

func testHas(t *testing.T, s store.IStore) {
	if mustHas(t, s, "never-written") {
		t.Errorf("Key that was never written should not exist")
	}

	mustSet(t, s, "has-key", store.Structured("v"), 0)
	if !mustHas(t, s, "has-key") {
		t.Errorf("Key should exist after Set")
	}

	mustSet(t, s, "future-key", store.Structured("v"), future())
	if !mustHas(t, s, "future-key") {
		t.Errorf("Key with a future ttl should exist")
	}

	// a null value is still present
	mustSet(t, s, "null-key", store.Value{}, 0)
	if !mustHas(t, s, "null-key") {
		t.Errorf("Key with a null value should exist")
	}
}

func testExpire(t *testing.T, s store.IStore) {
	testKey := "expiring-key"

	mustSet(t, s, testKey, store.Structured("expiring-value"), past())

	if _, ok := getString(t, s, testKey); ok {
		t.Errorf("Expired key should not be returned by Get")
	}
	if mustHas(t, s, testKey) {
		t.Errorf("Expired key should not be reported by Has")
	}
	if _, ok := mustMeta(t, s, testKey, store.MetaTTL); ok {
		t.Errorf("Expired key should have no readable metadata")
	}

	// Set on an expired key starts a fresh record (custom metadata is dropped)
	if err := s.SetMeta("reset-key", "owner", "alice"); err != nil {
		t.Fatalf("Unexpected error during SetMeta: %v", err)
	}
	if err := s.Touch("reset-key", past()); err != nil {
		t.Fatalf("Unexpected error during Touch: %v", err)
	}
	if err := s.SetMeta("reset-key", "owner", "bob"); err != nil {
		t.Fatalf("Unexpected error during SetMeta: %v", err)
	}
	mustSet(t, s, "reset-key", store.Structured("v"), past())
	mustSet(t, s, "reset-key", store.Structured("fresh"), 0)
	if _, ok := mustMeta(t, s, "reset-key", "owner"); ok {
		t.Errorf("Set on an expired key should drop custom metadata")
	}
	if result, ok := getString(t, s, "reset-key"); !ok || result != "fresh" {
		t.Errorf("Expected fresh value, got %q (found=%v)", result, ok)
	}
}

func testTouch(t *testing.T, s store.IStore) {
	// touching a missing key does not create it
	if err := s.Touch("touch-missing", 0); err != nil {
		t.Fatalf("Unexpected error during Touch: %v", err)
	}
	if mustHas(t, s, "touch-missing") {
		t.Errorf("Touch should not create a key")
	}

	testKey := "touch-key"
	mustSet(t, s, testKey, store.Structured("value"), 0)
	if err := s.SetMeta(testKey, "x", "custom"); err != nil {
		t.Fatalf("Unexpected error during SetMeta: %v", err)
	}

	ttl := future()
	if err := s.Touch(testKey, ttl); err != nil {
		t.Fatalf("Unexpected error during Touch: %v", err)
	}
	if got, ok := mustMeta(t, s, testKey, store.MetaTTL); !ok || got != ttl {
		t.Errorf("Expected ttl %d after Touch, got %#v", ttl, got)
	}
	if _, ok := mustMeta(t, s, testKey, "x"); ok {
		t.Errorf("Touch should discard all other metadata")
	}
	if result, ok := getString(t, s, testKey); !ok || result != "value" {
		t.Errorf("Touch should keep the value, got %q (found=%v)", result, ok)
	}

	// touching into the past expires the key
	if err := s.Touch(testKey, past()); err != nil {
		t.Fatalf("Unexpected error during Touch: %v", err)
	}
	if mustHas(t, s, testKey) {
		t.Errorf("Key should be expired after Touch with a past ttl")
	}

	// touching an expired key revives it
	if err := s.Touch(testKey, 0); err != nil {
		t.Fatalf("Unexpected error during Touch: %v", err)
	}
	if result, ok := getString(t, s, testKey); !ok || result != "value" {
		t.Errorf("Expected revived value, got %q (found=%v)", result, ok)
	}
}

func testDelete(t *testing.T, s store.IStore) {
	if err := s.Delete("never-created"); err != nil {
		t.Errorf("Delete of a missing key should be a no-op, got %v", err)
	}

	testKey := "delete-key"
	mustSet(t, s, testKey, store.Structured("value"), 0)
	if err := s.Delete(testKey); err != nil {
		t.Fatalf("Unexpected error during Delete: %v", err)
	}
	if _, ok := getString(t, s, testKey); ok {
		t.Errorf("Key should not be found after Delete")
	}
	if mustHas(t, s, testKey) {
		t.Errorf("Key should not exist after Delete")
	}
	if err := s.Delete(testKey); err != nil {
		t.Errorf("Second Delete should be a no-op, got %v", err)
	}

	// expired keys can be deleted as well
	mustSet(t, s, testKey, store.Structured("value"), past())
	if err := s.Delete(testKey); err != nil {
		t.Fatalf("Unexpected error during Delete of expired key: %v", err)
	}

	// and recreated afterward
	mustSet(t, s, testKey, store.Structured("again"), 0)
	if result, ok := getString(t, s, testKey); !ok || result != "again" {
		t.Errorf("Expected value again, got %q (found=%v)", result, ok)
	}
}

func testMeta(t *testing.T, s store.IStore) {
	// the getter does not create keys
	if _, ok := mustMeta(t, s, "meta-missing", "flag"); ok {
		t.Errorf("Meta on a missing key should not be found")
	}
	if mustHas(t, s, "meta-missing") {
		t.Errorf("Meta getter should not create a key")
	}

	testKey := "meta-key"
	mustSet(t, s, testKey, store.Structured("value"), 0)
	if err := s.SetMeta(testKey, "flag", true); err != nil {
		t.Fatalf("Unexpected error during SetMeta: %v", err)
	}
	if v, ok := mustMeta(t, s, testKey, "flag"); !ok || v != true {
		t.Errorf("Expected flag=true, got %#v (found=%v)", v, ok)
	}
	if _, ok := mustMeta(t, s, testKey, "unset"); ok {
		t.Errorf("Unset metadata should not be found")
	}

	// the setter keeps other entries
	if err := s.SetMeta(testKey, "owner", "alice"); err != nil {
		t.Fatalf("Unexpected error during SetMeta: %v", err)
	}
	if v, ok := mustMeta(t, s, testKey, "flag"); !ok || v != true {
		t.Errorf("SetMeta should keep other entries, flag=%#v", v)
	}

	// Set keeps the options of a live key
	mustSet(t, s, testKey, store.Structured("value2"), 0)
	if v, ok := mustMeta(t, s, testKey, "owner"); !ok || v != "alice" {
		t.Errorf("Set should keep the options of a live key, owner=%#v", v)
	}

	// the setter creates missing keys with a null value
	if err := s.SetMeta("meta-created", "flag", true); err != nil {
		t.Fatalf("Unexpected error during SetMeta: %v", err)
	}
	val, ok, err := s.Get("meta-created")
	if err != nil || !ok {
		t.Fatalf("SetMeta should create the key, found=%v err=%v", ok, err)
	}
	if !val.IsNull() {
		t.Errorf("Key created by SetMeta should have a null value, got %#v", val.Interface())
	}
	if ttl, ok := mustMeta(t, s, "meta-created", store.MetaTTL); !ok || ttl != int64(0) {
		t.Errorf("Key created by SetMeta should have ttl 0, got %#v", ttl)
	}

	// the ttl can be set through metadata
	if err := s.SetMeta(testKey, store.MetaTTL, past()); err != nil {
		t.Fatalf("Unexpected error during SetMeta(ttl): %v", err)
	}
	if mustHas(t, s, testKey) {
		t.Errorf("Key should be expired after setting a past ttl")
	}

	// reserved names are type checked
	if err := s.SetMeta(testKey, store.MetaTTL, "tomorrow"); store.CodeOf(err) != store.RetCInvalidOperation {
		t.Errorf("Expected InvalidOperation for a string ttl, got %v", err)
	}
	if err := s.SetMeta(testKey, store.MetaSerialize, "no"); store.CodeOf(err) != store.RetCInvalidOperation {
		t.Errorf("Expected InvalidOperation for a string serialize option, got %v", err)
	}
}

func testRawValues(t *testing.T, s store.IStore) {
	testKey := "raw-key"
	payload := []byte{0x00, 0xff, 'r', 'a', 'w', '\n'}

	if err := s.SetMeta(testKey, store.MetaSerialize, false); err != nil {
		t.Fatalf("Unexpected error during SetMeta: %v", err)
	}
	mustSet(t, s, testKey, store.Raw(payload), 0)

	val, ok, err := s.Get(testKey)
	if err != nil || !ok {
		t.Fatalf("Expected raw value to be found, found=%v err=%v", ok, err)
	}
	if !val.IsRaw() || !bytes.Equal(val.Bytes(), payload) {
		t.Errorf("Expected raw value %v, got %#v", payload, val.Interface())
	}

	// structured values are stored by their byte representation
	mustSet(t, s, testKey, store.Structured("plain text"), 0)
	val, _, err = s.Get(testKey)
	if err != nil {
		t.Fatalf("Unexpected error during Get: %v", err)
	}
	if !val.IsRaw() || string(val.Bytes()) != "plain text" {
		t.Errorf("Expected raw plain text, got %#v", val.Interface())
	}

	// the option survives Set but not Touch
	if v, ok := mustMeta(t, s, testKey, store.MetaSerialize); !ok || v != false {
		t.Errorf("Expected serialize=false to survive Set, got %#v", v)
	}
	if err := s.Touch(testKey, 0); err != nil {
		t.Fatalf("Unexpected error during Touch: %v", err)
	}
	if _, ok := mustMeta(t, s, testKey, store.MetaSerialize); ok {
		t.Errorf("Touch should drop the serialize option")
	}
}

func testEdgeCases(t *testing.T, s store.IStore) {
	mustSet(t, s, "", store.Structured("value for empty key"), 0)
	if result, ok := getString(t, s, ""); !ok || result != "value for empty key" {
		t.Errorf("Empty key mismatch: %q (found=%v)", result, ok)
	}

	unicodeKey := "ключ/../🔑 with spaces"
	mustSet(t, s, unicodeKey, store.Structured("unicode"), 0)
	if result, ok := getString(t, s, unicodeKey); !ok || result != "unicode" {
		t.Errorf("Unicode key mismatch: %q (found=%v)", result, ok)
	}

	largeKey := strings.Repeat("k", 10000)
	mustSet(t, s, largeKey, store.Structured("value for large key"), 0)
	if result, ok := getString(t, s, largeKey); !ok || result != "value for large key" {
		t.Errorf("Large key mismatch (found=%v)", ok)
	}

	mustSet(t, s, "empty-string", store.Structured(""), 0)
	if result, ok := getString(t, s, "empty-string"); !ok || result != "" {
		t.Errorf("Empty string mismatch: %q (found=%v)", result, ok)
	}

	largeValue := strings.Repeat("0123456789abcdef", 64*1024)
	mustSet(t, s, "large-value", store.Structured(largeValue), 0)
	if result, ok := getString(t, s, "large-value"); !ok || result != largeValue {
		t.Errorf("Large value mismatch: len=%d (found=%v)", len(result), ok)
	}

	// overwriting a large value with a small one must not leave trailing bytes
	mustSet(t, s, "large-value", store.Structured("small"), 0)
	if result, ok := getString(t, s, "large-value"); !ok || result != "small" {
		t.Errorf("Expected small after overwrite, got len=%d (found=%v)", len(result), ok)
	}
}

func testIndex(t *testing.T, s store.IStore) {
	idx := store.NewIndex[string](s)

	if ok, err := idx.Exists("idx-key"); err != nil || ok {
		t.Errorf("Expected idx-key to not exist, ok=%v err=%v", ok, err)
	}
	if err := idx.Store("idx-key", "indexed"); err != nil {
		t.Fatalf("Unexpected error during Store: %v", err)
	}
	v, ok, err := idx.Load("idx-key")
	if err != nil || !ok || v != "indexed" {
		t.Errorf("Expected indexed, got %q (found=%v, err=%v)", v, ok, err)
	}
	if err := idx.Unset("idx-key"); err != nil {
		t.Fatalf("Unexpected error during Unset: %v", err)
	}
	if ok, err := idx.Exists("idx-key"); err != nil || ok {
		t.Errorf("Expected idx-key to not exist after Unset, ok=%v err=%v", ok, err)
	}

	expiring := store.NewIndex[string](s)
	expiring.TTL = past()
	if err := expiring.Store("idx-expired", "gone"); err != nil {
		t.Fatalf("Unexpected error during Store: %v", err)
	}
	if _, ok, _ := expiring.Load("idx-expired"); ok {
		t.Errorf("Index with a past TTL should store expired values")
	}
}

func testConcurrentWriters(t *testing.T, s store.IStore) {
	const (
		numWriters = 8
		numRounds  = 20
		valueSize  = 16 * 1024
	)
	testKey := "contended-key"

	// every value consists of a single repeated character, a torn payload mixes characters
	valueOf := func(writer int) string {
		return strings.Repeat(string(rune('a'+writer)), valueSize)
	}

	var wg sync.WaitGroup
	errs := make(chan error, numWriters*numRounds*2)

	for w := 0; w < numWriters; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for r := 0; r < numRounds; r++ {
				if err := s.Set(testKey, store.Structured(valueOf(w)), 0); err != nil {
					errs <- err
				}
			}
		}(w)
	}

	for rd := 0; rd < numWriters/2; rd++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := 0; r < numRounds; r++ {
				val, ok, err := s.Get(testKey)
				if err != nil {
					errs <- err
					continue
				}
				if !ok {
					continue
				}
				str, _ := val.Interface().(string)
				if len(str) != valueSize || strings.Count(str, str[:1]) != valueSize {
					errs <- fmt.Errorf("observed torn value of length %d", len(str))
				}
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	final, ok := getString(t, s, testKey)
	if !ok {
		t.Fatalf("Contended key should exist")
	}
	matches := 0
	for w := 0; w < numWriters; w++ {
		if final == valueOf(w) {
			matches++
		}
	}
	if matches != 1 {
		t.Errorf("Final value should match exactly one writer, matched %d", matches)
	}
}

func testRealisticUsage(t *testing.T, s store.IStore) {
	mustSet(t, s, "a", store.Structured("v1"), 0)
	if result, _ := getString(t, s, "a"); result != "v1" {
		t.Errorf("Expected v1, got %q", result)
	}
	mustSet(t, s, "a", store.Structured("v2"), 0)
	if result, _ := getString(t, s, "a"); result != "v2" {
		t.Errorf("Expected v2, got %q", result)
	}
	if err := s.Delete("a"); err != nil {
		t.Fatalf("Unexpected error during Delete: %v", err)
	}
	if mustHas(t, s, "a") {
		t.Errorf("Expected a to be gone after Delete")
	}

	// a session cache with a mix of live and expired entries
	numKeys := 100
	for i := 0; i < numKeys; i++ {
		ttl := future()
		if i%3 == 0 {
			ttl = past()
		}
		mustSet(t, s, fmt.Sprintf("session:%d", i), store.Structured(fmt.Sprintf("user-%d", i)), ttl)
	}
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("session:%d", i)
		result, ok := getString(t, s, key)
		if i%3 == 0 {
			if ok {
				t.Errorf("Expected %s to be expired", key)
			}
			continue
		}
		if !ok || result != fmt.Sprintf("user-%d", i) {
			t.Errorf("Expected user-%d for %s, got %q (found=%v)", i, key, result, ok)
		}
	}
}
