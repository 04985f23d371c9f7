// Package testing provides standardised tests and benchmarks for
// store implementations that satisfy the store.IStore interface.
//
// The package contains:
//   - testing: A test suite validating the IStore contract (presence, expiration,
//     metadata semantics, raw values and concurrent access)
//   - benchmark: Performance tests for the common store operations
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func(t testing.TB) store.IStore {
//		s, err := fstore.NewFileStore(t.TempDir(), nil)
//		if err != nil {
//			t.Fatal(err)
//		}
//		return s
//	}
//
//	// Running the standard test suite
//	storetesting.RunStoreTests(t, "FileStore", factory)
//
//	// Running performance benchmarks
//	storetesting.RunStoreBenchmarks(b, "FileStore", factory)
package testing
