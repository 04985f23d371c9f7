// Package store provides a high-level interface for persistent key-value storage
// with absolute expiration times, per key metadata and unified error handling.
//
// Key Components:
//
//   - IStore Interface: The core abstraction defining operations for interacting with
//     a key-value store. Applications program against the interface and stay
//     independent of the storage backend. A missing or expired key is never an error,
//     read operations report it through a boolean.
//
//   - Value: The value of a key, either a structured value that is encoded with the
//     codec of the store or a raw byte sequence that is stored as is. Values loaded
//     from a store can be decoded into typed Go values with Value.Decode.
//
//   - Meta: The metadata mapping of a key. The reserved entries "ttl" and "serialize"
//     control expiration and encoding, all other entries belong to the caller.
//
//   - Index: A typed adapter that presents a store like a map with a default ttl.
//
//   - Error System: A structured error reporting mechanism using typed error codes
//     (RetCode) and descriptive messages. Callers can branch on CodeOf(err) to tell
//     filesystem failures (RetCIOError) from corrupted records (RetCDecodeError).
//
// Implementations:
//
//	- File Store (fstore): Keeps every key in a payload file and a metadata file
//	  below a root directory. Concurrent access from goroutines and processes is
//	  coordinated with advisory file locks.
//	  Available in the "github.com/ValentinKolb/fKV/lib/store/fstore" package.
//
// The conformance suite in "github.com/ValentinKolb/fKV/lib/store/testing" can be
// run against every implementation.
package store
