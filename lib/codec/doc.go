// Package codec provides the structured encodings used by the file store for
// metadata mappings and for values stored with the serialize option enabled.
//
// Key Components:
//
//   - ICodec: Core interface that all codec implementations must satisfy.
//
//   - jsonCodecImpl: JSON encoding. Human readable files, interoperable with
//     other tools. Numbers decoded into interface values become int64 when they
//     are integers that fit, float64 otherwise.
//
//   - gobCodecImpl: Go's gob encoding. Keeps Go integer types intact, but named
//     types must be registered with gob.Register before they can be stored.
//
// The codec of a store is recorded in its format marker, a store directory can
// therefore only be opened with the codec it was created with.
package codec
