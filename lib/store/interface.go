package store

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the generic interface for interacting with a key–value store.
// All write operations return only an error (nil on success),
// while read operations return the requested data along with an error (nil on success).
// A missing or expired key is never an error, it is reported through the loaded flag.
type IStore interface {
	// Set inserts or updates a key–value pair.
	// ttl is an absolute unix timestamp in seconds, 0 means the key never expires.
	// Setting a key whose ttl already passed starts a fresh record: all previously stored metadata is dropped.
	Set(key string, value Value, ttl int64) (err error)
	// Get returns the value for a key. The boolean return value indicates whether a value for the key was found.
	// Expired keys are not found.
	Get(key string) (value Value, loaded bool, err error)
	// Has returns whether a key exists in the store and is not expired.
	Has(key string) (loaded bool, err error)
	// Touch replaces the complete metadata of an existing key with just the given ttl.
	// All other metadata (including the serialize option) is discarded.
	// Touching a key that does not exist is a no-op.
	Touch(key string, ttl int64) (err error)
	// Delete deletes a key–value pair. Deleting a key that does not exist is a no-op.
	Delete(key string) (err error)
	// Meta returns the metadata entry name of a key.
	// The boolean return value is false if the key or the entry does not exist.
	Meta(key, name string) (value any, loaded bool, err error)
	// SetMeta sets the metadata entry name of a key, keeping all other entries.
	// If the key does not exist (or is expired) it is created with a null value first.
	SetMeta(key, name string, value any) (err error)
	// GetStoreInfo returns information about the store.
	GetStoreInfo() (info StoreInfo, err error)
}

// StoreInfo describes a store instance.
type StoreInfo struct {
	Root          string `json:"root"`
	Codec         string `json:"codec"`
	FormatVersion int    `json:"format_version"`
	Sync          bool   `json:"sync"`
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode),
// an error message and the underlying cause (if any).
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
	Err  error   // The underlying error, may be nil.
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("KVStoreError (code %s): %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("KVStoreError (code %s): %s", e.Code, e.Msg)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new KVStoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// WrapError creates a new KVStoreError with the given code and message wrapping err.
func WrapError(code RetCode, msg string, err error) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
		Err:  err,
	}
}

// CodeOf returns the return code of err.
// Errors that are not a *Error (or do not wrap one) report RetCInternalError, nil reports RetCSuccess.
func CodeOf(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return RetCInternalError
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported on this platform.
	RetCInvalidOperation                    // 3: Invalid operation.
	RetCIOError                             // 4: A filesystem operation failed.
	RetCDecodeError                         // 5: Stored bytes do not match the expected encoding.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCIOError:
		return "IOError"
	case RetCDecodeError:
		return "DecodeError"
	default:
		return "Unknown"
	}
}
