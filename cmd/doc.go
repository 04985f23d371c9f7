// Package cmd implements the command-line interface for the fKV file based
// key-value store. It provides a hierarchical command structure for working
// with a store directory on the local machine.
//
// The package is organized into several subpackages:
//
//   - kv: Commands for key-value store operations (get, set, touch, meta, etc.)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See fkv -help for a list of all commands.
package cmd
