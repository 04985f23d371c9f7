// Package common provides the configuration and logging shared by the file
// store and the command-line interface.
//
// Key Components:
//
//   - StoreConfig: Configuration of a file store (data directory, codec,
//     durability and permission settings, log level) with a human readable
//     String representation.
//
//   - Logger: Custom logging implementation of Dragonboat's logger.ILogger.
//     Every package obtains its logger with logger.GetLogger(name), InitLoggers
//     installs the fKV format ("LEVEL | package | message") and the configured
//     level for all of them.
package common
