package common

import (
	"fmt"
	"os"
	"strings"
)

// --------------------------------------------------------------------------
// Store configuration struct
// --------------------------------------------------------------------------

// StoreConfig holds all configuration parameters of a file store.
type StoreConfig struct {
	// DataDir is the root directory of the store
	DataDir string
	// Codec is the name of the structured encoding (json, gob)
	Codec string
	// Sync flushes both files of a record to stable storage before a write returns
	Sync bool
	// DirPerm and FilePerm are the permissions of new shard directories and record files
	DirPerm  os.FileMode
	FilePerm os.FileMode

	// Logging configuration
	LogLevel string
}

// DefaultStoreConfig returns the default configuration for a store in dataDir.
func DefaultStoreConfig(dataDir string) StoreConfig {
	return StoreConfig{
		DataDir:  dataDir,
		Codec:    "json",
		Sync:     true,
		DirPerm:  0o755,
		FilePerm: 0o644,
		LogLevel: "info",
	}
}

// String returns a formatted string representation of the configuration
func (c *StoreConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// Storage
	addSection("Storage")
	addField("Data Directory", c.DataDir)
	addField("Codec", c.Codec)
	addField("Sync", fmt.Sprintf("%t", c.Sync))
	addField("Directory Permissions", c.DirPerm.String())
	addField("File Permissions", c.FilePerm.String())

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
