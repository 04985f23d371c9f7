package util

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/fKV/lib/common"
	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/ValentinKolb/fKV/lib/store/fstore"
	"github.com/VictoriaMetrics/metrics"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupStoreFlags adds the store configuration flags to a command
func SetupStoreFlags(cmd *cobra.Command) {
	key := "data-dir"
	cmd.PersistentFlags().String(key, "data", WrapString("Root directory of the store. It is created if it does not exist"))

	key = "codec"
	cmd.PersistentFlags().String(key, "json", WrapString("Encoding of metadata and serialized values (json, gob). Must match the codec the store was created with"))

	key = "sync"
	cmd.PersistentFlags().Bool(key, true, WrapString("Flush both files of a record to stable storage before a write returns"))

	key = "dir-perm"
	cmd.PersistentFlags().String(key, "0755", WrapString("Permissions (octal) of new shard directories"))

	key = "file-perm"
	cmd.PersistentFlags().String(key, "0644", WrapString("Permissions (octal) of new record files"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("fkv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetStoreConfig reads the store configuration from viper
func GetStoreConfig() (*common.StoreConfig, error) {
	dirPerm, err := strconv.ParseUint(viper.GetString("dir-perm"), 8, 32)
	if err != nil {
		return nil, fmt.Errorf("dir-perm must be an octal number: %w", err)
	}
	filePerm, err := strconv.ParseUint(viper.GetString("file-perm"), 8, 32)
	if err != nil {
		return nil, fmt.Errorf("file-perm must be an octal number: %w", err)
	}

	conf := &common.StoreConfig{
		DataDir:  viper.GetString("data-dir"),
		Codec:    viper.GetString("codec"),
		Sync:     viper.GetBool("sync"),
		DirPerm:  fsMode(dirPerm),
		FilePerm: fsMode(filePerm),
		LogLevel: viper.GetString("log-level"),
	}
	return conf, nil
}

// OpenStore initializes the loggers and opens the store described by config.
// The metrics of the store are registered in set (optional).
func OpenStore(config *common.StoreConfig, set *metrics.Set) (store.IStore, error) {
	if err := common.InitLoggers(*config); err != nil {
		return nil, err
	}
	opts, err := fstore.OptionsFromConfig(*config)
	if err != nil {
		return nil, err
	}
	opts.Metrics = set
	return fstore.NewFileStore(config.DataDir, opts)
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
