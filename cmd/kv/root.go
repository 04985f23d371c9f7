package kv

import (
	"github.com/ValentinKolb/fKV/cmd/util"
	"github.com/ValentinKolb/fKV/lib/common"
	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
)

var Logger = logger.GetLogger("cmd")

var (
	fileStore   store.IStore
	storeConfig *common.StoreConfig

	// storeMetrics collects the metrics of fileStore, it is exported by the perf command
	storeMetrics = metrics.NewSet()

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:               "kv",
		Short:             "Perform key-value store operations",
		PersistentPreRunE: setupStore,
	}
)

func init() {
	// Add common store flags to the KV command
	util.SetupStoreFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(hasCmd)
	KeyValueCommands.AddCommand(touchCmd)
	KeyValueCommands.AddCommand(delCmd)
	KeyValueCommands.AddCommand(metaCmd)
	KeyValueCommands.AddCommand(infoCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupStore opens the file store in the configured data directory
func setupStore(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	config, err := util.GetStoreConfig()
	if err != nil {
		return err
	}
	storeConfig = config

	fileStore, err = util.OpenStore(config, storeMetrics)
	if err != nil {
		return err
	}
	Logger.Debugf("opened store with configuration:%s", config.String())
	return nil
}
