package kv

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/spf13/cobra"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Long: `Sets the value for a key.

By default the value is stored as a string encoded with the codec of the store.
With --json the value is parsed as JSON first, with --raw it is written to the
payload file byte for byte.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			ttl, err := ttlFromFlags(cmd)
			if err != nil {
				return err
			}

			raw, _ := cmd.Flags().GetBool("raw")
			asJSON, _ := cmd.Flags().GetBool("json")

			var value store.Value
			switch {
			case raw:
				if err := fileStore.SetMeta(key, store.MetaSerialize, false); err != nil {
					return err
				}
				value = store.Raw([]byte(args[1]))
			case asJSON:
				var v any
				if err := json.Unmarshal([]byte(args[1]), &v); err != nil {
					return fmt.Errorf("value is not valid JSON: %w", err)
				}
				value = store.Structured(v)
			default:
				value = store.Structured(args[1])
			}

			if err := fileStore.Set(key, value, ttl); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Gets the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value, loaded, err := fileStore.Get(key)
			if err != nil {
				return err
			}
			if !loaded {
				fmt.Println("key not found")
				return nil
			}
			if value.IsRaw() {
				fmt.Println(value.String())
				return nil
			}
			out, err := json.Marshal(value.Interface())
			if err != nil {
				// not every gob decoded value is representable as JSON
				fmt.Println(value.String())
				return nil
			}
			fmt.Println(string(out))
			return nil
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [key]",
		Short: "Checks if a key exists (and is not expired)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if ok, err := fileStore.Has(key); err != nil {
				return err
			} else {
				fmt.Printf("key exists: %t\n", ok)
			}
			return nil
		},
	}
	touchCmd = &cobra.Command{
		Use:   "touch [key]",
		Short: "Replaces the metadata of a key with a new ttl",
		Long: `Replaces the complete metadata of an existing key with just the new ttl.
All other metadata entries are dropped. Touching a missing key does nothing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			ttl, err := ttlFromFlags(cmd)
			if err != nil {
				return err
			}
			if err := fileStore.Touch(key, ttl); err != nil {
				return err
			}
			fmt.Println("touched successfully")
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := fileStore.Delete(key); err != nil {
				return err
			} else {
				fmt.Println("deleted successfully")
			}
			return nil
		},
	}
	metaCmd = &cobra.Command{
		Use:   "meta [key] [name] [value]",
		Short: "Gets or sets a metadata entry of a key",
		Long: `Without a value the metadata entry is printed. With a value the entry is set,
creating the key with a null value if it does not exist. The value is parsed as
JSON when possible and stored as a string otherwise.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, name := args[0], args[1]

			if len(args) == 3 {
				if err := fileStore.SetMeta(key, name, parseMetaValue(args[2])); err != nil {
					return err
				}
				fmt.Println("meta set successfully")
				return nil
			}

			value, loaded, err := fileStore.Meta(key, name)
			if err != nil {
				return err
			}
			if !loaded {
				fmt.Println("meta not found")
				return nil
			}
			out, err := json.Marshal(value)
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints information about the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := fileStore.GetStoreInfo()
			if err != nil {
				return err
			}
			fmt.Printf("Root:           %s\n", info.Root)
			fmt.Printf("Codec:          %s\n", info.Codec)
			fmt.Printf("Format Version: %d\n", info.FormatVersion)
			fmt.Printf("Sync:           %t\n", info.Sync)
			return nil
		},
	}
)

func init() {
	for _, cmd := range []*cobra.Command{setCmd, touchCmd} {
		cmd.Flags().Int64("ttl", 0, "Absolute expiration time (unix seconds), 0 = never")
		cmd.Flags().Duration("expire-in", 0, "Relative expiration time (e.g. 10m), overrides --ttl")
	}
	setCmd.Flags().Bool("raw", false, "Store the value as raw bytes without serialization")
	setCmd.Flags().Bool("json", false, "Parse the value as JSON before storing it")
	setCmd.MarkFlagsMutuallyExclusive("raw", "json")
}

// ttlFromFlags returns the absolute ttl given by --ttl or --expire-in
func ttlFromFlags(cmd *cobra.Command) (int64, error) {
	expireIn, err := cmd.Flags().GetDuration("expire-in")
	if err != nil {
		return 0, err
	}
	if expireIn > 0 {
		return time.Now().Add(expireIn).Unix(), nil
	}
	ttl, err := cmd.Flags().GetInt64("ttl")
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, fmt.Errorf("ttl must not be negative, got %d", ttl)
	}
	return ttl, nil
}

// parseMetaValue parses s as JSON, falling back to the plain string.
// JSON integers are converted to int64 so that they are accepted as ttl.
func parseMetaValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	if f, ok := v.(float64); ok {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil && float64(i) == f {
			return i
		}
	}
	return v
}
