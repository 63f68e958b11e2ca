package client

import (
	"fmt"
	"os"
	"sort"

	serverrun "github.com/rzbill/blinkhub/internal/cmd/server"
	cfgpkg "github.com/rzbill/blinkhub/internal/config"
	"github.com/rzbill/blinkhub/internal/datastore"
	pebblestore "github.com/rzbill/blinkhub/internal/storage/pebble"
	"github.com/spf13/cobra"
)

// NewKVCommand constructs the `kv` command group. These commands open the
// store directly, so the server must not be running on the same data dir.
func NewKVCommand() *cobra.Command {
	kvCmd := &cobra.Command{Use: "kv", Short: "Offline key/value operations on a data dir"}
	kvCmd.PersistentFlags().String("data-dir", "", "Data directory (defaults to the OS application data directory)")
	kvCmd.AddCommand(newKVListCommand(), newKVTrimCommand())
	return kvCmd
}

func openStore(cmd *cobra.Command) (*pebblestore.DB, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	if dataDir == "" {
		dataDir = cfgpkg.DefaultDataDir()
	}
	dir := serverrun.StoreDir(dataDir)
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("no store at %s: %w", dir, err)
	}
	return pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
}

func newKVListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List records, optionally narrowed by prefix and a CEL filter",
		RunE: func(cmd *cobra.Command, _ []string) error {
			prefix, _ := cmd.Flags().GetString("prefix")
			filter, _ := cmd.Flags().GetString("filter")
			asJSON, _ := cmd.Flags().GetBool("json")

			db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			var recs map[string]string
			if filter != "" {
				pred, err := datastore.CompileFilter(filter)
				if err != nil {
					return fmt.Errorf("invalid --filter: %w", err)
				}
				inPrefix := datastore.HasPrefix(prefix)
				recs, err = datastore.GetRecords(cmd.Context(), db, func(k, v []byte) bool {
					return inPrefix(k, v) && pred(k, v)
				})
				if err != nil {
					return err
				}
			} else if recs, err = datastore.GetRecordsByPrefix(cmd.Context(), db, prefix); err != nil {
				return err
			}

			if asJSON {
				return printJSON(cmd.OutOrStdout(), recs)
			}
			keys := make([]string, 0, len(recs))
			for k := range recs {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", k, recs[k])
			}
			return nil
		},
	}
	cmd.Flags().String("prefix", "", "Only keys starting with this prefix")
	cmd.Flags().String("filter", "", "CEL expression over key, value and json")
	cmd.Flags().Bool("json", false, "Print a JSON object instead of tab-separated lines")
	return cmd
}

func newKVTrimCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trim",
		Short: "Delete all but the lexicographically largest keys under a prefix, then compact it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			prefix, _ := cmd.Flags().GetString("prefix")
			retain, _ := cmd.Flags().GetInt("retain")
			if prefix == "" {
				return fmt.Errorf("--prefix is required")
			}
			if retain < 0 {
				return fmt.Errorf("--retain must be >= 0")
			}
			db, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			n, err := datastore.TrimByPrefixN(cmd.Context(), db, prefix, retain)
			if err != nil {
				return err
			}
			if n > 0 {
				if err := db.CompactPrefix([]byte(prefix)); err != nil {
					return fmt.Errorf("compact %q: %w", prefix, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted: %d\n", n)
			return nil
		},
	}
	cmd.Flags().String("prefix", "", "Key prefix to trim (required)")
	cmd.Flags().Int("retain", datastore.RetainCount, "Number of records to keep")
	return cmd
}
