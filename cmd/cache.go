package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OpenCHAMI/mercator/internal/cache/sqlite"
	"github.com/OpenCHAMI/mercator/internal/format"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage collected inventory snapshots",
}

// writeSnapshots prints snapshot headers without their inventory documents.
func writeSnapshots(cmd *cobra.Command, snapshots []sqlite.Snapshot) error {
	if outputFormat == format.FORMAT_LIST {
		for _, s := range snapshots {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\t%s\n",
				s.Host, s.Vendor, s.Model, s.ServiceTag, s.PowerState, s.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
		}
		return nil
	}
	headers := make([]sqlite.Snapshot, len(snapshots))
	for i, s := range snapshots {
		s.Inventory = ""
		headers[i] = s
	}
	return format.Write(cmd.OutOrStdout(), headers, outputFormat)
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached snapshots",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sqlite.OpenExisting(viper.GetString("cache"))
		if err != nil {
			return err
		}
		defer store.Close()
		snapshots, err := store.List()
		if err != nil {
			return err
		}
		return writeSnapshots(cmd, snapshots)
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <host>",
	Short: "Print the inventory cached for a host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sqlite.OpenExisting(viper.GetString("cache"))
		if err != nil {
			return err
		}
		defer store.Close()
		snap, err := store.Get(args[0])
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		var inventory map[string]any
		if err := json.Unmarshal([]byte(snap.Inventory), &inventory); err != nil {
			return fmt.Errorf("failed to decode cached inventory: %w", err)
		}
		return format.Write(cmd.OutOrStdout(), inventory, outputFormat)
	},
}

var cacheRemoveCmd = &cobra.Command{
	Use:   "remove <host>...",
	Short: "Remove hosts from the cache",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sqlite.OpenExisting(viper.GetString("cache"))
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Delete(args...)
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd, cacheShowCmd, cacheRemoveCmd)
	rootCmd.AddCommand(cacheCmd)
}
