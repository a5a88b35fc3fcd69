package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	mercator "github.com/OpenCHAMI/mercator/internal"
	"github.com/OpenCHAMI/mercator/internal/cache/sqlite"
	"github.com/OpenCHAMI/mercator/internal/util"
	"github.com/OpenCHAMI/mercator/pkg/adapter"
)

// The `collect` command reads the full inventory of each target and stores
// one snapshot per host in the cache. See 'cache' to read them back.
var collectCmd = &cobra.Command{
	Use: "collect [targets...]",
	Example: `  mercator collect -f targets.yaml
  mercator collect 10.0.0.5 10.0.0.6 --vendor dell -u root -p calvin --cache ./snapshots.db`,
	Short: "Collect inventory snapshots into the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := resolveTargets(args)
		if err != nil {
			return err
		}
		results := runAll(cmd.Context(), targets, func(ctx context.Context, a *adapter.Adapter) (any, error) {
			return mercator.CollectSnapshot(ctx, "", a)
		})

		var (
			snapshots []sqlite.Snapshot
			errs      []error
		)
		for i, r := range results {
			if r.Error != "" {
				errs = append(errs, fmt.Errorf("%s: %s", r.Target, r.Error))
				continue
			}
			snap := r.Value.(sqlite.Snapshot)
			snap.Host = targets[i].Host
			snapshots = append(snapshots, snap)
		}

		if len(snapshots) > 0 {
			store, err := sqlite.Open(viper.GetString("cache"))
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Insert(snapshots...); err != nil {
				return fmt.Errorf("failed to store snapshots: %w", err)
			}
			log.Info().Int("count", len(snapshots)).Str("cache", viper.GetString("cache")).Msg("stored snapshots")
		}

		if err := writeSnapshots(cmd, snapshots); err != nil {
			return err
		}
		return util.FormatErrorList(errs)
	},
}

func init() {
	rootCmd.AddCommand(collectCmd)
}
