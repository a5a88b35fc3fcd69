package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/OpenCHAMI/mercator/pkg/adapter"
	"github.com/OpenCHAMI/mercator/pkg/record"
)

type targetFunc func(ctx context.Context, a *adapter.Adapter, args []string) (any, error)

// targetCommand builds a subcommand that runs fn against every target picked
// by --host or --targets-file. Positional arguments go to fn.
func targetCommand(use, short string, args cobra.PositionalArgs, fn targetFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := resolveTargets(nil)
			if err != nil {
				return err
			}
			results := runAll(cmd.Context(), targets, func(ctx context.Context, a *adapter.Adapter) (any, error) {
				return fn(ctx, a, args)
			})
			return printResults(cmd.OutOrStdout(), results)
		},
	}
}

// listing adapts an adapter list method such as (*adapter.Adapter).CPUs.
func listing(fetch func(*adapter.Adapter, context.Context) ([]*record.Record, error)) targetFunc {
	return func(ctx context.Context, a *adapter.Adapter, args []string) (any, error) {
		return fetch(a, ctx)
	}
}

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Read hardware inventory",
	Example: `  mercator inventory system -H 10.0.0.5 --vendor dell
  mercator inventory cpus -f targets.yaml -F json`,
}

func init() {
	inventoryCmd.AddCommand(
		targetCommand("system", "Print system information", cobra.NoArgs,
			func(ctx context.Context, a *adapter.Adapter, args []string) (any, error) {
				return a.SystemInfo(ctx)
			}),
		targetCommand("cpus", "List processors", cobra.NoArgs,
			listing((*adapter.Adapter).CPUs)),
		targetCommand("memory", "List memory modules", cobra.NoArgs,
			listing((*adapter.Adapter).Memory)),
		targetCommand("nics", "List network adapters", cobra.NoArgs,
			listing((*adapter.Adapter).NICs)),
		targetCommand("fans", "List fans", cobra.NoArgs,
			listing((*adapter.Adapter).Fans)),
		targetCommand("psus", "List power supplies", cobra.NoArgs,
			listing((*adapter.Adapter).PSUs)),
		targetCommand("temperatures", "List temperature sensors", cobra.NoArgs,
			listing((*adapter.Adapter).Temperatures)),
	)
	rootCmd.AddCommand(inventoryCmd)
}
