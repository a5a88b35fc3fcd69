package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OpenCHAMI/mercator/pkg/adapter"
)

// The `power` command gets and sets power states for one or more BMCs.
// Positional arguments pick targets by id from --targets-file or name hosts
// directly.
var powerCmd = &cobra.Command{
	Use: "power",
	Example: `  // get power state
  mercator power status -H https://10.0.0.5 -u root -p calvin
  // graceful shutdown, waiting until the host reports Off
  mercator power off --wait --vendor dell -H 10.0.0.5
  // force a reboot of several nodes from a targets file
  mercator power reboot --kind force -f targets.yaml x1000c0s0b3n0 x1000c0s0b3n1`,
	Short: "Get and set host power states",
}

func powerAction(use, short string, run func(ctx context.Context, a *adapter.Adapter, kind string, wait bool) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [targets...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := resolveTargets(args)
			if err != nil {
				return err
			}
			kind := viper.GetString("power.kind")
			wait := viper.GetBool("power.wait")
			if _, err := adapter.ParseKind(kind); err != nil {
				return err
			}
			results := runAll(cmd.Context(), targets, func(ctx context.Context, a *adapter.Adapter) (any, error) {
				return run(ctx, a, kind, wait)
			})
			return printResults(cmd.OutOrStdout(), results)
		},
	}
}

func outcome(ok bool, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if ok {
		return "success", nil
	}
	return "failure", nil
}

func init() {
	powerCmd.AddCommand(
		powerAction("status", "Print the power state", func(ctx context.Context, a *adapter.Adapter, kind string, wait bool) (any, error) {
			return a.PowerStatus(ctx)
		}),
		powerAction("on", "Power the host on", func(ctx context.Context, a *adapter.Adapter, kind string, wait bool) (any, error) {
			return outcome(a.PowerOn(ctx, wait))
		}),
		powerAction("off", "Power the host off", func(ctx context.Context, a *adapter.Adapter, kind string, wait bool) (any, error) {
			return outcome(a.PowerOff(ctx, kind, wait))
		}),
		powerAction("reboot", "Restart the host", func(ctx context.Context, a *adapter.Adapter, kind string, wait bool) (any, error) {
			return outcome(a.Reboot(ctx, kind, wait))
		}),
		powerAction("cycle", "Power the host off and on again", func(ctx context.Context, a *adapter.Adapter, kind string, wait bool) (any, error) {
			return outcome(a.PowerCycle(ctx, wait))
		}),
	)
	powerCmd.PersistentFlags().Bool("wait", false, "Wait until the host reaches the requested state")
	powerCmd.PersistentFlags().String("kind", "graceful", "Set how the host is stopped (graceful|force)")

	checkBindFlagError(viper.BindPFlag("power.wait", powerCmd.PersistentFlags().Lookup("wait")))
	checkBindFlagError(viper.BindPFlag("power.kind", powerCmd.PersistentFlags().Lookup("kind")))

	rootCmd.AddCommand(powerCmd)
}
