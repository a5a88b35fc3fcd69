package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/OpenCHAMI/mercator/internal/util"
	"github.com/OpenCHAMI/mercator/pkg/adapter"
)

var bmcCmd = &cobra.Command{
	Use:   "bmc",
	Short: "Inspect the BMC itself",
	Example: `  mercator bmc sel -H 10.0.0.5
  mercator bmc network set IPv4StaticAddresses='[{"Address":"10.0.0.6"}]' -H 10.0.0.5`,
}

var biosCmd = &cobra.Command{
	Use:   "bios",
	Short: "Read and stage BIOS attributes",
	Example: `  mercator bios get -H 10.0.0.5
  mercator bios set BootMode=Uefi ProcVirtualization=Enabled -H 10.0.0.5`,
}

// settingsCommand applies key=value arguments with set.
func settingsCommand(short string, set func(*adapter.Adapter, context.Context, map[string]any) (bool, error)) *cobra.Command {
	return targetCommand("set <key=value>...", short, cobra.MinimumNArgs(1),
		func(ctx context.Context, a *adapter.Adapter, args []string) (any, error) {
			settings, err := util.ParseKeyValues(args)
			if err != nil {
				return nil, err
			}
			return outcome(set(a, ctx, settings))
		})
}

func init() {
	networkCmd := targetCommand("network", "Print the BMC network settings", cobra.NoArgs,
		func(ctx context.Context, a *adapter.Adapter, args []string) (any, error) {
			return a.BMCNetwork(ctx)
		})
	networkCmd.AddCommand(settingsCommand("Change BMC network settings", (*adapter.Adapter).SetBMCNetwork))

	bmcCmd.AddCommand(
		targetCommand("sel", "Print the system event log", cobra.NoArgs,
			listing((*adapter.Adapter).SELLog)),
		targetCommand("accounts", "List BMC user accounts", cobra.NoArgs,
			listing((*adapter.Adapter).Accounts)),
		targetCommand("sessions", "List open BMC sessions", cobra.NoArgs,
			listing((*adapter.Adapter).Sessions)),
		networkCmd,
	)

	biosCmd.AddCommand(
		targetCommand("get", "Print BIOS attributes", cobra.NoArgs,
			func(ctx context.Context, a *adapter.Adapter, args []string) (any, error) {
				return a.BIOSAttributes(ctx)
			}),
		settingsCommand("Stage BIOS attribute changes for the next reboot", (*adapter.Adapter).SetBIOSAttributes),
	)
	rootCmd.AddCommand(bmcCmd, biosCmd)
}
