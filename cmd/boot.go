package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OpenCHAMI/mercator/pkg/adapter"
)

var bootCmd = &cobra.Command{
	Use:   "boot",
	Short: "Inspect boot options and set the boot override",
	Example: `  mercator boot options -H 10.0.0.5
  mercator boot pxe -H 10.0.0.5
  mercator boot override Hdd --persistent -H 10.0.0.5`,
}

func bootShortcut(use, short string, set func(*adapter.Adapter, context.Context) (bool, error)) *cobra.Command {
	return targetCommand(use, short, cobra.NoArgs,
		func(ctx context.Context, a *adapter.Adapter, args []string) (any, error) {
			return outcome(set(a, ctx))
		})
}

func init() {
	overrideCmd := targetCommand("override <target>", "Set the boot override target (Pxe, Hdd, Cd, BiosSetup, ...)", cobra.ExactArgs(1),
		func(ctx context.Context, a *adapter.Adapter, args []string) (any, error) {
			return outcome(a.SetBootOverride(ctx, args[0], viper.GetBool("boot.persistent"), viper.GetBool("boot.uefi")))
		})
	overrideCmd.Flags().Bool("persistent", false, "Keep the override for every boot instead of the next one")
	overrideCmd.Flags().Bool("uefi", true, "Boot in UEFI mode")
	checkBindFlagError(viper.BindPFlag("boot.persistent", overrideCmd.Flags().Lookup("persistent")))
	checkBindFlagError(viper.BindPFlag("boot.uefi", overrideCmd.Flags().Lookup("uefi")))

	bootCmd.AddCommand(
		targetCommand("options", "List boot options", cobra.NoArgs,
			listing((*adapter.Adapter).BootOptions)),
		overrideCmd,
		bootShortcut("pxe", "Boot once from the network", (*adapter.Adapter).BootToPXE),
		bootShortcut("disk", "Boot once from disk", (*adapter.Adapter).BootToDisk),
		bootShortcut("cd", "Boot once from virtual CD", (*adapter.Adapter).BootToCD),
		bootShortcut("bios", "Boot once into BIOS setup", (*adapter.Adapter).BootToBIOS),
	)
	rootCmd.AddCommand(bootCmd)
}
