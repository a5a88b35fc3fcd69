package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OpenCHAMI/mercator/pkg/adapter"
)

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Manage virtual media",
	Example: `  mercator media list -H 10.0.0.5 --vendor dell
  mercator media insert http://repo/images/rescue.iso -H 10.0.0.5
  mercator media boot-iso http://repo/images/installer.iso --wait -H 10.0.0.5`,
}

func init() {
	mediaCmd.AddCommand(
		targetCommand("list", "List virtual media slots", cobra.NoArgs,
			listing((*adapter.Adapter).VirtualMedia)),
		targetCommand("insert <url>", "Attach an image to a virtual media slot", cobra.ExactArgs(1),
			func(ctx context.Context, a *adapter.Adapter, args []string) (any, error) {
				return outcome(a.InsertVirtualMedia(ctx, args[0], viper.GetString("media.device")))
			}),
		targetCommand("eject", "Detach the image from a virtual media slot", cobra.NoArgs,
			func(ctx context.Context, a *adapter.Adapter, args []string) (any, error) {
				return outcome(a.EjectVirtualMedia(ctx, viper.GetString("media.device")))
			}),
		targetCommand("boot-iso <url>", "Attach an ISO, boot once from it and restart", cobra.ExactArgs(1),
			func(ctx context.Context, a *adapter.Adapter, args []string) (any, error) {
				return outcome(a.MountISOAndBoot(ctx, args[0], viper.GetString("media.device"), viper.GetBool("media.wait")))
			}),
		targetCommand("unmount-all", "Eject every inserted image", cobra.NoArgs,
			func(ctx context.Context, a *adapter.Adapter, args []string) (any, error) {
				return outcome(a.UnmountAllMedia(ctx))
			}),
	)
	mediaCmd.PersistentFlags().String("device", adapter.DefaultMediaDevice, "Set the virtual media slot")
	mediaCmd.PersistentFlags().Bool("wait", false, "Wait for the host to come back up after boot-iso")

	checkBindFlagError(viper.BindPFlag("media.device", mediaCmd.PersistentFlags().Lookup("device")))
	checkBindFlagError(viper.BindPFlag("media.wait", mediaCmd.PersistentFlags().Lookup("wait")))

	rootCmd.AddCommand(mediaCmd)
}
