package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/OpenCHAMI/mercator/pkg/adapter"
)

// Controllers are named by id (RAID.Integrated.1-1) or by reference path.
var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Inspect storage controllers, drives and volumes",
	Example: `  mercator storage controllers -H 10.0.0.5 --vendor dell
  mercator storage drives RAID.Integrated.1-1 -H 10.0.0.5 --vendor dell
  mercator storage volume-drives RAID.Integrated.1-1 Disk.Virtual.0:RAID.Integrated.1-1 -H 10.0.0.5`,
}

func init() {
	storageCmd.AddCommand(
		targetCommand("controllers", "List storage controllers", cobra.NoArgs,
			listing((*adapter.Adapter).StorageControllers)),
		targetCommand("drives <controller>", "List the drives behind a controller", cobra.ExactArgs(1),
			func(ctx context.Context, a *adapter.Adapter, args []string) (any, error) {
				ctrl, err := a.FindController(ctx, args[0])
				if err != nil {
					return nil, err
				}
				return a.Drives(ctx, ctrl)
			}),
		targetCommand("volumes <controller>", "List the volumes of a controller", cobra.ExactArgs(1),
			func(ctx context.Context, a *adapter.Adapter, args []string) (any, error) {
				ctrl, err := a.FindController(ctx, args[0])
				if err != nil {
					return nil, err
				}
				return a.Volumes(ctx, ctrl)
			}),
		targetCommand("volume-drives <controller> <volume>", "List the drives a volume is built from", cobra.ExactArgs(2),
			func(ctx context.Context, a *adapter.Adapter, args []string) (any, error) {
				ctrl, err := a.FindController(ctx, args[0])
				if err != nil {
					return nil, err
				}
				volume, err := a.FindVolume(ctx, ctrl, args[1])
				if err != nil {
					return nil, err
				}
				return a.VolumeDrives(ctx, volume)
			}),
		targetCommand("summary", "Total drives, volumes and capacity per controller", cobra.NoArgs,
			func(ctx context.Context, a *adapter.Adapter, args []string) (any, error) {
				return a.StorageSummary(ctx)
			}),
	)
	rootCmd.AddCommand(storageCmd)
}
