package cmd

import (
	"github.com/spf13/cobra"

	"github.com/OpenCHAMI/mercator/internal/format"
)

var vendorsCmd = &cobra.Command{
	Use:   "vendors",
	Short: "List the vendor names accepted by --vendor",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names := registry.Names()
		if outputFormat == format.FORMAT_LIST {
			for _, name := range names {
				if err := format.Write(cmd.OutOrStdout(), name, outputFormat); err != nil {
					return err
				}
			}
			return nil
		}
		return format.Write(cmd.OutOrStdout(), names, outputFormat)
	},
}

func init() {
	rootCmd.AddCommand(vendorsCmd)
}
