package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenCHAMI/mercator/internal/format"
	"github.com/OpenCHAMI/mercator/internal/version"
)

// SetVersionInfo records the build information passed in from main. Empty
// values keep what was set at link time.
func SetVersionInfo(v, commit, date string) {
	if v != "" {
		version.Version = v
	}
	if commit != "" {
		version.GitCommit = commit
	}
	if date != "" {
		version.BuildTime = date
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Get()
		if outputFormat == format.FORMAT_LIST {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), info)
			return err
		}
		return format.Write(cmd.OutOrStdout(), info, outputFormat)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
