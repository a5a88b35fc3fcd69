package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OpenCHAMI/mercator/pkg/adapter"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and cancel BMC jobs",
	Example: `  mercator jobs list -H 10.0.0.5 --vendor dell
  mercator jobs wait JID_123456789012 --wait-timeout 30m -H 10.0.0.5 --vendor dell`,
}

func init() {
	waitCmd := targetCommand("wait <id>", "Wait for a job to finish", cobra.ExactArgs(1),
		func(ctx context.Context, a *adapter.Adapter, args []string) (any, error) {
			return a.WaitForJob(ctx, args[0], viper.GetDuration("jobs.wait-timeout"))
		})
	waitCmd.Flags().Duration("wait-timeout", 10*time.Minute, "Give up when the job is still running after this long")
	checkBindFlagError(viper.BindPFlag("jobs.wait-timeout", waitCmd.Flags().Lookup("wait-timeout")))

	jobsCmd.AddCommand(
		targetCommand("list", "List jobs", cobra.NoArgs,
			listing((*adapter.Adapter).Jobs)),
		targetCommand("status <id>", "Print a job", cobra.ExactArgs(1),
			func(ctx context.Context, a *adapter.Adapter, args []string) (any, error) {
				return a.JobStatus(ctx, args[0])
			}),
		waitCmd,
		targetCommand("cancel <id>", "Cancel a job", cobra.ExactArgs(1),
			func(ctx context.Context, a *adapter.Adapter, args []string) (any, error) {
				return outcome(a.CancelJob(ctx, args[0]))
			}),
	)
	rootCmd.AddCommand(jobsCmd)
}
