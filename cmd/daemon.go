package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OpenCHAMI/mercator/internal/util"
	"github.com/OpenCHAMI/mercator/pkg/adapter"
	"github.com/OpenCHAMI/mercator/pkg/daemon"
)

// The `daemon` command serves the adapter operations over HTTP. Each request
// names the BMC host in its path; vendor, credentials and driver options come
// from the daemon's own configuration.
var daemonCmd = &cobra.Command{
	Use: "daemon",
	Example: `  // basic launch
  mercator daemon --vendor dell --secrets-file /etc/mercator/secrets.json
  // require HS256 bearer tokens
  mercator daemon -e :8080 --secret "$JWT_SECRET"
  // verify tokens against an identity provider's key set
  mercator daemon --jwks-url https://auth.example/.well-known/jwks.json`,
	Short: "Launch a long-running web server, e.g. for container use",
	Long:  "Exposes the BMC operations as HTTP endpoints under /v1/bmc/{host}, so that BMCs can be driven remotely by authorized users.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := util.BuildSecretStore()
		vendorName := viper.GetString("vendor")
		if _, err := registry.Lookup(vendorName); err != nil {
			return err
		}
		server := daemon.New(daemon.Config{
			Endpoint:       viper.GetString("daemon.endpoint"),
			Secret:         viper.GetString("daemon.secret"),
			JWKSURL:        viper.GetString("daemon.jwks-url"),
			RequestTimeout: viper.GetDuration("daemon.request-timeout"),
		}, func(ctx context.Context, host string) (*adapter.Adapter, error) {
			return connect(ctx, store, Target{Host: host, Vendor: vendorName})
		})
		return server.Run(cmd.Context())
	},
}

func init() {
	addFlag("daemon.endpoint", daemonCmd, "endpoint", "e", "localhost:8080", "Address for the daemon to listen on")
	addFlag("daemon.secret", daemonCmd, "secret", "", "", "Require bearer tokens signed with this HS256 secret")
	addFlag("daemon.jwks-url", daemonCmd, "jwks-url", "", "", "Require bearer tokens signed by a key from this JWKS URL")
	addFlag("daemon.request-timeout", daemonCmd, "request-timeout", "", 5*time.Minute, "Bound each request, BMC round trips included")
	checkBindFlagError(viper.BindEnv("daemon.secret", "MERCATOR_JWT_SECRET"))

	rootCmd.AddCommand(daemonCmd)
}
