// The cmd package implements the mercator CLI. Each subcommand resolves its
// targets, opens an adapter per BMC through the driver registry and prints
// the canonical records it gets back.
//
// For example:
//
//	cmd/power.go     --> adapter.PowerOn / PowerOff / Reboot / PowerCycle
//	cmd/storage.go   --> adapter.StorageControllers / Drives / Volumes
//	cmd/collect.go   --> adapter inventory into the sqlite snapshot cache
//	cmd/daemon.go    --> pkg/daemon
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/OpenCHAMI/mercator/internal/format"
	logger "github.com/OpenCHAMI/mercator/internal/log"
	"github.com/OpenCHAMI/mercator/internal/util"
)

var (
	logLevel     = logger.INFO
	outputFormat = format.FORMAT_LIST
)

// The `root` command doesn't do anything on it's own except display
// a help message and then exits.
var rootCmd = &cobra.Command{
	Use:   "mercator",
	Short: "Vendor-neutral BMC management",
	Long: "Drive BMCs from different vendors through one canonical interface: power, inventory,\n" +
		"storage, virtual media, boot, jobs and BMC settings.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logLevel.Set(viper.GetString("log-level")); err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
		if err := outputFormat.Set(viper.GetString("format")); err != nil {
			return fmt.Errorf("invalid --format: %w", err)
		}
		return logger.InitWithLogLevel(logLevel, viper.GetString("log-file"))
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if err := logger.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close log file")
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if err := cmd.Help(); err != nil {
			log.Error().Err(err).Msg("failed to print help")
		}
	},
}

// This Execute() function is called from main to run the CLI.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(InitializeConfig)
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Set the config file path")
	flags.String("vendor", "redfish", "Set the BMC vendor driver (see 'mercator vendors')")
	flags.StringP("host", "H", "", "Set the BMC host or URL")
	flags.StringP("targets-file", "f", "", "Set a YAML or JSON file listing targets as {id, host, vendor}")
	flags.StringP("username", "u", "", "Set the BMC username")
	flags.StringP("password", "p", "", "Set the BMC password")
	flags.BoolP("insecure", "k", true, "Skip TLS certificate verification")
	flags.DurationP("timeout", "t", 30*time.Second, "Set the timeout for BMC requests")
	flags.IntP("concurrency", "j", -1, "Set the number of concurrent BMC sessions")
	flags.StringToString("option", nil, "Set driver options such as paths.system=/redfish/v1/Systems/1 or port=623")
	flags.VarP(&logLevel, "log-level", "l", "Set the log level (trace|debug|info|warn|error|disabled)")
	flags.String("log-file", "", "Also write logs to this file")
	flags.VarP(&outputFormat, "format", "F", "Set the output format (list|json|yaml)")
	flags.String("secrets-file", "secrets.json", "Set the secrets file with BMC credentials")
	flags.String("cache", fmt.Sprintf("/tmp/%s/mercator/snapshots.db", util.GetCurrentUsername()), "Set the inventory snapshot cache path")

	// bind viper config flags with cobra
	checkBindFlagError(viper.BindPFlag("config", flags.Lookup("config")))
	checkBindFlagError(viper.BindPFlag("vendor", flags.Lookup("vendor")))
	checkBindFlagError(viper.BindPFlag("host", flags.Lookup("host")))
	checkBindFlagError(viper.BindPFlag("targets-file", flags.Lookup("targets-file")))
	checkBindFlagError(viper.BindPFlag("username", flags.Lookup("username")))
	checkBindFlagError(viper.BindPFlag("password", flags.Lookup("password")))
	checkBindFlagError(viper.BindEnv("password", "BMC_PASSWORD"))
	checkBindFlagError(viper.BindPFlag("insecure", flags.Lookup("insecure")))
	checkBindFlagError(viper.BindPFlag("timeout", flags.Lookup("timeout")))
	checkBindFlagError(viper.BindPFlag("concurrency", flags.Lookup("concurrency")))
	checkBindFlagError(viper.BindPFlag("option", flags.Lookup("option")))
	checkBindFlagError(viper.BindPFlag("log-level", flags.Lookup("log-level")))
	checkBindFlagError(viper.BindPFlag("log-file", flags.Lookup("log-file")))
	checkBindFlagError(viper.BindPFlag("format", flags.Lookup("format")))
	checkBindFlagError(viper.BindPFlag("secrets.file", flags.Lookup("secrets-file")))
	checkBindFlagError(viper.BindPFlag("cache", flags.Lookup("cache")))
}

func checkBindFlagError(err error) {
	if err != nil {
		log.Error().Err(err).Msg("failed to bind cobra/viper flag")
	}
}

// InitializeConfig() loads the config file given with --config, or
// $XDG_CONFIG_HOME/mercator/config.* when present. Environment variables
// named after a key (e.g. TIMEOUT) override both.
func InitializeConfig() {
	viper.AutomaticEnv()
	if viper.GetString("config") != "" {
		viper.SetConfigFile(viper.GetString("config"))
	} else {
		configDir := os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return
			}
			configDir = filepath.Join(home, ".config")
		}
		viper.AddConfigPath(filepath.Join(configDir, "mercator"))
		viper.SetConfigName("config")
	}
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Debug().Err(err).Msg("no config file found")
			return
		}
		log.Error().Err(err).Msg("failed to load config file")
	}
}

// addFlag defines a flag on cmd whose type follows value and binds it to the
// viper key.
func addFlag(key string, cmd *cobra.Command, name, short string, value any, usage string) {
	flags := cmd.Flags()
	switch v := value.(type) {
	case string:
		flags.StringP(name, short, v, usage)
	case bool:
		flags.BoolP(name, short, v, usage)
	case int:
		flags.IntP(name, short, v, usage)
	case time.Duration:
		flags.DurationP(name, short, v, usage)
	case []string:
		flags.StringSliceP(name, short, v, usage)
	default:
		panic(fmt.Sprintf("addFlag: unsupported type %T for --%s", value, name))
	}
	checkBindFlagError(viper.BindPFlag(key, flags.Lookup(name)))
}
