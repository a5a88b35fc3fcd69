package cmd

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/OpenCHAMI/mercator/pkg/bmc"
	"github.com/OpenCHAMI/mercator/pkg/secrets"
)

var secretsCmd = &cobra.Command{
	Use: "secrets",
	Example: `  // generate new key and set environment variable
  export MASTER_KEY=$(mercator secrets generatekey)

  // store credentials for one BMC, and default credentials for every other
  mercator secrets store 10.0.0.5 root:calvin
  mercator secrets store default admin:password

  // retrieve creds from a specific secrets file
  mercator secrets retrieve 10.0.0.5 --secrets-file nodes.json`,
	Short: "Manage credentials for BMC nodes",
	Long:  "Manage credentials for BMC nodes. This requires generating a key and setting the 'MASTER_KEY' environment variable for the secrets store.",
}

var secretsGenerateKeyCmd = &cobra.Command{
	Use:   "generatekey",
	Args:  cobra.NoArgs,
	Short: "Generates a new 32-byte master key (in hex).",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := secrets.GenerateMasterKey()
		if err != nil {
			return fmt.Errorf("failed to generate master key: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

// parseSecret turns user input into the JSON credentials document kept in
// the store.
func parseSecret(value, inputFormat string) (string, error) {
	switch inputFormat {
	case "basic": // format: $username:$password
		username, password, ok := strings.Cut(value, ":")
		if !ok {
			return "", fmt.Errorf("expected credentials in [username:password] format")
		}
		b, err := json.Marshal(bmc.Credentials{Username: username, Password: password})
		if err != nil {
			return "", err
		}
		value = string(b)
	case "base64": // format: ($encoded_base64_string)
		decoded, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return "", fmt.Errorf("failed to decode base64 data: %w", err)
		}
		value = string(decoded)
	case "json": // format: {"username": $username, "password": $password}
	default:
		return "", fmt.Errorf("unknown input format %q (basic|json|base64)", inputFormat)
	}
	if _, err := bmc.ParseCredentials(value); err != nil {
		return "", fmt.Errorf("value is not valid credentials: %w", err)
	}
	return value, nil
}

var secretsStoreCmd = &cobra.Command{
	Use:   "store <secretID> [value]",
	Args:  cobra.RangeArgs(1, 2),
	Short: "Stores the given credentials under secretID.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var value string
		inputFile := viper.GetString("secrets.input-file")
		switch {
		case inputFile != "" && len(args) > 1:
			return fmt.Errorf("cannot use --input-file with a positional value")
		case inputFile != "":
			b, err := os.ReadFile(inputFile)
			if err != nil {
				return fmt.Errorf("failed to read input file: %w", err)
			}
			value = strings.TrimSpace(string(b))
		case len(args) > 1:
			value = args[1]
		default:
			return fmt.Errorf("no input data or file")
		}

		value, err := parseSecret(value, viper.GetString("secrets.input-format"))
		if err != nil {
			return err
		}
		store, err := secrets.OpenStore(viper.GetString("secrets.file"))
		if err != nil {
			return fmt.Errorf("failed to open secrets store: %w", err)
		}
		if err := store.Put(args[0], value); err != nil {
			return fmt.Errorf("failed to store secret: %w", err)
		}
		log.Info().Str("id", args[0]).Msg("stored secret")
		return nil
	},
}

var secretsRetrieveCmd = &cobra.Command{
	Use:   "retrieve <secretID>",
	Args:  cobra.ExactArgs(1),
	Short: "Prints the secret stored under secretID.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := secrets.OpenStore(viper.GetString("secrets.file"))
		if err != nil {
			return err
		}
		value, err := store.Get(args[0])
		if err != nil {
			return fmt.Errorf("failed to retrieve secret %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], value)
		return nil
	},
}

var secretsListCmd = &cobra.Command{
	Use:   "list",
	Args:  cobra.NoArgs,
	Short: "Lists all the secret IDs and their values.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := secrets.OpenStore(viper.GetString("secrets.file"))
		if err != nil {
			return err
		}
		all, err := store.List()
		if err != nil {
			return fmt.Errorf("failed to list secrets: %w", err)
		}
		ids := maps.Keys(all)
		slices.Sort(ids)
		for _, id := range ids {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", id, all[id])
		}
		return nil
	},
}

var secretsRemoveCmd = &cobra.Command{
	Use:   "remove <secretID>...",
	Args:  cobra.MinimumNArgs(1),
	Short: "Remove secrets by IDs from secret store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := secrets.OpenStore(viper.GetString("secrets.file"))
		if err != nil {
			return err
		}
		for _, id := range args {
			if err := store.Remove(id); err != nil {
				return fmt.Errorf("failed to remove secret %s: %w", id, err)
			}
		}
		return nil
	},
}

func init() {
	addFlag("secrets.input-format", secretsStoreCmd, "input-format", "i", "basic", "Set the input format for the secret value (basic|json|base64)")
	addFlag("secrets.input-file", secretsStoreCmd, "input-file", "", "", "Read the secret value from this file")

	secretsCmd.AddCommand(
		secretsGenerateKeyCmd,
		secretsStoreCmd,
		secretsRetrieveCmd,
		secretsListCmd,
		secretsRemoveCmd,
	)
	rootCmd.AddCommand(secretsCmd)
}
