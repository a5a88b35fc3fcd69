package util

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/OpenCHAMI/mercator/pkg/bmc"
	"github.com/OpenCHAMI/mercator/pkg/secrets"
)

// BuildSecretStore returns a static store when both --username and
// --password are set, otherwise the local store at secrets.file. Without a
// usable local store the static store carries whatever flags were given.
func BuildSecretStore() secrets.Store {
	username, password := viper.GetString("username"), viper.GetString("password")
	if username != "" && password != "" {
		log.Debug().Msg("--username and --password specified, using them for BMC credentials")
		return secrets.NewStaticStore(username, password)
	}

	file := viper.GetString("secrets.file")
	if file != "" {
		if ok, _ := PathExists(file); ok {
			store, err := secrets.OpenStore(file)
			if err == nil {
				log.Debug().Str("path", file).Msg("using local secrets store")
				return store
			}
			log.Warn().Err(err).Str("path", file).Msg("failed to open local secrets store")
		}
	}
	return secrets.NewStaticStore(username, password)
}

// GetBMCCredentials resolves the credentials for host from store. Explicit
// --username and --password flags take precedence over stored values.
func GetBMCCredentials(store secrets.Store, host string) (bmc.Credentials, error) {
	creds, err := bmc.GetCredentials(store, host)
	if err != nil {
		return creds, err
	}
	flags := bmc.Credentials{
		Username: viper.GetString("username"),
		Password: viper.GetString("password"),
	}
	return flags.Merge(creds), nil
}
