// Package bmc resolves the credentials used to log in to a BMC.
package bmc

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/OpenCHAMI/mercator/pkg/secrets"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c Credentials) Empty() bool {
	return c.Username == "" && c.Password == ""
}

// ParseCredentials decodes a {"username","password"} secret.
func ParseCredentials(secret string) (Credentials, error) {
	var creds Credentials
	if err := json.Unmarshal([]byte(secret), &creds); err != nil {
		return creds, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	if creds.Empty() {
		return creds, fmt.Errorf("credentials have neither username nor password")
	}
	return creds, nil
}

// GetCredentials looks up the credentials stored for host, falling back to
// the store's default entry. Missing entries yield empty credentials so flag
// values can still fill them in; malformed entries are an error.
func GetCredentials(store secrets.Store, host string) (Credentials, error) {
	if host != secrets.DefaultKey {
		if secret, err := store.Get(host); err == nil {
			creds, err := ParseCredentials(secret)
			if err != nil {
				return creds, fmt.Errorf("credentials for %s: %w", host, err)
			}
			log.Debug().Str("host", host).Msg("using host credentials")
			return creds, nil
		}
		log.Debug().Str("host", host).Msg("no host credentials, falling back to default")
	}

	secret, err := store.Get(secrets.DefaultKey)
	if err != nil {
		log.Warn().Str("host", host).Err(err).Msg("no default credentials set, they will be blank unless set by flags")
		return Credentials{}, nil
	}
	creds, err := ParseCredentials(secret)
	if err != nil {
		return creds, fmt.Errorf("default credentials: %w", err)
	}
	return creds, nil
}

// Merge fills fields left empty in c from fallback.
func (c Credentials) Merge(fallback Credentials) Credentials {
	if c.Username == "" {
		c.Username = fallback.Username
	}
	if c.Password == "" {
		c.Password = fallback.Password
	}
	return c
}
