package util

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenCHAMI/mercator/pkg/secrets"
)

func TestParseKeyValues(t *testing.T) {
	settings, err := ParseKeyValues([]string{"BootMode=Uefi", "Cores=8", "Enabled=true", `Name="007"`, "Empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"BootMode": "Uefi",
		"Cores":    8,
		"Enabled":  true,
		"Name":     "007",
		"Empty":    "",
	}, settings)

	_, err = ParseKeyValues([]string{"novalue"})
	assert.Error(t, err)
	_, err = ParseKeyValues([]string{"=x"})
	assert.Error(t, err)
}

func TestFormatErrorList(t *testing.T) {
	assert.NoError(t, FormatErrorList(nil))
	err := FormatErrorList([]error{errors.New("first"), errors.New("second")})
	assert.EqualError(t, err, "2 error(s):\n\t[0] first\n\t[1] second")
}

func TestPathExists(t *testing.T) {
	ok, err := PathExists(t.TempDir())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = PathExists(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCredentialsFromFlagsAndStore(t *testing.T) {
	defer viper.Reset()
	key, err := secrets.GenerateMasterKey()
	require.NoError(t, err)
	t.Setenv(secrets.MasterKeyEnv, key)

	file := filepath.Join(t.TempDir(), "secrets.json")
	store, err := secrets.OpenStore(file)
	require.NoError(t, err)
	require.NoError(t, store.Put("10.0.0.1", `{"username":"root","password":"calvin"}`))

	viper.Set("secrets.file", file)
	viper.Set("password", "override")
	built := BuildSecretStore()
	_, local := built.(*secrets.LocalStore)
	assert.True(t, local)

	creds, err := GetBMCCredentials(built, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "root", creds.Username)
	assert.Equal(t, "override", creds.Password)

	viper.Set("username", "admin")
	built = BuildSecretStore()
	creds, err = GetBMCCredentials(built, "10.0.0.9")
	require.NoError(t, err)
	assert.Equal(t, "admin", creds.Username)
	assert.Equal(t, "override", creds.Password)
}
