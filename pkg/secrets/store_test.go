package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*LocalStore, string) {
	t.Helper()
	key, err := GenerateMasterKey()
	require.NoError(t, err)
	filename := filepath.Join(t.TempDir(), "secrets.json")
	store, err := NewLocalStore(key, filename, true)
	require.NoError(t, err)
	return store, key
}

func TestGenerateMasterKey(t *testing.T) {
	key, err := GenerateMasterKey()
	require.NoError(t, err)
	assert.Len(t, key, 2*keySize)
}

func TestSealOpen(t *testing.T) {
	key := deriveKey([]byte("master"), "bmc-01")
	assert.Len(t, key, keySize)
	assert.Equal(t, key, deriveKey([]byte("master"), "bmc-01"))
	assert.NotEqual(t, key, deriveKey([]byte("master"), "bmc-02"))

	sealed, err := seal(key, []byte("hunter2"))
	require.NoError(t, err)
	plain, err := open(key, sealed)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", plain)

	_, err = open(deriveKey([]byte("master"), "bmc-02"), sealed)
	assert.Error(t, err)
	_, err = open(key, "00")
	assert.ErrorIs(t, err, errCiphertextTooShort)
}

func TestLocalStore(t *testing.T) {
	store, key := newStore(t)
	creds := `{"username":"root","password":"calvin"}`

	require.NoError(t, store.Put("10.0.0.1", creds))
	got, err := store.Get("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, creds, got)

	listed, err := store.List()
	require.NoError(t, err)
	assert.Len(t, listed, 1)
	assert.NotEqual(t, creds, listed["10.0.0.1"])

	reopened, err := NewLocalStore(key, store.filename, false)
	require.NoError(t, err)
	got, err = reopened.Get("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, creds, got)

	require.NoError(t, store.Remove("10.0.0.1"))
	_, err = store.Get("10.0.0.1")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.ErrorIs(t, store.Remove("10.0.0.1"), ErrNotFound)

	reopened, err = NewLocalStore(key, store.filename, false)
	require.NoError(t, err)
	_, err = reopened.Get("10.0.0.1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreMissingFile(t *testing.T) {
	key, err := GenerateMasterKey()
	require.NoError(t, err)
	_, err = NewLocalStore(key, filepath.Join(t.TempDir(), "absent.json"), false)
	assert.Error(t, err)
	_, err = NewLocalStore("not-hex", filepath.Join(t.TempDir(), "s.json"), true)
	assert.Error(t, err)
}

func TestOpenStoreNeedsMasterKey(t *testing.T) {
	t.Setenv(MasterKeyEnv, "")
	_, err := OpenStore(filepath.Join(t.TempDir(), "s.json"))
	assert.Error(t, err)

	key, err := GenerateMasterKey()
	require.NoError(t, err)
	t.Setenv(MasterKeyEnv, key)
	filename := filepath.Join(t.TempDir(), "s.json")
	_, err = OpenStore(filename)
	require.NoError(t, err)
	_, err = os.Stat(filename)
	assert.NoError(t, err)
}

func TestStaticStore(t *testing.T) {
	s := NewStaticStore("admin", `pa"ss`)
	got, err := s.Get("anything")
	require.NoError(t, err)
	assert.JSONEq(t, `{"username":"admin","password":"pa\"ss"}`, got)
	listed, err := s.List()
	require.NoError(t, err)
	assert.Contains(t, listed, DefaultKey)
}
