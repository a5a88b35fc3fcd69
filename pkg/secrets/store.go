// Package secrets stores BMC credentials. Entries are keyed by BMC host with
// DefaultKey as the catch-all used when a host has no entry of its own.
package secrets

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// DefaultKey holds the credentials used for hosts without their own entry.
const DefaultKey = "default"

// MasterKeyEnv names the environment variable holding the hex master key.
const MasterKeyEnv = "MASTER_KEY"

// ErrNotFound is returned when no secret is stored under an ID.
var ErrNotFound = errors.New("secret not found")

// Store is a keyed secret store.
type Store interface {
	Get(id string) (string, error)
	Put(id, secret string) error
	List() (map[string]string, error)
	Remove(id string) error
}

// LocalStore keeps AES-GCM sealed secrets in a JSON file.
type LocalStore struct {
	mu       sync.RWMutex
	master   []byte
	filename string
	sealed   map[string]string
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore opens the store at filename, creating it when create is set.
func NewLocalStore(masterKeyHex, filename string, create bool) (*LocalStore, error) {
	master, err := hex.DecodeString(masterKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode master key: %w", err)
	}
	if len(master) == 0 {
		return nil, fmt.Errorf("master key is empty")
	}

	sealed := map[string]string{}
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		if !create {
			return nil, fmt.Errorf("secrets file %s does not exist", filename)
		}
		if err := save(filename, sealed); err != nil {
			return nil, fmt.Errorf("failed to create secrets file %s: %w", filename, err)
		}
	} else if sealed, err = load(filename); err != nil {
		return nil, fmt.Errorf("failed to load secrets from %s: %w", filename, err)
	}

	return &LocalStore{master: master, filename: filename, sealed: sealed}, nil
}

// OpenStore opens (or creates) the local store at filename with the master
// key taken from the MASTER_KEY environment variable.
func OpenStore(filename string) (*LocalStore, error) {
	if filename == "" {
		return nil, fmt.Errorf("path to secrets file required")
	}
	key := os.Getenv(MasterKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%s environment variable not set", MasterKeyEnv)
	}
	return NewLocalStore(key, filename, true)
}

// GenerateMasterKey returns a random AES-256 key in hex.
func GenerateMasterKey() (string, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

func (s *LocalStore) Get(id string) (string, error) {
	s.mu.RLock()
	sealed, ok := s.sealed[id]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return open(deriveKey(s.master, id), sealed)
}

func (s *LocalStore) Put(id, secret string) error {
	sealed, err := seal(deriveKey(s.master, id), []byte(secret))
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed[id] = sealed
	return save(s.filename, s.sealed)
}

// List returns the sealed form of every entry.
func (s *LocalStore) List() (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.sealed))
	for k, v := range s.sealed {
		out[k] = v
	}
	return out, nil
}

func (s *LocalStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sealed[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.sealed, id)
	return save(s.filename, s.sealed)
}

func save(filename string, sealed map[string]string) error {
	file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(sealed)
}

func load(filename string) (map[string]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	sealed := map[string]string{}
	if err := json.NewDecoder(file).Decode(&sealed); err != nil {
		return nil, err
	}
	return sealed, nil
}

// StaticStore answers every lookup with the same credentials. It backs the
// --username/--password flags.
type StaticStore struct {
	Username string
	Password string
}

var _ Store = (*StaticStore)(nil)

func NewStaticStore(username, password string) *StaticStore {
	return &StaticStore{Username: username, Password: password}
}

func (s *StaticStore) Get(id string) (string, error) {
	data, err := json.Marshal(map[string]string{"username": s.Username, "password": s.Password})
	return string(data), err
}

func (s *StaticStore) Put(id, secret string) error { return nil }

func (s *StaticStore) List() (map[string]string, error) {
	creds, err := s.Get(DefaultKey)
	if err != nil {
		return nil, err
	}
	return map[string]string{DefaultKey: creds}, nil
}

func (s *StaticStore) Remove(id string) error { return nil }
