package credentials

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "mise-en-place"
	keyringUser    = "default"
)

// KeyringStore keeps the credential in the OS keyring (Keychain, Secret
// Service, Windows Credential Manager).
type KeyringStore struct {
	service string
	user    string
}

// NewKeyringStore returns a store using the default keyring entry.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: keyringService, user: keyringUser}
}

func (s *KeyringStore) Save(c Credential) error {
	data, err := encode(c)
	if err != nil {
		return err
	}
	if err := keyring.Set(s.service, s.user, string(data)); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}

func (s *KeyringStore) Load() (*Credential, error) {
	data, err := keyring.Get(s.service, s.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}
	return decode([]byte(data))
}

func (s *KeyringStore) Clear() error {
	err := keyring.Delete(s.service, s.user)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to clear keyring: %w", err)
	}
	return nil
}
