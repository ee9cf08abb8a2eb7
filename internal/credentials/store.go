// Package credentials persists the bearer token and display name of the
// signed-in user.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Credential is the signed-in user. Its absence means signed out.
type Credential struct {
	Token       string `json:"authToken"`
	DisplayName string `json:"userName"`
}

// Valid reports whether the credential carries a token.
func (c *Credential) Valid() bool {
	return c != nil && strings.TrimSpace(c.Token) != ""
}

// Name returns the display name, or "User" when none was recorded.
func (c *Credential) Name() string {
	if c == nil || strings.TrimSpace(c.DisplayName) == "" {
		return "User"
	}
	return c.DisplayName
}

// Store is a persistent home for one Credential. A Save must be visible
// to the next Load.
type Store interface {
	// Save replaces the stored credential.
	Save(c Credential) error
	// Load returns the stored credential, or nil when there is none.
	Load() (*Credential, error)
	// Clear removes the stored credential. Clearing an empty store is not an error.
	Clear() error
}

// Backend names accepted by Open.
const (
	BackendKeyring = "keyring"
	BackendFile    = "file"
)

// ErrEmptyToken is returned when saving a credential without a token.
var ErrEmptyToken = errors.New("credential has no token")

// Open returns the store for backend. dir is only used by the file backend.
func Open(backend, dir string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendKeyring:
		return NewKeyringStore(), nil
	case BackendFile:
		return NewFileStore(dir), nil
	default:
		return nil, fmt.Errorf("unknown credential backend %q: use %q or %q", backend, BackendKeyring, BackendFile)
	}
}

func encode(c Credential) ([]byte, error) {
	if strings.TrimSpace(c.Token) == "" {
		return nil, ErrEmptyToken
	}
	return json.Marshal(c)
}

func decode(data []byte) (*Credential, error) {
	var c Credential
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("corrupt credential: %w", err)
	}
	if !c.Valid() {
		return nil, nil
	}
	return &c, nil
}
