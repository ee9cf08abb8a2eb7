package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mise-en-place/cli/pkg/util"
)

const credentialFile = "credentials.json"

// FileStore keeps the credential in a JSON file readable only by the owner.
// It is meant for machines without a keyring service.
type FileStore struct {
	path string
}

// NewFileStore returns a store writing to dir/credentials.json.
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, credentialFile)}
}

// Path returns the file the credential is written to.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Save(c Credential) error {
	data, err := encode(c)
	if err != nil {
		return err
	}
	if err := util.WritePrivateFile(s.path, data); err != nil {
		return fmt.Errorf("failed to write credential: %w", err)
	}
	return nil
}

func (s *FileStore) Load() (*Credential, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}
	return decode(data)
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credential: %w", err)
	}
	return nil
}
