package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// credentialsFile is the on-disk shape of a persisted session. The file
// holds the opaque bearer token and the user profile so a process restart
// restores the session without re-login, subject to CheckAuth
// revalidation.
type credentialsFile struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// FileStore persists session credentials to a JSON file with 0600
// permissions, the same way cached provider tokens are stored.
type FileStore struct {
	path string
}

// NewFileStore creates a store writing to path. The parent directory is
// created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultCredentialsPath returns the conventional location for the
// credentials file under the user config directory.
func DefaultCredentialsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user config dir: %w", err)
	}
	return filepath.Join(dir, "mailpilot", "credentials.json"), nil
}

// Save writes the token and user atomically via a rename.
func (s *FileStore) Save(token string, user *User) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	data, err := json.Marshal(credentialsFile{Token: token, User: user})
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}

// Load reads the persisted token and user. A missing file is not an
// error; it returns an empty token and nil user.
func (s *FileStore) Load() (string, *User, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds credentialsFile
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", nil, fmt.Errorf("invalid credentials file: %w", err)
	}
	return creds.Token, creds.User, nil
}

// Clear removes the credentials file. A missing file is not an error.
func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials file: %w", err)
	}
	return nil
}
