package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/notDuyLam/myshop-wp/internal/domain"
)

type settingsFile struct {
	OwnerUsername        string `json:"owner_username,omitempty"`
	OwnerPasswordHashEnc string `json:"owner_password_hash_enc,omitempty"`
	IsLoggedIn           bool   `json:"is_logged_in"`
}

// CredentialStore keeps the single owner credential and the session flag in
// settings.json. The password hash is sealed before it is written.
type CredentialStore struct {
	mu     sync.Mutex
	path   string
	sealer *Sealer
}

func NewCredentialStore(path string, sealer *Sealer) *CredentialStore {
	return &CredentialStore{path: path, sealer: sealer}
}

func (s *CredentialStore) Path() string { return s.path }

func (s *CredentialStore) read() (settingsFile, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return settingsFile{}, nil
	}
	if err != nil {
		return settingsFile{}, err
	}
	if len(data) == 0 {
		return settingsFile{}, nil
	}
	var f settingsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return settingsFile{}, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return f, nil
}

// Owner reports the provisioned credential. An unreadable file is an error,
// not an unprovisioned installation.
func (s *CredentialStore) Owner() (domain.OwnerCredential, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return domain.OwnerCredential{}, false, err
	}
	if f.OwnerUsername == "" || f.OwnerPasswordHashEnc == "" {
		return domain.OwnerCredential{}, false, nil
	}
	hash, err := s.sealer.Open(f.OwnerPasswordHashEnc)
	if err != nil {
		return domain.OwnerCredential{}, false, fmt.Errorf("open owner credential: %w", err)
	}
	return domain.OwnerCredential{Username: f.OwnerUsername, PasswordHash: hash}, true, nil
}

func (s *CredentialStore) SaveOwner(value domain.OwnerCredential) error {
	sealed, err := s.sealer.Seal(value.PasswordHash)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return err
	}
	f.OwnerUsername = value.Username
	f.OwnerPasswordHashEnc = sealed
	return writeJSON(s.path, f)
}

func (s *CredentialStore) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	return err == nil && f.IsLoggedIn
}

func (s *CredentialStore) SetLoggedIn(value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return err
	}
	f.IsLoggedIn = value
	return writeJSON(s.path, f)
}
