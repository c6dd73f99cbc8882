package settings

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/notDuyLam/myshop-wp/internal/domain"
	"github.com/rs/zerolog"
)

// configFile is the on-disk shape of database.json. Password holds the sealed
// value, never plaintext.
type configFile struct {
	Host     string `json:"Host"`
	Port     int    `json:"Port"`
	Database string `json:"Database"`
	Username string `json:"Username"`
	Password string `json:"Password"`
}

// ConfigStore persists the database connection parameters.
type ConfigStore struct {
	mu     sync.Mutex
	path   string
	sealer *Sealer
	log    zerolog.Logger
}

func NewConfigStore(path string, sealer *Sealer, log zerolog.Logger) *ConfigStore {
	return &ConfigStore{
		path:   path,
		sealer: sealer,
		log:    log.With().Str("component", "config-store").Logger(),
	}
}

func (s *ConfigStore) Path() string { return s.path }

// Load returns false when the file is missing, empty or unreadable.
func (s *ConfigStore) Load() (domain.DatabaseConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn().Err(err).Str("path", s.path).Msg("read database config")
		}
		return domain.DatabaseConfig{}, false
	}
	if len(data) == 0 {
		return domain.DatabaseConfig{}, false
	}

	var raw configFile
	if err := json.Unmarshal(data, &raw); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("decode database config")
		return domain.DatabaseConfig{}, false
	}

	password, err := s.sealer.Open(raw.Password)
	if err != nil {
		s.log.Warn().Err(err).Msg("database password cannot be decrypted, treating config as unusable")
		password = ""
	}

	return domain.DatabaseConfig{
		Host:     raw.Host,
		Port:     raw.Port,
		Database: raw.Database,
		Username: raw.Username,
		Password: password,
	}, true
}

func (s *ConfigStore) Save(cfg domain.DatabaseConfig) error {
	sealed, err := s.sealer.Seal(cfg.Password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.path, configFile{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Database: cfg.Database,
		Username: cfg.Username,
		Password: sealed,
	})
}

func (s *ConfigStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *ConfigStore) Usable() bool {
	cfg, ok := s.Load()
	return ok && cfg.Usable()
}

// ConnectionString falls back to the development default while nothing usable
// is stored.
func (s *ConfigStore) ConnectionString(context.Context) (string, error) {
	cfg, ok := s.Load()
	if !ok || !cfg.Usable() {
		s.log.Debug().Msg("no usable database config, using development default")
		cfg = domain.DevelopmentDatabaseConfig()
	}
	return cfg.ConnectionString(), nil
}
