package application

import (
	"context"

	"github.com/notDuyLam/myshop-wp/internal/domain"
	"github.com/rs/zerolog"
)

// Invalidator drops cached connection state after the configuration changes.
type Invalidator interface {
	Invalidate()
}

type SettingsService struct {
	configs domain.ConfigStore
	tester  domain.ConnectionTester
	cache   Invalidator
	log     zerolog.Logger
}

func NewSettingsService(configs domain.ConfigStore, tester domain.ConnectionTester, cache Invalidator, log zerolog.Logger) *SettingsService {
	return &SettingsService{
		configs: configs,
		tester:  tester,
		cache:   cache,
		log:     log.With().Str("component", "settings").Logger(),
	}
}

// Current returns the stored config, or the defaults when nothing is stored.
// The bool reports whether a connection can be attempted with it.
func (s *SettingsService) Current() (domain.DatabaseConfig, bool) {
	cfg, ok := s.configs.Load()
	if !ok {
		return domain.DefaultDatabaseConfig(), false
	}
	return cfg, cfg.Usable()
}

func (s *SettingsService) Save(_ context.Context, cfg domain.DatabaseConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := s.configs.Save(cfg); err != nil {
		s.log.Error().Err(err).Str("path", s.configs.Path()).Msg("save database config")
		return domain.StoreFailure(err)
	}
	s.cache.Invalidate()
	s.log.Info().Str("connection", cfg.Redacted()).Msg("database config saved")
	return nil
}

// Test makes a single connection attempt with cfg. Failures are reported as
// ConnectionFailure carrying the driver message.
func (s *SettingsService) Test(ctx context.Context, cfg domain.DatabaseConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ok, msg := s.tester.TestRaw(ctx, cfg.ConnectionString())
	if ctx.Err() != nil {
		return domain.Cancelled(ctx.Err())
	}
	if !ok {
		return &domain.Error{Kind: domain.ErrConnectionFailure, Message: "cannot connect to database: " + msg}
	}
	return nil
}

// TestStore checks reachability through the store access layer using the
// connection string the application would use right now.
func (s *SettingsService) TestStore(ctx context.Context) error {
	cs, err := s.configs.ConnectionString(ctx)
	if err != nil {
		return domain.ConnectionFailure(err)
	}
	if ok, msg := s.tester.TestViaStore(ctx, cs); !ok {
		return &domain.Error{Kind: domain.ErrConnectionFailure, Message: msg}
	}
	return nil
}

func (s *SettingsService) Reset() error {
	if err := s.configs.Delete(); err != nil {
		return domain.StoreFailure(err)
	}
	s.cache.Invalidate()
	s.log.Info().Msg("database config removed")
	return nil
}
