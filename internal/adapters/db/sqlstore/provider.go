package sqlstore

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/notDuyLam/myshop-wp/internal/domain"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Provider hands out short-lived store handles built from the configured
// connection string. The string is read once and cached until Invalidate.
// Handles share one pool per connection string; closing a handle returns it
// without touching the pool.
type Provider struct {
	configs domain.ConnectionSource
	open    Opener
	log     zerolog.Logger
	cached  atomic.Pointer[string]

	mu      sync.Mutex
	pool    *gorm.DB
	poolFor string
}

func NewProvider(configs domain.ConnectionSource, open Opener, log zerolog.Logger) *Provider {
	return &Provider{
		configs: configs,
		open:    open,
		log:     log.With().Str("component", "store-provider").Logger(),
	}
}

func (p *Provider) ConnectionString(ctx context.Context) (string, error) {
	if cs := p.cached.Load(); cs != nil {
		return *cs, nil
	}
	cs, err := p.configs.ConnectionString(ctx)
	if err != nil {
		return "", err
	}
	p.cached.Store(&cs)
	return cs, nil
}

// Invalidate drops the cached connection string. Call it after the stored
// configuration changes. The pool is replaced on the next Acquire if the
// reloaded string differs.
func (p *Provider) Invalidate() {
	p.cached.Store(nil)
	p.log.Debug().Msg("connection string cache invalidated")
}

func (p *Provider) Acquire(ctx context.Context) (domain.Store, error) {
	return p.acquire(ctx)
}

func (p *Provider) acquire(ctx context.Context) (*Repository, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Cancelled(err)
	}
	cs, err := p.ConnectionString(ctx)
	if err != nil {
		return nil, domain.ConnectionFailure(err)
	}
	db, err := p.pooled(ctx, cs)
	if err != nil {
		if isAborted(ctx, err) {
			return nil, domain.Cancelled(err)
		}
		p.log.Error().Err(err).Msg("open store")
		return nil, domain.ConnectionFailure(err)
	}
	return borrow(db), nil
}

// pooled returns the pool for cs, opening and pinging a new one with ctx when
// the connection string changed. Handles still running on a replaced pool
// fail as cancelled.
func (p *Provider) pooled(ctx context.Context, cs string) (*gorm.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pool != nil && p.poolFor == cs {
		return p.pool, nil
	}

	db, err := p.open(ctx, cs)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	if p.pool != nil {
		if err := closePool(p.pool); err != nil {
			p.log.Warn().Err(err).Msg("close replaced pool")
		}
		p.log.Debug().Msg("store pool replaced")
	}
	p.pool, p.poolFor = db, cs
	return db, nil
}

// Close shuts the shared pool down. Later Acquire calls open a new one.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pool == nil {
		return nil
	}
	err := closePool(p.pool)
	p.pool, p.poolFor = nil, ""
	return err
}

// MigrateAndSeed applies pending migrations and seeds an empty catalog.
func (p *Provider) MigrateAndSeed(ctx context.Context) error {
	repo, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()

	results, err := RunMigrations(ctx, repo.DB())
	if err != nil {
		return translate(ctx, err)
	}
	for _, res := range results {
		p.log.Info().Str("migration", res.Source.Path).Dur("took", res.Duration).Msg("migration applied")
	}
	if len(results) == 0 {
		p.log.Debug().Msg("schema up to date")
	}

	return translate(ctx, Seed(ctx, repo.DB()))
}
