package application

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/notDuyLam/myshop-wp/internal/adapters/db/sqlstore"
	"github.com/notDuyLam/myshop-wp/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type staticSource string

func (s staticSource) ConnectionString(context.Context) (string, error) { return string(s), nil }

func newTestStores(t *testing.T) *sqlstore.Provider {
	t.Helper()
	p := sqlstore.NewProvider(staticSource("local"), sqlstore.SQLiteOpener(filepath.Join(t.TempDir(), "app.db")), zerolog.Nop())
	t.Cleanup(func() { _ = p.Close() })
	require.NoError(t, p.MigrateAndSeed(context.Background()))
	return p
}

type failingStores struct {
	t     *testing.T
	err   error
	calls int
}

func (f *failingStores) Acquire(context.Context) (domain.Store, error) {
	f.calls++
	if f.err == nil {
		f.t.Fatalf("store acquired unexpectedly")
	}
	return nil, f.err
}
