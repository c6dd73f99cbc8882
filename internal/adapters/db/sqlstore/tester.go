package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/notDuyLam/myshop-wp/internal/domain"
)

const emptyConnectionString = "Connection string is empty"

// Tester checks whether a candidate configuration is reachable. It makes a
// single attempt and reports failures as messages.
type Tester struct {
	open    Opener
	timeout time.Duration
}

func NewTester(open Opener, timeout time.Duration) *Tester {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	return &Tester{open: open, timeout: timeout}
}

// TestRaw opens and closes a bare PostgreSQL connection.
func (t *Tester) TestRaw(ctx context.Context, connectionString string) (bool, string) {
	if strings.TrimSpace(connectionString) == "" {
		return false, emptyConnectionString
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cfg := domain.ParseConnectionString(connectionString)
	conn, err := pgx.Connect(ctx, PostgresDSN(cfg, t.timeout))
	if err != nil {
		return false, err.Error()
	}
	if err := conn.Close(ctx); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// TestViaStore builds the store access layer and pings through it.
func (t *Tester) TestViaStore(ctx context.Context, connectionString string) (bool, string) {
	if strings.TrimSpace(connectionString) == "" {
		return false, emptyConnectionString
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	db, err := t.open(ctx, connectionString)
	if err != nil {
		return false, err.Error()
	}
	repo := NewRepository(db)
	defer func() { _ = repo.Close() }()

	if err := repo.Ping(ctx); err != nil {
		return false, "Cannot connect to database: " + domain.Message(err)
	}
	return true, ""
}
