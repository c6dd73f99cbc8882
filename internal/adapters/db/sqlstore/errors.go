package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/notDuyLam/myshop-wp/internal/domain"
	"gorm.io/gorm"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const pgForeignKeyViolation = "23503"

// IsForeignKeyViolation recognises referential integrity failures from either
// dialect, translated by gorm or not.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY ||
			strings.Contains(liteErr.Error(), "FOREIGN KEY constraint failed")
	}

	return false
}

// isAborted reports failures caused by cancellation or by using a handle that
// was already released.
func isAborted(ctx context.Context, err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	// database/sql does not export the closed-pool error.
	if strings.Contains(err.Error(), "sql: database is closed") {
		return true
	}
	return ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled)
}

// translate maps driver failures onto domain error kinds.
func translate(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case isAborted(ctx, err):
		return domain.Cancelled(err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &domain.Error{Kind: domain.ErrNotFound, Err: err}
	case IsForeignKeyViolation(err):
		return &domain.Error{Kind: domain.ErrReferenced, Err: err}
	}
	return domain.StoreFailure(err)
}
