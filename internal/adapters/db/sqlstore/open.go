package sqlstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/notDuyLam/myshop-wp/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Opener builds a gorm handle for a semicolon style connection string.
type Opener func(ctx context.Context, connectionString string) (*gorm.DB, error)

const DefaultConnectTimeout = 5 * time.Second

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		// callers ping with their own context
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	}
}

// OpenPostgres is the production Opener.
func OpenPostgres(_ context.Context, connectionString string) (*gorm.DB, error) {
	cfg := domain.ParseConnectionString(connectionString)
	return gorm.Open(postgres.Open(PostgresDSN(cfg, DefaultConnectTimeout)), gormConfig())
}

// Open opens a SQLite database file with foreign keys enforced.
func Open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
	}, gormConfig())
}

// SQLiteOpener ignores the connection string and always opens path. It backs
// local single-file mode and tests.
func SQLiteOpener(path string) Opener {
	return func(context.Context, string) (*gorm.DB, error) {
		return Open(path)
	}
}

// PostgresDSN renders cfg in libpq keyword/value form.
func PostgresDSN(cfg domain.DatabaseConfig, connectTimeout time.Duration) string {
	parts := []string{
		"host=" + quoteDSNValue(cfg.Host),
		"port=" + strconv.Itoa(cfg.Port),
		"dbname=" + quoteDSNValue(cfg.Database),
		"user=" + quoteDSNValue(cfg.Username),
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+quoteDSNValue(cfg.Password))
	}
	if connectTimeout > 0 {
		parts = append(parts, fmt.Sprintf("connect_timeout=%d", int(connectTimeout.Seconds())))
	}
	return strings.Join(parts, " ")
}

func quoteDSNValue(value string) string {
	if value != "" && !strings.ContainsAny(value, ` '\`) {
		return value
	}
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + replacer.Replace(value) + "'"
}
