package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// DatabaseConfig holds PostgreSQL connection parameters. Password is plaintext
// only in memory; stores persist it sealed.
type DatabaseConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		Database: "myshop_db",
		Username: "postgres",
	}
}

// DevelopmentDatabaseConfig is used when nothing usable has been configured yet.
func DevelopmentDatabaseConfig() DatabaseConfig {
	cfg := DefaultDatabaseConfig()
	cfg.Password = "password"
	return cfg
}

// Usable reports whether a connection may be attempted with this config.
// A config without password is treated as not configured.
func (c DatabaseConfig) Usable() bool {
	return c.Password != ""
}

func (c DatabaseConfig) Validate() error {
	if strings.TrimSpace(c.Host) == "" || strings.TrimSpace(c.Database) == "" || strings.TrimSpace(c.Username) == "" {
		return Validation("host, database and username are required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return Validation("port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

func (c DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("Host=%s;Port=%d;Database=%s;Username=%s;Password=%s", c.Host, c.Port, c.Database, c.Username, c.Password)
}

// Redacted is ConnectionString with the password masked, for logs and output.
func (c DatabaseConfig) Redacted() string {
	masked := c
	if masked.Password != "" {
		masked.Password = "****"
	}
	return masked.ConnectionString()
}

// ParseConnectionString extracts a config from semicolon separated Key=Value
// pairs. Keys are case-insensitive, unknown keys and malformed segments are
// skipped, and a non-numeric port leaves the default in place.
func ParseConnectionString(value string) DatabaseConfig {
	cfg := DefaultDatabaseConfig()
	if value == "" {
		return cfg
	}

	for _, part := range strings.Split(value, ";") {
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "host":
			cfg.Host = val
		case "port":
			if port, err := strconv.Atoi(val); err == nil {
				cfg.Port = port
			}
		case "database":
			cfg.Database = val
		case "username":
			cfg.Username = val
		case "password":
			cfg.Password = val
		}
	}

	return cfg
}
