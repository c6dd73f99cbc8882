package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionStringRoundTrip(t *testing.T) {
	configs := []DatabaseConfig{
		DefaultDatabaseConfig(),
		DevelopmentDatabaseConfig(),
		{Host: "db.internal", Port: 6543, Database: "shop", Username: "owner", Password: "s3cr=t"},
		{Host: "10.0.0.7", Port: 1, Database: "a", Username: "b", Password: "p@ss word"},
	}
	for _, cfg := range configs {
		got := ParseConnectionString(cfg.ConnectionString())
		assert.Equal(t, cfg, got)
	}
}

func TestRoundTripWithoutPasswordIsUnusable(t *testing.T) {
	cfg := DatabaseConfig{Host: "h", Port: 5432, Database: "d", Username: "u"}
	got := ParseConnectionString(cfg.ConnectionString())
	assert.Equal(t, cfg, got)
	assert.False(t, got.Usable())
}

func TestParseConnectionStringIsLenient(t *testing.T) {
	got := ParseConnectionString("HOST=example.org; port=abc;garbage;Unknown=1;DataBase = shop ;USERNAME=me;Password=x")
	assert.Equal(t, DatabaseConfig{Host: "example.org", Port: 5432, Database: "shop", Username: "me", Password: "x"}, got)

	assert.Equal(t, DefaultDatabaseConfig(), ParseConnectionString(""))
	assert.Equal(t, DefaultDatabaseConfig(), ParseConnectionString(";;;="))
}

func TestValidate(t *testing.T) {
	require.NoError(t, DevelopmentDatabaseConfig().Validate())

	missing := DevelopmentDatabaseConfig()
	missing.Host = "  "
	assert.ErrorIs(t, missing.Validate(), ErrValidation)

	badPort := DevelopmentDatabaseConfig()
	badPort.Port = 70000
	assert.ErrorIs(t, badPort.Validate(), ErrValidation)
}

func TestRedactedHidesPassword(t *testing.T) {
	cfg := DevelopmentDatabaseConfig()
	assert.NotContains(t, cfg.Redacted(), "password=password")
	assert.Contains(t, cfg.Redacted(), "Password=****")
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("fk violation")
	err := Referenced("Product is referenced by orders", cause)
	assert.ErrorIs(t, err, ErrReferenced)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Product is referenced by orders", Message(err))

	assert.Empty(t, Message(Cancelled(nil)))
	assert.Equal(t, "database error: boom", Message(StoreFailure(errors.New("boom"))))
}

func TestLineTotal(t *testing.T) {
	assert.Equal(t, 30, LineTotal(3, decimal.NewFromInt(10)))
	assert.Equal(t, 8, LineTotal(3, decimal.RequireFromString("2.5")))
	assert.Equal(t, 0, LineTotal(0, decimal.RequireFromString("9.99")))
}

func TestParseProductSort(t *testing.T) {
	assert.Equal(t, SortByImportPrice, ParseProductSort("Price"))
	assert.Equal(t, SortByCount, ParseProductSort("stock"))
	assert.Equal(t, SortByName, ParseProductSort("whatever"))
}
