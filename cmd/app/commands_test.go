package main

import (
	"context"
	"testing"

	"github.com/notDuyLam/myshop-wp/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestParseOrderItem(t *testing.T) {
	item, err := parseOrderItem("7:3:19.99")
	require.NoError(t, err)
	assert.Equal(t, uint(7), item.ProductID)
	assert.Equal(t, 3, item.Quantity)
	assert.True(t, item.UnitSalePrice.Equal(decimal.RequireFromString("19.99")))

	for _, raw := range []string{"", "7:3", "x:3:1", "7:y:1", "7:3:abc", "1:2:3:4"} {
		_, err := parseOrderItem(raw)
		assert.ErrorIs(t, err, domain.ErrValidation, "input %q", raw)
	}
}

func runWithFlags(t *testing.T, flags []cli.Flag, args []string, fn func(c *cli.Command)) {
	t.Helper()
	cmd := &cli.Command{
		Name:  "test",
		Flags: flags,
		Action: func(_ context.Context, c *cli.Command) error {
			fn(c)
			return nil
		},
	}
	require.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, args...)))
}

func TestDatabaseConfigFromFlagsKeepsUnsetFields(t *testing.T) {
	base := domain.DatabaseConfig{Host: "db.local", Port: 6543, Database: "shop", Username: "owner", Password: "s3cret"}

	var got domain.DatabaseConfig
	runWithFlags(t, databaseFlags(), []string{"--host", "db.internal", "--port", "5432"}, func(c *cli.Command) {
		got = databaseConfigFromFlags(c, base)
	})
	assert.Equal(t, domain.DatabaseConfig{Host: "db.internal", Port: 5432, Database: "shop", Username: "owner", Password: "s3cret"}, got)

	runWithFlags(t, databaseFlags(), []string{"--connection-string", "Host=h;Port=1;Database=d;Username=u;Password=p"}, func(c *cli.Command) {
		got = databaseConfigFromFlags(c, base)
	})
	assert.Equal(t, domain.DatabaseConfig{Host: "h", Port: 1, Database: "d", Username: "u", Password: "p"}, got)
}

func TestApplyProductFlagsOverridesOnlySetFields(t *testing.T) {
	current := domain.Product{ID: 4, SKU: "A-1", Name: "Phone", ImportPrice: 100, Count: 2, CategoryID: 1}

	var got domain.Product
	runWithFlags(t, productFlags(false), []string{"--count", "0", "--category", "3"}, func(c *cli.Command) {
		got = applyProductFlags(c, current)
	})
	assert.Equal(t, domain.Product{ID: 4, SKU: "A-1", Name: "Phone", ImportPrice: 100, Count: 0, CategoryID: 3}, got)
}

func TestParseIDArg(t *testing.T) {
	var (
		id  uint
		err error
	)
	runWithFlags(t, nil, []string{"12"}, func(c *cli.Command) { id, err = parseIDArg(c) })
	require.NoError(t, err)
	assert.Equal(t, uint(12), id)

	runWithFlags(t, nil, []string{"zero"}, func(c *cli.Command) { _, err = parseIDArg(c) })
	assert.ErrorIs(t, err, domain.ErrValidation)

	runWithFlags(t, nil, nil, func(c *cli.Command) { _, err = parseIDArg(c) })
	assert.ErrorIs(t, err, domain.ErrValidation)
}

type pageQuerier struct {
	got domain.ProductQuery
	err error
}

func (q *pageQuerier) QueryProducts(_ context.Context, query domain.ProductQuery) (domain.ProductPage, error) {
	q.got = query
	if q.err != nil {
		return domain.ProductPage{}, q.err
	}
	return domain.ProductPage{
		Items:      []domain.Product{{ID: 1, Name: "Phone"}},
		TotalItems: 11,
		TotalPages: 2,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}, nil
}

func TestLoadProductPageGoesThroughView(t *testing.T) {
	ctx := context.Background()
	src := &pageQuerier{}
	query := domain.ProductQuery{Keyword: "ph", Sort: domain.SortByCount, Page: 2, PageSize: 10}

	page, err := loadProductPage(ctx, src, zerolog.Nop(), query)
	require.NoError(t, err)
	assert.Equal(t, query, src.got)
	assert.Equal(t, domain.ProductPage{
		Items:      []domain.Product{{ID: 1, Name: "Phone"}},
		TotalItems: 11,
		TotalPages: 2,
		Page:       2,
		PageSize:   10,
	}, page)

	src.err = domain.Validation("page size must be positive, got 0")
	_, err = loadProductPage(ctx, src, zerolog.Nop(), query)
	assert.ErrorIs(t, err, domain.ErrValidation)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	src.err = domain.Cancelled(context.Canceled)
	_, err = loadProductPage(cancelled, src, zerolog.Nop(), query)
	assert.True(t, domain.IsCancelled(err))
}
