package application

import (
	"context"
	"testing"

	"github.com/notDuyLam/myshop-wp/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderFixture(t *testing.T) (*OrderService, []domain.Product) {
	t.Helper()
	stores := newTestStores(t)
	catalog := NewCatalogService(stores, zerolog.Nop())
	categories, err := catalog.ListCategories(context.Background())
	require.NoError(t, err)
	return NewOrderService(stores, zerolog.Nop()), addProducts(t, catalog, categories[0].ID, 3)
}

func TestCreateOrderComputesTotals(t *testing.T) {
	ctx := context.Background()
	svc, products := newOrderFixture(t)

	order, err := svc.Create(ctx, []OrderItemInput{
		{ProductID: products[0].ID, Quantity: 3, UnitSalePrice: decimal.RequireFromString("2.5")},
		{ProductID: products[1].ID, Quantity: 2, UnitSalePrice: decimal.RequireFromString("1999")},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCreated, order.Status)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 8, order.Items[0].TotalPrice)
	assert.Equal(t, 3998, order.Items[1].TotalPrice)
	assert.Equal(t, 4006, order.FinalPrice)

	stored, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 4006, stored.FinalPrice)
	sum := 0
	for _, item := range stored.Items {
		assert.Equal(t, domain.LineTotal(item.Quantity, item.UnitSalePrice), item.TotalPrice)
		sum += item.TotalPrice
	}
	assert.Equal(t, stored.FinalPrice, sum)
}

func TestCreateOrderValidation(t *testing.T) {
	ctx := context.Background()
	svc, products := newOrderFixture(t)
	id := products[0].ID

	cases := map[string][]OrderItemInput{
		"empty":           nil,
		"no product":      {{Quantity: 1, UnitSalePrice: decimal.NewFromInt(1)}},
		"zero quantity":   {{ProductID: id, Quantity: 0, UnitSalePrice: decimal.NewFromInt(1)}},
		"negative price":  {{ProductID: id, Quantity: 1, UnitSalePrice: decimal.NewFromInt(-1)}},
		"missing product": {{ProductID: 4242, Quantity: 1, UnitSalePrice: decimal.NewFromInt(1)}},
	}
	for name, items := range cases {
		_, err := svc.Create(ctx, items)
		assert.ErrorIs(t, err, domain.ErrValidation, name)
	}

	list, err := svc.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOrderStatusTransitions(t *testing.T) {
	ctx := context.Background()
	svc, products := newOrderFixture(t)
	line := []OrderItemInput{{ProductID: products[0].ID, Quantity: 1, UnitSalePrice: decimal.NewFromInt(10)}}

	paid, err := svc.Create(ctx, line)
	require.NoError(t, err)
	got, err := svc.SetStatus(ctx, paid.ID, domain.OrderPaid)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPaid, got.Status)

	_, err = svc.SetStatus(ctx, paid.ID, domain.OrderCancelled)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.SetStatus(ctx, paid.ID, domain.OrderCreated)
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err = svc.SetStatus(ctx, paid.ID, domain.OrderPaid)
	require.NoError(t, err, "same status is a no-op")
	assert.Equal(t, domain.OrderPaid, got.Status)

	cancelled, err := svc.Create(ctx, line)
	require.NoError(t, err)
	got, err = svc.SetStatus(ctx, cancelled.ID, domain.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, got.Status)

	_, err = svc.SetStatus(ctx, cancelled.ID, "Shipped")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.SetStatus(ctx, 999, domain.OrderPaid)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRemoveOrderReleasesProducts(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)
	catalog := NewCatalogService(stores, zerolog.Nop())
	orders := NewOrderService(stores, zerolog.Nop())
	categories, err := catalog.ListCategories(ctx)
	require.NoError(t, err)
	products := addProducts(t, catalog, categories[0].ID, 1)

	order, err := orders.Create(ctx, []OrderItemInput{{ProductID: products[0].ID, Quantity: 2, UnitSalePrice: decimal.NewFromInt(3)}})
	require.NoError(t, err)
	assert.ErrorIs(t, catalog.RemoveProduct(ctx, products[0].ID), domain.ErrReferenced)

	require.NoError(t, orders.Remove(ctx, order.ID))
	_, err = orders.Get(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, catalog.RemoveProduct(ctx, products[0].ID))
}

// staleStores hands out stores whose GetOrder always reports the order as
// Created, the view a concurrent request had before another one settled it.
type staleStores struct{ inner domain.StoreSource }

func (s staleStores) Acquire(ctx context.Context) (domain.Store, error) {
	store, err := s.inner.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return staleOrderStore{store}, nil
}

type staleOrderStore struct{ domain.Store }

func (s staleOrderStore) GetOrder(ctx context.Context, id uint) (domain.Order, error) {
	order, err := s.Store.GetOrder(ctx, id)
	order.Status = domain.OrderCreated
	return order, err
}

func TestSetStatusLosesRaceWithoutOverwriting(t *testing.T) {
	ctx := context.Background()
	stores := newTestStores(t)
	catalog := NewCatalogService(stores, zerolog.Nop())
	categories, err := catalog.ListCategories(ctx)
	require.NoError(t, err)
	products := addProducts(t, catalog, categories[0].ID, 1)

	svc := NewOrderService(stores, zerolog.Nop())
	order, err := svc.Create(ctx, []OrderItemInput{{ProductID: products[0].ID, Quantity: 1, UnitSalePrice: decimal.NewFromInt(5)}})
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, order.ID, domain.OrderPaid)
	require.NoError(t, err)

	late := NewOrderService(staleStores{stores}, zerolog.Nop())
	_, err = late.SetStatus(ctx, order.ID, domain.OrderCancelled)
	assert.ErrorIs(t, err, domain.ErrValidation)

	stored, err := svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPaid, stored.Status)
}
