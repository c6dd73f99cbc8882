package application

import (
	"context"
	"errors"

	"github.com/notDuyLam/myshop-wp/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const DefaultOrderListLimit = 100

type OrderItemInput struct {
	ProductID     uint
	Quantity      int
	UnitSalePrice decimal.Decimal
}

type OrderService struct {
	stores domain.StoreSource
	log    zerolog.Logger
}

func NewOrderService(stores domain.StoreSource, log zerolog.Logger) *OrderService {
	return &OrderService{stores: stores, log: log.With().Str("component", "orders").Logger()}
}

// Create records a new order. Line totals and the final price are fixed here
// and never recomputed.
func (s *OrderService) Create(ctx context.Context, items []OrderItemInput) (domain.Order, error) {
	if len(items) == 0 {
		return domain.Order{}, domain.Validation("an order needs at least one item")
	}

	order := domain.Order{Status: domain.OrderCreated, Items: make([]domain.OrderItem, 0, len(items))}
	for i, in := range items {
		if in.ProductID == 0 {
			return domain.Order{}, domain.Validation("item %d: product is required", i+1)
		}
		if in.Quantity <= 0 {
			return domain.Order{}, domain.Validation("item %d: quantity must be positive", i+1)
		}
		if in.UnitSalePrice.IsNegative() {
			return domain.Order{}, domain.Validation("item %d: unit price must not be negative", i+1)
		}
		total := domain.LineTotal(in.Quantity, in.UnitSalePrice)
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:     in.ProductID,
			Quantity:      in.Quantity,
			UnitSalePrice: in.UnitSalePrice,
			TotalPrice:    total,
		})
		order.FinalPrice += total
	}

	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	defer s.release(store)

	created, err := store.CreateOrder(ctx, order)
	if errors.Is(err, domain.ErrReferenced) {
		return domain.Order{}, domain.Validation("order references a product that does not exist")
	}
	if err != nil {
		return domain.Order{}, classify(ctx, s.log, "create order", err)
	}
	s.log.Info().Uint("order_id", created.ID).Int("final_price", created.FinalPrice).Msg("order created")
	return created, nil
}

func (s *OrderService) Get(ctx context.Context, id uint) (domain.Order, error) {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	defer s.release(store)

	order, err := store.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, classify(ctx, s.log, "get order", err)
	}
	return order, nil
}

func (s *OrderService) List(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 || limit > DefaultOrderListLimit*10 {
		limit = DefaultOrderListLimit
	}

	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.release(store)

	orders, err := store.ListOrders(ctx, limit)
	if err != nil {
		return nil, classify(ctx, s.log, "list orders", err)
	}
	return orders, nil
}

// SetStatus moves a Created order to Paid or Cancelled. Settled orders are
// final.
func (s *OrderService) SetStatus(ctx context.Context, id uint, status domain.OrderStatus) (domain.Order, error) {
	if !status.Valid() {
		return domain.Order{}, domain.Validation("unknown order status %q", status)
	}

	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	defer s.release(store)

	current, err := store.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, classify(ctx, s.log, "get order", err)
	}
	if current.Status == status {
		return current, nil
	}
	if current.Status != domain.OrderCreated || status == domain.OrderCreated {
		return domain.Order{}, domain.Validation("cannot change order status from %s to %s", current.Status, status)
	}

	updated, err := store.UpdateOrderStatus(ctx, id, current.Status, status)
	if errors.Is(err, domain.ErrStatusChanged) {
		return domain.Order{}, domain.Validation("cannot change order status to %s: order %d was settled meanwhile", status, id)
	}
	if err != nil {
		return domain.Order{}, classify(ctx, s.log, "update order status", err)
	}
	return updated, nil
}

func (s *OrderService) Remove(ctx context.Context, id uint) error {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.release(store)

	if err := store.DeleteOrder(ctx, id); err != nil {
		return classify(ctx, s.log, "remove order", err)
	}
	return nil
}

func (s *OrderService) release(store domain.Store) {
	if err := store.Close(); err != nil {
		s.log.Debug().Err(err).Msg("release store handle")
	}
}
