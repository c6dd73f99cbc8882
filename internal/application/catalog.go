package application

import (
	"context"
	"errors"
	"strings"

	"github.com/notDuyLam/myshop-wp/internal/domain"
	"github.com/rs/zerolog"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 500

	msgProductReferenced = "Product is referenced by orders"
	msgCategoryInUse     = "Category still owns products"
)

type CatalogService struct {
	stores domain.StoreSource
	log    zerolog.Logger
}

func NewCatalogService(stores domain.StoreSource, log zerolog.Logger) *CatalogService {
	return &CatalogService{stores: stores, log: log.With().Str("component", "catalog").Logger()}
}

// QueryProducts returns one page of the filtered, sorted catalog.
func (s *CatalogService) QueryProducts(ctx context.Context, query domain.ProductQuery) (domain.ProductPage, error) {
	if query.PageSize <= 0 {
		return domain.ProductPage{}, domain.Validation("page size must be positive, got %d", query.PageSize)
	}
	if query.PageSize > MaxPageSize {
		return domain.ProductPage{}, domain.Validation("page size must be at most %d", MaxPageSize)
	}
	if query.Page < 1 {
		return domain.ProductPage{}, domain.Validation("page must be at least 1, got %d", query.Page)
	}
	query.Keyword = strings.TrimSpace(query.Keyword)
	query.Sort = domain.ParseProductSort(string(query.Sort))

	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return domain.ProductPage{}, err
	}
	defer s.release(store)

	items, total, err := store.QueryProducts(ctx, query)
	if err != nil {
		return domain.ProductPage{}, s.storeError(ctx, "query products", err)
	}

	pageSize := int64(query.PageSize)
	return domain.ProductPage{
		Items:      items,
		TotalItems: total,
		TotalPages: int((total + pageSize - 1) / pageSize),
		Page:       query.Page,
		PageSize:   query.PageSize,
	}, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (domain.Product, error) {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	defer s.release(store)

	p, err := store.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, s.storeError(ctx, "get product", err)
	}
	return p, nil
}

// AddProduct leaves validation to the store; constraint failures come back
// as store failures.
func (s *CatalogService) AddProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	defer s.release(store)

	created, err := store.CreateProduct(ctx, p)
	if err != nil {
		return domain.Product{}, s.storeError(ctx, "add product", err)
	}
	s.log.Info().Uint("product_id", created.ID).Str("sku", created.SKU).Msg("product added")
	return created, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	defer s.release(store)

	updated, err := store.UpdateProduct(ctx, p)
	if err != nil {
		return domain.Product{}, s.storeError(ctx, "update product", err)
	}
	return updated, nil
}

func (s *CatalogService) RemoveProduct(ctx context.Context, id uint) error {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.release(store)

	err = store.DeleteProduct(ctx, id)
	if errors.Is(err, domain.ErrReferenced) {
		return domain.Referenced(msgProductReferenced, err)
	}
	if err != nil {
		return s.storeError(ctx, "remove product", err)
	}
	s.log.Info().Uint("product_id", id).Msg("product removed")
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.release(store)

	items, err := store.ListCategories(ctx)
	if err != nil {
		return nil, s.storeError(ctx, "list categories", err)
	}
	return items, nil
}

func (s *CatalogService) AddCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return domain.Category{}, domain.Validation("category name is required")
	}

	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return domain.Category{}, err
	}
	defer s.release(store)

	created, err := store.CreateCategory(ctx, c)
	if err != nil {
		return domain.Category{}, s.storeError(ctx, "add category", err)
	}
	return created, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return domain.Category{}, domain.Validation("category name is required")
	}

	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return domain.Category{}, err
	}
	defer s.release(store)

	updated, err := store.UpdateCategory(ctx, c)
	if err != nil {
		return domain.Category{}, s.storeError(ctx, "update category", err)
	}
	return updated, nil
}

func (s *CatalogService) RemoveCategory(ctx context.Context, id uint) error {
	store, err := s.stores.Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.release(store)

	err = store.DeleteCategory(ctx, id)
	if errors.Is(err, domain.ErrReferenced) {
		return domain.Referenced(msgCategoryInUse, err)
	}
	if err != nil {
		return s.storeError(ctx, "remove category", err)
	}
	return nil
}

func (s *CatalogService) release(store domain.Store) {
	if err := store.Close(); err != nil {
		s.log.Debug().Err(err).Msg("release store handle")
	}
}

func (s *CatalogService) storeError(ctx context.Context, op string, err error) error {
	return classify(ctx, s.log, op, err)
}

// classify keeps cancellation and not-found as they are and folds every other
// failure into StoreFailure.
func classify(ctx context.Context, log zerolog.Logger, op string, err error) error {
	switch {
	case domain.IsCancelled(err) || errors.Is(ctx.Err(), context.Canceled):
		return domain.Cancelled(err)
	case errors.Is(err, domain.ErrNotFound):
		return err
	}
	log.Error().Err(err).Str("op", op).Msg("store failure")
	if errors.Is(err, domain.ErrStoreFailure) {
		return err
	}
	return domain.StoreFailure(err)
}
