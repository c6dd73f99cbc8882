package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/notDuyLam/myshop-wp/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errReleased = errors.New("store handle already released")

// Repository implements domain.Store over a gorm handle. Once closed, every
// call fails with a cancellation error.
type Repository struct {
	db       *gorm.DB
	release  func() error
	released atomic.Bool
}

// NewRepository owns db: closing the repository closes the pool.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, release: func() error { return closePool(db) }}
}

// borrow wraps a pool owned by someone else. Close only retires the handle.
func borrow(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *gorm.DB { return r.db }

func (r *Repository) session(ctx context.Context) (*gorm.DB, error) {
	if r.released.Load() {
		return nil, domain.Cancelled(errReleased)
	}
	return r.db.WithContext(ctx), nil
}

func (r *Repository) Ping(ctx context.Context) error {
	if r.released.Load() {
		return domain.Cancelled(errReleased)
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return translate(ctx, err)
	}
	return translate(ctx, sqlDB.PingContext(ctx))
}

func (r *Repository) Close() error {
	if r.released.Swap(true) || r.release == nil {
		return nil
	}
	return r.release()
}

func closePool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *Repository) QueryProducts(ctx context.Context, query domain.ProductQuery) ([]domain.Product, int64, error) {
	db, err := r.session(ctx)
	if err != nil {
		return nil, 0, err
	}
	q := db.Model(&ProductModel{})
	if keyword := strings.TrimSpace(query.Keyword); keyword != "" {
		like := "%" + escapeLike(strings.ToLower(keyword)) + "%"
		lower := lowerFunc(r.db.Dialector.Name())
		q = q.Where(fmt.Sprintf(`(%[1]s(name) LIKE ? ESCAPE '\' OR %[1]s(sku) LIKE ? ESCAPE '\')`, lower), like, like)
	}
	if query.CategoryID != nil {
		q = q.Where("category_id = ?", *query.CategoryID)
	}
	// count and page share the filter
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(ctx, err)
	}

	rows := make([]ProductModel, 0, query.PageSize)
	err = q.Preload("Category").
		Order(sortColumn(query.Sort) + " ASC").
		Order("id ASC").
		Offset((query.Page - 1) * query.PageSize).
		Limit(query.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, translate(ctx, err)
	}

	result := make([]domain.Product, 0, len(rows))
	for _, m := range rows {
		result = append(result, productFromModel(m))
	}
	return result, total, nil
}

func (r *Repository) GetProduct(ctx context.Context, id uint) (domain.Product, error) {
	db, err := r.session(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	var m ProductModel
	if err := db.Preload("Category").First(&m, id).Error; err != nil {
		return domain.Product{}, translate(ctx, err)
	}
	return productFromModel(m), nil
}

func (r *Repository) CreateProduct(ctx context.Context, value domain.Product) (domain.Product, error) {
	db, err := r.session(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	m := productToModel(value)
	m.ID = 0
	if err := db.Omit(clause.Associations).Create(&m).Error; err != nil {
		return domain.Product{}, translate(ctx, err)
	}
	return productFromModel(m), nil
}

func (r *Repository) UpdateProduct(ctx context.Context, value domain.Product) (domain.Product, error) {
	db, err := r.session(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	m := productToModel(value)
	res := db.
		Model(&ProductModel{ID: value.ID}).
		Select("sku", "name", "import_price", "count", "description", "category_id").
		Updates(&m)
	if res.Error != nil {
		return domain.Product{}, translate(ctx, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Product{}, domain.NotFound("product %d not found", value.ID)
	}
	return productFromModel(m), nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id uint) error {
	db, err := r.session(ctx)
	if err != nil {
		return err
	}
	res := db.Delete(&ProductModel{}, id)
	if res.Error != nil {
		return translate(ctx, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("product %d not found", id)
	}
	return nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	db, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]CategoryModel, 0)
	if err := db.Order("name ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, translate(ctx, err)
	}
	result := make([]domain.Category, 0, len(rows))
	for _, m := range rows {
		result = append(result, categoryFromModel(m))
	}
	return result, nil
}

func (r *Repository) CreateCategory(ctx context.Context, value domain.Category) (domain.Category, error) {
	db, err := r.session(ctx)
	if err != nil {
		return domain.Category{}, err
	}
	m := CategoryModel{Name: value.Name, Description: value.Description}
	if err := db.Create(&m).Error; err != nil {
		return domain.Category{}, translate(ctx, err)
	}
	return categoryFromModel(m), nil
}

func (r *Repository) UpdateCategory(ctx context.Context, value domain.Category) (domain.Category, error) {
	db, err := r.session(ctx)
	if err != nil {
		return domain.Category{}, err
	}
	res := db.
		Model(&CategoryModel{ID: value.ID}).
		Select("name", "description").
		Updates(CategoryModel{Name: value.Name, Description: value.Description})
	if res.Error != nil {
		return domain.Category{}, translate(ctx, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Category{}, domain.NotFound("category %d not found", value.ID)
	}
	return value, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id uint) error {
	db, err := r.session(ctx)
	if err != nil {
		return err
	}
	res := db.Delete(&CategoryModel{}, id)
	if res.Error != nil {
		return translate(ctx, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("category %d not found", id)
	}
	return nil
}

func (r *Repository) CreateOrder(ctx context.Context, value domain.Order) (domain.Order, error) {
	db, err := r.session(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	m := OrderModel{FinalPrice: value.FinalPrice, Status: string(value.Status)}
	for _, item := range value.Items {
		m.Items = append(m.Items, OrderItemModel{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			UnitSalePrice: item.UnitSalePrice,
			TotalPrice:    item.TotalPrice,
		})
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&m).Error
	})
	if err != nil {
		return domain.Order{}, translate(ctx, err)
	}
	return orderFromModel(m), nil
}

func (r *Repository) GetOrder(ctx context.Context, id uint) (domain.Order, error) {
	db, err := r.session(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	var m OrderModel
	err = db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&m, id).Error
	if err != nil {
		return domain.Order{}, translate(ctx, err)
	}
	return orderFromModel(m), nil
}

func (r *Repository) ListOrders(ctx context.Context, limit int) ([]domain.Order, error) {
	db, err := r.session(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]OrderModel, 0)
	err = db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, translate(ctx, err)
	}
	result := make([]domain.Order, 0, len(rows))
	for _, m := range rows {
		result = append(result, orderFromModel(m))
	}
	return result, nil
}

// UpdateOrderStatus moves an order from one status to another in a single
// conditional update. It fails with domain.ErrStatusChanged when the order
// exists but is no longer in status from.
func (r *Repository) UpdateOrderStatus(ctx context.Context, id uint, from, to domain.OrderStatus) (domain.Order, error) {
	db, err := r.session(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	res := db.Model(&OrderModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if res.Error != nil {
		return domain.Order{}, translate(ctx, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(&OrderModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return domain.Order{}, translate(ctx, err)
		}
		if count == 0 {
			return domain.Order{}, domain.NotFound("order %d not found", id)
		}
		return domain.Order{}, domain.ErrStatusChanged
	}
	return r.GetOrder(ctx, id)
}

func (r *Repository) DeleteOrder(ctx context.Context, id uint) error {
	db, err := r.session(ctx)
	if err != nil {
		return err
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&OrderItemModel{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&OrderModel{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translate(ctx, err)
}

func sortColumn(sort domain.ProductSort) string {
	switch sort {
	case domain.SortByImportPrice:
		return "import_price"
	case domain.SortByCount:
		return "count"
	}
	return "name"
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}

func categoryFromModel(m CategoryModel) domain.Category {
	return domain.Category{ID: m.ID, Name: m.Name, Description: m.Description}
}

func productFromModel(m ProductModel) domain.Product {
	return domain.Product{
		ID:          m.ID,
		SKU:         m.SKU,
		Name:        m.Name,
		ImportPrice: m.ImportPrice,
		Count:       m.Count,
		Description: m.Description,
		CategoryID:  m.CategoryID,
		Category:    categoryFromModel(m.Category),
	}
}

func productToModel(value domain.Product) ProductModel {
	return ProductModel{
		ID:          value.ID,
		SKU:         value.SKU,
		Name:        value.Name,
		ImportPrice: value.ImportPrice,
		Count:       value.Count,
		Description: value.Description,
		CategoryID:  value.CategoryID,
	}
}

func orderFromModel(m OrderModel) domain.Order {
	order := domain.Order{
		ID:         m.ID,
		CreatedAt:  m.CreatedAt,
		FinalPrice: m.FinalPrice,
		Status:     domain.OrderStatus(m.Status),
		Items:      make([]domain.OrderItem, 0, len(m.Items)),
	}
	for _, item := range m.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ID:            item.ID,
			OrderID:       item.OrderID,
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			UnitSalePrice: item.UnitSalePrice,
			TotalPrice:    item.TotalPrice,
		})
	}
	return order
}
