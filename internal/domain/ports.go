package domain

import "context"

type CatalogRepository interface {
	QueryProducts(ctx context.Context, query ProductQuery) ([]Product, int64, error)
	GetProduct(ctx context.Context, id uint) (Product, error)
	CreateProduct(ctx context.Context, value Product) (Product, error)
	UpdateProduct(ctx context.Context, value Product) (Product, error)
	DeleteProduct(ctx context.Context, id uint) error

	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, value Category) (Category, error)
	UpdateCategory(ctx context.Context, value Category) (Category, error)
	DeleteCategory(ctx context.Context, id uint) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, value Order) (Order, error)
	GetOrder(ctx context.Context, id uint) (Order, error)
	ListOrders(ctx context.Context, limit int) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id uint, from, to OrderStatus) (Order, error)
	DeleteOrder(ctx context.Context, id uint) error
}

// Store is a short-lived handle onto the relational store. Callers own it for a
// single logical operation and must Close it.
type Store interface {
	CatalogRepository
	OrderRepository
	Ping(ctx context.Context) error
	Close() error
}

type StoreSource interface {
	Acquire(ctx context.Context) (Store, error)
}

type ConnectionSource interface {
	ConnectionString(ctx context.Context) (string, error)
}

type ConfigStore interface {
	ConnectionSource
	Load() (DatabaseConfig, bool)
	Save(cfg DatabaseConfig) error
	Delete() error
	Usable() bool
	Path() string
}

type CredentialStore interface {
	Owner() (OwnerCredential, bool, error)
	SaveOwner(value OwnerCredential) error
	LoggedIn() bool
	SetLoggedIn(value bool) error
}

type ConnectionTester interface {
	TestRaw(ctx context.Context, connectionString string) (bool, string)
	TestViaStore(ctx context.Context, connectionString string) (bool, string)
}
