package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          uint
	Name        string
	Description string
}

// Product references its category by id. Category is a read-only copy filled in
// by queries that join the owning category.
type Product struct {
	ID          uint
	SKU         string
	Name        string
	ImportPrice int
	Count       int
	Description string
	CategoryID  uint
	Category    Category
}

type OrderStatus string

const (
	OrderCreated   OrderStatus = "Created"
	OrderPaid      OrderStatus = "Paid"
	OrderCancelled OrderStatus = "Cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderCreated, OrderPaid, OrderCancelled:
		return true
	}
	return false
}

type Order struct {
	ID         uint
	CreatedAt  time.Time
	FinalPrice int
	Status     OrderStatus
	Items      []OrderItem
}

type OrderItem struct {
	ID            uint
	OrderID       uint
	ProductID     uint
	Quantity      int
	UnitSalePrice decimal.Decimal
	TotalPrice    int
}

// LineTotal is Quantity × UnitSalePrice rounded to whole currency units.
func LineTotal(quantity int, unitSalePrice decimal.Decimal) int {
	return int(decimal.NewFromInt(int64(quantity)).Mul(unitSalePrice).Round(0).IntPart())
}

type OwnerCredential struct {
	Username     string
	PasswordHash string
}

type ProductSort string

const (
	SortByName        ProductSort = "name"
	SortByImportPrice ProductSort = "price"
	SortByCount       ProductSort = "stock"
)

// ParseProductSort maps user input to a sort key. Unknown keys sort by name.
func ParseProductSort(value string) ProductSort {
	switch ProductSort(value) {
	case SortByImportPrice, "importprice", "ImportPrice", "Price":
		return SortByImportPrice
	case SortByCount, "count", "Count", "Stock":
		return SortByCount
	}
	return SortByName
}

type ProductQuery struct {
	Keyword    string
	CategoryID *uint
	Sort       ProductSort
	Page       int
	PageSize   int
}

type ProductPage struct {
	Items      []Product
	TotalItems int64
	TotalPages int
	Page       int
	PageSize   int
}
