package sqlstore

import (
	"time"

	"github.com/shopspring/decimal"
)

type CategoryModel struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Description string
}

func (CategoryModel) TableName() string { return "categories" }

type ProductModel struct {
	ID          uint   `gorm:"primaryKey"`
	SKU         string `gorm:"column:sku;uniqueIndex;not null"`
	Name        string `gorm:"not null;index"`
	ImportPrice int    `gorm:"not null"`
	Count       int    `gorm:"not null"`
	Description string
	CategoryID  uint          `gorm:"not null;index"`
	Category    CategoryModel `gorm:"foreignKey:CategoryID"`
}

func (ProductModel) TableName() string { return "products" }

type OrderModel struct {
	ID         uint             `gorm:"primaryKey"`
	CreatedAt  time.Time        `gorm:"column:created_time"`
	FinalPrice int              `gorm:"not null"`
	Status     string           `gorm:"not null"`
	Items      []OrderItemModel `gorm:"foreignKey:OrderID"`
}

func (OrderModel) TableName() string { return "orders" }

type OrderItemModel struct {
	ID            uint            `gorm:"primaryKey"`
	OrderID       uint            `gorm:"not null;index"`
	ProductID     uint            `gorm:"not null;index"`
	Quantity      int             `gorm:"not null"`
	UnitSalePrice decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	TotalPrice    int             `gorm:"not null"`
}

func (OrderItemModel) TableName() string { return "order_items" }
