package models

import (
	"time"

	"github.com/google/uuid"
)

// Inventory is the per-product stock projection of the catalog.
type Inventory struct {
	ProductID     uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	VendorID      uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;index"`
	StockQuantity int       `gorm:"column:stock_quantity;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Inventory) TableName() string {
	return "inventory"
}
