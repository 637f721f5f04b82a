package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/collette-backend/pkg/enums"
	"github.com/angelmondragon/collette-backend/pkg/types"
)

// Order is the root aggregate of the order lifecycle.
type Order struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Code              string                `gorm:"column:code;not null;uniqueIndex:orders_code_key"`
	Status            enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'purchased'"`
	PaymentMethod     *enums.PaymentMethod  `gorm:"column:payment_method;type:text"`
	CustomerID        *uuid.UUID            `gorm:"column:customer_id;type:uuid"`
	CreatedByCustomer bool                  `gorm:"column:created_by_customer;not null;default:false"`
	CreatedByAdmin    bool                  `gorm:"column:created_by_admin;not null;default:false"`
	BillingDetails    *types.BillingDetails `gorm:"column:billing_details;type:jsonb;serializer:json"`
	TotalAmount       decimal.Decimal       `gorm:"column:total_amount;type:numeric(12,2);not null"`
	OrderDate         time.Time             `gorm:"column:order_date;not null"`
	Version           int                   `gorm:"column:version;not null;default:0"`
	Items             []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Cancellation      *OrderCancellation    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// ItemsForVendor returns the items owned by vendorID, in order.
func (o *Order) ItemsForVendor(vendorID uuid.UUID) []OrderItem {
	var out []OrderItem
	for _, item := range o.Items {
		if item.VendorID == vendorID {
			out = append(out, item)
		}
	}
	return out
}

// AllItemsDelivered reports whether every item has reached delivered.
func (o *Order) AllItemsDelivered() bool {
	if len(o.Items) == 0 {
		return false
	}
	for _, item := range o.Items {
		if item.ProductStatus != enums.ProductStatusDelivered {
			return false
		}
	}
	return true
}

// OrderItem is owned by exactly one order.
type OrderItem struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	ListItemID    int                 `gorm:"column:list_item_id;not null"`
	Position      int                 `gorm:"column:position;not null;default:0"`
	ProductID     uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	ProductName   string              `gorm:"column:product_name;not null"`
	VendorID      uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null;index"`
	Quantity      int                 `gorm:"column:quantity;not null"`
	Price         decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	ProductStatus enums.ProductStatus `gorm:"column:product_status;type:text;not null;default:'purchased'"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// LineTotal is price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderCancellation holds the single cancellation record of an order. It is
// overwritten wholesale on every request or decision.
type OrderCancellation struct {
	OrderID          uuid.UUID                 `gorm:"column:order_id;type:uuid;primaryKey"`
	Status           enums.CancelRequestStatus `gorm:"column:request_status;type:text;not null"`
	CancellationDate time.Time                 `gorm:"column:cancellation_date;not null"`
	Note             *string                   `gorm:"column:note"`
	UpdatedAt        time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

// Approved is derived from Status and kept for payloads that still expect it.
func (c *OrderCancellation) Approved() bool {
	return c != nil && c.Status == enums.CancelRequestAccepted
}
