package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/collette-backend/pkg/enums"
)

// OrderCreatedEvent announces a persisted order.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderCode   string            `json:"order_code" validate:"required"`
	CustomerID  *uuid.UUID        `json:"customer_id,omitempty"`
	VendorIDs   []uuid.UUID       `json:"vendor_ids"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	ItemCount   int               `json:"item_count"`
	Origin      string            `json:"origin"`
	Status      enums.OrderStatus `json:"status"`
}

// OrderStatusChangedEvent covers direct status overwrites and vendor deliveries.
type OrderStatusChangedEvent struct {
	OrderID           uuid.UUID         `json:"order_id"`
	OrderCode         string            `json:"order_code" validate:"required"`
	PreviousStatus    enums.OrderStatus `json:"previous_status"`
	Status            enums.OrderStatus `json:"status"`
	VendorID          *uuid.UUID        `json:"vendor_id,omitempty"`
	DeliveredProducts []uuid.UUID       `json:"delivered_products,omitempty"`
}

// CancellationEvent covers request, rejection and acceptance.
type CancellationEvent struct {
	OrderID       uuid.UUID                 `json:"order_id"`
	OrderCode     string                    `json:"order_code" validate:"required"`
	RequestStatus enums.CancelRequestStatus `json:"request_status"`
	OrderStatus   enums.OrderStatus         `json:"order_status"`
	Reason        string                    `json:"reason,omitempty"`
}

// LowStockEvent is raised by the inventory synchronizer.
type LowStockEvent struct {
	ProductID     uuid.UUID `json:"product_id"`
	ProductName   string    `json:"product_name" validate:"required"`
	VendorID      uuid.UUID `json:"vendor_id"`
	StockQuantity int       `json:"stock_quantity" validate:"gte=0"`
	Threshold     int       `json:"threshold"`
}
