package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/collette-backend/pkg/db/models"
	"github.com/angelmondragon/collette-backend/pkg/enums"
	"github.com/angelmondragon/collette-backend/pkg/types"
)

// Origin names who placed the order.
type Origin string

const (
	OriginCustomer Origin = "customer"
	OriginAdmin    Origin = "admin"
)

// ItemInput is one requested product inside a group.
type ItemInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gte=1"`
}

// ItemGroup is a caller-defined batch of items sharing a list item id.
type ItemGroup struct {
	ListItemID int         `json:"list_item_id" validate:"gte=0"`
	Items      []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// CreateOrderInput carries a customer- or admin-initiated order.
type CreateOrderInput struct {
	Origin        Origin               `json:"origin" validate:"required,oneof=customer admin"`
	Groups        []ItemGroup          `json:"order_items_groups" validate:"required,min=1,dive"`
	PaymentMethod *enums.PaymentMethod `json:"payment_method,omitempty"`
	CustomerID    *uuid.UUID           `json:"customer_id,omitempty"`
	// BindCustomer attaches CustomerID to an admin-created order.
	BindCustomer bool `json:"created_for_customer"`
	// IncludeBilling snapshots billing details from the customer profile.
	IncludeBilling bool                  `json:"include_billing"`
	Billing        *types.BillingDetails `json:"billing_details,omitempty"`
	OrderDate      *time.Time            `json:"order_date,omitempty"`
}

// DecideCancellationInput is the staff decision on a pending request.
type DecideCancellationInput struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
	Approve bool      `json:"approve"`
	Note    *string   `json:"note,omitempty" validate:"omitempty,max=500"`
}

// ItemDTO is the API shape of an order item.
type ItemDTO struct {
	ID            uuid.UUID           `json:"id"`
	ProductID     uuid.UUID           `json:"product_id"`
	ProductName   string              `json:"product_name"`
	VendorID      uuid.UUID           `json:"vendor_id"`
	Quantity      int                 `json:"quantity"`
	Price         decimal.Decimal     `json:"price"`
	ProductStatus enums.ProductStatus `json:"product_status"`
}

// ItemGroupDTO groups items by list item id in first-seen order.
type ItemGroupDTO struct {
	ListItemID int       `json:"list_item_id"`
	Items      []ItemDTO `json:"items"`
}

// CancellationDTO keeps cancellation_approved for older consumers.
type CancellationDTO struct {
	RequestStatus        enums.CancelRequestStatus `json:"cancel_request_status"`
	CancellationApproved bool                      `json:"cancellation_approved"`
	CancellationDate     time.Time                 `json:"cancellation_date"`
	Note                 *string                   `json:"note,omitempty"`
}

// OrderDTO is the API shape of an order.
type OrderDTO struct {
	ID                uuid.UUID             `json:"id"`
	Code              string                `json:"order_id"`
	Status            enums.OrderStatus     `json:"status"`
	PaymentMethod     *enums.PaymentMethod  `json:"payment_method,omitempty"`
	CustomerID        *uuid.UUID            `json:"customer_id,omitempty"`
	CreatedByCustomer bool                  `json:"created_by_customer"`
	CreatedByAdmin    bool                  `json:"created_by_admin"`
	BillingDetails    *types.BillingDetails `json:"billing_details,omitempty"`
	TotalAmount       decimal.Decimal       `json:"total_amount"`
	OrderDate         time.Time             `json:"order_date"`
	Groups            []ItemGroupDTO        `json:"order_items_groups"`
	Cancellation      *CancellationDTO      `json:"order_cancellation,omitempty"`
}

// ToDTO maps an order aggregate to its API shape.
func ToDTO(order *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:                order.ID,
		Code:              order.Code,
		Status:            order.Status,
		PaymentMethod:     order.PaymentMethod,
		CustomerID:        order.CustomerID,
		CreatedByCustomer: order.CreatedByCustomer,
		CreatedByAdmin:    order.CreatedByAdmin,
		BillingDetails:    order.BillingDetails,
		TotalAmount:       order.TotalAmount,
		OrderDate:         order.OrderDate,
		Groups:            groupItems(order.Items),
	}
	if c := order.Cancellation; c != nil {
		dto.Cancellation = &CancellationDTO{
			RequestStatus:        c.Status,
			CancellationApproved: c.Approved(),
			CancellationDate:     c.CancellationDate,
			Note:                 c.Note,
		}
	}
	return dto
}

// ToDTOs maps a slice of orders.
func ToDTOs(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, ToDTO(&rows[i]))
	}
	return out
}

func groupItems(items []models.OrderItem) []ItemGroupDTO {
	groups := []ItemGroupDTO{}
	index := map[int]int{}
	for _, item := range items {
		pos, ok := index[item.ListItemID]
		if !ok {
			pos = len(groups)
			index[item.ListItemID] = pos
			groups = append(groups, ItemGroupDTO{ListItemID: item.ListItemID})
		}
		groups[pos].Items = append(groups[pos].Items, ItemDTO{
			ID:            item.ID,
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			VendorID:      item.VendorID,
			Quantity:      item.Quantity,
			Price:         item.Price,
			ProductStatus: item.ProductStatus,
		})
	}
	return groups
}
