package notifications

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/collette-backend/pkg/db/models"
	"github.com/angelmondragon/collette-backend/pkg/enums"
)

// Customer builds a resolved customer-facing notification for an order.
func Customer(kind enums.NotificationKind, order *models.Order, message string) *models.Notification {
	return &models.Notification{
		Kind:              kind,
		Message:           message,
		VisibleToCustomer: true,
		IsResolved:        true,
		CustomerID:        order.CustomerID,
		OrderID:           &order.ID,
	}
}

// Staff builds an unresolved notification visible to CSR and admins.
func Staff(kind enums.NotificationKind, order *models.Order, message string) *models.Notification {
	return &models.Notification{
		Kind:           kind,
		Message:        message,
		VisibleToAdmin: true,
		VisibleToCSR:   true,
		CustomerID:     order.CustomerID,
		OrderID:        &order.ID,
	}
}

// LowStock builds the unresolved vendor-facing low-stock signal.
func LowStock(product *models.Product, quantity int) *models.Notification {
	vendorID := product.VendorID
	productID := product.ID
	return &models.Notification{
		Kind:            enums.NotificationKindLowStock,
		Message:         LowStockMessage(product.Name, quantity),
		VisibleToVendor: true,
		VendorID:        &vendorID,
		ProductID:       &productID,
	}
}

func DeliveredMessage(code string) string {
	return fmt.Sprintf("Your order %s has been delivered.", code)
}

func PartiallyDeliveredMessage(code string, productIDs []uuid.UUID) string {
	ids := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		ids = append(ids, id.String())
	}
	return fmt.Sprintf("Order %s partially delivered. Delivered products: %s.", code, strings.Join(ids, ", "))
}

func CancellationRequestedMessage(code string) string {
	return fmt.Sprintf("Cancellation requested for order %s.", code)
}

func CancellationRejectedMessage(code string, status enums.OrderStatus) string {
	reason := "it was declined by our staff"
	switch status {
	case enums.OrderStatusDelivered:
		reason = "it has already been delivered"
	case enums.OrderStatusPartiallyDelivered:
		reason = "it has already been partially delivered"
	}
	return fmt.Sprintf("Your cancellation request for order %s was rejected because %s.", code, reason)
}

func CancelledMessage(code string) string {
	return fmt.Sprintf("Your order %s has been cancelled successfully.", code)
}

func LowStockMessage(productName string, quantity int) string {
	return fmt.Sprintf("Low stock: %s has only %d units remaining.", productName, quantity)
}
