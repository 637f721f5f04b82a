package enums

// OrderStatus tracks the aggregate lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending            OrderStatus = "pending"
	OrderStatusPurchased          OrderStatus = "purchased"
	OrderStatusAccepted           OrderStatus = "accepted"
	OrderStatusProcessing         OrderStatus = "processing"
	OrderStatusPartiallyDelivered OrderStatus = "partially_delivered"
	OrderStatusDelivered          OrderStatus = "delivered"
	OrderStatusCancelled          OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPurchased,
	OrderStatusAccepted,
	OrderStatusProcessing,
	OrderStatusPartiallyDelivered,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	return member(validOrderStatuses, s)
}

// IsTerminal reports whether no further transition may leave the status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	return parse("order status", validOrderStatuses, value)
}
