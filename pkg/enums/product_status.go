package enums

// ProductStatus tracks fulfillment of a single order item.
type ProductStatus string

const (
	ProductStatusPurchased ProductStatus = "purchased"
	ProductStatusReady     ProductStatus = "ready"
	ProductStatusDelivered ProductStatus = "delivered"
)

var validProductStatuses = []ProductStatus{
	ProductStatusPurchased,
	ProductStatusReady,
	ProductStatusDelivered,
}

func (s ProductStatus) String() string {
	return string(s)
}

func (s ProductStatus) IsValid() bool {
	return member(validProductStatuses, s)
}

func ParseProductStatus(value string) (ProductStatus, error) {
	return parse("product status", validProductStatuses, value)
}
