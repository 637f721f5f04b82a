package enums

// PaymentMethod records how the customer intends to settle an order.
type PaymentMethod string

const (
	PaymentMethodVisa           PaymentMethod = "visa"
	PaymentMethodMasterCard     PaymentMethod = "master_card"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodVisa,
	PaymentMethodMasterCard,
	PaymentMethodCashOnDelivery,
}

// String returns the stored value.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	return member(validPaymentMethods, p)
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	return parse("payment method", validPaymentMethods, value)
}
