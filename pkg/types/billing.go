package types

import (
	"fmt"
	"strings"
)

// BillingAddress is the postal part of a billing snapshot.
type BillingAddress struct {
	StreetAddress string `json:"street_address" validate:"required"`
	City          string `json:"city" validate:"required"`
	Province      string `json:"province" validate:"required"`
	PostalCode    string `json:"postal_code" validate:"required"`
	Country       string `json:"country" validate:"required"`
}

// Formatted renders the address on one line.
func (a BillingAddress) Formatted() string {
	parts := []string{a.StreetAddress, a.City, a.Province, a.PostalCode, a.Country}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, ", ")
}

// BillingDetails is the point-in-time contact snapshot captured when an order
// is created. It is never re-derived from the customer profile afterwards.
type BillingDetails struct {
	CustomerName         string          `json:"customer_name" validate:"required"`
	Email                string          `json:"email" validate:"required,email"`
	Phone                string          `json:"phone,omitempty"`
	SingleBillingAddress string          `json:"single_billing_address,omitempty"`
	BillingAddress       *BillingAddress `json:"billing_address,omitempty" validate:"omitempty"`
}

// Normalize fills the single-line address from the structured one when absent.
func (b *BillingDetails) Normalize() {
	if b == nil {
		return
	}
	b.CustomerName = strings.TrimSpace(b.CustomerName)
	b.Email = strings.TrimSpace(b.Email)
	b.Phone = strings.TrimSpace(b.Phone)
	if b.SingleBillingAddress == "" && b.BillingAddress != nil {
		b.SingleBillingAddress = b.BillingAddress.Formatted()
	}
}

func (b BillingDetails) String() string {
	return fmt.Sprintf("%s <%s>", b.CustomerName, b.Email)
}
