package types

import "testing"

func TestBillingDetailsNormalizeFillsSingleLine(t *testing.T) {
	details := &BillingDetails{
		CustomerName: "  Ada Lovelace ",
		Email:        "ada@example.com",
		BillingAddress: &BillingAddress{
			StreetAddress: "12 King St",
			City:          "Toronto",
			Province:      "ON",
			PostalCode:    "M5H 1A1",
			Country:       "CA",
		},
	}
	details.Normalize()

	if details.CustomerName != "Ada Lovelace" {
		t.Fatalf("expected trimmed name, got %q", details.CustomerName)
	}
	want := "12 King St, Toronto, ON, M5H 1A1, CA"
	if details.SingleBillingAddress != want {
		t.Fatalf("expected %q got %q", want, details.SingleBillingAddress)
	}
}

func TestBillingDetailsNormalizeKeepsExplicitSingleLine(t *testing.T) {
	details := &BillingDetails{
		SingleBillingAddress: "PO Box 9",
		BillingAddress:       &BillingAddress{StreetAddress: "ignored"},
	}
	details.Normalize()
	if details.SingleBillingAddress != "PO Box 9" {
		t.Fatalf("explicit single line should win, got %q", details.SingleBillingAddress)
	}
}
