package enums

import "testing"

func TestOrderStatusTerminal(t *testing.T) {
	terminal := map[OrderStatus]bool{
		OrderStatusDelivered: true,
		OrderStatusCancelled: true,
	}
	for _, status := range validOrderStatuses {
		if got := status.IsTerminal(); got != terminal[status] {
			t.Fatalf("status %s terminal=%v want %v", status, got, terminal[status])
		}
	}
}

func TestParseRejectsUnknownValues(t *testing.T) {
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatal("expected unknown order status to fail")
	}
	if _, err := ParsePaymentMethod("MasterCard"); err == nil {
		t.Fatal("payment methods are matched exactly")
	}
	if _, err := ParseNotificationAudience("everyone"); err == nil {
		t.Fatal("expected unknown audience to fail")
	}
	if _, err := ParseCancelRequestStatus("reopened"); err == nil {
		t.Fatal("expected unknown cancel status to fail")
	}
}

func TestParseAcceptsKnownValues(t *testing.T) {
	status, err := ParseOrderStatus("partially_delivered")
	if err != nil || status != OrderStatusPartiallyDelivered {
		t.Fatalf("unexpected parse result %q %v", status, err)
	}
	kind, err := ParseNotificationKind("low_stock")
	if err != nil || kind != NotificationKindLowStock {
		t.Fatalf("unexpected parse result %q %v", kind, err)
	}
	item, err := ParseProductStatus("ready")
	if err != nil || item != ProductStatusReady {
		t.Fatalf("unexpected parse result %q %v", item, err)
	}
}

func TestParseErrorNamesTheEnum(t *testing.T) {
	_, err := ParsePaymentMethod("cheque")
	if err == nil || err.Error() != `invalid payment method "cheque"` {
		t.Fatalf("unexpected error %v", err)
	}
	if !OutboxDLQReasonMaxAttempts.IsValid() || OutboxDLQErrorReason("timeout").IsValid() {
		t.Fatal("dlq reason validation mismatch")
	}
}
