package enums

// CancelRequestStatus is the single source of truth for a cancellation record.
type CancelRequestStatus string

const (
	CancelRequestPending  CancelRequestStatus = "pending"
	CancelRequestAccepted CancelRequestStatus = "accepted"
	CancelRequestRejected CancelRequestStatus = "rejected"
)

var validCancelRequestStatuses = []CancelRequestStatus{
	CancelRequestPending,
	CancelRequestAccepted,
	CancelRequestRejected,
}

func (c CancelRequestStatus) IsValid() bool {
	return member(validCancelRequestStatuses, c)
}

func ParseCancelRequestStatus(value string) (CancelRequestStatus, error) {
	return parse("cancel request status", validCancelRequestStatuses, value)
}
