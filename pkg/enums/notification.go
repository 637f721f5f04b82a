package enums

// NotificationKind tags what produced a notification so related records can
// be found without matching message text.
type NotificationKind string

const (
	NotificationKindOrderDelivered          NotificationKind = "order_delivered"
	NotificationKindOrderPartiallyDelivered NotificationKind = "order_partially_delivered"
	NotificationKindCancellationRequested   NotificationKind = "cancellation_requested"
	NotificationKindCancellationRejected    NotificationKind = "cancellation_rejected"
	NotificationKindOrderCancelled          NotificationKind = "order_cancelled"
	NotificationKindLowStock                NotificationKind = "low_stock"
	NotificationKindGeneral                 NotificationKind = "general"
)

var validNotificationKinds = []NotificationKind{
	NotificationKindOrderDelivered,
	NotificationKindOrderPartiallyDelivered,
	NotificationKindCancellationRequested,
	NotificationKindCancellationRejected,
	NotificationKindOrderCancelled,
	NotificationKindLowStock,
	NotificationKindGeneral,
}

// IsValid checks whether the given kind matches the canonical enum.
func (n NotificationKind) IsValid() bool {
	return member(validNotificationKinds, n)
}

// ParseNotificationKind converts raw strings into NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	return parse("notification kind", validNotificationKinds, value)
}

// NotificationAudience names one of the independent visibility flags.
type NotificationAudience string

const (
	AudienceCustomer NotificationAudience = "customer"
	AudienceVendor   NotificationAudience = "vendor"
	AudienceAdmin    NotificationAudience = "admin"
	AudienceCSR      NotificationAudience = "csr"
)

var validNotificationAudiences = []NotificationAudience{
	AudienceCustomer,
	AudienceVendor,
	AudienceAdmin,
	AudienceCSR,
}

func (a NotificationAudience) IsValid() bool {
	return member(validNotificationAudiences, a)
}

func ParseNotificationAudience(value string) (NotificationAudience, error) {
	return parse("notification audience", validNotificationAudiences, value)
}
