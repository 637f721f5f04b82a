package models

// Tables lists every persisted model in dependency order. Postgres schemas come
// from the goose migrations; sqlite databases are built from this list.
func Tables() []any {
	return []any{
		&Product{},
		&Customer{},
		&Inventory{},
		&Order{},
		&OrderItem{},
		&OrderCancellation{},
		&Notification{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
