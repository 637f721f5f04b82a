package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/collette-backend/internal/customers"
	"github.com/angelmondragon/collette-backend/internal/inventory"
	"github.com/angelmondragon/collette-backend/internal/notifications"
	product "github.com/angelmondragon/collette-backend/internal/products"
	"github.com/angelmondragon/collette-backend/pkg/db"
	"github.com/angelmondragon/collette-backend/pkg/db/models"
	"github.com/angelmondragon/collette-backend/pkg/enums"
	"github.com/angelmondragon/collette-backend/pkg/outbox"
)

type fixture struct {
	conn          *gorm.DB
	deps          Deps
	products      *product.Repository
	customers     *customers.Repository
	inventory     inventory.Repository
	notes         notifications.Dispatcher
	ledger        Ledger
	cancellations Cancellations
	fulfillment   Fulfillment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.OrderCancellation{},
		&models.Product{},
		&models.Customer{},
		&models.Inventory{},
		&models.Notification{},
		&models.OutboxEvent{},
	))

	productRepo := product.NewRepository(conn)
	registry, err := product.NewRegistry(productRepo)
	require.NoError(t, err)
	customerRepo := customers.NewRepository(conn)
	directory, err := customers.NewDirectory(customerRepo)
	require.NoError(t, err)
	notes, err := notifications.NewService(notifications.NewRepository(conn))
	require.NoError(t, err)
	invRepo := inventory.NewRepository(conn)

	f := &fixture{
		conn:      conn,
		products:  productRepo,
		customers: customerRepo,
		inventory: invRepo,
		notes:     notes,
		deps: Deps{
			Repo:          NewRepository(conn),
			Tx:            db.Wrap(conn),
			Outbox:        outbox.NewService(outbox.NewRepository(conn), nil),
			Notifications: notes,
			Products:      registry,
			Customers:     directory,
			Inventory:     inventory.NewAdjuster(invRepo),
			Codes:         CodeParams{Prefix: "#ORD", Digits: 4, MaxAttempts: 100},
		},
	}
	f.rebuild(t)
	return f
}

func (f *fixture) rebuild(t *testing.T) {
	t.Helper()
	var err error
	f.ledger, err = NewLedger(f.deps)
	require.NoError(t, err)
	f.cancellations, err = NewCancellations(f.deps)
	require.NoError(t, err)
	f.fulfillment, err = NewFulfillment(f.deps)
	require.NoError(t, err)
}

func (f *fixture) seedProduct(t *testing.T, vendor uuid.UUID, name string, price int64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{VendorID: vendor, Name: name, Category: "general", Price: decimal.NewFromInt(price), StockQuantity: stock}
	require.NoError(t, f.products.Create(context.Background(), p))
	require.NoError(t, f.inventory.Upsert(context.Background(), &models.Inventory{ProductID: p.ID, VendorID: vendor, StockQuantity: stock}))
	return p
}

func (f *fixture) seedCustomer(t *testing.T) *models.Customer {
	t.Helper()
	c := &models.Customer{Name: "Grace Hopper", Email: "grace@example.com", Phone: "555-0100"}
	require.NoError(t, f.customers.Create(context.Background(), c))
	return c
}

func (f *fixture) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

// twoVendorOrder creates the canonical V1 2x10 + V2 1x5 customer order.
func (f *fixture) twoVendorOrder(t *testing.T) (order *models.Order, v1, v2 uuid.UUID) {
	t.Helper()
	v1, v2 = uuid.New(), uuid.New()
	a := f.seedProduct(t, v1, "Teapot", 10, 20)
	b := f.seedProduct(t, v2, "Saucer", 5, 20)
	customer := f.seedCustomer(t)

	order, err := f.ledger.CreateOrder(context.Background(), CreateOrderInput{
		Origin:     OriginCustomer,
		CustomerID: &customer.ID,
		Groups: []ItemGroup{
			{ListItemID: 1, Items: []ItemInput{{ProductID: a.ID, Quantity: 2}}},
			{ListItemID: 2, Items: []ItemInput{{ProductID: b.ID, Quantity: 1}}},
		},
		OrderDate: ptrTime(time.Now().Add(-time.Minute)),
	})
	require.NoError(t, err)
	return order, v1, v2
}

func (f *fixture) reload(t *testing.T, id uuid.UUID) *models.Order {
	t.Helper()
	order, err := f.ledger.GetOrder(context.Background(), id)
	require.NoError(t, err)
	return order
}

func (f *fixture) customerResolved(t *testing.T, orderID uuid.UUID, kind enums.NotificationKind) []models.Notification {
	t.Helper()
	var rows []models.Notification
	require.NoError(t, f.conn.
		Where("order_id = ? AND kind = ? AND visible_to_customer = ? AND is_resolved = ?", orderID, kind, true, true).
		Find(&rows).Error)
	return rows
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
