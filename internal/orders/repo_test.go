package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/angelmondragon/collette-backend/pkg/db/models"
	"github.com/angelmondragon/collette-backend/pkg/enums"
)

func insertOrder(t *testing.T, repo Repository, code string, vendors ...uuid.UUID) *models.Order {
	t.Helper()
	order := &models.Order{
		Code:        code,
		Status:      enums.OrderStatusPurchased,
		TotalAmount: decimal.NewFromInt(int64(len(vendors))),
		OrderDate:   time.Now().UTC(),
	}
	for i, vendor := range vendors {
		order.Items = append(order.Items, models.OrderItem{
			ListItemID:    i + 1,
			ProductID:     uuid.New(),
			ProductName:   "item",
			VendorID:      vendor,
			Quantity:      1,
			Price:         decimal.NewFromInt(1),
			ProductStatus: enums.ProductStatusPurchased,
		})
	}
	require.NoError(t, repo.Insert(context.Background(), order))
	return order
}

func TestReplaceRemovesStaleItemsAndCancellation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	repo := f.deps.Repo
	order := insertOrder(t, repo, "#ORD2000", uuid.New(), uuid.New(), uuid.New())

	order.Items = order.Items[1:]
	order.Cancellation = &models.OrderCancellation{Status: enums.CancelRequestPending, CancellationDate: time.Now().UTC()}
	require.NoError(t, repo.Replace(ctx, order))

	stored, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	require.Equal(t, 2, stored.Items[0].ListItemID)
	require.Equal(t, 0, stored.Items[0].Position)
	require.NotNil(t, stored.Cancellation)

	stored.Cancellation = nil
	require.NoError(t, repo.Replace(ctx, stored))
	require.EqualValues(t, 0, f.count(t, &models.OrderCancellation{}, "order_id = ?", order.ID))
}

func TestRepositoryQueries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	repo := f.deps.Repo
	shared := uuid.New()

	first := insertOrder(t, repo, "#ORD3000", shared)
	second := insertOrder(t, repo, "#ORD3001", shared, uuid.New())
	insertOrder(t, repo, "#ORD3002", uuid.New())

	rows, err := repo.FindContainingVendor(ctx, shared)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	second.Cancellation = &models.OrderCancellation{Status: enums.CancelRequestPending, CancellationDate: time.Now().UTC()}
	require.NoError(t, repo.Replace(ctx, second))
	first.Cancellation = &models.OrderCancellation{Status: enums.CancelRequestRejected, CancellationDate: time.Now().UTC()}
	require.NoError(t, repo.Replace(ctx, first))

	pending, err := repo.FindByCancelStatus(ctx, enums.CancelRequestPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "#ORD3001", pending[0].Code)
	require.Len(t, pending[0].Items, 2)

	taken, err := repo.ExistsByCode(ctx, "#ORD3002")
	require.NoError(t, err)
	require.True(t, taken)
	taken, err = repo.ExistsByCode(ctx, "#ORD9999")
	require.NoError(t, err)
	require.False(t, taken)
}

func TestReplaceRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	repo := f.deps.Repo
	v1, v2 := uuid.New(), uuid.New()
	order := insertOrder(t, repo, "#ORD2100", v1, v2)

	first, err := repo.GetByIDForUpdate(ctx, order.ID)
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)

	first.Items[0].ProductStatus = enums.ProductStatusDelivered
	first.Status = enums.OrderStatusPartiallyDelivered
	require.NoError(t, repo.Replace(ctx, first))
	require.Equal(t, 1, first.Version)

	second.Items[1].ProductStatus = enums.ProductStatusDelivered
	second.Status = enums.OrderStatusPartiallyDelivered
	require.ErrorIs(t, repo.Replace(ctx, second), ErrStaleOrder)
	require.Equal(t, 0, second.Version)

	stored, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stored.Version)
	require.Equal(t, enums.ProductStatusDelivered, stored.ItemsForVendor(v1)[0].ProductStatus)
	require.Equal(t, enums.ProductStatusPurchased, stored.ItemsForVendor(v2)[0].ProductStatus)
}

func TestLockRowAddsForUpdateOnPostgres(t *testing.T) {
	conn, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=collette dbname=collette sslmode=disable",
	}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	id := uuid.New()
	query := conn.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return lockRow(tx).Where("id = ?", id).Take(&models.Order{})
	})
	require.Contains(t, query, "FOR UPDATE")

	f := newFixture(t)
	plain := f.conn.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return lockRow(tx).Where("id = ?", id).Take(&models.Order{})
	})
	require.NotContains(t, plain, "FOR UPDATE")
}

func TestGetByIDOrdersItemsByGroupThenPosition(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	repo := f.deps.Repo

	order := &models.Order{Code: "#ORD2100", Status: enums.OrderStatusPurchased, TotalAmount: decimal.NewFromInt(3), OrderDate: time.Now().UTC()}
	for _, item := range []struct {
		group int
		name  string
	}{{2, "saucer"}, {1, "teapot"}, {2, "cup"}} {
		order.Items = append(order.Items, models.OrderItem{
			ListItemID:    item.group,
			ProductID:     uuid.New(),
			ProductName:   item.name,
			VendorID:      uuid.New(),
			Quantity:      1,
			Price:         decimal.NewFromInt(1),
			ProductStatus: enums.ProductStatusPurchased,
		})
	}
	require.NoError(t, repo.Insert(ctx, order))

	stored, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	names := make([]string, 0, len(stored.Items))
	for _, item := range stored.Items {
		names = append(names, item.ProductName)
	}
	require.Equal(t, []string{"teapot", "saucer", "cup"}, names)
}
