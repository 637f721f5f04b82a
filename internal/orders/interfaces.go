package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/collette-backend/pkg/db/models"
	"github.com/angelmondragon/collette-backend/pkg/enums"
	"github.com/angelmondragon/collette-backend/pkg/outbox"
)

// Repository is the order store. Reads preload items and the cancellation.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetByCode(ctx context.Context, code string) (*models.Order, error)
	Insert(ctx context.Context, order *models.Order) error
	Replace(ctx context.Context, order *models.Order) error
	FindByStatus(ctx context.Context, status enums.OrderStatus) ([]models.Order, error)
	FindByCancelStatus(ctx context.Context, status enums.CancelRequestStatus) ([]models.Order, error)
	FindContainingVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Order, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error)
}

// ProductRegistry resolves canonical name, price and vendor for an item.
type ProductRegistry interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// CustomerDirectory is consulted only at creation time.
type CustomerDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

// InventoryAdjuster moves stock inside the caller's transaction.
type InventoryAdjuster interface {
	Deduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	Restock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, events ...outbox.DomainEvent) error
}
