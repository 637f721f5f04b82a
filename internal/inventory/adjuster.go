package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/collette-backend/pkg/errors"
)

// Adjuster moves stock as a side effect of order transitions. Both methods
// require the caller's transaction so stock commits with the order.
type Adjuster interface {
	Deduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
	Restock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

type adjuster struct {
	repo Repository
}

func NewAdjuster(repo Repository) Adjuster {
	return &adjuster{repo: repo}
}

func (a *adjuster) Deduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	return a.adjust(ctx, tx, productID, -qty, "deduct inventory")
}

func (a *adjuster) Restock(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	return a.adjust(ctx, tx, productID, qty, "restock inventory")
}

func (a *adjuster) adjust(ctx context.Context, tx *gorm.DB, productID uuid.UUID, delta int, op string) error {
	if delta == 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for "+op)
	}
	if err := a.repo.WithTx(tx).AdjustStock(ctx, productID, delta); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
	}
	return nil
}
