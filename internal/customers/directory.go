package customers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/collette-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/collette-backend/pkg/errors"
	"github.com/angelmondragon/collette-backend/pkg/types"
)

// Directory resolves customers at order-creation time.
type Directory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

type finder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
}

type directory struct {
	repo finder
}

func NewDirectory(repo finder) (Directory, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "customers repository required")
	}
	return &directory{repo: repo}, nil
}

func (d *directory) GetByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := d.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

// BillingSnapshot copies the profile into a point-in-time billing record.
// Later profile edits never flow back into orders.
func BillingSnapshot(customer *models.Customer) *types.BillingDetails {
	if customer == nil {
		return nil
	}
	details := &types.BillingDetails{
		CustomerName: customer.Name,
		Email:        customer.Email,
		Phone:        customer.Phone,
	}
	if customer.Address != nil {
		addr := *customer.Address
		details.BillingAddress = &addr
	}
	details.Normalize()
	return details
}
