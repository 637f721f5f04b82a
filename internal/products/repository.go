package product

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/collette-backend/pkg/db/models"
)

// Repository reads the catalog table. Catalog writes are owned elsewhere;
// Create only seeds fixtures and local databases.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product := &models.Product{}
	err := r.db.WithContext(ctx).Take(product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return product, nil
}

// List returns every product, oldest first, so sync runs visit the catalog in
// a stable order.
func (r *Repository) List(ctx context.Context) ([]models.Product, error) {
	products := make([]models.Product, 0)
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Order("id ASC").
		Find(&products).Error
	return products, err
}

func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}
