package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/collette-backend/pkg/db/models"
)

// Repository persists the inventory projection.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetByProduct(ctx context.Context, productID uuid.UUID) (*models.Inventory, error)
	Upsert(ctx context.Context, record *models.Inventory) error
	List(ctx context.Context) ([]models.Inventory, error)
	AdjustStock(ctx context.Context, productID uuid.UUID, delta int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetByProduct(ctx context.Context, productID uuid.UUID) (*models.Inventory, error) {
	var record models.Inventory
	if err := r.db.WithContext(ctx).First(&record, "product_id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// Upsert keys on product_id so two racing syncs converge on one row.
func (r *repository) Upsert(ctx context.Context, record *models.Inventory) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"vendor_id", "stock_quantity", "updated_at"}),
		}).
		Create(record).Error
}

func (r *repository) List(ctx context.Context) ([]models.Inventory, error) {
	var rows []models.Inventory
	if err := r.db.WithContext(ctx).Order("product_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AdjustStock applies delta to both the catalog count and its projection,
// flooring at zero. Missing inventory rows are left for the next sync.
func (r *repository) AdjustStock(ctx context.Context, productID uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}
	expr := gorm.Expr("CASE WHEN stock_quantity + ? < 0 THEN 0 ELSE stock_quantity + ? END", delta, delta)
	now := time.Now().UTC()

	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{"stock_quantity": expr, "updated_at": now}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("product_id = ?", productID).
		Updates(map[string]any{"stock_quantity": expr, "updated_at": now}).Error
}
