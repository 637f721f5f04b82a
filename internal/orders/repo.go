package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/collette-backend/pkg/db/models"
	"github.com/angelmondragon/collette-backend/pkg/enums"
)

// ErrStaleOrder is returned by Replace when the stored order moved on since
// it was read.
var ErrStaleOrder = errors.New("order was modified concurrently")

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Items come back by list_item_id, then in insertion order within a group,
// so API groups are listed in ascending list_item_id order.
func (r *repository) withAggregate(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("list_item_id ASC").Order("position ASC")
		}).
		Preload("Cancellation")
}

// lockRow takes a row lock on postgres. sqlite serializes writers on its own.
func lockRow(db *gorm.DB) *gorm.DB {
	if db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.withAggregate(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByIDForUpdate loads the aggregate and holds the order row until the
// surrounding transaction ends. Use it for every read-modify-write.
func (r *repository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := lockRow(r.withAggregate(ctx)).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*models.Order, error) {
	var order models.Order
	if err := r.withAggregate(ctx).Where("code = ?", code).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// Insert writes the order and its items. The caller owns the transaction.
func (r *repository) Insert(ctx context.Context, order *models.Order) error {
	for i := range order.Items {
		order.Items[i].Position = i
	}
	return r.db.WithContext(ctx).Omit("Cancellation").Create(order).Error
}

// Replace overwrites the whole aggregate: order row, every item, and the
// cancellation record. Items no longer present are removed. The write only
// lands when the stored version still matches the one that was read.
func (r *repository) Replace(ctx context.Context, order *models.Order) error {
	db := r.db.WithContext(ctx)
	read := order.Version
	order.Version = read + 1
	res := db.Model(order).
		Omit(clause.Associations).
		Select("*").
		Where("version = ?", read).
		Updates(order)
	if res.Error != nil {
		order.Version = read
		return res.Error
	}
	if res.RowsAffected == 0 {
		order.Version = read
		return ErrStaleOrder
	}

	keep := make([]uuid.UUID, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		item.Position = i
		if err := db.Save(item).Error; err != nil {
			return err
		}
		keep = append(keep, item.ID)
	}
	stale := db.Where("order_id = ?", order.ID)
	if len(keep) > 0 {
		stale = stale.Where("id NOT IN ?", keep)
	}
	if err := stale.Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}

	if order.Cancellation == nil {
		return db.Where("order_id = ?", order.ID).Delete(&models.OrderCancellation{}).Error
	}
	order.Cancellation.OrderID = order.ID
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}},
		UpdateAll: true,
	}).Create(order.Cancellation).Error
}

func (r *repository) FindByStatus(ctx context.Context, status enums.OrderStatus) ([]models.Order, error) {
	var rows []models.Order
	err := r.withAggregate(ctx).
		Where("status = ?", status).
		Order("order_date ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindByCancelStatus(ctx context.Context, status enums.CancelRequestStatus) ([]models.Order, error) {
	var rows []models.Order
	err := r.withAggregate(ctx).
		Joins("JOIN order_cancellations oc ON oc.order_id = orders.id").
		Where("oc.request_status = ?", status).
		Order("oc.cancellation_date ASC, orders.id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindContainingVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Order, error) {
	vendorOrders := r.db.Session(&gorm.Session{NewDB: true}).
		Model(&models.OrderItem{}).
		Select("order_id").
		Where("vendor_id = ?", vendorID)

	var rows []models.Order
	err := r.withAggregate(ctx).
		Where("id IN (?)", vendorOrders).
		Order("order_date DESC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("code = ?", code).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	var rows []models.Order
	err := r.withAggregate(ctx).
		Where("customer_id = ?", customerID).
		Order("order_date DESC, id ASC").
		Find(&rows).Error
	return rows, err
}
