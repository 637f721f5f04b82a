package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/collette-backend/pkg/db/models"
	"github.com/angelmondragon/collette-backend/pkg/enums"
	"github.com/angelmondragon/collette-backend/pkg/pagination"
)

// Repository exposes persistence helpers for notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	ListUnresolvedForAudience(ctx context.Context, params audienceQuery) ([]models.Notification, error)
	FindUnresolvedByMessage(ctx context.Context, message string) (*models.Notification, error)
	FindRelated(ctx context.Context, orderID uuid.UUID, kind enums.NotificationKind) ([]models.Notification, error)
	ExistsUnresolvedForProduct(ctx context.Context, productID uuid.UUID, kind enums.NotificationKind) (bool, error)
	ListResolvedForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Notification, error)
	MarkResolved(ctx context.Context, id uuid.UUID, now time.Time) (markResult, error)
	MarkRelatedResolved(ctx context.Context, orderID uuid.UUID, kind enums.NotificationKind, now time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type audienceQuery struct {
	Audience enums.NotificationAudience
	Limit    int
	Cursor   *pagination.Cursor
}

type markResult struct {
	Updated bool
	Found   bool
}

var audienceColumns = map[enums.NotificationAudience]string{
	enums.AudienceCustomer: "visible_to_customer",
	enums.AudienceVendor:   "visible_to_vendor",
	enums.AudienceAdmin:    "visible_to_admin",
	enums.AudienceCSR:      "visible_to_csr",
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

// ListUnresolvedForAudience returns newest first. A zero Limit returns every row.
func (r *repositoryImpl) ListUnresolvedForAudience(ctx context.Context, params audienceQuery) ([]models.Notification, error) {
	column, ok := audienceColumns[params.Audience]
	if !ok {
		return nil, fmt.Errorf("unknown audience %q", params.Audience)
	}
	query := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where(column+" = ?", true).
		Where("is_resolved = ?", false)
	if params.Cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", params.Cursor.CreatedAt, params.Cursor.CreatedAt, params.Cursor.ID)
	}
	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}

	var rows []models.Notification
	if err := query.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) FindUnresolvedByMessage(ctx context.Context, message string) (*models.Notification, error) {
	var row models.Notification
	err := r.db.WithContext(ctx).
		Where("message = ? AND is_resolved = ?", message, false).
		Order("created_at ASC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) FindRelated(ctx context.Context, orderID uuid.UUID, kind enums.NotificationKind) ([]models.Notification, error) {
	var rows []models.Notification
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND kind = ?", orderID, kind).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ExistsUnresolvedForProduct(ctx context.Context, productID uuid.UUID, kind enums.NotificationKind) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("product_id = ? AND kind = ? AND is_resolved = ?", productID, kind, false).
		Count(&count).Error
	return count > 0, err
}

func (r *repositoryImpl) ListResolvedForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Notification, error) {
	var rows []models.Notification
	err := r.db.WithContext(ctx).
		Where("customer_id = ? AND visible_to_customer = ? AND is_resolved = ?", customerID, true, true).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) MarkResolved(ctx context.Context, id uuid.UUID, now time.Time) (markResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND is_resolved = ?", id, false).
		Updates(map[string]any{"is_resolved": true, "resolved_at": now})
	if result.Error != nil {
		return markResult{}, result.Error
	}
	if result.RowsAffected > 0 {
		return markResult{Updated: true, Found: true}, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return markResult{}, err
	}
	return markResult{Found: count > 0}, nil
}

func (r *repositoryImpl) MarkRelatedResolved(ctx context.Context, orderID uuid.UUID, kind enums.NotificationKind, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("order_id = ? AND kind = ? AND is_resolved = ?", orderID, kind, false).
		Updates(map[string]any{"is_resolved": true, "resolved_at": now})
	return result.RowsAffected, result.Error
}
