package notifications

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/collette-backend/pkg/db/models"
	"github.com/angelmondragon/collette-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/collette-backend/pkg/errors"
	"github.com/angelmondragon/collette-backend/pkg/pagination"
)

// Dispatcher records notifications produced as side effects of order and
// inventory transitions. It holds no business rules of its own.
type Dispatcher interface {
	WithTx(tx *gorm.DB) Dispatcher
	Add(ctx context.Context, notification *models.Notification) error
	FindUnresolvedForAudience(ctx context.Context, audience enums.NotificationAudience) ([]models.Notification, error)
	ListUnresolved(ctx context.Context, params ListParams) (*ListResult, error)
	FindByExactMessage(ctx context.Context, message string) (*models.Notification, error)
	FindRelated(ctx context.Context, orderID uuid.UUID, kind enums.NotificationKind) ([]models.Notification, error)
	HasUnresolvedForProduct(ctx context.Context, productID uuid.UUID, kind enums.NotificationKind) (bool, error)
	FindResolvedForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Notification, error)
	MarkResolved(ctx context.Context, id uuid.UUID) error
	ResolveRelated(ctx context.Context, orderID uuid.UUID, kind enums.NotificationKind) (int64, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// ListParams configures cursor pagination for an audience feed.
type ListParams struct {
	Audience enums.NotificationAudience
	Limit    int
	Cursor   string
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Dispatcher, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) WithTx(tx *gorm.DB) Dispatcher {
	if tx == nil {
		return s
	}
	return &service{repo: s.repo.WithTx(tx), now: s.now}
}

func (s *service) Add(ctx context.Context, notification *models.Notification) error {
	if notification == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification required")
	}
	notification.Message = strings.TrimSpace(notification.Message)
	if notification.Message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification message required")
	}
	if !notification.VisibleToCustomer && !notification.VisibleToVendor && !notification.VisibleToAdmin && !notification.VisibleToCSR {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification must be visible to at least one audience")
	}
	if notification.Kind == "" {
		notification.Kind = enums.NotificationKindGeneral
	}
	if !notification.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid notification kind")
	}
	if notification.IsResolved && notification.ResolvedAt == nil {
		now := s.now()
		notification.ResolvedAt = &now
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	return nil
}

func (s *service) FindUnresolvedForAudience(ctx context.Context, audience enums.NotificationAudience) ([]models.Notification, error) {
	if !audience.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid audience")
	}
	rows, err := s.repo.ListUnresolvedForAudience(ctx, audienceQuery{Audience: audience})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return rows, nil
}

func (s *service) ListUnresolved(ctx context.Context, params ListParams) (*ListResult, error) {
	if !params.Audience.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid audience")
	}

	cursor, err := pagination.Decode(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListUnresolvedForAudience(ctx, audienceQuery{
		Audience: params.Audience,
		Limit:    pagination.Window(params.Limit),
		Cursor:   cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	result := &ListResult{}
	result.Items, result.Cursor = pagination.Trim(rows, params.Limit, func(n models.Notification) pagination.Cursor {
		return pagination.Cursor{CreatedAt: n.CreatedAt, ID: n.ID}
	})
	return result, nil
}

// FindByExactMessage returns the oldest unresolved notification whose text
// equals message.
func (s *service) FindByExactMessage(ctx context.Context, message string) (*models.Notification, error) {
	if strings.TrimSpace(message) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message required")
	}
	row, err := s.repo.FindUnresolvedByMessage(ctx, message)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find notification")
	}
	return row, nil
}

func (s *service) FindRelated(ctx context.Context, orderID uuid.UUID, kind enums.NotificationKind) ([]models.Notification, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	rows, err := s.repo.FindRelated(ctx, orderID, kind)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find related notifications")
	}
	return rows, nil
}

func (s *service) HasUnresolvedForProduct(ctx context.Context, productID uuid.UUID, kind enums.NotificationKind) (bool, error) {
	exists, err := s.repo.ExistsUnresolvedForProduct(ctx, productID, kind)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product notifications")
	}
	return exists, nil
}

func (s *service) FindResolvedForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Notification, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	rows, err := s.repo.ListResolvedForCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer notifications")
	}
	return rows, nil
}

// MarkResolved is idempotent: resolving an already resolved row succeeds.
func (s *service) MarkResolved(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}
	result, err := s.repo.MarkResolved(ctx, id, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification resolved")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) ResolveRelated(ctx context.Context, orderID uuid.UUID, kind enums.NotificationKind) (int64, error) {
	count, err := s.repo.MarkRelatedResolved(ctx, orderID, kind, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve related notifications")
	}
	return count, nil
}
