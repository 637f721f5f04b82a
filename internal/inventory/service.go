package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/collette-backend/internal/notifications"
	"github.com/angelmondragon/collette-backend/pkg/db/models"
	"github.com/angelmondragon/collette-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/collette-backend/pkg/errors"
	"github.com/angelmondragon/collette-backend/pkg/logger"
	"github.com/angelmondragon/collette-backend/pkg/metrics"
	"github.com/angelmondragon/collette-backend/pkg/outbox"
	"github.com/angelmondragon/collette-backend/pkg/outbox/payloads"
)

const lowStockScope = "low_stock"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, events ...outbox.DomainEvent) error
}

// Catalog is the read side of the product registry.
type Catalog interface {
	List(ctx context.Context) ([]models.Product, error)
}

// WindowGuard marks a product as signalled for a TTL window.
type WindowGuard interface {
	CheckAndMark(ctx context.Context, scope, id string) (bool, error)
	Release(ctx context.Context, scope, id string) error
}

// Synchronizer reconciles the catalog with the inventory projection.
type Synchronizer interface {
	SyncCatalogToInventory(ctx context.Context) (*SyncResult, error)
	ListWithStock(ctx context.Context) ([]StockRow, error)
}

// SyncResult counts what a sync run changed.
type SyncResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// StockRow is one inventory record joined with its catalog product.
type StockRow struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	VendorID    uuid.UUID `json:"vendor_id"`
	Quantity    int       `json:"quantity"`
	Category    string    `json:"category"`
	LowStock    bool      `json:"low_stock"`
}

// ServiceParams groups the synchronizer dependencies.
type ServiceParams struct {
	Catalog       Catalog
	Repo          Repository
	Tx            txRunner
	Notifications notifications.Dispatcher
	Outbox        outboxPublisher
	Guard         WindowGuard
	Policy        LowStockPolicy
	Threshold     int
	Metrics       *metrics.LifecycleMetrics
	Logger        *logger.Logger
}

type service struct {
	catalog   Catalog
	repo      Repository
	tx        txRunner
	notes     notifications.Dispatcher
	outbox    outboxPublisher
	guard     WindowGuard
	policy    LowStockPolicy
	threshold int
	metrics   *metrics.LifecycleMetrics
	logg      *logger.Logger
}

// NewService wires the inventory synchronizer.
func NewService(params ServiceParams) (Synchronizer, error) {
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	policy := params.Policy
	if policy == "" {
		policy = PolicyUnresolved
	}
	if policy == PolicyWindow && params.Guard == nil {
		return nil, fmt.Errorf("window policy requires an idempotency guard")
	}
	threshold := params.Threshold
	if threshold <= 0 {
		threshold = 5
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		catalog:   params.Catalog,
		repo:      params.Repo,
		tx:        params.Tx,
		notes:     params.Notifications,
		outbox:    params.Outbox,
		guard:     params.Guard,
		policy:    policy,
		threshold: threshold,
		metrics:   params.Metrics,
		logg:      logg,
	}, nil
}

// SyncCatalogToInventory overwrites every projection row with the catalog's
// current count. A failing product does not stop the others.
func (s *service) SyncCatalogToInventory(ctx context.Context) (result *SyncResult, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveSync(time.Since(start), err) }()

	products, err := s.catalog.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog")
	}
	_, result, err = s.sync(ctx, products)
	return result, err
}

func (s *service) sync(ctx context.Context, products []models.Product) (map[uuid.UUID]models.Product, *SyncResult, error) {
	byID := make(map[uuid.UUID]models.Product, len(products))
	result := &SyncResult{}
	var errs error

	for _, product := range products {
		byID[product.ID] = product

		_, getErr := s.repo.GetByProduct(ctx, product.ID)
		switch {
		case getErr == nil:
			result.Updated++
		case errors.Is(getErr, gorm.ErrRecordNotFound):
			result.Created++
		default:
			errs = multierr.Append(errs, fmt.Errorf("product %s: %w", product.ID, getErr))
			continue
		}

		record := &models.Inventory{
			ProductID:     product.ID,
			VendorID:      product.VendorID,
			StockQuantity: product.StockQuantity,
		}
		if upErr := s.repo.Upsert(ctx, record); upErr != nil {
			errs = multierr.Append(errs, fmt.Errorf("product %s: %w", product.ID, upErr))
		}
	}

	if errs != nil {
		s.logg.Error(ctx, "inventory sync finished with failures", errs)
		return byID, result, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "sync inventory").
			WithDetails(map[string]any{"failed": len(multierr.Errors(errs))})
	}
	return byID, result, nil
}

// ListWithStock syncs, then reports every record and raises low-stock
// signals according to the configured policy. Rows are returned even when
// some products failed; the error then aggregates the failures and callers
// should serve the rows alongside it.
func (s *service) ListWithStock(ctx context.Context) (rows []StockRow, err error) {
	start := time.Now()
	products, err := s.catalog.List(ctx)
	if err != nil {
		s.metrics.ObserveSync(time.Since(start), err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog")
	}
	byID, _, syncErr := s.sync(ctx, products)
	s.metrics.ObserveSync(time.Since(start), syncErr)

	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, multierr.Append(syncErr, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory"))
	}

	errs := syncErr
	rows = make([]StockRow, 0, len(records))
	for _, record := range records {
		product, ok := byID[record.ProductID]
		if !ok {
			s.logg.Warn(s.logg.WithField(ctx, "product_id", record.ProductID.String()), "inventory record without catalog product")
			continue
		}
		row := StockRow{
			ProductID:   product.ID,
			ProductName: product.Name,
			VendorID:    record.VendorID,
			Quantity:    record.StockQuantity,
			Category:    product.Category,
			LowStock:    record.StockQuantity < s.threshold,
		}
		rows = append(rows, row)

		if row.LowStock {
			if sigErr := s.signalLowStock(ctx, &product, record.StockQuantity); sigErr != nil {
				errs = multierr.Append(errs, sigErr)
			}
		}
	}
	if errs != nil && !pkgerrors.IsCode(errs, pkgerrors.CodeDependency) {
		errs = pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "list inventory")
	}
	return rows, errs
}

func (s *service) signalLowStock(ctx context.Context, product *models.Product, quantity int) error {
	suppress, err := s.shouldSuppress(ctx, product.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check low stock dedup")
	}
	if suppress {
		s.metrics.IncLowStock("suppressed")
		return nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.notes.WithTx(tx).Add(ctx, notifications.LowStock(product, quantity)); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventInventoryLowStock,
			AggregateType: enums.AggregateInventory,
			AggregateID:   product.ID,
			Data: payloads.LowStockEvent{
				ProductID:     product.ID,
				ProductName:   product.Name,
				VendorID:      product.VendorID,
				StockQuantity: quantity,
				Threshold:     s.threshold,
			},
		})
	})
	if err != nil {
		if s.policy == PolicyWindow {
			_ = s.guard.Release(ctx, lowStockScope, product.ID.String())
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record low stock")
	}
	s.metrics.IncLowStock("emitted")
	return nil
}

func (s *service) shouldSuppress(ctx context.Context, productID uuid.UUID) (bool, error) {
	switch s.policy {
	case PolicyAlways:
		return false, nil
	case PolicyWindow:
		return s.guard.CheckAndMark(ctx, lowStockScope, productID.String())
	default:
		return s.notes.HasUnresolvedForProduct(ctx, productID, enums.NotificationKindLowStock)
	}
}
