package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/collette-backend/internal/notifications"
	"github.com/angelmondragon/collette-backend/pkg/db/models"
	"github.com/angelmondragon/collette-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/collette-backend/pkg/errors"
	"github.com/angelmondragon/collette-backend/pkg/logger"
	"github.com/angelmondragon/collette-backend/pkg/metrics"
	"github.com/angelmondragon/collette-backend/pkg/outbox"
)

// Deps groups the collaborators shared by the ledger, the cancellation
// workflow and the fulfillment partitioner.
type Deps struct {
	Repo          Repository
	Tx            txRunner
	Outbox        outboxPublisher
	Notifications notifications.Dispatcher
	Products      ProductRegistry
	Customers     CustomerDirectory
	Inventory     InventoryAdjuster
	Codes         CodeParams
	CreateRetries int
	Metrics       *metrics.LifecycleMetrics
	Logger        *logger.Logger
	Now           func() time.Time
}

type core struct {
	repo          Repository
	tx            txRunner
	outbox        outboxPublisher
	notes         notifications.Dispatcher
	products      ProductRegistry
	customers     CustomerDirectory
	inventory     InventoryAdjuster
	codes         CodeParams
	createRetries int
	metrics       *metrics.LifecycleMetrics
	logg          *logger.Logger
	now           func() time.Time
}

func newCore(d Deps) (*core, error) {
	if d.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if d.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if d.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if d.Notifications == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	if d.Inventory == nil {
		return nil, fmt.Errorf("inventory adjuster required")
	}
	c := &core{
		repo:          d.Repo,
		tx:            d.Tx,
		outbox:        d.Outbox,
		notes:         d.Notifications,
		products:      d.Products,
		customers:     d.Customers,
		inventory:     d.Inventory,
		codes:         d.Codes,
		createRetries: d.CreateRetries,
		metrics:       d.Metrics,
		logg:          d.Logger,
		now:           d.Now,
	}
	if c.codes.Prefix == "" {
		c.codes.Prefix = "#ORD"
	}
	if c.createRetries <= 0 {
		c.createRetries = 5
	}
	if c.logg == nil {
		c.logg = logger.Nop()
	}
	if c.now == nil {
		c.now = func() time.Time { return time.Now().UTC() }
	}
	return c, nil
}

func (c *core) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.Order, error) {
	return fetch(ctx, id, repo.GetByID)
}

// lock loads the order for a read-modify-write. Concurrent writers of the
// same order queue behind the row lock until the transaction ends.
func (c *core) lock(ctx context.Context, repo Repository, id uuid.UUID) (*models.Order, error) {
	return fetch(ctx, id, repo.GetByIDForUpdate)
}

func fetch(ctx context.Context, id uuid.UUID, get func(context.Context, uuid.UUID) (*models.Order, error)) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (c *core) replace(ctx context.Context, repo Repository, order *models.Order) error {
	if err := repo.Replace(ctx, order); err != nil {
		if errors.Is(err, ErrStaleOrder) {
			return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "order changed while it was being updated; reload and retry").
				WithDetails(map[string]any{"order_id": order.ID.String()})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}
	return nil
}

func (c *core) notify(ctx context.Context, tx *gorm.DB, notification *models.Notification) error {
	return c.notes.WithTx(tx).Add(ctx, notification)
}

func (c *core) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, order *models.Order, data any) error {
	err := c.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data:          data,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit "+string(eventType))
	}
	return nil
}

// transitioned is called after commit so logs and metrics never describe a
// rolled back change.
func (c *core) transitioned(ctx context.Context, order *models.Order, from enums.OrderStatus) {
	if from == order.Status {
		return
	}
	ctx = c.logg.WithOrderID(ctx, order.ID.String())
	c.logg.Transition(ctx, order.Code, string(from), string(order.Status))
	c.metrics.ObserveTransition(string(from), string(order.Status))
}

func stateConflict(message string, order *models.Order) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, message).
		WithDetails(map[string]any{"order_id": order.Code, "status": order.Status})
}
