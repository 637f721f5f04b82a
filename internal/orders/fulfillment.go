package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/collette-backend/internal/notifications"
	"github.com/angelmondragon/collette-backend/pkg/db/models"
	"github.com/angelmondragon/collette-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/collette-backend/pkg/errors"
	"github.com/angelmondragon/collette-backend/pkg/outbox/payloads"
)

// Fulfillment partitions orders by vendor and folds per-vendor delivery
// into the order status.
type Fulfillment interface {
	ViewForVendor(ctx context.Context, id, vendorID uuid.UUID) (*models.Order, error)
	ListForVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Order, error)
	MarkVendorItemsReady(ctx context.Context, id, vendorID uuid.UUID) (*models.Order, error)
	MarkVendorItemsDelivered(ctx context.Context, id, vendorID uuid.UUID) (*models.Order, error)
	MarkOrderDeliveredByStaff(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

type fulfillment struct {
	*core
}

// NewFulfillment wires the vendor fulfillment partitioner.
func NewFulfillment(d Deps) (Fulfillment, error) {
	c, err := newCore(d)
	if err != nil {
		return nil, err
	}
	return &fulfillment{core: c}, nil
}

func (f *fulfillment) ViewForVendor(ctx context.Context, id, vendorID uuid.UUID) (*models.Order, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	order, err := f.load(ctx, f.repo, id)
	if err != nil {
		return nil, err
	}
	items := order.ItemsForVendor(vendorID)
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order has no items for vendor")
	}
	order.Items = items
	return order, nil
}

func (f *fulfillment) ListForVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Order, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	rows, err := f.repo.FindContainingVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor orders")
	}
	for i := range rows {
		rows[i].Items = rows[i].ItemsForVendor(vendorID)
	}
	return rows, nil
}

// MarkVendorItemsReady flags the vendor's purchased items as ready and moves
// an open order to processing.
func (f *fulfillment) MarkVendorItemsReady(ctx context.Context, id, vendorID uuid.UUID) (*models.Order, error) {
	var (
		order *models.Order
		from  enums.OrderStatus
	)
	err := f.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := f.repo.WithTx(tx)
		var err error
		order, err = f.loadForVendor(ctx, repo, id, vendorID)
		if err != nil {
			return err
		}
		from = order.Status
		switch order.Status {
		case enums.OrderStatusPending, enums.OrderStatusPurchased, enums.OrderStatusAccepted, enums.OrderStatusProcessing:
		default:
			return stateConflict("order cannot be prepared in its current status", order)
		}

		for i := range order.Items {
			item := &order.Items[i]
			if item.VendorID == vendorID && item.ProductStatus == enums.ProductStatusPurchased {
				item.ProductStatus = enums.ProductStatusReady
			}
		}
		order.Status = enums.OrderStatusProcessing
		if err := f.replace(ctx, repo, order); err != nil {
			return err
		}
		if from == order.Status {
			return nil
		}
		vendor := vendorID
		return f.emit(ctx, tx, enums.EventOrderStatusChanged, order, payloads.OrderStatusChangedEvent{
			OrderID:        order.ID,
			OrderCode:      order.Code,
			PreviousStatus: from,
			Status:         order.Status,
			VendorID:       &vendor,
		})
	})
	if err != nil {
		return nil, err
	}
	f.transitioned(ctx, order, from)
	return order, nil
}

// MarkVendorItemsDelivered delivers every item of one vendor, then derives
// the order status from all items. Items and status are written once.
func (f *fulfillment) MarkVendorItemsDelivered(ctx context.Context, id, vendorID uuid.UUID) (*models.Order, error) {
	var (
		order *models.Order
		from  enums.OrderStatus
	)
	err := f.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := f.repo.WithTx(tx)
		var err error
		order, err = f.loadForVendor(ctx, repo, id, vendorID)
		if err != nil {
			return err
		}
		from = order.Status
		if order.Status.IsTerminal() {
			return stateConflict("order can no longer be delivered", order)
		}

		delivered := make([]uuid.UUID, 0)
		for i := range order.Items {
			item := &order.Items[i]
			if item.VendorID != vendorID {
				continue
			}
			item.ProductStatus = enums.ProductStatusDelivered
			delivered = append(delivered, item.ProductID)
		}

		vendor := vendorID
		event := payloads.OrderStatusChangedEvent{
			OrderID:           order.ID,
			OrderCode:         order.Code,
			PreviousStatus:    from,
			VendorID:          &vendor,
			DeliveredProducts: delivered,
		}

		if order.AllItemsDelivered() {
			order.Status = enums.OrderStatusDelivered
			if err := f.replace(ctx, repo, order); err != nil {
				return err
			}
			note := notifications.Customer(enums.NotificationKindOrderDelivered, order, notifications.DeliveredMessage(order.Code))
			if err := f.notify(ctx, tx, note); err != nil {
				return err
			}
			event.Status = order.Status
			return f.emit(ctx, tx, enums.EventOrderDelivered, order, event)
		}

		order.Status = enums.OrderStatusPartiallyDelivered
		if err := f.replace(ctx, repo, order); err != nil {
			return err
		}
		note := notifications.Staff(enums.NotificationKindOrderPartiallyDelivered, order, notifications.PartiallyDeliveredMessage(order.Code, delivered))
		note.VendorID = &vendor
		if err := f.notify(ctx, tx, note); err != nil {
			return err
		}
		event.Status = order.Status
		return f.emit(ctx, tx, enums.EventOrderPartiallyDelivered, order, event)
	})
	if err != nil {
		return nil, err
	}
	f.transitioned(ctx, order, from)
	return order, nil
}

// MarkOrderDeliveredByStaff is the administrative override: every item and
// the order become delivered regardless of vendor progress.
func (f *fulfillment) MarkOrderDeliveredByStaff(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var (
		order *models.Order
		from  enums.OrderStatus
	)
	err := f.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := f.repo.WithTx(tx)
		var err error
		order, err = f.lock(ctx, repo, id)
		if err != nil {
			return err
		}
		from = order.Status
		if order.Status.IsTerminal() {
			return stateConflict("order can no longer be delivered", order)
		}

		for i := range order.Items {
			order.Items[i].ProductStatus = enums.ProductStatusDelivered
		}
		order.Status = enums.OrderStatusDelivered
		if err := f.replace(ctx, repo, order); err != nil {
			return err
		}

		note := notifications.Customer(enums.NotificationKindOrderDelivered, order, notifications.DeliveredMessage(order.Code))
		if err := f.notify(ctx, tx, note); err != nil {
			return err
		}
		return f.emit(ctx, tx, enums.EventOrderDelivered, order, payloads.OrderStatusChangedEvent{
			OrderID:        order.ID,
			OrderCode:      order.Code,
			PreviousStatus: from,
			Status:         order.Status,
		})
	})
	if err != nil {
		return nil, err
	}
	f.transitioned(ctx, order, from)
	return order, nil
}

func (f *fulfillment) loadForVendor(ctx context.Context, repo Repository, id, vendorID uuid.UUID) (*models.Order, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	order, err := f.lock(ctx, repo, id)
	if err != nil {
		return nil, err
	}
	if len(order.ItemsForVendor(vendorID)) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order has no items for vendor")
	}
	return order, nil
}
