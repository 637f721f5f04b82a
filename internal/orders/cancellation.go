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

// Cancellations runs the two-phase request and decision workflow.
type Cancellations interface {
	RequestCancellation(ctx context.Context, id uuid.UUID) (*models.Order, error)
	DecideCancellation(ctx context.Context, input DecideCancellationInput) (*models.Order, error)
	ListPendingCancellations(ctx context.Context) ([]models.Order, error)
}

type cancellations struct {
	*core
}

// NewCancellations wires the cancellation workflow.
func NewCancellations(d Deps) (Cancellations, error) {
	c, err := newCore(d)
	if err != nil {
		return nil, err
	}
	return &cancellations{core: c}, nil
}

// RequestCancellation replaces any prior cancellation record with a fresh
// pending one and alerts staff.
func (s *cancellations) RequestCancellation(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		order, err = s.lock(ctx, repo, id)
		if err != nil {
			return err
		}
		if order.Status == enums.OrderStatusCancelled {
			return stateConflict("order already cancelled", order)
		}
		if order.Cancellation != nil && order.Cancellation.Status == enums.CancelRequestAccepted {
			return stateConflict("cancellation already accepted", order)
		}

		order.Cancellation = &models.OrderCancellation{
			OrderID:          order.ID,
			Status:           enums.CancelRequestPending,
			CancellationDate: s.now(),
		}
		if err := s.replace(ctx, repo, order); err != nil {
			return err
		}

		note := notifications.Staff(enums.NotificationKindCancellationRequested, order, notifications.CancellationRequestedMessage(order.Code))
		if err := s.notify(ctx, tx, note); err != nil {
			return err
		}
		return s.emit(ctx, tx, enums.EventCancellationRequested, order, payloads.CancellationEvent{
			OrderID:       order.ID,
			OrderCode:     order.Code,
			RequestStatus: enums.CancelRequestPending,
			OrderStatus:   order.Status,
		})
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "cancellation requested for "+order.Code)
	return order, nil
}

// DecideCancellation finalizes a pending request. Delivered and partially
// delivered orders always end rejected with their status untouched.
func (s *cancellations) DecideCancellation(ctx context.Context, input DecideCancellationInput) (*models.Order, error) {
	if err := validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	var (
		order *models.Order
		from  enums.OrderStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		order, err = s.lock(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		from = order.Status
		if order.Status == enums.OrderStatusCancelled {
			return stateConflict("order already cancelled", order)
		}
		if order.Cancellation == nil || order.Cancellation.Status != enums.CancelRequestPending {
			return stateConflict("no pending cancellation request", order)
		}

		delivered := order.Status == enums.OrderStatusDelivered || order.Status == enums.OrderStatusPartiallyDelivered
		if delivered || !input.Approve {
			return s.reject(ctx, tx, repo, order, input.Note)
		}
		return s.accept(ctx, tx, repo, order, input.Note)
	})
	if err != nil {
		return nil, err
	}
	s.transitioned(ctx, order, from)
	return order, nil
}

func (s *cancellations) reject(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, note *string) error {
	order.Cancellation = &models.OrderCancellation{
		OrderID:          order.ID,
		Status:           enums.CancelRequestRejected,
		CancellationDate: s.now(),
		Note:             note,
	}
	if err := s.replace(ctx, repo, order); err != nil {
		return err
	}

	message := notifications.CancellationRejectedMessage(order.Code, order.Status)
	if err := s.notify(ctx, tx, notifications.Customer(enums.NotificationKindCancellationRejected, order, message)); err != nil {
		return err
	}
	if err := s.resolveRequest(ctx, tx, order); err != nil {
		return err
	}
	return s.emit(ctx, tx, enums.EventCancellationRejected, order, payloads.CancellationEvent{
		OrderID:       order.ID,
		OrderCode:     order.Code,
		RequestStatus: enums.CancelRequestRejected,
		OrderStatus:   order.Status,
		Reason:        message,
	})
}

func (s *cancellations) accept(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, note *string) error {
	order.Status = enums.OrderStatusCancelled
	order.Cancellation = &models.OrderCancellation{
		OrderID:          order.ID,
		Status:           enums.CancelRequestAccepted,
		CancellationDate: s.now(),
		Note:             note,
	}
	if err := s.replace(ctx, repo, order); err != nil {
		return err
	}

	for _, item := range order.Items {
		if item.ProductStatus == enums.ProductStatusDelivered {
			continue
		}
		if err := s.inventory.Restock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}

	message := notifications.CancelledMessage(order.Code)
	if err := s.notify(ctx, tx, notifications.Customer(enums.NotificationKindOrderCancelled, order, message)); err != nil {
		return err
	}
	if err := s.resolveRequest(ctx, tx, order); err != nil {
		return err
	}
	return s.emit(ctx, tx, enums.EventOrderCancelled, order, payloads.CancellationEvent{
		OrderID:       order.ID,
		OrderCode:     order.Code,
		RequestStatus: enums.CancelRequestAccepted,
		OrderStatus:   order.Status,
	})
}

// resolveRequest closes the staff notification raised by the request. Rows
// are correlated by order and kind; the exact message lookup is the fallback
// for rows written before kinds existed.
func (s *cancellations) resolveRequest(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	notes := s.notes.WithTx(tx)
	resolved, err := notes.ResolveRelated(ctx, order.ID, enums.NotificationKindCancellationRequested)
	if err != nil {
		return err
	}
	if resolved > 0 {
		return nil
	}
	legacy, err := notes.FindByExactMessage(ctx, notifications.CancellationRequestedMessage(order.Code))
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil
		}
		return err
	}
	return notes.MarkResolved(ctx, legacy.ID)
}

func (s *cancellations) ListPendingCancellations(ctx context.Context) ([]models.Order, error) {
	rows, err := s.repo.FindByCancelStatus(ctx, enums.CancelRequestPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending cancellations")
	}
	return rows, nil
}
