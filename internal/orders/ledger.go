package orders

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/collette-backend/internal/customers"
	"github.com/angelmondragon/collette-backend/internal/notifications"
	"github.com/angelmondragon/collette-backend/pkg/db"
	"github.com/angelmondragon/collette-backend/pkg/db/models"
	"github.com/angelmondragon/collette-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/collette-backend/pkg/errors"
	"github.com/angelmondragon/collette-backend/pkg/outbox/payloads"
)

const orderCodeConstraint = "orders_code_key"

var validate = validator.New()

// Ledger owns order creation and direct status transitions.
type Ledger interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrderByCode(ctx context.Context, code string) (*models.Order, error)
	GetOrderStatus(ctx context.Context, id uuid.UUID) (enums.OrderStatus, error)
	ListByStatus(ctx context.Context, status enums.OrderStatus) ([]models.Order, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error)
}

type ledger struct {
	*core
}

// NewLedger wires the order ledger.
func NewLedger(d Deps) (Ledger, error) {
	c, err := newCore(d)
	if err != nil {
		return nil, err
	}
	if c.products == nil {
		return nil, errors.New("product registry required")
	}
	if c.customers == nil {
		return nil, errors.New("customer directory required")
	}
	return &ledger{core: c}, nil
}

// RecalculateTotal sets TotalAmount to the sum of price times quantity.
func RecalculateTotal(order *models.Order) decimal.Decimal {
	total := decimal.Zero
	for _, item := range order.Items {
		total = total.Add(item.LineTotal())
	}
	order.TotalAmount = total
	return total
}

func (l *ledger) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	order, err := l.prepare(ctx, input)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < l.createRetries; attempt++ {
		code, err := GenerateCode(ctx, l.codes, l.repo.ExistsByCode)
		if err != nil {
			return nil, err
		}
		order.Code = code

		err = l.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := l.repo.WithTx(tx).Insert(ctx, order); err != nil {
				return err
			}
			for _, item := range order.Items {
				if err := l.inventory.Deduct(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
			return l.emit(ctx, tx, enums.EventOrderCreated, order, payloads.OrderCreatedEvent{
				OrderID:     order.ID,
				OrderCode:   order.Code,
				CustomerID:  order.CustomerID,
				VendorIDs:   vendorIDs(order.Items),
				TotalAmount: order.TotalAmount,
				ItemCount:   len(order.Items),
				Origin:      string(input.Origin),
				Status:      order.Status,
			})
		})
		if err == nil {
			l.metrics.IncCreated(string(input.Origin))
			l.logg.Info(l.logg.WithOrderID(ctx, order.ID.String()), "order created "+order.Code)
			return order, nil
		}
		if !isCodeCollision(err) {
			if pkgerrors.As(err) != nil {
				return nil, err
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		l.metrics.IncCodeCollision()
		l.logg.Warn(l.logg.WithField(ctx, "order_code", code), "order code taken concurrently, retrying")
		resetIdentity(order)
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, ErrOrderCodeExhausted, "order code collisions exceeded retries").
		WithDetails(map[string]any{"retries": l.createRetries})
}

// prepare validates input and resolves every item before any write.
func (l *ledger) prepare(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if err := validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	now := l.now()
	orderDate := now
	if input.OrderDate != nil {
		if input.OrderDate.After(now) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order date cannot be in the future")
		}
		orderDate = input.OrderDate.UTC()
	}
	if input.PaymentMethod != nil && !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	order := &models.Order{
		Status:        enums.OrderStatusPurchased,
		PaymentMethod: input.PaymentMethod,
		OrderDate:     orderDate,
	}

	switch input.Origin {
	case OriginCustomer:
		if input.CustomerID == nil || *input.CustomerID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
		}
		customer, err := l.customers.GetByID(ctx, *input.CustomerID)
		if err != nil {
			return nil, err
		}
		id := customer.ID
		order.CustomerID = &id
		order.CreatedByCustomer = true
		if input.IncludeBilling || input.Billing != nil {
			order.BillingDetails = customers.BillingSnapshot(customer)
		}
	case OriginAdmin:
		order.CreatedByAdmin = true
		if input.BindCustomer {
			if input.CustomerID == nil || *input.CustomerID == uuid.Nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required when binding a customer")
			}
			customer, err := l.customers.GetByID(ctx, *input.CustomerID)
			if err != nil {
				return nil, err
			}
			id := customer.ID
			order.CustomerID = &id
		}
		if input.Billing != nil {
			billing := *input.Billing
			if billing.BillingAddress != nil {
				addr := *billing.BillingAddress
				billing.BillingAddress = &addr
			}
			billing.Normalize()
			if err := validate.Struct(billing); err != nil {
				return nil, validationError(err)
			}
			order.BillingDetails = &billing
		}
	}

	for _, group := range input.Groups {
		for _, in := range group.Items {
			product, err := l.products.GetByID(ctx, in.ProductID)
			if err != nil {
				if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
					return nil, pkgerrors.New(pkgerrors.CodeValidation, "product not found").
						WithDetails(map[string]any{"product_id": in.ProductID.String()})
				}
				return nil, err
			}
			if !product.Price.IsPositive() {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "product has no valid price").
					WithDetails(map[string]any{"product_id": product.ID.String()})
			}
			order.Items = append(order.Items, models.OrderItem{
				ListItemID:    group.ListItemID,
				ProductID:     product.ID,
				ProductName:   product.Name,
				VendorID:      product.VendorID,
				Quantity:      in.Quantity,
				Price:         product.Price,
				ProductStatus: enums.ProductStatusPurchased,
			})
		}
	}
	RecalculateTotal(order)
	return order, nil
}

func (l *ledger) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var (
		order *models.Order
		from  enums.OrderStatus
	)
	err := l.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := l.repo.WithTx(tx)
		var err error
		order, err = l.lock(ctx, repo, id)
		if err != nil {
			return err
		}
		from = order.Status
		if from == status {
			return nil
		}
		if from.IsTerminal() {
			return stateConflict("order is in a terminal status", order)
		}

		order.Status = status
		if err := l.replace(ctx, repo, order); err != nil {
			return err
		}

		if status == enums.OrderStatusDelivered {
			note := notifications.Customer(enums.NotificationKindOrderDelivered, order, notifications.DeliveredMessage(order.Code))
			if err := l.notify(ctx, tx, note); err != nil {
				return err
			}
			return l.emit(ctx, tx, enums.EventOrderDelivered, order, payloads.OrderStatusChangedEvent{
				OrderID:        order.ID,
				OrderCode:      order.Code,
				PreviousStatus: from,
				Status:         status,
			})
		}
		return l.emit(ctx, tx, enums.EventOrderStatusChanged, order, payloads.OrderStatusChangedEvent{
			OrderID:        order.ID,
			OrderCode:      order.Code,
			PreviousStatus: from,
			Status:         status,
		})
	})
	if err != nil {
		return nil, err
	}
	l.transitioned(ctx, order, from)
	return order, nil
}

func (l *ledger) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return l.load(ctx, l.repo, id)
}

func (l *ledger) GetOrderByCode(ctx context.Context, code string) (*models.Order, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order code required")
	}
	order, err := l.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (l *ledger) GetOrderStatus(ctx context.Context, id uuid.UUID) (enums.OrderStatus, error) {
	order, err := l.load(ctx, l.repo, id)
	if err != nil {
		return "", err
	}
	return order.Status, nil
}

func (l *ledger) ListByStatus(ctx context.Context, status enums.OrderStatus) ([]models.Order, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	rows, err := l.repo.FindByStatus(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return rows, nil
}

func (l *ledger) ListForCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Order, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	rows, err := l.repo.ListForCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer orders")
	}
	return rows, nil
}

func isCodeCollision(err error) bool {
	return db.IsUniqueViolation(err, orderCodeConstraint) || db.IsUniqueViolation(err, "orders.code")
}

// resetIdentity clears ids assigned by the rolled back insert.
func resetIdentity(order *models.Order) {
	order.ID = uuid.Nil
	order.Code = ""
	for i := range order.Items {
		order.Items[i].ID = uuid.Nil
		order.Items[i].OrderID = uuid.Nil
	}
}

func vendorIDs(items []models.OrderItem) []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	out := []uuid.UUID{}
	for _, item := range items {
		if !seen[item.VendorID] {
			seen[item.VendorID] = true
			out = append(out, item.VendorID)
		}
	}
	return out
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := map[string]string{}
		for _, fe := range verrs {
			details[fe.Namespace()] = fe.Tag()
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}
