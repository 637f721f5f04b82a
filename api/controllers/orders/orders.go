package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/collette-backend/api/responses"
	"github.com/angelmondragon/collette-backend/api/validators"
	internalorders "github.com/angelmondragon/collette-backend/internal/orders"
	"github.com/angelmondragon/collette-backend/pkg/db/models"
	"github.com/angelmondragon/collette-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/collette-backend/pkg/errors"
	"github.com/angelmondragon/collette-backend/pkg/logger"
)

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Create places a customer- or admin-initiated order.
func Create(ledger internalorders.Ledger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order ledger unavailable"))
			return
		}
		var input internalorders.CreateOrderInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := ledger.CreateOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, internalorders.ToDTO(order))
	}
}

// Detail returns one order with every item.
func Detail(ledger internalorders.Ledger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order ledger unavailable"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := ledger.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.ToDTO(order))
	}
}

// List filters orders by exactly one of code, status or customer_id.
func List(ledger internalorders.Ledger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order ledger unavailable"))
			return
		}
		query := r.URL.Query()
		code := strings.TrimSpace(query.Get("code"))
		rawStatus := strings.TrimSpace(query.Get("status"))
		rawCustomer := strings.TrimSpace(query.Get("customer_id"))

		var (
			rows []models.Order
			err  error
		)
		switch {
		case code != "":
			var order *models.Order
			order, err = ledger.GetOrderByCode(r.Context(), code)
			if err == nil {
				rows = []models.Order{*order}
			}
		case rawStatus != "":
			status, parseErr := enums.ParseOrderStatus(strings.ToLower(rawStatus))
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status"))
				return
			}
			rows, err = ledger.ListByStatus(r.Context(), status)
		case rawCustomer != "":
			customerID, parseErr := uuid.Parse(rawCustomer)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid customer_id"))
				return
			}
			rows, err = ledger.ListForCustomer(r.Context(), customerID)
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "one of code, status or customer_id is required"))
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.ToDTOs(rows))
	}
}

// UpdateStatus applies a direct status transition.
func UpdateStatus(ledger internalorders.Ledger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ledger == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order ledger unavailable"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req statusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(strings.ToLower(strings.TrimSpace(req.Status)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		order, err := ledger.UpdateStatus(r.Context(), orderID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.ToDTO(order))
	}
}

// StaffDeliver is the administrative delivery override.
func StaffDeliver(fulfillment internalorders.Fulfillment, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if fulfillment == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := fulfillment.MarkOrderDeliveredByStaff(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.ToDTO(order))
	}
}
