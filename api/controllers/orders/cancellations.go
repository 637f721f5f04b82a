package orders

import (
	"net/http"

	"github.com/angelmondragon/collette-backend/api/responses"
	"github.com/angelmondragon/collette-backend/api/validators"
	internalorders "github.com/angelmondragon/collette-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/collette-backend/pkg/errors"
	"github.com/angelmondragon/collette-backend/pkg/logger"
)

const maxNoteLength = 500

type decisionRequest struct {
	Approve *bool   `json:"approve" validate:"required"`
	Note    *string `json:"note,omitempty"`
}

func RequestCancellation(svc internalorders.Cancellations, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cancellation service unavailable"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.RequestCancellation(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusAccepted, internalorders.ToDTO(order))
	}
}

// DecideCancellation records the staff decision. approve must be explicit.
func DecideCancellation(svc internalorders.Cancellations, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cancellation service unavailable"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req decisionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.DecideCancellationInput{OrderID: orderID, Approve: *req.Approve}
		if req.Note != nil {
			if note := validators.SanitizeString(*req.Note, maxNoteLength); note != "" {
				input.Note = &note
			}
		}
		order, err := svc.DecideCancellation(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.ToDTO(order))
	}
}

func PendingCancellations(svc internalorders.Cancellations, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cancellation service unavailable"))
			return
		}
		rows, err := svc.ListPendingCancellations(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.ToDTOs(rows))
	}
}
