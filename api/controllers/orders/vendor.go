package orders

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/collette-backend/api/responses"
	"github.com/angelmondragon/collette-backend/api/validators"
	internalorders "github.com/angelmondragon/collette-backend/internal/orders"
	"github.com/angelmondragon/collette-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/collette-backend/pkg/errors"
	"github.com/angelmondragon/collette-backend/pkg/logger"
)

// VendorList returns every order containing the vendor's items, each filtered
// down to those items.
func VendorList(fulfillment internalorders.Fulfillment, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if fulfillment == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}
		vendorID, err := validators.ParseUUIDParam(r, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := fulfillment.ListForVendor(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.ToDTOs(rows))
	}
}

func VendorDetail(fulfillment internalorders.Fulfillment, logg *logger.Logger) http.HandlerFunc {
	return vendorAction(fulfillment, logg, func(ctx context.Context, f internalorders.Fulfillment, orderID, vendorID uuid.UUID) (*models.Order, error) {
		return f.ViewForVendor(ctx, orderID, vendorID)
	})
}

func VendorReady(fulfillment internalorders.Fulfillment, logg *logger.Logger) http.HandlerFunc {
	return vendorAction(fulfillment, logg, func(ctx context.Context, f internalorders.Fulfillment, orderID, vendorID uuid.UUID) (*models.Order, error) {
		return f.MarkVendorItemsReady(ctx, orderID, vendorID)
	})
}

func VendorDeliver(fulfillment internalorders.Fulfillment, logg *logger.Logger) http.HandlerFunc {
	return vendorAction(fulfillment, logg, func(ctx context.Context, f internalorders.Fulfillment, orderID, vendorID uuid.UUID) (*models.Order, error) {
		return f.MarkVendorItemsDelivered(ctx, orderID, vendorID)
	})
}

type vendorFn func(ctx context.Context, f internalorders.Fulfillment, orderID, vendorID uuid.UUID) (*models.Order, error)

func vendorAction(fulfillment internalorders.Fulfillment, logg *logger.Logger, fn vendorFn) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if fulfillment == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}
		vendorID, err := validators.ParseUUIDParam(r, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithVendorID(ctx, vendorID.String())
		}
		order, err := fn(ctx, fulfillment, orderID, vendorID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.ToDTO(order))
	}
}
