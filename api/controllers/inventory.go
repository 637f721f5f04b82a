package controllers

import (
	"net/http"

	"github.com/angelmondragon/collette-backend/api/responses"
	"github.com/angelmondragon/collette-backend/internal/inventory"
	pkgerrors "github.com/angelmondragon/collette-backend/pkg/errors"
	"github.com/angelmondragon/collette-backend/pkg/logger"
)

// SyncInventory reconciles the catalog into the inventory projection.
func SyncInventory(svc inventory.Synchronizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		result, err := svc.SyncCatalogToInventory(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ListInventory(svc inventory.Synchronizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		rows, err := svc.ListWithStock(r.Context())
		switch {
		case err != nil && rows == nil:
			responses.WriteError(r.Context(), logg, w, err)
		case err != nil:
			responses.WritePartial(r.Context(), logg, w, rows, err)
		default:
			responses.WriteSuccess(w, rows)
		}
	}
}
