package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/collette-backend/api/responses"
	"github.com/angelmondragon/collette-backend/api/validators"
	"github.com/angelmondragon/collette-backend/internal/notifications"
	"github.com/angelmondragon/collette-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/collette-backend/pkg/errors"
	"github.com/angelmondragon/collette-backend/pkg/logger"
	"github.com/angelmondragon/collette-backend/pkg/pagination"
)

// ListNotifications returns a page of unresolved notifications for one audience.
func ListNotifications(svc notifications.Dispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		audience, err := enums.ParseNotificationAudience(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("audience"))))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid audience"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListUnresolved(r.Context(), notifications.ListParams{
			Audience: audience,
			Limit:    limit,
			Cursor:   strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, page.Items, page.Cursor)
	}
}

// CustomerNotifications returns the resolved, customer-visible history.
func CustomerNotifications(svc notifications.Dispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}
		customerID, err := validators.ParseUUIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.FindResolvedForCustomer(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// ResolveNotification marks a notification handled. Repeating the call is harmless.
func ResolveNotification(svc notifications.Dispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.MarkResolved(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"resolved": true})
	}
}
