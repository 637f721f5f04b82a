package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/angelmondragon/collette-backend/pkg/errors"
	"github.com/angelmondragon/collette-backend/pkg/logger"
	"github.com/angelmondragon/collette-backend/pkg/types"
)

const requestIDHeader = "X-Request-Id"

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WritePage writes one page of a cursor listing.
func WritePage[T any](w http.ResponseWriter, items []T, nextCursor string) {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, types.SuccessEnvelope{
		Data: items,
		Meta: &types.PageMeta{NextCursor: nextCursor, Count: len(items)},
	})
}

// WriteError maps err onto its HTTP status and public payload. Errors without
// a code are reported as internal and never leak their message.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	apiErr, status := describe(ctx, logg, w, err)
	writeJSON(w, status, types.ErrorEnvelope{Error: apiErr})
}

// WritePartial serves data with a 200 and reports err as a warning next to it.
func WritePartial(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, data any, err error) {
	apiErr, _ := describe(ctx, logg, w, err)
	writeJSON(w, http.StatusOK, types.SuccessEnvelope{Data: data, Warnings: []types.APIError{apiErr}})
}

func describe(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) (types.APIError, int) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	apiErr := types.APIError{
		Code:      string(typed.Code()),
		Message:   publicMessage(typed, meta),
		RequestID: w.Header().Get(requestIDHeader),
	}
	if meta.DetailsAllowed {
		apiErr.Details = typed.Details()
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, pkgerrors.Dump(err).Fields())
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.rejected")
		}
	}
	return apiErr, meta.HTTPStatus
}

func publicMessage(typed *pkgerrors.Error, meta pkgerrors.Metadata) string {
	if typed.Code() == pkgerrors.CodeInternal || typed.Message() == "" {
		return meta.PublicMessage
	}
	return typed.Message()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// the status line is already out; an encode failure can only truncate the body
	_ = json.NewEncoder(w).Encode(payload)
}
