package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "load order")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
	if wrapped.Error() != "DEPENDENCY_ERROR: load order: boom" {
		t.Fatalf("unexpected message %q", wrapped.Error())
	}
}

func TestIsCodeFollowsChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeNotFound, "order not found"))
	if !IsCode(err, CodeNotFound) {
		t.Fatalf("expected not found code in chain")
	}
	if IsCode(err, CodeValidation) {
		t.Fatalf("unexpected validation match")
	}
}

func TestRetryableSeparatesPreconditionsFromDependencies(t *testing.T) {
	if Retryable(New(CodeStateConflict, "order delivered")) {
		t.Fatalf("state conflict must not be retryable")
	}
	if !Retryable(Wrap(CodeDependency, stdErrors.New("db down"), "replace order")) {
		t.Fatalf("dependency failure must be retryable")
	}
	if !Retryable(stdErrors.New("untyped")) {
		t.Fatalf("untyped errors are treated as collaborator failures")
	}
	if Retryable(nil) {
		t.Fatalf("nil is never retryable")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := fmt.Errorf("insert: %w", Wrap(CodeConflict, stdErrors.New("duplicate"), "order code taken"))
	d := Dump(err)
	if d.Code != CodeConflict {
		t.Fatalf("expected conflict code, got %s", d.Code)
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected 3 chain entries, got %d", len(d.Chain))
	}
}

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "orders_code_key", TableName: "orders", Message: "duplicate key value"}
	d := Dump(Wrap(CodeConflict, pgErr, "insert order"))
	if d.PGCode != "23505" || d.PGConstraint != "orders_code_key" || d.PGTable != "orders" {
		t.Fatalf("unexpected pg fields %+v", d)
	}

	fields := d.Fields()
	if fields["pg_constraint"] != "orders_code_key" || fields["error_code"] != CodeConflict {
		t.Fatalf("unexpected fields %v", fields)
	}
	if _, ok := fields["pg_column"]; ok {
		t.Fatalf("empty pg attributes must be omitted")
	}
	if len(Dump(nil).Chain) != 0 {
		t.Fatalf("nil error dumps empty")
	}
}

func TestNewfAndDetails(t *testing.T) {
	err := Newf(CodeNotFound, "order %s not found", "#ORD0001").WithDetails(map[string]string{"code": "#ORD0001"})
	if err.Message() != "order #ORD0001 not found" {
		t.Fatalf("unexpected message %q", err.Message())
	}
	if details, ok := err.Details().(map[string]string); !ok || details["code"] != "#ORD0001" {
		t.Fatalf("unexpected details %#v", err.Details())
	}
	if Wrap(CodeValidation, nil, "bad input").Error() != "VALIDATION_ERROR: bad input" {
		t.Fatalf("wrap of nil should read like New")
	}
	var nilErr *Error
	if nilErr.Code() != CodeInternal || nilErr.WithDetails("x") != nil || IsCode(nil, CodeInternal) {
		t.Fatalf("nil receivers must be safe")
	}
}
