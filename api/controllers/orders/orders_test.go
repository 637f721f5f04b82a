package orders

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	internalorders "github.com/angelmondragon/collette-backend/internal/orders"
	"github.com/angelmondragon/collette-backend/pkg/db/models"
	"github.com/angelmondragon/collette-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/collette-backend/pkg/errors"
	"github.com/angelmondragon/collette-backend/pkg/logger"
)

type stubLedger struct {
	internalorders.Ledger
	createFn func(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*models.Order, error)
	byCodeFn func(ctx context.Context, code string) (*models.Order, error)
	statusFn func(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, error)
}

func (s *stubLedger) CreateOrder(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error) {
	return s.createFn(ctx, input)
}

func (s *stubLedger) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.getFn(ctx, id)
}

func (s *stubLedger) GetOrderByCode(ctx context.Context, code string) (*models.Order, error) {
	return s.byCodeFn(ctx, code)
}

func (s *stubLedger) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	return s.statusFn(ctx, id, status)
}

type stubCancellations struct {
	internalorders.Cancellations
	decideFn func(ctx context.Context, input internalorders.DecideCancellationInput) (*models.Order, error)
}

func (s *stubCancellations) DecideCancellation(ctx context.Context, input internalorders.DecideCancellationInput) (*models.Order, error) {
	return s.decideFn(ctx, input)
}

type stubFulfillment struct {
	internalorders.Fulfillment
	deliverFn func(ctx context.Context, id, vendorID uuid.UUID) (*models.Order, error)
}

func (s *stubFulfillment) MarkVendorItemsDelivered(ctx context.Context, id, vendorID uuid.UUID) (*models.Order, error) {
	return s.deliverFn(ctx, id, vendorID)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func withParams(req *http.Request, kv ...string) *http.Request {
	routeCtx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		routeCtx.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func sampleOrder() *models.Order {
	return &models.Order{
		ID:          uuid.New(),
		Code:        "#ORD4821",
		Status:      enums.OrderStatusPurchased,
		TotalAmount: decimal.NewFromInt(25),
		Items: []models.OrderItem{
			{ListItemID: 1, ProductName: "Teapot", Quantity: 2, Price: decimal.NewFromInt(10)},
			{ListItemID: 2, ProductName: "Saucer", Quantity: 1, Price: decimal.NewFromInt(5)},
		},
	}
}

func decodeOrder(t *testing.T, body []byte) internalorders.OrderDTO {
	t.Helper()
	var envelope struct {
		Data internalorders.OrderDTO `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return envelope.Data
}

func TestCreateReturns201(t *testing.T) {
	productID := uuid.New()
	ledger := &stubLedger{
		createFn: func(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error) {
			if input.Origin != internalorders.OriginAdmin {
				t.Fatalf("unexpected origin %s", input.Origin)
			}
			if len(input.Groups) != 1 || input.Groups[0].Items[0].ProductID != productID {
				t.Fatalf("unexpected groups %+v", input.Groups)
			}
			return sampleOrder(), nil
		},
	}
	body := `{"origin":"admin","order_items_groups":[{"list_item_id":1,"items":[{"product_id":"` + productID.String() + `","quantity":2}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	resp := httptest.NewRecorder()
	Create(ledger, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	dto := decodeOrder(t, resp.Body.Bytes())
	if dto.Code != "#ORD4821" || len(dto.Groups) != 2 {
		t.Fatalf("unexpected dto %+v", dto)
	}
	if !dto.TotalAmount.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected total %s", dto.TotalAmount)
	}
}

func TestCreateRejectsInvalidBody(t *testing.T) {
	ledger := &stubLedger{
		createFn: func(ctx context.Context, input internalorders.CreateOrderInput) (*models.Order, error) {
			t.Fatal("ledger must not be called")
			return nil, nil
		},
	}
	for _, body := range []string{
		`{"origin":"admin","order_items_groups":[]}`,
		`{"origin":"robot","order_items_groups":[{"items":[{"product_id":"` + uuid.NewString() + `","quantity":1}]}]}`,
		`{"origin":"admin","unknown":true}`,
	} {
		resp := httptest.NewRecorder()
		Create(ledger, testLogger())(resp, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400 got %d", body, resp.Code)
		}
	}
}

func TestDetailMapsNotFound(t *testing.T) {
	ledger := &stubLedger{
		getFn: func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		},
	}
	id := uuid.NewString()
	resp := httptest.NewRecorder()
	Detail(ledger, testLogger())(resp, withParams(httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+id, nil), "orderId", id))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestListByCode(t *testing.T) {
	ledger := &stubLedger{
		byCodeFn: func(ctx context.Context, code string) (*models.Order, error) {
			if code != "#ORD4821" {
				t.Fatalf("unexpected code %q", code)
			}
			return sampleOrder(), nil
		},
	}
	resp := httptest.NewRecorder()
	List(ledger, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/orders?code=%23ORD4821", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	List(ledger, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without filters, got %d", resp.Code)
	}
}

func TestUpdateStatusTerminalIs422(t *testing.T) {
	ledger := &stubLedger{
		statusFn: func(ctx context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
			if status != enums.OrderStatusAccepted {
				t.Fatalf("unexpected status %s", status)
			}
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is in a terminal status")
		},
	}
	id := uuid.NewString()
	req := withParams(httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+id+"/status", strings.NewReader(`{"status":"Accepted"}`)), "orderId", id)
	resp := httptest.NewRecorder()
	UpdateStatus(ledger, testLogger())(resp, req)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestDecideCancellationRequiresExplicitApprove(t *testing.T) {
	svc := &stubCancellations{
		decideFn: func(ctx context.Context, input internalorders.DecideCancellationInput) (*models.Order, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	id := uuid.NewString()
	req := withParams(httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+id+"/cancellation/decision", strings.NewReader(`{}`)), "orderId", id)
	resp := httptest.NewRecorder()
	DecideCancellation(svc, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestDecideCancellationTrimsNote(t *testing.T) {
	orderID := uuid.New()
	svc := &stubCancellations{
		decideFn: func(ctx context.Context, input internalorders.DecideCancellationInput) (*models.Order, error) {
			if input.OrderID != orderID || input.Approve {
				t.Fatalf("unexpected input %+v", input)
			}
			if input.Note == nil || *input.Note != "already packed" {
				t.Fatalf("unexpected note %v", input.Note)
			}
			order := sampleOrder()
			order.Cancellation = &models.OrderCancellation{Status: enums.CancelRequestRejected}
			return order, nil
		},
	}
	req := withParams(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"approve":false,"note":"  already packed "}`)), "orderId", orderID.String())
	resp := httptest.NewRecorder()
	DecideCancellation(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	dto := decodeOrder(t, resp.Body.Bytes())
	if dto.Cancellation == nil || dto.Cancellation.CancellationApproved {
		t.Fatalf("unexpected cancellation %+v", dto.Cancellation)
	}
}

func TestVendorDeliverPassesBothIDs(t *testing.T) {
	orderID, vendorID := uuid.New(), uuid.New()
	svc := &stubFulfillment{
		deliverFn: func(ctx context.Context, id, vendor uuid.UUID) (*models.Order, error) {
			if id != orderID || vendor != vendorID {
				t.Fatalf("unexpected ids %s %s", id, vendor)
			}
			order := sampleOrder()
			order.Status = enums.OrderStatusPartiallyDelivered
			return order, nil
		},
	}
	req := withParams(httptest.NewRequest(http.MethodPost, "/", nil), "vendorId", vendorID.String(), "orderId", orderID.String())
	resp := httptest.NewRecorder()
	VendorDeliver(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if dto := decodeOrder(t, resp.Body.Bytes()); dto.Status != enums.OrderStatusPartiallyDelivered {
		t.Fatalf("unexpected status %s", dto.Status)
	}
}

func TestVendorDeliverRejectsBadVendor(t *testing.T) {
	req := withParams(httptest.NewRequest(http.MethodPost, "/", nil), "vendorId", "bad", "orderId", uuid.NewString())
	resp := httptest.NewRecorder()
	VendorDeliver(&stubFulfillment{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
