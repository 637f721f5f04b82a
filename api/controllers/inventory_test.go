package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/collette-backend/internal/inventory"
	pkgerrors "github.com/angelmondragon/collette-backend/pkg/errors"
)

type testSynchronizer struct {
	syncFn func(ctx context.Context) (*inventory.SyncResult, error)
	listFn func(ctx context.Context) ([]inventory.StockRow, error)
}

func (s *testSynchronizer) SyncCatalogToInventory(ctx context.Context) (*inventory.SyncResult, error) {
	return s.syncFn(ctx)
}

func (s *testSynchronizer) ListWithStock(ctx context.Context) ([]inventory.StockRow, error) {
	return s.listFn(ctx)
}

func TestSyncInventoryReturnsCounts(t *testing.T) {
	svc := &testSynchronizer{
		syncFn: func(ctx context.Context) (*inventory.SyncResult, error) {
			return &inventory.SyncResult{Created: 2, Updated: 1}, nil
		},
	}
	resp := httptest.NewRecorder()
	SyncInventory(svc, testLogger())(resp, httptest.NewRequest(http.MethodPost, "/api/v1/inventory/sync", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data inventory.SyncResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Created != 2 || envelope.Data.Updated != 1 {
		t.Fatalf("unexpected result %+v", envelope.Data)
	}
}

func TestSyncInventoryPartialFailureIs503(t *testing.T) {
	svc := &testSynchronizer{
		syncFn: func(ctx context.Context) (*inventory.SyncResult, error) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("upsert failed"), "inventory sync incomplete")
		},
	}
	resp := httptest.NewRecorder()
	SyncInventory(svc, testLogger())(resp, httptest.NewRequest(http.MethodPost, "/api/v1/inventory/sync", nil))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestListInventory(t *testing.T) {
	svc := &testSynchronizer{
		listFn: func(ctx context.Context) ([]inventory.StockRow, error) {
			return []inventory.StockRow{{ProductID: uuid.New(), ProductName: "Teapot", Quantity: 3, LowStock: true}}, nil
		},
	}
	resp := httptest.NewRecorder()
	ListInventory(svc, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/inventory", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data []inventory.StockRow `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data) != 1 || !envelope.Data[0].LowStock {
		t.Fatalf("unexpected rows %+v", envelope.Data)
	}
}

func TestListInventoryServesRowsWithPartialFailure(t *testing.T) {
	svc := &testSynchronizer{
		listFn: func(ctx context.Context) ([]inventory.StockRow, error) {
			rows := []inventory.StockRow{
				{ProductID: uuid.New(), ProductName: "Teapot", Quantity: 3},
				{ProductID: uuid.New(), ProductName: "Kettle", Quantity: 9},
			}
			return rows, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("upsert failed"), "sync inventory").
				WithDetails(map[string]any{"failed": 1})
		},
	}
	resp := httptest.NewRecorder()
	ListInventory(svc, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/inventory", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data     []inventory.StockRow `json:"data"`
		Warnings []struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"warnings"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected both rows, got %+v", envelope.Data)
	}
	if len(envelope.Warnings) != 1 || envelope.Warnings[0].Code != string(pkgerrors.CodeDependency) {
		t.Fatalf("unexpected warnings %+v", envelope.Warnings)
	}
	if envelope.Warnings[0].Details["failed"] != float64(1) {
		t.Fatalf("expected failure count in details, got %+v", envelope.Warnings[0].Details)
	}
}

func TestListInventoryWithoutRowsIsAnError(t *testing.T) {
	svc := &testSynchronizer{
		listFn: func(ctx context.Context) ([]inventory.StockRow, error) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("db down"), "list catalog")
		},
	}
	resp := httptest.NewRecorder()
	ListInventory(svc, testLogger())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/inventory", nil))

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}
