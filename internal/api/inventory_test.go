package api

import (
	"net/http"
	"testing"
)

// ─── Inventory API Tests ────────────────────────────────────────────────────

func TestInventory_UpsertAndGet(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()

	w := doJSON(t, h, http.MethodPut, "/api/inventory",
		`{"name":"Coffee","category":"drinks","price":4.50,"stock":12,"lowStockThreshold":3,"taxable":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("upsert: expected 200, got %d (body %s)", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	id := resp["id"].(float64)
	if id <= 0 {
		t.Fatalf("expected assigned id, got %v", resp["id"])
	}
	if resp["price"] != float64(4.5) {
		t.Errorf("expected price 4.5, got %v", resp["price"])
	}

	w = doJSON(t, h, http.MethodGet, "/api/inventory", "")
	resp = decodeBody(t, w)
	if items := resp["items"].([]interface{}); len(items) != 1 {
		t.Errorf("expected 1 item, got %d", len(items))
	}

	w = doJSON(t, h, http.MethodGet, "/api/inventory/9999", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing item, got %d", w.Code)
	}

	w = doJSON(t, h, http.MethodPut, "/api/inventory", `{"name":""}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty name, got %d", w.Code)
	}
}

func TestInventory_Import(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()

	w := doJSON(t, h, http.MethodPost, "/api/inventory/import", `{"items":[
		{"name":"Coffee","price":4.50,"stock":10},
		{"name":"","price":1},
		{"name":"Tea","price":3,"stock":8}
	]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	if resp["imported"] != float64(2) {
		t.Errorf("expected 2 imported, got %v", resp["imported"])
	}
	if skipped := resp["skipped"].([]interface{}); len(skipped) != 1 {
		t.Errorf("expected 1 skipped, got %d", len(skipped))
	}
}

func TestInventory_RestockAndLowStock(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()

	w := doJSON(t, h, http.MethodPut, "/api/inventory",
		`{"name":"Coffee","price":4.50,"stock":2,"lowStockThreshold":5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("upsert: expected 200, got %d", w.Code)
	}

	w = doJSON(t, h, http.MethodGet, "/api/inventory/low-stock", "")
	resp := decodeBody(t, w)
	if items := resp["items"].([]interface{}); len(items) != 1 {
		t.Fatalf("expected 1 low-stock item, got %d", len(items))
	}

	w = doJSON(t, h, http.MethodPost, "/api/inventory/1/restock", `{"quantity":10}`)
	if w.Code != http.StatusOK {
		t.Fatalf("restock: expected 200, got %d (body %s)", w.Code, w.Body.String())
	}
	if got := decodeBody(t, w)["stock"]; got != float64(12) {
		t.Errorf("expected stock 12 after restock, got %v", got)
	}

	w = doJSON(t, h, http.MethodGet, "/api/inventory/low-stock", "")
	resp = decodeBody(t, w)
	if items := resp["items"].([]interface{}); len(items) != 0 {
		t.Errorf("expected no low-stock items after restock, got %d", len(items))
	}

	w = doJSON(t, h, http.MethodPost, "/api/inventory/9999/restock", `{"quantity":1}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 restocking missing item, got %d", w.Code)
	}
}

func TestInventory_Delete(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()

	doJSON(t, h, http.MethodPut, "/api/inventory", `{"name":"Coffee","price":4.50}`)

	w := doJSON(t, h, http.MethodDelete, "/api/inventory/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w = doJSON(t, h, http.MethodDelete, "/api/inventory/1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", w.Code)
	}
}
