package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/tillpoint-pos/tillpoint/internal/domain"
)

// ─── Transactions API Tests ─────────────────────────────────────────────────

func TestRecordSale_CashDeductsStock(t *testing.T) {
	s, db := setupServer(t)
	h := s.Handler()
	ctx := context.Background()

	if _, err := db.UpsertInventoryItem(ctx, domain.InventoryItem{
		ID: 1, Name: "Tea", Price: 300, Stock: 5,
	}); err != nil {
		t.Fatalf("seed inventory: %v", err)
	}

	w := doJSON(t, h, http.MethodPost, "/api/transactions", `{
		"items":[{"productId":1,"name":"Tea","quantity":2,"unitPrice":3}],
		"cashAmount":6
	}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	tx := resp["transaction"].(map[string]interface{})
	if tx["total"] != float64(6) {
		t.Errorf("expected total 6, got %v", tx["total"])
	}

	it, _ := db.GetInventoryItem(ctx, 1)
	if it.Stock != 3 {
		t.Errorf("expected stock 3 after cash sale, got %d", it.Stock)
	}
}

func TestRecordSale_CreditChargesAccount(t *testing.T) {
	s, db := setupServer(t)
	h := s.Handler()
	ctx := context.Background()

	if _, err := db.UpsertInventoryItem(ctx, domain.InventoryItem{
		ID: 1, Name: "Tea", Price: 300, Stock: 5,
	}); err != nil {
		t.Fatalf("seed inventory: %v", err)
	}

	w := doJSON(t, h, http.MethodPost, "/api/transactions", `{
		"items":[{"productId":1,"name":"Tea","quantity":2,"unitPrice":3}],
		"isCreditSale":true,
		"creditCustomerName":"Frank"
	}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	tx := resp["transaction"].(map[string]interface{})
	if tx["creditStatus"] != "unpaid" {
		t.Errorf("expected creditStatus unpaid, got %v", tx["creditStatus"])
	}

	// The credit portion landed on the account.
	w = doJSON(t, h, http.MethodGet, "/api/credit/accounts/Frank", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get account: expected 200, got %d", w.Code)
	}
	if got := decodeBody(t, w)["balance"]; got != float64(6) {
		t.Errorf("expected balance 6, got %v", got)
	}

	// And stock was not deducted yet: full credit sales defer to settlement.
	it, _ := db.GetInventoryItem(ctx, 1)
	if it.Stock != 5 {
		t.Errorf("expected stock 5 before settlement, got %d", it.Stock)
	}
}

func TestRecordSale_CreditWithoutCustomerRejected(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()

	w := doJSON(t, h, http.MethodPost, "/api/transactions", `{
		"items":[{"name":"Misc","quantity":1,"unitPrice":2,"isManual":true}],
		"isCreditSale":true
	}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d (body %s)", w.Code, w.Body.String())
	}
}

func TestListTransactions_Filters(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()

	// One cash sale and one credit sale.
	doJSON(t, h, http.MethodPost, "/api/transactions", `{
		"items":[{"name":"A","quantity":1,"unitPrice":1,"isManual":true}],
		"cashAmount":1
	}`)
	doJSON(t, h, http.MethodPost, "/api/transactions", `{
		"items":[{"name":"B","quantity":1,"unitPrice":2,"isManual":true}],
		"isCreditSale":true,"creditCustomerName":"Gina"
	}`)

	w := doJSON(t, h, http.MethodGet, "/api/transactions", "")
	resp := decodeBody(t, w)
	if txs := resp["transactions"].([]interface{}); len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}

	w = doJSON(t, h, http.MethodGet, "/api/transactions?creditStatus=unpaid", "")
	resp = decodeBody(t, w)
	if txs := resp["transactions"].([]interface{}); len(txs) != 1 {
		t.Errorf("expected 1 unpaid transaction, got %d", len(txs))
	}

	w = doJSON(t, h, http.MethodGet, "/api/transactions?limit=1", "")
	resp = decodeBody(t, w)
	if txs := resp["transactions"].([]interface{}); len(txs) != 1 {
		t.Errorf("expected 1 transaction with limit, got %d", len(txs))
	}

	w = doJSON(t, h, http.MethodGet, "/api/transactions?from=not-a-time", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad from, got %d", w.Code)
	}
}

func TestDailySummaries(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()

	doJSON(t, h, http.MethodPost, "/api/transactions", `{
		"items":[{"name":"A","quantity":1,"unitPrice":10,"isManual":true}],
		"cashAmount":10
	}`)

	w := doJSON(t, h, http.MethodGet, "/api/transactions/summary?days=7", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decodeBody(t, w)
	days := resp["days"].([]interface{})
	if len(days) != 1 {
		t.Fatalf("expected 1 summary day, got %d", len(days))
	}
	day := days[0].(map[string]interface{})
	if day["total"] != float64(10) {
		t.Errorf("expected total 10, got %v", day["total"])
	}
}
