package sales

import (
	"context"
	"testing"

	"github.com/tillpoint-pos/tillpoint/internal/domain"
	"github.com/tillpoint-pos/tillpoint/internal/infra/sqlite"
	"github.com/tillpoint-pos/tillpoint/internal/inventory"
)

func newTestRecorder(t *testing.T) (*Recorder, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRecorder(db, inventory.NewAdjuster(db)), db
}

func seedItem(t *testing.T, db *sqlite.DB, id, stock int64) {
	t.Helper()
	_, err := db.UpsertInventoryItem(context.Background(), domain.InventoryItem{
		ID: id, Name: "Widget", Price: 450, Stock: stock, Taxable: true,
	})
	if err != nil {
		t.Fatalf("seed item: %v", err)
	}
}

func stock(t *testing.T, db *sqlite.DB, id int64) int64 {
	t.Helper()
	it, err := db.GetInventoryItem(context.Background(), id)
	if err != nil || it == nil {
		t.Fatalf("GetInventoryItem(%d) = %v, %v", id, it, err)
	}
	return it.Stock
}

// ─── Record ─────────────────────────────────────────────────────────────────

func TestRecord_CashSaleDeductsStock(t *testing.T) {
	r, db := newTestRecorder(t)
	ctx := context.Background()
	seedItem(t, db, 7, 10)

	pid := int64(7)
	tx, err := r.Record(ctx, Sale{
		Items:      []domain.TransactionItem{{ProductID: &pid, Name: "Widget", Quantity: 3, UnitPrice: 450, Taxable: true}},
		Tax:        108,
		CashAmount: 1458,
	})
	if err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if tx.ID == "" {
		t.Error("transaction should get an id")
	}
	if got := stock(t, db, 7); got != 7 {
		t.Errorf("stock = %d, want 7", got)
	}
}

func TestRecord_NormalizesTotals(t *testing.T) {
	r, _ := newTestRecorder(t)
	ctx := context.Background()

	pid := int64(7)
	tx, err := r.Record(ctx, Sale{
		Items: []domain.TransactionItem{
			{ProductID: &pid, Name: "Widget", Quantity: 2, UnitPrice: 450},
			{Name: "Bag", Quantity: 1, UnitPrice: 100, IsManual: true},
		},
		Tax: 80,
	})
	if err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if tx.Subtotal != 1000 {
		t.Errorf("subtotal = %d, want 1000 (derived from items)", tx.Subtotal)
	}
	if tx.Total != 1080 {
		t.Errorf("total = %d, want 1080 (subtotal + tax)", tx.Total)
	}
}

func TestRecord_NegativeAmountsClampToZero(t *testing.T) {
	r, _ := newTestRecorder(t)
	tx, err := r.Record(context.Background(), Sale{
		Items:    []domain.TransactionItem{{Name: "Adjustment", Quantity: 1, UnitPrice: 500, IsManual: true}},
		Tax:      -50,
		Subtotal: -100,
	})
	if err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if tx.Tax != 0 {
		t.Errorf("tax = %d, want clamped to 0", tx.Tax)
	}
	if tx.Subtotal != 500 {
		t.Errorf("subtotal = %d, want rebuilt 500", tx.Subtotal)
	}
}

func TestRecord_CreditSaleStartsUnpaid(t *testing.T) {
	r, db := newTestRecorder(t)
	ctx := context.Background()
	seedItem(t, db, 7, 10)

	pid := int64(7)
	tx, err := r.Record(ctx, Sale{
		Items:          []domain.TransactionItem{{ProductID: &pid, Name: "Widget", Quantity: 2, UnitPrice: 450}},
		IsCreditSale:   true,
		CreditCustomer: "Jane Doe",
	})
	if err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if tx.CreditStatus != domain.CreditUnpaid {
		t.Errorf("creditStatus = %q, want unpaid", tx.CreditStatus)
	}
	if tx.CreditAmount != 900 {
		t.Errorf("creditAmount = %d, want derived 900", tx.CreditAmount)
	}

	stored, _ := db.GetTransaction(ctx, tx.ID)
	if stored == nil || stored.CreditStatus != domain.CreditUnpaid {
		t.Fatalf("stored transaction = %+v", stored)
	}
}

func TestRecord_FullCreditSaleDefersDeduction(t *testing.T) {
	r, db := newTestRecorder(t)
	ctx := context.Background()
	seedItem(t, db, 7, 10)

	pid := int64(7)
	_, err := r.Record(ctx, Sale{
		Items:          []domain.TransactionItem{{ProductID: &pid, Name: "Widget", Quantity: 4, UnitPrice: 450}},
		IsCreditSale:   true,
		CreditCustomer: "Jane Doe",
	})
	if err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if got := stock(t, db, 7); got != 10 {
		t.Errorf("stock = %d, want 10 (full credit sale defers deduction)", got)
	}
}

func TestRecord_PartialPaymentDeductsAtSaleTime(t *testing.T) {
	r, db := newTestRecorder(t)
	ctx := context.Background()
	seedItem(t, db, 7, 10)

	pid := int64(7)
	_, err := r.Record(ctx, Sale{
		Items:            []domain.TransactionItem{{ProductID: &pid, Name: "Widget", Quantity: 4, UnitPrice: 450}},
		IsCreditSale:     true,
		IsPartialPayment: true,
		CreditCustomer:   "Jane Doe",
		CashAmount:       900,
	})
	if err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if got := stock(t, db, 7); got != 6 {
		t.Errorf("stock = %d, want 6 (partial payment deducts now)", got)
	}
}

func TestRecord_CreditSaleRequiresCustomer(t *testing.T) {
	r, _ := newTestRecorder(t)
	_, err := r.Record(context.Background(), Sale{IsCreditSale: true})
	if !domain.IsValidation(err) {
		t.Errorf("error = %v, want ValidationError", err)
	}
}

func TestRecord_MissingItemDoesNotFailSale(t *testing.T) {
	r, db := newTestRecorder(t)
	ctx := context.Background()

	missing := int64(42)
	tx, err := r.Record(ctx, Sale{
		Items:      []domain.TransactionItem{{ProductID: &missing, Name: "Ghost", Quantity: 1, UnitPrice: 100}},
		CashAmount: 100,
	})
	if err != nil {
		t.Fatalf("Record() must not fail on missing inventory: %v", err)
	}
	stored, _ := db.GetTransaction(ctx, tx.ID)
	if stored == nil {
		t.Fatal("sale should be persisted despite the bad item reference")
	}
}

// ─── Payment summaries ──────────────────────────────────────────────────────

func TestRecordPaymentSummary(t *testing.T) {
	r, db := newTestRecorder(t)
	ctx := context.Background()

	tx, err := r.RecordPaymentSummary(ctx, "Jane Doe", 2000, "cash")
	if err != nil {
		t.Fatalf("RecordPaymentSummary() error: %v", err)
	}
	stored, _ := db.GetTransaction(ctx, tx.ID)
	if !stored.IsPaymentSummary {
		t.Error("record should be flagged as a payment summary")
	}
	if stored.Total != 2000 {
		t.Errorf("total = %d, want 2000", stored.Total)
	}
	if len(stored.Items) != 0 {
		t.Error("payment summary carries no items")
	}
}

func TestRecordPaymentSummary_RejectsNonPositive(t *testing.T) {
	r, _ := newTestRecorder(t)
	if _, err := r.RecordPaymentSummary(context.Background(), "Jane Doe", 0, "cash"); !domain.IsValidation(err) {
		t.Errorf("error = %v, want ValidationError", err)
	}
}

// ─── History ────────────────────────────────────────────────────────────────

func TestListAndSummaries(t *testing.T) {
	r, _ := newTestRecorder(t)
	ctx := context.Background()

	r.Record(ctx, Sale{
		Items:      []domain.TransactionItem{{Name: "Coffee", Quantity: 1, UnitPrice: 450, IsManual: true}},
		CashAmount: 450,
	})
	r.RecordPaymentSummary(ctx, "Jane Doe", 1000, "cash")

	history, err := r.List(ctx, sqlite.TransactionFilter{})
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d records, want 2", len(history))
	}

	days, err := r.DailySummaries(ctx, 0)
	if err != nil {
		t.Fatalf("DailySummaries() error: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("summaries = %d, want 1", len(days))
	}
	if days[0].TransactionCount != 1 {
		t.Errorf("day count = %d, want 1 (payment summaries excluded)", days[0].TransactionCount)
	}
}
