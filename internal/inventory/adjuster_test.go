package inventory

import (
	"context"
	"testing"

	"github.com/tillpoint-pos/tillpoint/internal/domain"
	"github.com/tillpoint-pos/tillpoint/internal/infra/sqlite"
)

func newTestAdjuster(t *testing.T) (*Adjuster, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAdjuster(db), db
}

func seed(t *testing.T, db *sqlite.DB, it domain.InventoryItem) {
	t.Helper()
	if _, err := db.UpsertInventoryItem(context.Background(), it); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestDeduct(t *testing.T) {
	a, db := newTestAdjuster(t)
	ctx := context.Background()
	seed(t, db, domain.InventoryItem{ID: 7, Name: "Widget", Stock: 10})

	if err := a.Deduct(ctx, 7, 3, "sale"); err != nil {
		t.Fatalf("Deduct() error: %v", err)
	}
	it, _ := db.GetInventoryItem(ctx, 7)
	if it.Stock != 7 {
		t.Errorf("stock = %d, want 7", it.Stock)
	}
}

func TestDeduct_ClampsAtZero(t *testing.T) {
	a, db := newTestAdjuster(t)
	ctx := context.Background()
	seed(t, db, domain.InventoryItem{ID: 7, Name: "Widget", Stock: 2})

	if err := a.Deduct(ctx, 7, 5, "sale"); err != nil {
		t.Fatalf("Deduct() error: %v", err)
	}
	it, _ := db.GetInventoryItem(ctx, 7)
	if it.Stock != 0 {
		t.Errorf("stock = %d, want clamped to 0", it.Stock)
	}
}

func TestDeduct_MissingItemSilentlySkipped(t *testing.T) {
	a, _ := newTestAdjuster(t)
	if err := a.Deduct(context.Background(), 99, 1, "sale"); err != nil {
		t.Errorf("missing item must not error, got %v", err)
	}
}

func TestDeduct_IgnoresNonPositiveQuantity(t *testing.T) {
	a, db := newTestAdjuster(t)
	ctx := context.Background()
	seed(t, db, domain.InventoryItem{ID: 7, Name: "Widget", Stock: 10})

	if err := a.Deduct(ctx, 7, 0, "sale"); err != nil {
		t.Fatalf("Deduct(0) error: %v", err)
	}
	if err := a.Deduct(ctx, 7, -4, "sale"); err != nil {
		t.Fatalf("Deduct(-4) error: %v", err)
	}
	it, _ := db.GetInventoryItem(ctx, 7)
	if it.Stock != 10 {
		t.Errorf("stock = %d, want untouched 10", it.Stock)
	}
}

func TestRestock(t *testing.T) {
	a, db := newTestAdjuster(t)
	ctx := context.Background()
	seed(t, db, domain.InventoryItem{ID: 7, Name: "Widget", Stock: 2})

	if err := a.Restock(ctx, 7, 8); err != nil {
		t.Fatalf("Restock() error: %v", err)
	}
	it, _ := db.GetInventoryItem(ctx, 7)
	if it.Stock != 10 {
		t.Errorf("stock = %d, want 10", it.Stock)
	}
}

func TestRestock_MissingItem(t *testing.T) {
	a, _ := newTestAdjuster(t)
	err := a.Restock(context.Background(), 99, 5)
	if !domain.IsNotFound(err) {
		t.Errorf("error = %v, want NotFoundError", err)
	}
}

func TestRestock_RejectsNonPositive(t *testing.T) {
	a, db := newTestAdjuster(t)
	seed(t, db, domain.InventoryItem{ID: 7, Name: "Widget", Stock: 2})
	if err := a.Restock(context.Background(), 7, 0); !domain.IsValidation(err) {
		t.Errorf("error = %v, want ValidationError", err)
	}
}

func TestLowStock(t *testing.T) {
	a, db := newTestAdjuster(t)
	seed(t, db, domain.InventoryItem{ID: 1, Name: "Low", Stock: 2, LowStockThreshold: 5})
	seed(t, db, domain.InventoryItem{ID: 2, Name: "Fine", Stock: 20, LowStockThreshold: 5})
	seed(t, db, domain.InventoryItem{ID: 3, Name: "Edge", Stock: 5, LowStockThreshold: 5})

	low, err := a.LowStock(context.Background())
	if err != nil {
		t.Fatalf("LowStock() error: %v", err)
	}
	if len(low) != 2 {
		t.Fatalf("low items = %d, want 2 (at or below threshold)", len(low))
	}
}
