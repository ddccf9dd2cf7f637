// Package inventory adjusts stock levels for sale line items.
// Every adjustment is a single clamped store update; callers treat
// deductions as best-effort and never fail a sale over a bad item ref.
package inventory

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/tillpoint-pos/tillpoint/internal/domain"
	"github.com/tillpoint-pos/tillpoint/internal/infra/observability"
	"github.com/tillpoint-pos/tillpoint/internal/infra/sqlite"
	"github.com/tillpoint-pos/tillpoint/internal/logger"
)

// Adjuster decrements and restores stock counts.
type Adjuster struct {
	db  *sqlite.DB
	log zerolog.Logger
}

// NewAdjuster creates an inventory adjuster over the shared store.
func NewAdjuster(db *sqlite.DB) *Adjuster {
	return &Adjuster{db: db, log: logger.WithComponent("inventory")}
}

// Deduct decrements the item's stock by quantity, clamped at zero.
// A missing item is silently skipped — the sale already happened and a
// stale product reference must not block it. Store failures surface as
// StorageError for the caller's best-effort policy.
func (a *Adjuster) Deduct(ctx context.Context, itemID, quantity int64, source string) error {
	if quantity <= 0 {
		return nil
	}
	found, err := a.db.AdjustStock(ctx, itemID, -quantity)
	if err != nil {
		return &domain.StorageError{Op: "deduct stock", Err: err}
	}
	if !found {
		a.log.Warn().Int64("item", itemID).Msg("deduct skipped, item not in inventory")
		return nil
	}
	observability.StockDeductions.WithLabelValues(source).Inc()
	return nil
}

// Restock increases the item's stock by quantity. Unlike Deduct the item
// must exist; restocking a phantom item is a caller bug.
func (a *Adjuster) Restock(ctx context.Context, itemID, quantity int64) error {
	if quantity <= 0 {
		return domain.Validationf("restock quantity must be positive, got %d", quantity)
	}
	found, err := a.db.AdjustStock(ctx, itemID, quantity)
	if err != nil {
		return &domain.StorageError{Op: "restock", Err: err}
	}
	if !found {
		return &domain.NotFoundError{Kind: "item", Key: strconv.FormatInt(itemID, 10)}
	}
	return nil
}

// LowStock returns items at or below their low-stock threshold.
func (a *Adjuster) LowStock(ctx context.Context) ([]domain.InventoryItem, error) {
	items, err := a.db.ListInventory(ctx)
	if err != nil {
		return nil, &domain.StorageError{Op: "list inventory", Err: err}
	}
	var low []domain.InventoryItem
	for _, it := range items {
		if it.LowOnStock() {
			low = append(low, it)
		}
	}
	return low, nil
}
