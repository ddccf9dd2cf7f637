package domain

// ─── Inventory ──────────────────────────────────────────────────────────────

// InventoryItem is a stocked product. ID is the stable integer key used by
// sale line items; stock is never negative — deductions clamp at zero.
type InventoryItem struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Category          string `json:"category,omitempty"`
	Price             Cents  `json:"-"`
	Stock             int64  `json:"stock"`
	LowStockThreshold int64  `json:"lowStockThreshold"`
	Taxable           bool   `json:"taxable"`
}

// LowOnStock reports whether the item has fallen to or below its threshold.
func (i InventoryItem) LowOnStock() bool {
	return i.Stock <= i.LowStockThreshold
}
