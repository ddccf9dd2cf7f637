// Inventory persistence. Stock moves through atomic clamped updates so a
// concurrent sale and settlement of the same item never lose a decrement
// and never drive stock negative.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/tillpoint-pos/tillpoint/internal/domain"
)

const inventoryColumns = `id, name, category, price_cents, stock, low_stock_threshold, taxable`

func scanItem(row interface{ Scan(...any) error }) (*domain.InventoryItem, error) {
	var it domain.InventoryItem
	var taxable int
	err := row.Scan(&it.ID, &it.Name, &it.Category, &it.Price, &it.Stock,
		&it.LowStockThreshold, &taxable)
	if err != nil {
		return nil, err
	}
	it.Taxable = taxable == 1
	return &it, nil
}

// GetInventoryItem returns the item, or (nil, nil) when absent.
func (db *DB) GetInventoryItem(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	row := db.db.QueryRowContext(ctx, `
		SELECT `+inventoryColumns+` FROM inventory WHERE id = ?
	`, id)
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return it, err
}

// ListInventory returns all items ordered by category then name.
func (db *DB) ListInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT `+inventoryColumns+` FROM inventory
		ORDER BY category, name COLLATE NOCASE
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.InventoryItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// UpsertInventoryItem creates or replaces an item keyed by id. When the
// id is zero the item is keyed by name instead, taking the next free id
// on first sight. Id resolution and the insert share one transaction so
// concurrent creates cannot allocate the same id and overwrite each
// other.
func (db *DB) UpsertInventoryItem(ctx context.Context, it domain.InventoryItem) (*domain.InventoryItem, error) {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if it.ID == 0 {
		// Name-keyed path for imports that carry no id.
		err := tx.QueryRowContext(ctx, `
			SELECT id FROM inventory WHERE name = ? COLLATE NOCASE
		`, it.Name).Scan(&it.ID)
		if err == sql.ErrNoRows {
			err = tx.QueryRowContext(ctx, `
				SELECT COALESCE(MAX(id), 0) + 1 FROM inventory
			`).Scan(&it.ID)
		}
		if err != nil {
			return nil, err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO inventory (id, name, category, price_cents, stock, low_stock_threshold, taxable)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name                = excluded.name,
			category            = excluded.category,
			price_cents         = excluded.price_cents,
			stock               = excluded.stock,
			low_stock_threshold = excluded.low_stock_threshold,
			taxable             = excluded.taxable
	`, it.ID, it.Name, it.Category, it.Price, it.Stock, it.LowStockThreshold, boolInt(it.Taxable))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &domain.ConflictError{Reason: "inventory item name already in use: " + it.Name}
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return db.GetInventoryItem(ctx, it.ID)
}

// AdjustStock changes stock by delta, clamped at zero. Returns false when
// the item does not exist; never an error for a missing item.
func (db *DB) AdjustStock(ctx context.Context, id, delta int64) (bool, error) {
	res, err := db.db.ExecContext(ctx, `
		UPDATE inventory SET stock = MAX(0, stock + ?) WHERE id = ?
	`, delta, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteInventoryItem removes an item.
func (db *DB) DeleteInventoryItem(ctx context.Context, id int64) (bool, error) {
	res, err := db.db.ExecContext(ctx, `DELETE FROM inventory WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
