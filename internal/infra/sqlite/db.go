// Package sqlite is the persistent record store for the POS back office.
// It wraps database/sql over the pure-Go sqlite driver; every balance and
// stock mutation is a single guarded SQL statement so concurrent requests
// never lose updates.
package sqlite

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrConditionFailed is returned when a guarded update matched no rows —
// the WHERE condition (balance floor, unpaid status) no longer held.
var ErrConditionFailed = errors.New("conditional update matched no rows")

// DB is the shared store handle. Open it once at startup and inject it
// into every service; Close is only needed by tests and shutdown paths.
type DB struct {
	db *sql.DB
}

// Open creates (if needed) and opens the database under dir, then applies
// all schema migrations. Safe to call on an existing database.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, "tillpoint.db")
	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// Single writer; sqlite serializes writes anyway and this avoids
	// SQLITE_BUSY under concurrent requests.
	sqlDB.SetMaxOpenConns(1)

	db := &DB{db: sqlDB}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying handle.
func (db *DB) Close() error {
	return db.db.Close()
}

// migrate applies the schema. Each string is one SQL statement.
func (db *DB) migrate() error {
	for _, stmt := range migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func migrations() []string {
	return []string{
		// Store-credit accounts. Uniqueness on the customer name is
		// case-insensitive; lookups stay case-sensitive exact matches.
		`CREATE TABLE IF NOT EXISTS credit_accounts (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			customer_name       TEXT NOT NULL,
			balance_cents       INTEGER NOT NULL DEFAULT 0 CHECK (balance_cents >= 0),
			phone               TEXT NOT NULL DEFAULT '',
			email               TEXT NOT NULL DEFAULT '',
			address             TEXT NOT NULL DEFAULT '',
			notes               TEXT NOT NULL DEFAULT '',
			is_active           INTEGER NOT NULL DEFAULT 1,
			transaction_count   INTEGER NOT NULL DEFAULT 0,
			last_transaction_at TEXT,
			created_at          TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_accounts_name
			ON credit_accounts(customer_name COLLATE NOCASE)`,

		// Sale and payment records. Settlement fields mutate exactly once.
		`CREATE TABLE IF NOT EXISTS transactions (
			id                    TEXT PRIMARY KEY,
			created_at            TEXT NOT NULL,
			subtotal_cents        INTEGER NOT NULL DEFAULT 0,
			tax_cents             INTEGER NOT NULL DEFAULT 0,
			total_cents           INTEGER NOT NULL DEFAULT 0,
			cash_cents            INTEGER NOT NULL DEFAULT 0,
			card_cents            INTEGER NOT NULL DEFAULT 0,
			credit_cents          INTEGER NOT NULL DEFAULT 0,
			is_credit_sale        INTEGER NOT NULL DEFAULT 0,
			credit_status         TEXT NOT NULL DEFAULT '',
			is_partial_payment    INTEGER NOT NULL DEFAULT 0,
			credit_customer       TEXT NOT NULL DEFAULT '',
			credit_paid_at        TEXT,
			credit_payment_method TEXT NOT NULL DEFAULT '',
			is_payment_summary    INTEGER NOT NULL DEFAULT 0,
			note                  TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tx_credit
			ON transactions(is_credit_sale, credit_status)`,
		`CREATE INDEX IF NOT EXISTS idx_tx_customer ON transactions(credit_customer)`,
		`CREATE INDEX IF NOT EXISTS idx_tx_created ON transactions(created_at)`,

		`CREATE TABLE IF NOT EXISTS transaction_items (
			transaction_id   TEXT NOT NULL REFERENCES transactions(id) ON DELETE CASCADE,
			line_no          INTEGER NOT NULL,
			product_id       INTEGER,
			name             TEXT NOT NULL DEFAULT '',
			quantity         INTEGER NOT NULL DEFAULT 0,
			unit_price_cents INTEGER NOT NULL DEFAULT 0,
			taxable          INTEGER NOT NULL DEFAULT 0,
			is_manual        INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (transaction_id, line_no)
		)`,

		// Inventory. Stock is clamped at zero by every deduction.
		`CREATE TABLE IF NOT EXISTS inventory (
			id                  INTEGER PRIMARY KEY,
			name                TEXT NOT NULL,
			category            TEXT NOT NULL DEFAULT '',
			price_cents         INTEGER NOT NULL DEFAULT 0,
			stock               INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
			low_stock_threshold INTEGER NOT NULL DEFAULT 0,
			taxable             INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_inventory_name
			ON inventory(name COLLATE NOCASE)`,

		// Back-office users.
		`CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role          TEXT NOT NULL DEFAULT 'cashier',
			permissions   TEXT NOT NULL DEFAULT '{}',
			is_active     INTEGER NOT NULL DEFAULT 1,
			created_at    TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		// Cash-drawer sessions.
		`CREATE TABLE IF NOT EXISTS till_sessions (
			id             TEXT PRIMARY KEY,
			opened_at      TEXT NOT NULL,
			closed_at      TEXT,
			opened_by      TEXT NOT NULL DEFAULT '',
			closed_by      TEXT NOT NULL DEFAULT '',
			opening_cents  INTEGER NOT NULL DEFAULT 0,
			expected_cents INTEGER NOT NULL DEFAULT 0,
			counted_cents  INTEGER NOT NULL DEFAULT 0,
			notes          TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_till_open ON till_sessions(closed_at)`,
	}
}

// ─── Shared helpers ─────────────────────────────────────────────────────────

// isUniqueViolation detects a unique-index conflict from the driver.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02 15:04:05", s)
	return t
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
