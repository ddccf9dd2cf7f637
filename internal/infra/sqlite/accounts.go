// Credit-account persistence. Balance arithmetic happens inside the UPDATE
// statements — never read-modify-write in the application — so concurrent
// charges and payments on one account serialize in the store.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/tillpoint-pos/tillpoint/internal/domain"
)

const accountColumns = `id, customer_name, balance_cents, phone, email, address,
	notes, is_active, transaction_count, last_transaction_at, created_at`

func scanAccount(row interface{ Scan(...any) error }) (*domain.CreditAccount, error) {
	var a domain.CreditAccount
	var active int
	var lastTx sql.NullString
	var created string
	err := row.Scan(&a.ID, &a.CustomerName, &a.Balance, &a.Phone, &a.Email,
		&a.Address, &a.Notes, &active, &a.TransactionCount, &lastTx, &created)
	if err != nil {
		return nil, err
	}
	a.IsActive = active == 1
	a.LastTransactionAt = parseTimePtr(lastTx)
	a.CreatedAt = parseTime(created)
	return &a, nil
}

// GetAccountByName returns the account with the exact customer name,
// or (nil, nil) when no such account exists.
func (db *DB) GetAccountByName(ctx context.Context, name string) (*domain.CreditAccount, error) {
	row := db.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM credit_accounts WHERE customer_name = ?
	`, name)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// SearchAccounts returns accounts whose customer name contains term
// (case-insensitive). Inactive accounts are excluded unless requested.
// An empty term lists everything.
func (db *DB) SearchAccounts(ctx context.Context, term string, includeInactive bool) ([]domain.CreditAccount, error) {
	q := `SELECT ` + accountColumns + ` FROM credit_accounts
		WHERE customer_name LIKE '%' || ? || '%' COLLATE NOCASE`
	if !includeInactive {
		q += ` AND is_active = 1`
	}
	q += ` ORDER BY customer_name COLLATE NOCASE`

	rows, err := db.db.QueryContext(ctx, q, term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.CreditAccount
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// UpsertAccountProfile creates the account if the name is unseen, else
// overwrites only the provided (non-nil) profile fields. Balance,
// transaction count, and last-transaction date are never written here.
func (db *DB) UpsertAccountProfile(ctx context.Context, u domain.AccountUpdate) (*domain.CreditAccount, error) {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO credit_accounts (customer_name) VALUES (?)
		ON CONFLICT(customer_name COLLATE NOCASE) DO NOTHING
	`, u.CustomerName)
	if err != nil {
		return nil, err
	}

	// COALESCE keeps the stored value for fields the caller left nil.
	var active *int
	if u.IsActive != nil {
		v := boolInt(*u.IsActive)
		active = &v
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE credit_accounts SET
			phone     = COALESCE(?, phone),
			email     = COALESCE(?, email),
			address   = COALESCE(?, address),
			notes     = COALESCE(?, notes),
			is_active = COALESCE(?, is_active)
		WHERE customer_name = ? COLLATE NOCASE
	`, u.Phone, u.Email, u.Address, u.Notes, active, u.CustomerName)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM credit_accounts WHERE customer_name = ? COLLATE NOCASE
	`, u.CustomerName)
	a, err := scanAccount(row)
	if err != nil {
		return nil, err
	}
	return a, tx.Commit()
}

// AddCharge atomically increases the balance, creating the account on
// first charge. The increment runs inside the UPDATE so two concurrent
// charges both land.
func (db *DB) AddCharge(ctx context.Context, name string, amount domain.Cents, now time.Time) (*domain.CreditAccount, error) {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO credit_accounts (customer_name) VALUES (?)
		ON CONFLICT(customer_name COLLATE NOCASE) DO NOTHING
	`, name)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE credit_accounts SET
			balance_cents       = balance_cents + ?,
			transaction_count   = transaction_count + 1,
			last_transaction_at = ?
		WHERE customer_name = ? COLLATE NOCASE
	`, amount, formatTime(now), name)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM credit_accounts WHERE customer_name = ? COLLATE NOCASE
	`, name)
	a, err := scanAccount(row)
	if err != nil {
		return nil, err
	}
	return a, tx.Commit()
}

// DeductBalance atomically decrements the balance only if it covers the
// amount. Returns ErrConditionFailed when the guard did not hold (missing
// account or insufficient balance — the caller distinguishes).
func (db *DB) DeductBalance(ctx context.Context, name string, amount domain.Cents) (previous, newBalance domain.Cents, err error) {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE credit_accounts SET balance_cents = balance_cents - ?
		WHERE customer_name = ? AND balance_cents >= ?
	`, amount, name, amount)
	if err != nil {
		return 0, 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, 0, err
	}
	if n == 0 {
		return 0, 0, ErrConditionFailed
	}

	err = tx.QueryRowContext(ctx, `
		SELECT balance_cents FROM credit_accounts WHERE customer_name = ?
	`, name).Scan(&newBalance)
	if err != nil {
		return 0, 0, err
	}
	return newBalance + amount, newBalance, tx.Commit()
}

// SetBalance overwrites the balance directly. This bypasses the ledger
// invariant and is reserved for the explicit CLI maintenance command.
func (db *DB) SetBalance(ctx context.Context, name string, balance domain.Cents) error {
	res, err := db.db.ExecContext(ctx, `
		UPDATE credit_accounts SET balance_cents = ? WHERE customer_name = ?
	`, balance, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConditionFailed
	}
	return nil
}

// DeleteAccount hard-deletes an account. Administrative use only;
// normal deactivation goes through the is_active flag.
func (db *DB) DeleteAccount(ctx context.Context, name string) (bool, error) {
	res, err := db.db.ExecContext(ctx, `
		DELETE FROM credit_accounts WHERE customer_name = ?
	`, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
