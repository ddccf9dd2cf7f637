// Transaction persistence. Records are immutable once written except for
// the credit settlement fields, which flip exactly once via a guarded
// update (unpaid → paid).
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/tillpoint-pos/tillpoint/internal/domain"
)

// InsertTransaction writes a sale or payment record with its line items.
func (db *DB) InsertTransaction(ctx context.Context, t domain.Transaction) error {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (
			id, created_at, subtotal_cents, tax_cents, total_cents,
			cash_cents, card_cents, credit_cents,
			is_credit_sale, credit_status, is_partial_payment,
			credit_customer, credit_payment_method, is_payment_summary, note
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, formatTime(t.Timestamp), t.Subtotal, t.Tax, t.Total,
		t.CashAmount, t.CardAmount, t.CreditAmount,
		boolInt(t.IsCreditSale), string(t.CreditStatus), boolInt(t.IsPartialPayment),
		t.CreditCustomer, t.CreditPaymentMethod, boolInt(t.IsPaymentSummary), t.Note)
	if err != nil {
		return err
	}

	for i, item := range t.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO transaction_items (
				transaction_id, line_no, product_id, name,
				quantity, unit_price_cents, taxable, is_manual
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, t.ID, i, item.ProductID, item.Name,
			item.Quantity, item.UnitPrice, boolInt(item.Taxable), boolInt(item.IsManual))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetTransaction returns a transaction with its items, or (nil, nil)
// when it does not exist.
func (db *DB) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	row := db.db.QueryRowContext(ctx, `
		SELECT id, created_at, subtotal_cents, tax_cents, total_cents,
			cash_cents, card_cents, credit_cents,
			is_credit_sale, credit_status, is_partial_payment,
			credit_customer, credit_paid_at, credit_payment_method,
			is_payment_summary, note
		FROM transactions WHERE id = ?
	`, id)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	items, err := db.transactionItems(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Items = items
	return t, nil
}

func scanTransaction(row interface{ Scan(...any) error }) (*domain.Transaction, error) {
	var t domain.Transaction
	var created string
	var creditSale, partial, summary int
	var status string
	var paidAt sql.NullString
	err := row.Scan(&t.ID, &created, &t.Subtotal, &t.Tax, &t.Total,
		&t.CashAmount, &t.CardAmount, &t.CreditAmount,
		&creditSale, &status, &partial,
		&t.CreditCustomer, &paidAt, &t.CreditPaymentMethod,
		&summary, &t.Note)
	if err != nil {
		return nil, err
	}
	t.Timestamp = parseTime(created)
	t.IsCreditSale = creditSale == 1
	t.CreditStatus = domain.CreditStatus(status)
	t.IsPartialPayment = partial == 1
	t.CreditPaidAt = parseTimePtr(paidAt)
	t.IsPaymentSummary = summary == 1
	return &t, nil
}

func (db *DB) transactionItems(ctx context.Context, id string) ([]domain.TransactionItem, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT product_id, name, quantity, unit_price_cents, taxable, is_manual
		FROM transaction_items WHERE transaction_id = ? ORDER BY line_no
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.TransactionItem
	for rows.Next() {
		var it domain.TransactionItem
		var productID sql.NullInt64
		var taxable, manual int
		if err := rows.Scan(&productID, &it.Name, &it.Quantity, &it.UnitPrice, &taxable, &manual); err != nil {
			return nil, err
		}
		if productID.Valid {
			id := productID.Int64
			it.ProductID = &id
		}
		it.Taxable = taxable == 1
		it.IsManual = manual == 1
		items = append(items, it)
	}
	return items, rows.Err()
}

// SettleCreditSale flips an unpaid credit sale to paid. The guard enforces
// the one-way, at-most-once transition: a second call, or a call against a
// non-credit record, returns ErrConditionFailed.
func (db *DB) SettleCreditSale(ctx context.Context, id, paymentMethod string, paidAt time.Time) error {
	res, err := db.db.ExecContext(ctx, `
		UPDATE transactions SET
			credit_status         = ?,
			credit_paid_at        = ?,
			credit_payment_method = ?
		WHERE id = ? AND is_credit_sale = 1 AND credit_status = ?
	`, string(domain.CreditPaid), formatTime(paidAt), paymentMethod,
		id, string(domain.CreditUnpaid))
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

// TransactionFilter narrows ListTransactions.
type TransactionFilter struct {
	From         *time.Time
	To           *time.Time
	CreditStatus string // "", "unpaid", "paid"
	Customer     string
	Limit        int
}

// ListTransactions returns transactions newest first. Items are not
// loaded; history views only need the headers.
func (db *DB) ListTransactions(ctx context.Context, f TransactionFilter) ([]domain.Transaction, error) {
	q := `SELECT id, created_at, subtotal_cents, tax_cents, total_cents,
			cash_cents, card_cents, credit_cents,
			is_credit_sale, credit_status, is_partial_payment,
			credit_customer, credit_paid_at, credit_payment_method,
			is_payment_summary, note
		FROM transactions WHERE 1=1`
	var args []any
	if f.From != nil {
		q += ` AND created_at >= ?`
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		q += ` AND created_at < ?`
		args = append(args, formatTime(*f.To))
	}
	if f.CreditStatus != "" {
		q += ` AND is_credit_sale = 1 AND credit_status = ?`
		args = append(args, f.CreditStatus)
	}
	if f.Customer != "" {
		q += ` AND credit_customer = ?`
		args = append(args, f.Customer)
	}
	q += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := db.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// DailySummaries aggregates sales per calendar day, newest first.
// Payment-summary records are excluded so settled credit is not counted
// twice against the day's revenue.
func (db *DB) DailySummaries(ctx context.Context, days int) ([]domain.DailySummary, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT date(created_at) AS day,
			COUNT(*),
			COALESCE(SUM(total_cents), 0),
			COALESCE(SUM(tax_cents), 0)
		FROM transactions
		WHERE is_payment_summary = 0
		GROUP BY day
		ORDER BY day DESC
		LIMIT ?
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DailySummary
	for rows.Next() {
		var s domain.DailySummary
		if err := rows.Scan(&s.Day, &s.TransactionCount, &s.Total, &s.Tax); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
