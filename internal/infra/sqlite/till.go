// Till-session persistence.
package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/tillpoint-pos/tillpoint/internal/domain"
)

const tillColumns = `id, opened_at, closed_at, opened_by, closed_by,
	opening_cents, expected_cents, counted_cents, notes`

func scanTill(row interface{ Scan(...any) error }) (*domain.TillSession, error) {
	var s domain.TillSession
	var opened string
	var closed sql.NullString
	err := row.Scan(&s.ID, &opened, &closed, &s.OpenedBy, &s.ClosedBy,
		&s.OpeningAmount, &s.ExpectedCash, &s.CountedCash, &s.Notes)
	if err != nil {
		return nil, err
	}
	s.OpenedAt = parseTime(opened)
	s.ClosedAt = parseTimePtr(closed)
	return &s, nil
}

// InsertTillSession opens a new drawer session.
func (db *DB) InsertTillSession(ctx context.Context, s domain.TillSession) error {
	_, err := db.db.ExecContext(ctx, `
		INSERT INTO till_sessions (id, opened_at, opened_by, opening_cents, notes)
		VALUES (?, ?, ?, ?, ?)
	`, s.ID, formatTime(s.OpenedAt), s.OpenedBy, s.OpeningAmount, s.Notes)
	return err
}

// OpenTillSession returns the current open session, or (nil, nil).
func (db *DB) OpenTillSession(ctx context.Context) (*domain.TillSession, error) {
	row := db.db.QueryRowContext(ctx, `
		SELECT `+tillColumns+` FROM till_sessions
		WHERE closed_at IS NULL ORDER BY opened_at DESC LIMIT 1
	`)
	s, err := scanTill(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// CloseTillSession records the close of an open session. The guard keeps
// a session from being closed twice.
func (db *DB) CloseTillSession(ctx context.Context, id, closedBy string, expected, counted domain.Cents, notes string, closedAt time.Time) error {
	res, err := db.db.ExecContext(ctx, `
		UPDATE till_sessions SET
			closed_at      = ?,
			closed_by      = ?,
			expected_cents = ?,
			counted_cents  = ?,
			notes          = CASE WHEN ? = '' THEN notes ELSE ? END
		WHERE id = ? AND closed_at IS NULL
	`, formatTime(closedAt), closedBy, expected, counted, notes, notes, id)
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

// ListTillSessions returns sessions newest first.
func (db *DB) ListTillSessions(ctx context.Context, limit int) ([]domain.TillSession, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.db.QueryContext(ctx, `
		SELECT `+tillColumns+` FROM till_sessions
		ORDER BY opened_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.TillSession
	for rows.Next() {
		s, err := scanTill(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// CashSalesSince sums cash takings recorded since t, for drawer
// reconciliation at close time.
func (db *DB) CashSalesSince(ctx context.Context, t time.Time) (domain.Cents, error) {
	var total domain.Cents
	err := db.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(cash_cents), 0) FROM transactions
		WHERE created_at >= ? AND is_payment_summary = 0
	`, formatTime(t)).Scan(&total)
	return total, err
}
