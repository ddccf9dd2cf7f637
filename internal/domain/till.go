package domain

import "time"

// ─── Till Sessions ──────────────────────────────────────────────────────────

// TillSession is a cash-drawer session bounded by explicit open/close
// events. Variance is counted minus expected at close time.
type TillSession struct {
	ID            string     `json:"id"`
	OpenedAt      time.Time  `json:"openedAt"`
	ClosedAt      *time.Time `json:"closedAt,omitempty"`
	OpenedBy      string     `json:"openedBy"`
	ClosedBy      string     `json:"closedBy,omitempty"`
	OpeningAmount Cents      `json:"-"`
	ExpectedCash  Cents      `json:"-"`
	CountedCash   Cents      `json:"-"`
	Notes         string     `json:"notes,omitempty"`
}

// Open reports whether the session has not been closed yet.
func (s TillSession) Open() bool {
	return s.ClosedAt == nil
}

// Variance returns counted minus expected cash. Meaningless until closed.
func (s TillSession) Variance() Cents {
	return s.CountedCash - s.ExpectedCash
}
