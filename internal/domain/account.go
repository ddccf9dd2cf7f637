package domain

import "time"

// ─── Credit Accounts ────────────────────────────────────────────────────────

// CreditAccount is a running per-customer store-credit balance.
// CustomerName is the primary lookup key and is unique case-insensitively.
//
// Balance never goes negative: charges add to it, payments are rejected
// unless 0 < amount <= balance. Balance moves ONLY through the ledger's
// charge/payment operations — profile upserts never touch it.
type CreditAccount struct {
	ID                int64      `json:"id"`
	CustomerName      string     `json:"customerName"`
	Balance           Cents      `json:"-"`
	Phone             string     `json:"phone,omitempty"`
	Email             string     `json:"email,omitempty"`
	Address           string     `json:"address,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	IsActive          bool       `json:"isActive"`
	TransactionCount  int64      `json:"transactionCount"`
	LastTransactionAt *time.Time `json:"lastTransactionDate,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// AccountUpdate carries a partial profile update. Nil fields are "not
// provided" and preserve the stored value; this is how defined-absent is
// kept distinct from an explicit empty string or false.
type AccountUpdate struct {
	CustomerName string
	Phone        *string
	Email        *string
	Address      *string
	Notes        *string
	IsActive     *bool
}

// PaymentResult reports a successful payment application.
type PaymentResult struct {
	CustomerName    string `json:"customerName"`
	PreviousBalance Cents  `json:"-"`
	NewBalance      Cents  `json:"-"`
	PaymentAmount   Cents  `json:"-"`
}
