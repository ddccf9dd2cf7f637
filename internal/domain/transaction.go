package domain

import "time"

// ─── Sales & Credit Transactions ────────────────────────────────────────────

// CreditStatus tracks whether a credit sale has been settled.
// The only legal transition is unpaid → paid, exactly once.
type CreditStatus string

const (
	CreditUnpaid CreditStatus = "unpaid"
	CreditPaid   CreditStatus = "paid"
)

// TransactionItem is one line of a sale. ProductID is nil for manual
// (free-typed) lines, which never touch inventory.
type TransactionItem struct {
	ProductID *int64 `json:"productId,omitempty"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	UnitPrice Cents  `json:"-"`
	Taxable   bool   `json:"taxable"`
	IsManual  bool   `json:"isManual"`
}

// Transaction is an immutable sale or payment record. Once written, only
// the credit settlement fields (status, paid date, payment method) ever
// change, and only once.
type Transaction struct {
	ID                  string            `json:"id"`
	Timestamp           time.Time         `json:"timestamp"`
	Items               []TransactionItem `json:"items"`
	Subtotal            Cents             `json:"-"`
	Tax                 Cents             `json:"-"`
	Total               Cents             `json:"-"`
	CashAmount          Cents             `json:"-"`
	CardAmount          Cents             `json:"-"`
	CreditAmount        Cents             `json:"-"`
	IsCreditSale        bool              `json:"isCreditSale"`
	CreditStatus        CreditStatus      `json:"creditStatus,omitempty"`
	IsPartialPayment    bool              `json:"isPartialPayment"`
	CreditCustomer      string            `json:"creditCustomerName,omitempty"`
	CreditPaidAt        *time.Time        `json:"creditPaidDate,omitempty"`
	CreditPaymentMethod string            `json:"creditPaymentMethod,omitempty"`
	IsPaymentSummary    bool              `json:"isPaymentSummary"`
	Note                string            `json:"note,omitempty"`
}

// DailySummary aggregates one day of sales for reporting.
type DailySummary struct {
	Day              string `json:"day"`
	TransactionCount int64  `json:"transactionCount"`
	Total            Cents  `json:"-"`
	Tax              Cents  `json:"-"`
}
