// Package sales records immutable sale and payment transactions.
// Recording a sale deducts stock once per real-product line item, except
// for full credit sales, whose deduction is deferred to the credit
// ledger's settlement step. Each line item is deducted exactly once.
package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tillpoint-pos/tillpoint/internal/domain"
	"github.com/tillpoint-pos/tillpoint/internal/infra/observability"
	"github.com/tillpoint-pos/tillpoint/internal/infra/sqlite"
	"github.com/tillpoint-pos/tillpoint/internal/inventory"
	"github.com/tillpoint-pos/tillpoint/internal/logger"
)

// Recorder appends sale and payment records and performs the sale-time
// stock deduction.
type Recorder struct {
	db       *sqlite.DB
	adjuster *inventory.Adjuster
	log      zerolog.Logger
}

// NewRecorder creates a transaction recorder.
func NewRecorder(db *sqlite.DB, adjuster *inventory.Adjuster) *Recorder {
	return &Recorder{db: db, adjuster: adjuster, log: logger.WithComponent("sales")}
}

// Sale is the normalized input for Record. Zero monetary fields are
// derived from the line items.
type Sale struct {
	Items            []domain.TransactionItem
	Subtotal         domain.Cents
	Tax              domain.Cents
	Total            domain.Cents
	CashAmount       domain.Cents
	CardAmount       domain.Cents
	CreditAmount     domain.Cents
	IsCreditSale     bool
	IsPartialPayment bool
	CreditCustomer   string
	Note             string
}

// Record persists a sale and deducts stock once for every non-manual
// line item with a real product reference. Deduction is best-effort: a
// missing item or store hiccup is logged and skipped, never fatal.
func (r *Recorder) Record(ctx context.Context, s Sale) (*domain.Transaction, error) {
	if s.IsCreditSale && s.CreditCustomer == "" {
		return nil, domain.Validationf("credit sale requires a customer name")
	}

	t := normalize(s)
	t.ID = uuid.NewString()
	t.Timestamp = time.Now()
	if err := r.db.InsertTransaction(ctx, t); err != nil {
		return nil, &domain.StorageError{Op: "insert transaction", Err: err}
	}

	// Full credit sales defer stock deduction to the settlement step;
	// everything else — cash/card sales and partial-payment credit
	// sales — deducts now. Each item is deducted exactly once either way.
	if !t.IsCreditSale || t.IsPartialPayment {
		for _, item := range t.Items {
			if item.IsManual || item.ProductID == nil {
				continue
			}
			if err := r.adjuster.Deduct(ctx, *item.ProductID, item.Quantity, "sale"); err != nil {
				observability.StockDeductionFailures.Inc()
				r.log.Warn().Err(err).
					Str("transaction", t.ID).
					Int64("item", *item.ProductID).
					Msg("sale-time stock deduction skipped")
			}
		}
	}

	kind := "sale"
	if t.IsCreditSale {
		kind = "credit_sale"
	}
	observability.SalesRecorded.WithLabelValues(kind).Inc()
	return &t, nil
}

// RecordPaymentSummary appends a zero-inventory-impact record for a
// standalone credit payment so it shows in transaction history.
func (r *Recorder) RecordPaymentSummary(ctx context.Context, customer string, amount domain.Cents, method string) (*domain.Transaction, error) {
	if amount <= 0 {
		return nil, domain.Validationf("payment amount must be positive")
	}
	t := domain.Transaction{
		ID:                  uuid.NewString(),
		Timestamp:           time.Now(),
		Total:               amount,
		CreditCustomer:      customer,
		CreditPaymentMethod: method,
		IsPaymentSummary:    true,
		Note:                "credit payment",
	}
	if err := r.db.InsertTransaction(ctx, t); err != nil {
		return nil, &domain.StorageError{Op: "insert payment summary", Err: err}
	}
	observability.SalesRecorded.WithLabelValues("payment").Inc()
	return &t, nil
}

// List returns transaction history, newest first.
func (r *Recorder) List(ctx context.Context, f sqlite.TransactionFilter) ([]domain.Transaction, error) {
	out, err := r.db.ListTransactions(ctx, f)
	if err != nil {
		return nil, &domain.StorageError{Op: "list transactions", Err: err}
	}
	return out, nil
}

// DailySummaries aggregates recent sales per day.
func (r *Recorder) DailySummaries(ctx context.Context, days int) ([]domain.DailySummary, error) {
	if days <= 0 {
		days = 30
	}
	out, err := r.db.DailySummaries(ctx, days)
	if err != nil {
		return nil, &domain.StorageError{Op: "daily summaries", Err: err}
	}
	return out, nil
}

// normalize fills derived fields: negative amounts clamp to zero, an
// absent subtotal/total is rebuilt from the items, and credit sales
// start unpaid.
func normalize(s Sale) domain.Transaction {
	for _, c := range []*domain.Cents{&s.Subtotal, &s.Tax, &s.Total, &s.CashAmount, &s.CardAmount, &s.CreditAmount} {
		if *c < 0 {
			*c = 0
		}
	}
	if s.Subtotal == 0 {
		for _, item := range s.Items {
			s.Subtotal += item.UnitPrice * domain.Cents(item.Quantity)
		}
	}
	if s.Total == 0 {
		s.Total = s.Subtotal + s.Tax
	}

	t := domain.Transaction{
		Items:            s.Items,
		Subtotal:         s.Subtotal,
		Tax:              s.Tax,
		Total:            s.Total,
		CashAmount:       s.CashAmount,
		CardAmount:       s.CardAmount,
		CreditAmount:     s.CreditAmount,
		IsCreditSale:     s.IsCreditSale,
		IsPartialPayment: s.IsPartialPayment,
		CreditCustomer:   s.CreditCustomer,
		Note:             s.Note,
	}
	if t.IsCreditSale {
		t.CreditStatus = domain.CreditUnpaid
		if t.CreditAmount == 0 {
			t.CreditAmount = t.Total - s.CashAmount - s.CardAmount
			if t.CreditAmount < 0 {
				t.CreditAmount = 0
			}
		}
	}
	return t
}
