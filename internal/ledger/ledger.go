// Package ledger owns customer credit accounts and their balance-mutating
// operations. Balances move only through AddCharge and ApplyPayment, and
// both delegate the arithmetic to guarded single-statement store updates,
// so concurrent requests on one account never lose an update or drive the
// balance negative.
package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tillpoint-pos/tillpoint/internal/domain"
	"github.com/tillpoint-pos/tillpoint/internal/infra/observability"
	"github.com/tillpoint-pos/tillpoint/internal/infra/sqlite"
	"github.com/tillpoint-pos/tillpoint/internal/inventory"
	"github.com/tillpoint-pos/tillpoint/internal/logger"
	"github.com/tillpoint-pos/tillpoint/internal/sales"
)

// Ledger is the credit-account service.
type Ledger struct {
	db       *sqlite.DB
	adjuster *inventory.Adjuster
	recorder *sales.Recorder
	log      zerolog.Logger
}

// New creates a credit ledger over the shared store.
func New(db *sqlite.DB, adjuster *inventory.Adjuster, recorder *sales.Recorder) *Ledger {
	return &Ledger{
		db:       db,
		adjuster: adjuster,
		recorder: recorder,
		log:      logger.WithComponent("ledger"),
	}
}

// GetAccountByName returns the account with the exact customer name.
func (l *Ledger) GetAccountByName(ctx context.Context, name string) (*domain.CreditAccount, error) {
	a, err := l.db.GetAccountByName(ctx, name)
	if err != nil {
		return nil, &domain.StorageError{Op: "get account", Err: err}
	}
	if a == nil {
		return nil, &domain.NotFoundError{Kind: "account", Key: name}
	}
	return a, nil
}

// SearchAccounts returns accounts matching term. Inactive accounts are
// excluded unless includeInactive is set.
func (l *Ledger) SearchAccounts(ctx context.Context, term string, includeInactive bool) ([]domain.CreditAccount, error) {
	accounts, err := l.db.SearchAccounts(ctx, term, includeInactive)
	if err != nil {
		return nil, &domain.StorageError{Op: "search accounts", Err: err}
	}
	return accounts, nil
}

// UpsertAccount creates or partially updates an account profile. Fields
// left nil keep their stored value. Balance and the charge counters are
// not writable here under any input.
func (l *Ledger) UpsertAccount(ctx context.Context, u domain.AccountUpdate) (*domain.CreditAccount, error) {
	u.CustomerName = strings.TrimSpace(u.CustomerName)
	if u.CustomerName == "" {
		return nil, domain.Validationf("customer name is required")
	}
	a, err := l.db.UpsertAccountProfile(ctx, u)
	if err != nil {
		if domain.IsConflict(err) {
			return nil, err
		}
		return nil, &domain.StorageError{Op: "upsert account", Err: err}
	}
	return a, nil
}

// AddCharge increases the customer's balance by amount, creating the
// account on first charge. transactionRef, when present, links the charge
// to the originating credit sale for the audit trail.
func (l *Ledger) AddCharge(ctx context.Context, customerName string, amount domain.Cents, transactionRef string) (*domain.CreditAccount, error) {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		observability.CreditRejections.WithLabelValues("blank_name").Inc()
		return nil, domain.Validationf("customer name is required")
	}
	if amount <= 0 {
		observability.CreditRejections.WithLabelValues("bad_amount").Inc()
		return nil, domain.Validationf("charge amount must be positive, got %s", amount)
	}

	a, err := l.db.AddCharge(ctx, customerName, amount, time.Now())
	if err != nil {
		return nil, &domain.StorageError{Op: "add charge", Err: err}
	}

	observability.CreditCharges.Inc()
	l.log.Info().
		Str("customer", a.CustomerName).
		Str("amount", amount.String()).
		Str("balance", a.Balance.String()).
		Str("transaction", transactionRef).
		Msg("credit charge applied")
	return a, nil
}

// ApplyPayment decreases the customer's balance by amount. The account
// must exist, the balance must be nonzero, and the amount must not exceed
// it. The decrement is a guarded store update: of two concurrent payments
// that jointly exceed the balance, exactly one succeeds.
func (l *Ledger) ApplyPayment(ctx context.Context, customerName string, amount domain.Cents) (*domain.PaymentResult, error) {
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		observability.CreditRejections.WithLabelValues("blank_name").Inc()
		return nil, domain.Validationf("customer name is required")
	}
	if amount <= 0 {
		observability.CreditRejections.WithLabelValues("bad_amount").Inc()
		return nil, domain.Validationf("payment amount must be positive, got %s", amount)
	}

	a, err := l.db.GetAccountByName(ctx, customerName)
	if err != nil {
		return nil, &domain.StorageError{Op: "get account", Err: err}
	}
	if a == nil {
		observability.CreditRejections.WithLabelValues("not_found").Inc()
		return nil, &domain.NotFoundError{Kind: "account", Key: customerName}
	}
	if a.Balance == 0 {
		observability.CreditRejections.WithLabelValues("zero_balance").Inc()
		return nil, domain.Validationf("account %q has no balance, nothing to pay", customerName)
	}
	if amount > a.Balance {
		observability.CreditRejections.WithLabelValues("exceeds_balance").Inc()
		return nil, domain.Validationf("payment of %s exceeds balance %s", amount, a.Balance)
	}

	prev, newBal, err := l.db.DeductBalance(ctx, a.CustomerName, amount)
	if err == sqlite.ErrConditionFailed {
		// A concurrent payment drained the balance between the read
		// and the guarded update.
		observability.CreditRejections.WithLabelValues("exceeds_balance").Inc()
		return nil, domain.Validationf("payment of %s exceeds balance", amount)
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "deduct balance", Err: err}
	}

	observability.CreditPayments.Inc()
	l.log.Info().
		Str("customer", a.CustomerName).
		Str("amount", amount.String()).
		Str("balance", newBal.String()).
		Msg("credit payment applied")

	// Audit record; the payment already committed, so a recording
	// failure is logged rather than surfaced.
	if _, err := l.recorder.RecordPaymentSummary(ctx, a.CustomerName, amount, "credit"); err != nil {
		l.log.Warn().Err(err).Str("customer", a.CustomerName).
			Msg("payment applied but summary record failed")
	}

	return &domain.PaymentResult{
		CustomerName:    a.CustomerName,
		PreviousBalance: prev,
		NewBalance:      newBal,
		PaymentAmount:   amount,
	}, nil
}

// Settlement reports the outcome of MarkTransactionPaid. SoftFailures
// lists line items whose stock deduction was skipped; they never fail
// the settlement itself.
type Settlement struct {
	TransactionID string   `json:"transactionId"`
	PaymentMethod string   `json:"paymentMethod"`
	StockDeducted bool     `json:"stockDeducted"`
	SoftFailures  []string `json:"softFailures,omitempty"`
}

// MarkTransactionPaid settles an unpaid credit sale: flips its status to
// paid (exactly once), stamps the paid date and method, and — for full
// credit sales only — deducts stock for each non-manual line item.
// Partial-payment sales had stock deducted at sale time and are never
// deducted again.
func (l *Ledger) MarkTransactionPaid(ctx context.Context, transactionID, paymentMethod string) (*Settlement, error) {
	t, err := l.db.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, &domain.StorageError{Op: "get transaction", Err: err}
	}
	if t == nil {
		return nil, &domain.NotFoundError{Kind: "transaction", Key: transactionID}
	}
	if !t.IsCreditSale {
		return nil, domain.Validationf("transaction %s is not a credit sale", transactionID)
	}
	if t.CreditStatus == domain.CreditPaid {
		return nil, domain.Validationf("transaction %s is already paid", transactionID)
	}
	if paymentMethod == "" {
		paymentMethod = "cash"
	}

	err = l.db.SettleCreditSale(ctx, transactionID, paymentMethod, time.Now())
	if err == sqlite.ErrConditionFailed {
		// Settled by a concurrent request after our read.
		return nil, domain.Validationf("transaction %s is already paid", transactionID)
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "settle credit sale", Err: err}
	}
	observability.CreditSalesSettled.Inc()

	result := &Settlement{TransactionID: transactionID, PaymentMethod: paymentMethod}
	if t.IsPartialPayment {
		// Stock was deducted when the sale was recorded.
		return result, nil
	}

	// Full credit sale: apply all deductions, collect soft failures,
	// never abort.
	result.StockDeducted = true
	for _, item := range t.Items {
		if item.IsManual || item.ProductID == nil {
			continue
		}
		if err := l.adjuster.Deduct(ctx, *item.ProductID, item.Quantity, "settlement"); err != nil {
			observability.StockDeductionFailures.Inc()
			l.log.Warn().Err(err).
				Str("transaction", transactionID).
				Int64("item", *item.ProductID).
				Msg("settlement stock deduction skipped")
			result.SoftFailures = append(result.SoftFailures, item.Name)
		}
	}
	return result, nil
}

// DeactivateAccount soft-deletes an account by clearing its active flag.
func (l *Ledger) DeactivateAccount(ctx context.Context, name string) (*domain.CreditAccount, error) {
	inactive := false
	return l.UpsertAccount(ctx, domain.AccountUpdate{CustomerName: name, IsActive: &inactive})
}

// DeleteAccount hard-deletes an account. Administrative surface only.
func (l *Ledger) DeleteAccount(ctx context.Context, name string) error {
	deleted, err := l.db.DeleteAccount(ctx, name)
	if err != nil {
		return &domain.StorageError{Op: "delete account", Err: err}
	}
	if !deleted {
		return &domain.NotFoundError{Kind: "account", Key: name}
	}
	return nil
}
