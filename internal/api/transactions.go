package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/tillpoint-pos/tillpoint/internal/domain"
	"github.com/tillpoint-pos/tillpoint/internal/infra/sqlite"
	"github.com/tillpoint-pos/tillpoint/internal/sales"
)

type lineItemRequest struct {
	ProductID *int64  `json:"productId,omitempty"`
	Name      string  `json:"name"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Taxable   bool    `json:"taxable"`
	IsManual  bool    `json:"isManual"`
}

type saleRequest struct {
	Items            []lineItemRequest `json:"items"`
	Subtotal         float64           `json:"subtotal"`
	Tax              float64           `json:"tax"`
	Total            float64           `json:"total"`
	CashAmount       float64           `json:"cashAmount"`
	CardAmount       float64           `json:"cardAmount"`
	CreditAmount     float64           `json:"creditAmount"`
	IsCreditSale     bool              `json:"isCreditSale"`
	IsPartialPayment bool              `json:"isPartialPayment"`
	CreditCustomer   string            `json:"creditCustomerName"`
	Note             string            `json:"note"`
}

type lineItemView struct {
	ProductID *int64  `json:"productId,omitempty"`
	Name      string  `json:"name"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Taxable   bool    `json:"taxable"`
	IsManual  bool    `json:"isManual"`
}

type transactionView struct {
	ID                  string         `json:"id"`
	Timestamp           time.Time      `json:"timestamp"`
	Items               []lineItemView `json:"items,omitempty"`
	Subtotal            float64        `json:"subtotal"`
	Tax                 float64        `json:"tax"`
	Total               float64        `json:"total"`
	CashAmount          float64        `json:"cashAmount"`
	CardAmount          float64        `json:"cardAmount"`
	CreditAmount        float64        `json:"creditAmount"`
	IsCreditSale        bool           `json:"isCreditSale"`
	CreditStatus        string         `json:"creditStatus,omitempty"`
	IsPartialPayment    bool           `json:"isPartialPayment"`
	CreditCustomer      string         `json:"creditCustomerName,omitempty"`
	CreditPaidAt        *time.Time     `json:"creditPaidDate,omitempty"`
	CreditPaymentMethod string         `json:"creditPaymentMethod,omitempty"`
	IsPaymentSummary    bool           `json:"isPaymentSummary"`
	Note                string         `json:"note,omitempty"`
}

func toTransactionView(t *domain.Transaction) transactionView {
	items := make([]lineItemView, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, lineItemView{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.Dollars(),
			Taxable:   it.Taxable,
			IsManual:  it.IsManual,
		})
	}
	return transactionView{
		ID:                  t.ID,
		Timestamp:           t.Timestamp,
		Items:               items,
		Subtotal:            t.Subtotal.Dollars(),
		Tax:                 t.Tax.Dollars(),
		Total:               t.Total.Dollars(),
		CashAmount:          t.CashAmount.Dollars(),
		CardAmount:          t.CardAmount.Dollars(),
		CreditAmount:        t.CreditAmount.Dollars(),
		IsCreditSale:        t.IsCreditSale,
		CreditStatus:        string(t.CreditStatus),
		IsPartialPayment:    t.IsPartialPayment,
		CreditCustomer:      t.CreditCustomer,
		CreditPaidAt:        t.CreditPaidAt,
		CreditPaymentMethod: t.CreditPaymentMethod,
		IsPaymentSummary:    t.IsPaymentSummary,
		Note:                t.Note,
	}
}

// handleRecordSale serves POST /api/transactions. A credit sale also
// charges the customer's account with the credit portion, keyed to the
// new transaction id.
func (s *Server) handleRecordSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]domain.TransactionItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.TransactionItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: domain.CentsFromDollars(it.UnitPrice),
			Taxable:   it.Taxable,
			IsManual:  it.IsManual,
		})
	}

	tx, err := s.recorder.Record(r.Context(), sales.Sale{
		Items:            items,
		Subtotal:         domain.CentsFromDollars(req.Subtotal),
		Tax:              domain.CentsFromDollars(req.Tax),
		Total:            domain.CentsFromDollars(req.Total),
		CashAmount:       domain.CentsFromDollars(req.CashAmount),
		CardAmount:       domain.CentsFromDollars(req.CardAmount),
		CreditAmount:     domain.CentsFromDollars(req.CreditAmount),
		IsCreditSale:     req.IsCreditSale,
		IsPartialPayment: req.IsPartialPayment,
		CreditCustomer:   req.CreditCustomer,
		Note:             req.Note,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if tx.IsCreditSale && tx.CreditAmount > 0 {
		if _, err := s.ledger.AddCharge(r.Context(), tx.CreditCustomer, tx.CreditAmount, tx.ID); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"transaction": toTransactionView(tx),
	})
}

// handleListTransactions serves GET /api/transactions with optional
// from, to, creditStatus, customer, and limit query filters.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f sqlite.TransactionFilter

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to timestamp")
			return
		}
		f.To = &t
	}
	f.CreditStatus = q.Get("creditStatus")
	f.Customer = q.Get("customer")
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = n
	}

	txs, err := s.recorder.List(r.Context(), f)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	views := make([]transactionView, 0, len(txs))
	for i := range txs {
		views = append(views, toTransactionView(&txs[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": views})
}

// handleDailySummaries serves GET /api/transactions/summary?days=N.
func (s *Server) handleDailySummaries(w http.ResponseWriter, r *http.Request) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid days")
			return
		}
		days = n
	}
	summaries, err := s.recorder.DailySummaries(r.Context(), days)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	type summaryView struct {
		Day              string  `json:"day"`
		TransactionCount int64   `json:"transactionCount"`
		Total            float64 `json:"total"`
		Tax              float64 `json:"tax"`
	}
	views := make([]summaryView, 0, len(summaries))
	for _, sum := range summaries {
		views = append(views, summaryView{
			Day:              sum.Day,
			TransactionCount: sum.TransactionCount,
			Total:            sum.Total.Dollars(),
			Tax:              sum.Tax.Dollars(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"days": views})
}
