package api

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tillpoint-pos/tillpoint/internal/domain"
)

// accountView is the wire shape for a credit account. Balances are
// stored as cents and exposed to clients as dollars.
type accountView struct {
	ID               int64      `json:"id"`
	CustomerName     string     `json:"customerName"`
	Balance          float64    `json:"balance"`
	Phone            string     `json:"phone,omitempty"`
	Email            string     `json:"email,omitempty"`
	Address          string     `json:"address,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	IsActive         bool       `json:"isActive"`
	TransactionCount int64      `json:"transactionCount"`
	LastTransaction  *time.Time `json:"lastTransactionDate,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

func toAccountView(a *domain.CreditAccount) accountView {
	return accountView{
		ID:               a.ID,
		CustomerName:     a.CustomerName,
		Balance:          a.Balance.Dollars(),
		Phone:            a.Phone,
		Email:            a.Email,
		Address:          a.Address,
		Notes:            a.Notes,
		IsActive:         a.IsActive,
		TransactionCount: a.TransactionCount,
		LastTransaction:  a.LastTransactionAt,
		CreatedAt:        a.CreatedAt,
	}
}

type creditActionRequest struct {
	Action        string  `json:"action"`
	CustomerName  string  `json:"customerName"`
	Amount        float64 `json:"amount"`
	TransactionID string  `json:"transactionId,omitempty"`
}

// handleCreditAction serves POST /api/credit. The action field selects
// between adding a charge and applying a payment.
func (s *Server) handleCreditAction(w http.ResponseWriter, r *http.Request) {
	var req creditActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	amount := domain.CentsFromDollars(req.Amount)

	switch req.Action {
	case "addCredit":
		acct, err := s.ledger.AddCharge(r.Context(), req.CustomerName, amount, req.TransactionID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"account": toAccountView(acct),
		})
	case "payment":
		res, err := s.ledger.ApplyPayment(r.Context(), req.CustomerName, amount)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":         true,
			"customerName":    res.CustomerName,
			"previousBalance": res.PreviousBalance.Dollars(),
			"newBalance":      res.NewBalance.Dollars(),
			"paymentAmount":   res.PaymentAmount.Dollars(),
		})
	default:
		writeError(w, http.StatusBadRequest, "unknown action: "+req.Action)
	}
}

type markPaidRequest struct {
	TransactionID string `json:"transactionId"`
	Action        string `json:"action"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
}

// handleMarkPaid serves PATCH /api/credit to settle a credit sale.
func (s *Server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	var req markPaidRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if req.Action != "markPaid" {
		writeError(w, http.StatusBadRequest, "unknown action: "+req.Action)
		return
	}

	settlement, err := s.ledger.MarkTransactionPaid(r.Context(), req.TransactionID, req.PaymentMethod)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"transactionId": settlement.TransactionID,
		"paymentMethod": settlement.PaymentMethod,
		"stockDeducted": settlement.StockDeducted,
	})
}

// handleSearchAccounts serves GET /api/credit/accounts?q=...
func (s *Server) handleSearchAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	includeInactive := r.URL.Query().Get("includeInactive") == "true"

	accounts, err := s.ledger.SearchAccounts(r.Context(), q, includeInactive)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	views := make([]accountView, 0, len(accounts))
	for i := range accounts {
		views = append(views, toAccountView(&accounts[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"accounts": views})
}

// handleGetAccount serves GET /api/credit/accounts/{name}. The name is
// matched exactly, including case.
func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer name")
		return
	}
	acct, err := s.ledger.GetAccountByName(r.Context(), name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountView(acct))
}

type upsertAccountRequest struct {
	CustomerName string  `json:"customerName"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
	Address      *string `json:"address,omitempty"`
	Notes        *string `json:"notes,omitempty"`
	IsActive     *bool   `json:"isActive,omitempty"`
}

// handleUpsertAccount serves PUT /api/credit/accounts. Profile fields
// only; balances change through charges and payments.
func (s *Server) handleUpsertAccount(w http.ResponseWriter, r *http.Request) {
	var req upsertAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	acct, err := s.ledger.UpsertAccount(r.Context(), domain.AccountUpdate{
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Email:        req.Email,
		Address:      req.Address,
		Notes:        req.Notes,
		IsActive:     req.IsActive,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountView(acct))
}

type accountActionRequest struct {
	Action        string  `json:"action"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod,omitempty"`
}

// handleAccountAction serves PATCH /api/credit/accounts/{name} for
// account-scoped charge and payment actions.
func (s *Server) handleAccountAction(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer name")
		return
	}
	var req accountActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	amount := domain.CentsFromDollars(req.Amount)

	switch req.Action {
	case "addCredit":
		acct, err := s.ledger.AddCharge(r.Context(), name, amount, "")
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"account": toAccountView(acct),
		})
	case "makePayment":
		res, err := s.ledger.ApplyPayment(r.Context(), name, amount)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":         true,
			"customerName":    res.CustomerName,
			"previousBalance": res.PreviousBalance.Dollars(),
			"newBalance":      res.NewBalance.Dollars(),
			"paymentAmount":   res.PaymentAmount.Dollars(),
		})
	default:
		writeError(w, http.StatusBadRequest, "unknown action: "+req.Action)
	}
}

// handleDeleteAccount serves DELETE /api/credit/accounts/{name}. With
// ?deactivate=true the account is hidden instead of removed.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer name")
		return
	}
	if strings.EqualFold(r.URL.Query().Get("deactivate"), "true") {
		if _, err := s.ledger.DeactivateAccount(r.Context(), name); err != nil {
			writeDomainError(w, err)
			return
		}
	} else {
		if err := s.ledger.DeleteAccount(r.Context(), name); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
