package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tillpoint-pos/tillpoint/internal/domain"
)

// tillView is the wire shape for a till session.
type tillView struct {
	ID            string     `json:"id"`
	OpenedAt      time.Time  `json:"openedAt"`
	ClosedAt      *time.Time `json:"closedAt,omitempty"`
	OpenedBy      string     `json:"openedBy"`
	ClosedBy      string     `json:"closedBy,omitempty"`
	OpeningAmount float64    `json:"openingAmount"`
	ExpectedCash  float64    `json:"expectedCash"`
	CountedCash   float64    `json:"countedCash"`
	Variance      float64    `json:"variance"`
	Notes         string     `json:"notes,omitempty"`
	Open          bool       `json:"open"`
}

func toTillView(s *domain.TillSession) tillView {
	return tillView{
		ID:            s.ID,
		OpenedAt:      s.OpenedAt,
		ClosedAt:      s.ClosedAt,
		OpenedBy:      s.OpenedBy,
		ClosedBy:      s.ClosedBy,
		OpeningAmount: s.OpeningAmount.Dollars(),
		ExpectedCash:  s.ExpectedCash.Dollars(),
		CountedCash:   s.CountedCash.Dollars(),
		Variance:      s.Variance().Dollars(),
		Notes:         s.Notes,
		Open:          s.Open(),
	}
}

// handleOpenTill serves POST /api/till/open. Only one session may be
// open at a time.
func (s *Server) handleOpenTill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OpenedBy      string  `json:"openedBy"`
		OpeningAmount float64 `json:"openingAmount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if req.OpeningAmount < 0 {
		writeError(w, http.StatusBadRequest, "opening amount cannot be negative")
		return
	}

	open, err := s.db.OpenTillSession(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if open != nil {
		writeError(w, http.StatusConflict, "a till session is already open")
		return
	}

	session := domain.TillSession{
		ID:            uuid.NewString(),
		OpenedAt:      time.Now(),
		OpenedBy:      req.OpenedBy,
		OpeningAmount: domain.CentsFromDollars(req.OpeningAmount),
	}
	if err := s.db.InsertTillSession(r.Context(), session); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTillView(&session))
}

// handleCloseTill serves POST /api/till/close. Expected cash is the
// opening float plus cash sales taken while the session was open.
func (s *Server) handleCloseTill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClosedBy    string  `json:"closedBy"`
		CountedCash float64 `json:"countedCash"`
		Notes       string  `json:"notes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	open, err := s.db.OpenTillSession(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if open == nil {
		writeError(w, http.StatusConflict, "no till session is open")
		return
	}

	cashSales, err := s.db.CashSalesSince(r.Context(), open.OpenedAt)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	expected := open.OpeningAmount + cashSales
	counted := domain.CentsFromDollars(req.CountedCash)
	now := time.Now()

	if err := s.db.CloseTillSession(r.Context(), open.ID, req.ClosedBy, expected, counted, req.Notes, now); err != nil {
		writeDomainError(w, err)
		return
	}

	closed := *open
	closed.ClosedAt = &now
	closed.ClosedBy = req.ClosedBy
	closed.ExpectedCash = expected
	closed.CountedCash = counted
	// Empty notes keep whatever was stored, matching the store's update.
	if req.Notes != "" {
		closed.Notes = req.Notes
	}
	writeJSON(w, http.StatusOK, toTillView(&closed))
}

// handleCurrentTill serves GET /api/till/current.
func (s *Server) handleCurrentTill(w http.ResponseWriter, r *http.Request) {
	open, err := s.db.OpenTillSession(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if open == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"open": false})
		return
	}
	writeJSON(w, http.StatusOK, toTillView(open))
}

// handleListTillSessions serves GET /api/till?limit=N.
func (s *Server) handleListTillSessions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	sessions, err := s.db.ListTillSessions(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	views := make([]tillView, 0, len(sessions))
	for i := range sessions {
		views = append(views, toTillView(&sessions[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": views})
}
