// Package api provides the HTTP server for the POS back office.
// Handlers parse JSON, call the services, and shape JSON responses;
// business rules live in the services, not here.
package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tillpoint-pos/tillpoint/internal/domain"
	"github.com/tillpoint-pos/tillpoint/internal/infra/sqlite"
	"github.com/tillpoint-pos/tillpoint/internal/inventory"
	"github.com/tillpoint-pos/tillpoint/internal/ledger"
	"github.com/tillpoint-pos/tillpoint/internal/sales"
)

// Server is the back-office HTTP API server.
type Server struct {
	db             *sqlite.DB
	ledger         *ledger.Ledger
	adjuster       *inventory.Adjuster
	recorder       *sales.Recorder
	apiKey         string
	metricsEnabled bool
}

// NewServer creates an API server over the shared services.
func NewServer(db *sqlite.DB, l *ledger.Ledger, a *inventory.Adjuster, r *sales.Recorder) *Server {
	return &Server{db: db, ledger: l, adjuster: a, recorder: r}
}

// SetAPIKey sets the shared-secret header credential required on write
// routes. An empty key disables the check.
func (s *Server) SetAPIKey(key string) { s.apiKey = key }

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireKey)

		r.Route("/credit", func(r chi.Router) {
			r.Post("/", s.handleCreditAction)
			r.Patch("/", s.handleMarkPaid)
			r.Get("/accounts", s.handleSearchAccounts)
			r.Put("/accounts", s.handleUpsertAccount)
			r.Get("/accounts/{name}", s.handleGetAccount)
			r.Patch("/accounts/{name}", s.handleAccountAction)
			r.Delete("/accounts/{name}", s.handleDeleteAccount)
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", s.handleListInventory)
			r.Put("/", s.handleUpsertItem)
			r.Post("/import", s.handleImportInventory)
			r.Get("/low-stock", s.handleLowStock)
			r.Get("/{id}", s.handleGetItem)
			r.Post("/{id}/restock", s.handleRestock)
			r.Delete("/{id}", s.handleDeleteItem)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", s.handleRecordSale)
			r.Get("/", s.handleListTransactions)
			r.Get("/summary", s.handleDailySummaries)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.handleListUsers)
			r.Post("/", s.handleCreateUser)
			r.Patch("/{id}", s.handleUpdateUser)
			r.Delete("/{id}", s.handleDeleteUser)
		})

		r.Route("/till", func(r chi.Router) {
			r.Get("/", s.handleListTillSessions)
			r.Get("/current", s.handleCurrentTill)
			r.Post("/open", s.handleOpenTill)
			r.Post("/close", s.handleCloseTill)
		})
	})

	return r
}

// requireKey enforces the shared-secret X-API-Key header on mutating
// requests. Reads pass without the key so dashboards stay simple.
func (s *Server) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware adds CORS headers for the browser front end.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeDomainError maps the error taxonomy onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case domain.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case domain.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeJSON decodes a request body, rejecting unparseable payloads.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.Validationf("invalid JSON body: %v", err)
	}
	return nil
}
