package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tillpoint-pos/tillpoint/internal/domain"
)

// itemView is the wire shape for an inventory item, with the price in
// dollars.
type itemView struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Category          string  `json:"category,omitempty"`
	Price             float64 `json:"price"`
	Stock             int64   `json:"stock"`
	LowStockThreshold int64   `json:"lowStockThreshold"`
	Taxable           bool    `json:"taxable"`
	LowOnStock        bool    `json:"lowOnStock"`
}

func toItemView(it *domain.InventoryItem) itemView {
	return itemView{
		ID:                it.ID,
		Name:              it.Name,
		Category:          it.Category,
		Price:             it.Price.Dollars(),
		Stock:             it.Stock,
		LowStockThreshold: it.LowStockThreshold,
		Taxable:           it.Taxable,
		LowOnStock:        it.LowOnStock(),
	}
}

type itemRequest struct {
	ID                int64   `json:"id,omitempty"`
	Name              string  `json:"name"`
	Category          string  `json:"category,omitempty"`
	Price             float64 `json:"price"`
	Stock             int64   `json:"stock"`
	LowStockThreshold int64   `json:"lowStockThreshold"`
	Taxable           bool    `json:"taxable"`
}

func (req itemRequest) toDomain() domain.InventoryItem {
	return domain.InventoryItem{
		ID:                req.ID,
		Name:              req.Name,
		Category:          req.Category,
		Price:             domain.CentsFromDollars(req.Price),
		Stock:             req.Stock,
		LowStockThreshold: req.LowStockThreshold,
		Taxable:           req.Taxable,
	}
}

func itemID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validationf("invalid item id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

// handleListInventory serves GET /api/inventory.
func (s *Server) handleListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := s.db.ListInventory(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	views := make([]itemView, 0, len(items))
	for i := range items {
		views = append(views, toItemView(&items[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": views})
}

// handleGetItem serves GET /api/inventory/{id}.
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	it, err := s.db.GetInventoryItem(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if it == nil {
		writeError(w, http.StatusNotFound, "inventory item not found")
		return
	}
	writeJSON(w, http.StatusOK, toItemView(it))
}

// handleUpsertItem serves PUT /api/inventory. An existing id updates
// the row; id zero creates a new item keyed by name.
func (s *Server) handleUpsertItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "item name is required")
		return
	}
	it, err := s.db.UpsertInventoryItem(r.Context(), req.toDomain())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemView(it))
}

// handleImportInventory serves POST /api/inventory/import: a bulk
// upsert. Items failing validation are skipped and reported.
func (s *Server) handleImportInventory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []itemRequest `json:"items"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	imported := 0
	var skipped []string
	for _, item := range req.Items {
		if item.Name == "" {
			skipped = append(skipped, "item with empty name")
			continue
		}
		if _, err := s.db.UpsertInventoryItem(r.Context(), item.toDomain()); err != nil {
			skipped = append(skipped, item.Name+": "+err.Error())
			continue
		}
		imported++
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"imported": imported,
		"skipped":  skipped,
	})
}

// handleLowStock serves GET /api/inventory/low-stock.
func (s *Server) handleLowStock(w http.ResponseWriter, r *http.Request) {
	items, err := s.adjuster.LowStock(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	views := make([]itemView, 0, len(items))
	for i := range items {
		views = append(views, toItemView(&items[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": views})
}

// handleRestock serves POST /api/inventory/{id}/restock.
func (s *Server) handleRestock(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req struct {
		Quantity int64 `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.adjuster.Restock(r.Context(), id, req.Quantity); err != nil {
		writeDomainError(w, err)
		return
	}
	it, err := s.db.GetInventoryItem(r.Context(), id)
	if err != nil || it == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		return
	}
	writeJSON(w, http.StatusOK, toItemView(it))
}

// handleDeleteItem serves DELETE /api/inventory/{id}.
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	found, err := s.db.DeleteInventoryItem(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "inventory item not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
