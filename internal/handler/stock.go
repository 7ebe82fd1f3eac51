package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/thomasmartinoa/billing-app/internal/domain"
	"github.com/thomasmartinoa/billing-app/internal/ports"
	"github.com/thomasmartinoa/billing-app/internal/repository"
)

// StockHandler exposes manual stock corrections on tracked products.
type StockHandler struct {
	Repo  repository.StockRepository
	Shops repository.ShopRepository
}

func (h StockHandler) RegisterRoutes(r chi.Router) {
	r.Post("/products/{id}/stock-adjustments", h.adjust)
	r.Get("/products/{id}/stock-movements", h.history)
}

func (h StockHandler) adjust(w http.ResponseWriter, r *http.Request) {
	shop, ok := resolveShop(w, r, h.Shops)
	if !ok {
		return
	}
	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Change int    `json:"change"`
		Type   string `json:"type"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	switch req.Type {
	case "", "add":
		req.Type = "add"
	case "reduce", "recount":
	default:
		writeError(w, http.StatusBadRequest, "type must be add, reduce or recount")
		return
	}

	product, err := h.Repo.Adjust(r.Context(), shop.ID, repository.AdjustStockInput{
		ProductID: productID,
		Change:    req.Change,
		Type:      req.Type,
		Reason:    req.Reason,
	})
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found or not tracked")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(*product))
}

func (h StockHandler) history(w http.ResponseWriter, r *http.Request) {
	shop, ok := resolveShop(w, r, h.Shops)
	if !ok {
		return
	}
	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}
	items, err := h.Repo.History(r.Context(), shop.ID, productID, limit)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, m := range items {
		out = append(out, toStockMovementResponse(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func toStockMovementResponse(m domain.StockMovement) map[string]any {
	return map[string]any{
		"id":        m.ID,
		"productId": m.ProductID,
		"change":    m.Change,
		"remaining": m.Remaining,
		"type":      m.MovementType,
		"reason":    m.Reason,
		"createdAt": m.CreatedAt,
	}
}
