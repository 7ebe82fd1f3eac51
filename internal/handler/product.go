package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/thomasmartinoa/billing-app/internal/domain"
	"github.com/thomasmartinoa/billing-app/internal/ports"
	"github.com/thomasmartinoa/billing-app/internal/repository"
)

type ProductHandler struct {
	Repo  repository.ProductRepository
	Shops repository.ShopRepository
}

func (h ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/products/low-stock", h.lowStock)
	r.Post("/products", h.create)
	r.Get("/products/{id}", h.get)
	r.Put("/products/{id}", h.update)
	r.Delete("/products/{id}", h.delete)
}

type productPayload struct {
	CategoryID     *int64           `json:"categoryId"`
	Name           string           `json:"name"`
	Description    string           `json:"description"`
	SellingPrice   decimal.Decimal  `json:"sellingPrice"`
	CostPrice      *decimal.Decimal `json:"costPrice"`
	SKU            string           `json:"sku"`
	Barcode        string           `json:"barcode"`
	Unit           string           `json:"unit"`
	TrackInventory bool             `json:"trackInventory"`
	CurrentStock   int              `json:"currentStock"`
	LowStockAlert  int              `json:"lowStockAlert"`
	ImageURL       string           `json:"imageUrl"`
}

func (p productPayload) toProduct(shopID, id int64) domain.Product {
	unit := p.Unit
	if unit == "" {
		unit = "pcs"
	}
	return domain.Product{
		ID:             id,
		ShopID:         shopID,
		CategoryID:     p.CategoryID,
		Name:           p.Name,
		Description:    p.Description,
		SellingPrice:   p.SellingPrice,
		CostPrice:      p.CostPrice,
		SKU:            p.SKU,
		Barcode:        p.Barcode,
		Unit:           unit,
		TrackInventory: p.TrackInventory,
		CurrentStock:   p.CurrentStock,
		LowStockAlert:  p.LowStockAlert,
		ImageURL:       p.ImageURL,
	}
}

func (h ProductHandler) list(w http.ResponseWriter, r *http.Request) {
	shop, ok := resolveShop(w, r, h.Shops)
	if !ok {
		return
	}
	page, size := pageParams(r, 20)
	search := r.URL.Query().Get("search")
	items, total, err := h.Repo.List(r.Context(), shop.ID, page, size, search)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, p := range items {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, pageEnvelope(out, page, size, total))
}

func (h ProductHandler) lowStock(w http.ResponseWriter, r *http.Request) {
	shop, ok := resolveShop(w, r, h.Shops)
	if !ok {
		return
	}
	items, err := h.Repo.ListLowStock(r.Context(), shop.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, p := range items {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h ProductHandler) get(w http.ResponseWriter, r *http.Request) {
	shop, ok := resolveShop(w, r, h.Shops)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	p, err := h.Repo.GetByID(r.Context(), shop.ID, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(*p))
}

func (h ProductHandler) create(w http.ResponseWriter, r *http.Request) {
	shop, ok := resolveShop(w, r, h.Shops)
	if !ok {
		return
	}
	req, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	p, err := h.Repo.Create(r.Context(), req.toProduct(shop.ID, 0))
	if err != nil {
		if repository.IsDuplicate(err) {
			writeError(w, http.StatusConflict, "sku already used")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(*p))
}

func (h ProductHandler) update(w http.ResponseWriter, r *http.Request) {
	shop, ok := resolveShop(w, r, h.Shops)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	req, ok := decodeProduct(w, r)
	if !ok {
		return
	}
	p, err := h.Repo.Update(r.Context(), req.toProduct(shop.ID, id))
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		if repository.IsDuplicate(err) {
			writeError(w, http.StatusConflict, "sku already used")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(*p))
}

func (h ProductHandler) delete(w http.ResponseWriter, r *http.Request) {
	shop, ok := resolveShop(w, r, h.Shops)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.Repo.Delete(r.Context(), shop.ID, id); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func decodeProduct(w http.ResponseWriter, r *http.Request) (productPayload, bool) {
	var req productPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return req, false
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return req, false
	}
	if req.SellingPrice.IsNegative() {
		writeError(w, http.StatusBadRequest, "sellingPrice must not be negative")
		return req, false
	}
	return req, true
}

func toProductResponse(p domain.Product) map[string]any {
	resp := map[string]any{
		"id":             p.ID,
		"categoryId":     p.CategoryID,
		"name":           p.Name,
		"description":    p.Description,
		"sellingPrice":   p.SellingPrice.StringFixed(2),
		"sku":            p.SKU,
		"barcode":        p.Barcode,
		"unit":           p.Unit,
		"trackInventory": p.TrackInventory,
		"currentStock":   p.CurrentStock,
		"lowStockAlert":  p.LowStockAlert,
		"lowStock":       p.IsLowStock(),
		"imageUrl":       p.ImageURL,
		"createdAt":      p.CreatedAt,
		"updatedAt":      p.UpdatedAt,
	}
	if p.CostPrice != nil {
		resp["costPrice"] = p.CostPrice.StringFixed(2)
	}
	return resp
}
