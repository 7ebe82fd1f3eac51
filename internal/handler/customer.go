package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/thomasmartinoa/billing-app/internal/domain"
	"github.com/thomasmartinoa/billing-app/internal/ports"
	"github.com/thomasmartinoa/billing-app/internal/repository"
)

type CustomerHandler struct {
	Repo  repository.CustomerRepository
	Shops repository.ShopRepository
}

func (h CustomerHandler) RegisterRoutes(r chi.Router) {
	r.Get("/customers", h.list)
	r.Post("/customers", h.create)
	r.Get("/customers/{id}", h.get)
	r.Put("/customers/{id}", h.update)
	r.Delete("/customers/{id}", h.delete)
}

type customerPayload struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	GSTNumber string `json:"gstNumber"`
}

func (h CustomerHandler) list(w http.ResponseWriter, r *http.Request) {
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
	for _, c := range items {
		out = append(out, toCustomerResponse(c))
	}
	writeJSON(w, http.StatusOK, pageEnvelope(out, page, size, total))
}

func (h CustomerHandler) get(w http.ResponseWriter, r *http.Request) {
	shop, ok := resolveShop(w, r, h.Shops)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	c, err := h.Repo.GetByID(r.Context(), shop.ID, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(*c))
}

func (h CustomerHandler) create(w http.ResponseWriter, r *http.Request) {
	shop, ok := resolveShop(w, r, h.Shops)
	if !ok {
		return
	}
	var req customerPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	c, err := h.Repo.Create(r.Context(), domain.Customer{
		ShopID:    shop.ID,
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   req.Address,
		GSTNumber: req.GSTNumber,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toCustomerResponse(*c))
}

func (h CustomerHandler) update(w http.ResponseWriter, r *http.Request) {
	shop, ok := resolveShop(w, r, h.Shops)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req customerPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	c, err := h.Repo.Update(r.Context(), domain.Customer{
		ID:        id,
		ShopID:    shop.ID,
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   req.Address,
		GSTNumber: req.GSTNumber,
	})
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toCustomerResponse(*c))
}

func (h CustomerHandler) delete(w http.ResponseWriter, r *http.Request) {
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
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func toCustomerResponse(c domain.Customer) map[string]any {
	return map[string]any{
		"id":             c.ID,
		"name":           c.Name,
		"phone":          c.Phone,
		"email":          c.Email,
		"address":        c.Address,
		"gstNumber":      c.GSTNumber,
		"totalPurchases": c.TotalPurchases.StringFixed(2),
		"totalInvoices":  c.TotalInvoices,
		"createdAt":      c.CreatedAt,
		"updatedAt":      c.UpdatedAt,
	}
}

// pageParams reads zero-based page and size query params with bounds.
func pageParams(r *http.Request, defaultSize int) (page, size int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 0 {
		page = 0
	}
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size <= 0 {
		size = defaultSize
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
