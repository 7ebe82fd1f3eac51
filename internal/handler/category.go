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

type CategoryHandler struct {
	Repo  repository.CategoryRepository
	Shops repository.ShopRepository
}

func (h CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/categories", h.list)
	r.Post("/categories", h.create)
	r.Put("/categories/{id}", h.update)
	r.Delete("/categories/{id}", h.delete)
}

type categoryPayload struct {
	Name string `json:"name"`
}

func (h CategoryHandler) list(w http.ResponseWriter, r *http.Request) {
	shop, ok := resolveShop(w, r, h.Shops)
	if !ok {
		return
	}
	items, err := h.Repo.List(r.Context(), shop.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, c := range items {
		out = append(out, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h CategoryHandler) create(w http.ResponseWriter, r *http.Request) {
	shop, ok := resolveShop(w, r, h.Shops)
	if !ok {
		return
	}
	var req categoryPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	c, err := h.Repo.Create(r.Context(), shop.ID, req.Name)
	if err != nil {
		if repository.IsDuplicate(err) {
			writeError(w, http.StatusConflict, "category already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(*c))
}

func (h CategoryHandler) update(w http.ResponseWriter, r *http.Request) {
	shop, ok := resolveShop(w, r, h.Shops)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req categoryPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	c, err := h.Repo.Update(r.Context(), shop.ID, id, req.Name)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(*c))
}

func (h CategoryHandler) delete(w http.ResponseWriter, r *http.Request) {
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
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func toCategoryResponse(c domain.Category) map[string]any {
	return map[string]any{
		"id":        c.ID,
		"name":      c.Name,
		"createdAt": c.CreatedAt,
		"updatedAt": c.UpdatedAt,
	}
}
