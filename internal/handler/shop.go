package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/thomasmartinoa/billing-app/internal/domain"
	"github.com/thomasmartinoa/billing-app/internal/ports"
	"github.com/thomasmartinoa/billing-app/internal/repository"
	"github.com/thomasmartinoa/billing-app/internal/server/authctx"
)

type ShopHandler struct {
	Repo            repository.ShopRepository
	DefaultCurrency string
}

func (h ShopHandler) RegisterRoutes(r chi.Router) {
	r.Post("/shop", h.create)
	r.Get("/shop", h.get)
	r.Put("/shop", h.update)
}

type shopPayload struct {
	ShopName           string          `json:"shopName"`
	ShopType           string          `json:"shopType"`
	Tagline            string          `json:"tagline"`
	Address            string          `json:"address"`
	PhoneNumber        string          `json:"phoneNumber"`
	Email              string          `json:"email"`
	Website            string          `json:"website"`
	GSTNumber          string          `json:"gstNumber"`
	Currency           string          `json:"currency"`
	TaxRate            decimal.Decimal `json:"taxRate"`
	InvoicePrefix      string          `json:"invoicePrefix"`
	IncludeTaxInPrice  bool            `json:"includeTaxInPrice"`
	TermsAndConditions string          `json:"termsAndConditions"`
	FooterNote         string          `json:"footerNote"`
}

func (p shopPayload) toShop(ownerID int64, defaultCurrency string) domain.Shop {
	prefix := p.InvoicePrefix
	if prefix == "" {
		prefix = "INV"
	}
	currency := p.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	return domain.Shop{
		OwnerUserID:        ownerID,
		ShopName:           p.ShopName,
		ShopType:           p.ShopType,
		Tagline:            p.Tagline,
		Address:            p.Address,
		PhoneNumber:        p.PhoneNumber,
		Email:              p.Email,
		Website:            p.Website,
		GSTNumber:          p.GSTNumber,
		Currency:           currency,
		TaxRate:            p.TaxRate,
		InvoicePrefix:      prefix,
		IncludeTaxInPrice:  p.IncludeTaxInPrice,
		TermsAndConditions: p.TermsAndConditions,
		FooterNote:         p.FooterNote,
	}
}

func (h ShopHandler) create(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req shopPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.ShopName == "" {
		writeError(w, http.StatusBadRequest, "shopName is required")
		return
	}
	if req.TaxRate.IsNegative() {
		writeError(w, http.StatusBadRequest, "taxRate must not be negative")
		return
	}
	shop, err := h.Repo.Create(r.Context(), req.toShop(user.ID, h.DefaultCurrency))
	if err != nil {
		if repository.IsDuplicate(err) {
			writeError(w, http.StatusConflict, "shop already exists for this account")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toShopResponse(shop))
}

func (h ShopHandler) get(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	shop, err := h.Repo.GetByOwner(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "shop not set up")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toShopResponse(shop))
}

func (h ShopHandler) update(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req shopPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.TaxRate.IsNegative() {
		writeError(w, http.StatusBadRequest, "taxRate must not be negative")
		return
	}
	shop, err := h.Repo.Update(r.Context(), req.toShop(user.ID, h.DefaultCurrency))
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "shop not set up")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toShopResponse(shop))
}

func toShopResponse(s *domain.Shop) map[string]any {
	return map[string]any{
		"id":                 s.ID,
		"shopName":           s.ShopName,
		"shopType":           s.ShopType,
		"tagline":            s.Tagline,
		"address":            s.Address,
		"phoneNumber":        s.PhoneNumber,
		"email":              s.Email,
		"website":            s.Website,
		"gstNumber":          s.GSTNumber,
		"currency":           s.Currency,
		"taxRate":            s.TaxRate.String(),
		"invoicePrefix":      s.InvoicePrefix,
		"includeTaxInPrice":  s.IncludeTaxInPrice,
		"termsAndConditions": s.TermsAndConditions,
		"footerNote":         s.FooterNote,
		"createdAt":          s.CreatedAt,
		"updatedAt":          s.UpdatedAt,
	}
}
