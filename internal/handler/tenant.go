package handler

import (
	"errors"
	"net/http"

	"github.com/thomasmartinoa/billing-app/internal/domain"
	"github.com/thomasmartinoa/billing-app/internal/ports"
	"github.com/thomasmartinoa/billing-app/internal/repository"
	"github.com/thomasmartinoa/billing-app/internal/server/authctx"
)

// resolveShop loads the authenticated user's shop. It writes the error
// response itself; callers bail out when ok is false.
func resolveShop(w http.ResponseWriter, r *http.Request, shops repository.ShopRepository) (shop *domain.Shop, ok bool) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	shop, err := shops.GetByOwner(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			writeError(w, http.StatusNotFound, "shop not set up")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return shop, true
}
