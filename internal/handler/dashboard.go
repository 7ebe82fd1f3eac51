package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/thomasmartinoa/billing-app/internal/repository"
)

type DashboardHandler struct {
	Repo  repository.DashboardRepository
	Shops repository.ShopRepository
}

func (h DashboardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard/stats", h.stats)
}

func (h DashboardHandler) stats(w http.ResponseWriter, r *http.Request) {
	shop, ok := resolveShop(w, r, h.Shops)
	if !ok {
		return
	}
	stats, err := h.Repo.Stats(r.Context(), shop.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalCustomers":  stats.TotalCustomers,
		"totalProducts":   stats.TotalProducts,
		"totalInvoices":   stats.TotalInvoices,
		"lowStockCount":   stats.LowStockCount,
		"totalSales":      stats.TotalSales.StringFixed(2),
		"todaySales":      stats.TodaySales.StringFixed(2),
		"thisMonthSales":  stats.ThisMonthSales.StringFixed(2),
		"pendingInvoices": stats.PendingInvoices,
		"paidInvoices":    stats.PaidInvoices,
	})
}
