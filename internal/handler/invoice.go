package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/thomasmartinoa/billing-app/internal/domain"
	"github.com/thomasmartinoa/billing-app/internal/ports"
	"github.com/thomasmartinoa/billing-app/internal/server/authctx"
	"github.com/thomasmartinoa/billing-app/internal/service"
	"github.com/xuri/excelize/v2"
)

type InvoiceHandler struct {
	Service service.InvoiceService
}

func (h InvoiceHandler) RegisterRoutes(r chi.Router) {
	r.Post("/invoices", h.create)
	r.Get("/invoices", h.list)
	r.Get("/invoices/export", h.export)
	r.Get("/invoices/{id}", h.get)
	r.Post("/invoices/{id}/mark-paid", h.markPaid)
	r.Post("/invoices/{id}/payments", h.recordPayment)
	r.Post("/invoices/{id}/cancel", h.cancel)
}

type invoiceItemPayload struct {
	ProductID      int64            `json:"productId"`
	Quantity       int              `json:"quantity"`
	UnitPrice      *decimal.Decimal `json:"unitPrice"`
	DiscountAmount decimal.Decimal  `json:"discountAmount"`
}

type invoicePayload struct {
	CustomerID         *int64               `json:"customerId"`
	Items              []invoiceItemPayload `json:"items"`
	InvoiceDate        *time.Time           `json:"invoiceDate"`
	DueDate            *time.Time           `json:"dueDate"`
	DiscountAmount     decimal.Decimal      `json:"discountAmount"`
	DiscountPercentage decimal.Decimal      `json:"discountPercentage"`
	PaymentMethod      *string              `json:"paymentMethod"`
	Notes              string               `json:"notes"`
	MarkAsPaid         bool                 `json:"markAsPaid"`
}

func (h InvoiceHandler) create(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req invoicePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	method, err := parsePaymentMethod(req.PaymentMethod)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := service.CreateInvoiceInput{
		CustomerID:         req.CustomerID,
		DueDate:            req.DueDate,
		DiscountAmount:     req.DiscountAmount,
		DiscountPercentage: req.DiscountPercentage,
		PaymentMethod:      method,
		Notes:              req.Notes,
		MarkAsPaid:         req.MarkAsPaid,
	}
	if req.InvoiceDate != nil {
		in.InvoiceDate = *req.InvoiceDate
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, service.InvoiceItemInput{
			ProductID:      it.ProductID,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			DiscountAmount: it.DiscountAmount,
		})
	}

	inv, err := h.Service.Create(r.Context(), user.ID, in)
	if err != nil {
		writeInvoiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInvoiceResponse(inv))
}

func (h InvoiceHandler) list(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	params, err := invoiceListParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.Service.List(r.Context(), user.ID, params)
	if err != nil {
		writeInvoiceError(w, err)
		return
	}

	content := make([]map[string]any, 0, len(page.Invoices))
	for i := range page.Invoices {
		content = append(content, toInvoiceResponse(&page.Invoices[i]))
	}
	writeJSON(w, http.StatusOK, pageEnvelope(content, params.Page, params.Size, page.TotalElements))
}

func (h InvoiceHandler) get(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	inv, err := h.Service.Get(r.Context(), user.ID, id)
	if err != nil {
		writeInvoiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (h InvoiceHandler) markPaid(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		PaymentMethod string `json:"paymentMethod"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if !domain.ValidPaymentMethod(req.PaymentMethod) {
		writeError(w, http.StatusBadRequest, "invalid payment method")
		return
	}

	inv, err := h.Service.MarkPaid(r.Context(), user.ID, id, domain.PaymentMethod(req.PaymentMethod))
	if err != nil {
		writeInvoiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (h InvoiceHandler) recordPayment(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Amount        decimal.Decimal `json:"amount"`
		PaymentMethod string          `json:"paymentMethod"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if !domain.ValidPaymentMethod(req.PaymentMethod) {
		writeError(w, http.StatusBadRequest, "invalid payment method")
		return
	}

	inv, err := h.Service.RecordPayment(r.Context(), user.ID, id, req.Amount, domain.PaymentMethod(req.PaymentMethod))
	if err != nil {
		writeInvoiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (h InvoiceHandler) cancel(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	inv, err := h.Service.Cancel(r.Context(), user.ID, id)
	if err != nil {
		writeInvoiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

// export streams the current invoice selection as an xlsx workbook.
func (h InvoiceHandler) export(w http.ResponseWriter, r *http.Request) {
	user := authctx.FromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	params, err := invoiceListParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	params.Page = 0
	params.Size = 10000

	page, err := h.Service.List(r.Context(), user.ID, params)
	if err != nil {
		writeInvoiceError(w, err)
		return
	}

	f, err := buildInvoiceWorkbook(page.Invoices)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	if err := f.Write(w); err != nil {
		// Headers already sent; nothing useful left to report.
		return
	}
}

func buildInvoiceWorkbook(invoices []domain.Invoice) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Invoices"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	header := []string{"Number", "Date", "Customer", "Subtotal", "Discount", "Tax", "Total", "Paid", "Balance", "Status", "Method"}
	for c, v := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		_ = f.SetCellValue(sheet, cell, v)
	}
	for r, inv := range invoices {
		customerName := ""
		if inv.Customer != nil {
			customerName = inv.Customer.Name
		}
		method := ""
		if inv.PaymentMethod != nil {
			method = string(*inv.PaymentMethod)
		}
		values := []any{
			inv.InvoiceNumber,
			inv.InvoiceDate.Format("2006-01-02"),
			customerName,
			inv.Subtotal.StringFixed(2),
			inv.DiscountAmount.StringFixed(2),
			inv.TaxAmount.StringFixed(2),
			inv.TotalAmount.StringFixed(2),
			inv.PaidAmount.StringFixed(2),
			inv.BalanceDue().StringFixed(2),
			string(inv.PaymentStatus),
			method,
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	return f, nil
}

func invoiceListParams(r *http.Request) (ports.ListInvoicesParams, error) {
	params := ports.ListInvoicesParams{
		Page:   0,
		Size:   20,
		Search: r.URL.Query().Get("search"),
	}
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return params, fmt.Errorf("invalid page")
		}
		params.Page = n
	}
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			return params, fmt.Errorf("invalid size")
		}
		params.Size = n
	}
	if v := r.URL.Query().Get("status"); v != "" {
		if !domain.ValidPaymentStatus(v) {
			return params, fmt.Errorf("invalid status")
		}
		s := domain.PaymentStatus(v)
		params.Status = &s
	}
	from, err := parseDateQuery(r, "dateFrom")
	if err != nil {
		return params, fmt.Errorf("invalid dateFrom")
	}
	params.DateFrom = from
	to, err := parseDateQuery(r, "dateTo")
	if err != nil {
		return params, fmt.Errorf("invalid dateTo")
	}
	params.DateTo = to
	return params, nil
}

func parsePaymentMethod(s *string) (*domain.PaymentMethod, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	if !domain.ValidPaymentMethod(*s) {
		return nil, fmt.Errorf("invalid payment method")
	}
	m := domain.PaymentMethod(*s)
	return &m, nil
}

// writeInvoiceError maps engine errors onto HTTP statuses. Cross-tenant and
// missing records are reported identically as 404.
func writeInvoiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrNoItems), errors.Is(err, service.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadyPaid), errors.Is(err, domain.ErrAlreadyCancelled):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func toInvoiceResponse(inv *domain.Invoice) map[string]any {
	items := make([]map[string]any, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, map[string]any{
			"id":             it.ID,
			"productId":      it.ProductID,
			"productName":    it.ProductName,
			"description":    it.Description,
			"quantity":       it.Quantity,
			"unit":           it.Unit,
			"unitPrice":      it.UnitPrice.StringFixed(2),
			"discountAmount": it.DiscountAmount.StringFixed(2),
			"lineTotal":      it.LineTotal.StringFixed(2),
		})
	}

	var customer map[string]any
	if inv.Customer != nil {
		customer = map[string]any{
			"id":        inv.Customer.ID,
			"name":      inv.Customer.Name,
			"phone":     inv.Customer.Phone,
			"email":     inv.Customer.Email,
			"address":   inv.Customer.Address,
			"gstNumber": inv.Customer.GSTNumber,
		}
	}

	var method *string
	if inv.PaymentMethod != nil {
		m := string(*inv.PaymentMethod)
		method = &m
	}
	var dueDate *string
	if inv.DueDate != nil {
		d := inv.DueDate.Format(time.RFC3339)
		dueDate = &d
	}

	return map[string]any{
		"id":                 inv.ID,
		"invoiceNumber":      inv.InvoiceNumber,
		"invoiceDate":        inv.InvoiceDate.Format(time.RFC3339),
		"dueDate":            dueDate,
		"customer":           customer,
		"items":              items,
		"subtotal":           inv.Subtotal.StringFixed(2),
		"discountAmount":     inv.DiscountAmount.StringFixed(2),
		"discountPercentage": inv.DiscountPercentage.String(),
		"taxRate":            inv.TaxRate.String(),
		"taxAmount":          inv.TaxAmount.StringFixed(2),
		"totalAmount":        inv.TotalAmount.StringFixed(2),
		"paidAmount":         inv.PaidAmount.StringFixed(2),
		"balanceDue":         inv.BalanceDue().StringFixed(2),
		"paymentStatus":      string(inv.PaymentStatus),
		"paymentMethod":      method,
		"overdue":            inv.IsOverdue(time.Now()),
		"notes":              inv.Notes,
		"createdAt":          inv.CreatedAt.Format(time.RFC3339),
		"updatedAt":          inv.UpdatedAt.Format(time.RFC3339),
	}
}
