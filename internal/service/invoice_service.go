package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thomasmartinoa/billing-app/internal/domain"
	"github.com/thomasmartinoa/billing-app/internal/ports"
)

var (
	ErrNoItems         = errors.New("invoice must contain at least one item")
	ErrInvalidQuantity = errors.New("item quantity must be positive")
)

// InvoiceService orchestrates invoice creation, payment and cancellation
// against the stores. Every operation is scoped to the caller's own shop;
// records belonging to another shop surface as ports.ErrNotFound.
type InvoiceService struct {
	Shops     ports.ShopStore
	Customers ports.CustomerStore
	Products  ports.ProductStore
	Invoices  ports.InvoiceStore
	Logger    *slog.Logger
}

type InvoiceItemInput struct {
	ProductID      int64
	Quantity       int
	UnitPrice      *decimal.Decimal
	DiscountAmount decimal.Decimal
}

type CreateInvoiceInput struct {
	CustomerID         *int64
	Items              []InvoiceItemInput
	InvoiceDate        time.Time
	DueDate            *time.Time
	DiscountAmount     decimal.Decimal
	DiscountPercentage decimal.Decimal
	PaymentMethod      *domain.PaymentMethod
	Notes              string
	MarkAsPaid         bool
}

// Create builds the invoice from the requested lines and persists it as one
// atomic unit together with stock decrements, the shop's sequence bump and
// the customer's purchase aggregates.
func (s InvoiceService) Create(ctx context.Context, ownerUserID int64, in CreateInvoiceInput) (*domain.Invoice, error) {
	if len(in.Items) == 0 {
		return nil, ErrNoItems
	}

	shop, err := s.Shops.GetByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}

	var customer *domain.Customer
	if in.CustomerID != nil {
		customer, err = s.Customers.GetByID(ctx, shop.ID, *in.CustomerID)
		if err != nil {
			return nil, err
		}
	}

	invoiceDate := in.InvoiceDate
	if invoiceDate.IsZero() {
		invoiceDate = time.Now()
	}

	inv := &domain.Invoice{
		ShopID:             shop.ID,
		CustomerID:         in.CustomerID,
		InvoiceDate:        invoiceDate,
		DueDate:            in.DueDate,
		DiscountAmount:     in.DiscountAmount,
		DiscountPercentage: in.DiscountPercentage,
		TaxRate:            shop.TaxRate,
		PaymentMethod:      in.PaymentMethod,
		Notes:              in.Notes,
		PaymentStatus:      domain.PaymentPending,
	}

	for _, line := range in.Items {
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		product, err := s.Products.GetByID(ctx, shop.ID, line.ProductID)
		if err != nil {
			return nil, err
		}

		// Price snapshot: override wins, otherwise the product's current
		// selling price. Later price changes never touch this invoice.
		unitPrice := product.SellingPrice
		if line.UnitPrice != nil {
			unitPrice = *line.UnitPrice
		}

		productID := product.ID
		item := domain.InvoiceItem{
			ProductID:      &productID,
			ProductName:    product.Name,
			Description:    product.Description,
			Quantity:       line.Quantity,
			Unit:           product.Unit,
			UnitPrice:      unitPrice,
			DiscountAmount: line.DiscountAmount,
		}
		item.CalculateLineTotal()
		inv.Items = append(inv.Items, item)
	}

	inv.CalculateTotals()

	if in.MarkAsPaid {
		inv.PaymentStatus = domain.PaymentPaid
		inv.PaidAmount = inv.TotalAmount
	}

	created, err := s.Invoices.Create(ctx, inv)
	if err != nil {
		return nil, err
	}
	if created.Customer == nil {
		created.Customer = customer
	}

	s.Logger.Info("invoice created", "number", created.InvoiceNumber, "shop", shop.ID)
	return created, nil
}

// Get returns one invoice with its items.
func (s InvoiceService) Get(ctx context.Context, ownerUserID, invoiceID int64) (*domain.Invoice, error) {
	shop, err := s.Shops.GetByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	return s.Invoices.GetByID(ctx, shop.ID, invoiceID)
}

// List returns one page of the shop's invoices.
func (s InvoiceService) List(ctx context.Context, ownerUserID int64, params ports.ListInvoicesParams) (*ports.InvoicePage, error) {
	shop, err := s.Shops.GetByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	if params.Page < 0 {
		params.Page = 0
	}
	return s.Invoices.List(ctx, shop.ID, params)
}

// MarkPaid settles the invoice in full with the given method.
func (s InvoiceService) MarkPaid(ctx context.Context, ownerUserID, invoiceID int64, method domain.PaymentMethod) (*domain.Invoice, error) {
	shop, err := s.Shops.GetByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	inv, err := s.Invoices.GetByID(ctx, shop.ID, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := inv.MarkPaid(method); err != nil {
		return nil, err
	}
	if err := s.Invoices.UpdatePayment(ctx, inv); err != nil {
		return nil, err
	}
	s.Logger.Info("invoice marked as paid", "number", inv.InvoiceNumber, "shop", shop.ID)
	return inv, nil
}

// RecordPayment adds a payment and advances the status to PARTIAL or PAID.
func (s InvoiceService) RecordPayment(ctx context.Context, ownerUserID, invoiceID int64, amount decimal.Decimal, method domain.PaymentMethod) (*domain.Invoice, error) {
	shop, err := s.Shops.GetByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	inv, err := s.Invoices.GetByID(ctx, shop.ID, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := inv.RecordPayment(amount, method); err != nil {
		return nil, err
	}
	if err := s.Invoices.UpdatePayment(ctx, inv); err != nil {
		return nil, err
	}
	s.Logger.Info("payment recorded", "number", inv.InvoiceNumber, "amount", amount.StringFixed(2))
	return inv, nil
}

// Cancel restores stock for tracked products and deactivates the invoice.
// Cancelling twice is rejected so stock is never restored twice.
func (s InvoiceService) Cancel(ctx context.Context, ownerUserID, invoiceID int64) (*domain.Invoice, error) {
	shop, err := s.Shops.GetByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	inv, err := s.Invoices.GetByID(ctx, shop.ID, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := inv.Cancel(time.Now()); err != nil {
		return nil, err
	}
	if err := s.Invoices.Cancel(ctx, inv); err != nil {
		return nil, err
	}
	s.Logger.Info("invoice cancelled", "number", inv.InvoiceNumber, "shop", shop.ID)
	return inv, nil
}
