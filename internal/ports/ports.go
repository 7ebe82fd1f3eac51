package ports

import (
	"context"
	"errors"
	"time"

	"github.com/thomasmartinoa/billing-app/internal/domain"
)

// ErrNotFound is returned by stores when a record does not exist or belongs
// to another shop. Callers must not be able to tell the two apart.
var ErrNotFound = errors.New("not found")

// HealthChecker is used to probe dependencies.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// ShopStore resolves the single shop owned by a user.
type ShopStore interface {
	GetByOwner(ctx context.Context, ownerUserID int64) (*domain.Shop, error)
}

// CustomerStore looks up customers scoped to a shop.
type CustomerStore interface {
	GetByID(ctx context.Context, shopID, id int64) (*domain.Customer, error)
}

// ProductStore looks up products scoped to a shop.
type ProductStore interface {
	GetByID(ctx context.Context, shopID, id int64) (*domain.Product, error)
}

// ListInvoicesParams narrows an invoice page query. Search matches invoice
// number or customer name case-insensitively. A nil Status returns active
// (non-cancelled) invoices. DateFrom/DateTo bound the invoice date; DateTo is
// inclusive of the whole day.
type ListInvoicesParams struct {
	Page     int
	Size     int
	Search   string
	Status   *domain.PaymentStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// InvoicePage is one page of invoices plus the unpaged match count.
type InvoicePage struct {
	Invoices      []domain.Invoice
	TotalElements int64
}

// InvoiceStore persists invoices. Create is one atomic unit: it allocates the
// shop's next invoice sequence, inserts the invoice with its items, decrements
// stock for every item whose product tracks inventory and bumps the customer's
// purchase aggregates. Either everything commits or nothing does; a sequence
// value consumed by a failed attempt is simply skipped. Cancel restores stock
// for tracked products and deactivates the invoice in the same transaction.
type InvoiceStore interface {
	Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error)
	GetByID(ctx context.Context, shopID, id int64) (*domain.Invoice, error)
	List(ctx context.Context, shopID int64, params ListInvoicesParams) (*InvoicePage, error)
	UpdatePayment(ctx context.Context, inv *domain.Invoice) error
	Cancel(ctx context.Context, inv *domain.Invoice) error
}
