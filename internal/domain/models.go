package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Enumerations
const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPartial   PaymentStatus = "PARTIAL"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentOverdue   PaymentStatus = "OVERDUE"
	PaymentCancelled PaymentStatus = "CANCELLED"

	MethodCash         PaymentMethod = "CASH"
	MethodCard         PaymentMethod = "CARD"
	MethodUPI          PaymentMethod = "UPI"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodCheque       PaymentMethod = "CHEQUE"
	MethodCredit       PaymentMethod = "CREDIT"
	MethodOther        PaymentMethod = "OTHER"
)

type PaymentStatus string
type PaymentMethod string

// ValidPaymentStatus reports whether s is a known payment status.
func ValidPaymentStatus(s string) bool {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentPartial, PaymentPaid, PaymentOverdue, PaymentCancelled:
		return true
	}
	return false
}

// ValidPaymentMethod reports whether m is a known payment method.
func ValidPaymentMethod(m string) bool {
	switch PaymentMethod(m) {
	case MethodCash, MethodCard, MethodUPI, MethodBankTransfer, MethodCheque, MethodCredit, MethodOther:
		return true
	}
	return false
}

type User struct {
	ID           int64
	Name         string
	Email        string
	Phone        string
	PasswordHash *string
	IsGoogle     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// Shop is the tenant root. Every customer, product, category and invoice
// belongs to exactly one shop, and each shop is owned by one user.
type Shop struct {
	ID                 int64
	OwnerUserID        int64
	ShopName           string
	ShopType           string
	Tagline            string
	Address            string
	PhoneNumber        string
	Email              string
	Website            string
	GSTNumber          string
	Currency           string
	TaxRate            decimal.Decimal
	InvoicePrefix      string
	NextInvoiceNumber  int64
	IncludeTaxInPrice  bool
	TermsAndConditions string
	FooterNote         string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          *time.Time
}

type Category struct {
	ID        int64
	ShopID    int64
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Customer carries running purchase aggregates maintained by invoice creation.
type Customer struct {
	ID             int64
	ShopID         int64
	Name           string
	Phone          string
	Email          string
	Address        string
	GSTNumber      string
	TotalPurchases decimal.Decimal
	TotalInvoices  int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

type Product struct {
	ID             int64
	ShopID         int64
	CategoryID     *int64
	Name           string
	Description    string
	SellingPrice   decimal.Decimal
	CostPrice      *decimal.Decimal
	SKU            string
	Barcode        string
	Unit           string
	TrackInventory bool
	CurrentStock   int
	LowStockAlert  int
	ImageURL       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// StockMovement is one entry in the manual stock adjustment audit trail.
type StockMovement struct {
	ID           int64
	ShopID       int64
	ProductID    int64
	Change       int
	Remaining    int
	MovementType string
	Reason       string
	CreatedAt    time.Time
}

// IsLowStock reports whether tracked stock is at or below the alert level.
func (p Product) IsLowStock() bool {
	return p.TrackInventory && p.CurrentStock <= p.LowStockAlert
}

// ReduceStock decrements tracked stock. Stock may go negative; overselling
// is not blocked, it only shows up through low-stock reporting.
func (p *Product) ReduceStock(quantity int) {
	if p.TrackInventory {
		p.CurrentStock -= quantity
	}
}

// AddStock increments tracked stock, used when a sale is cancelled.
func (p *Product) AddStock(quantity int) {
	if p.TrackInventory {
		p.CurrentStock += quantity
	}
}
