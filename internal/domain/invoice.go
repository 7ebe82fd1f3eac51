package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Invoice is a sale document. Monetary fields are exact decimals; TaxRate is
// a snapshot of the shop's rate at creation time and never re-read.
type Invoice struct {
	ID                 int64
	ShopID             int64
	CustomerID         *int64
	InvoiceNumber      string
	InvoiceDate        time.Time
	DueDate            *time.Time
	Subtotal           decimal.Decimal
	DiscountAmount     decimal.Decimal
	DiscountPercentage decimal.Decimal
	TaxRate            decimal.Decimal
	TaxAmount          decimal.Decimal
	TotalAmount        decimal.Decimal
	PaidAmount         decimal.Decimal
	PaymentStatus      PaymentStatus
	PaymentMethod      *PaymentMethod
	Notes              string
	Customer           *Customer
	Items              []InvoiceItem
	CancelledAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          *time.Time
}

// InvoiceItem snapshots the product's name, description, unit and price at
// creation time so deleting the product later leaves the invoice intact.
type InvoiceItem struct {
	ID             int64
	InvoiceID      int64
	ProductID      *int64
	ProductName    string
	Description    string
	Quantity       int
	Unit           string
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	LineTotal      decimal.Decimal
	CreatedAt      time.Time
}

// CalculateLineTotal recomputes line_total = unit_price * quantity - discount.
// Must be called after any mutation of price, quantity or discount.
func (i *InvoiceItem) CalculateLineTotal() {
	total := i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
	i.LineTotal = total.Sub(i.DiscountAmount)
}

// CalculateTotals recomputes subtotal, tax and total from scratch.
// Tax is (subtotal - discount) * rate / 100 rounded half away from zero at
// two decimal places. A discount larger than the subtotal produces a negative
// taxable base and total; that is accepted, not clamped.
func (inv *Invoice) CalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range inv.Items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	inv.Subtotal = subtotal

	afterDiscount := subtotal.Sub(inv.DiscountAmount)
	inv.TaxAmount = afterDiscount.Mul(inv.TaxRate).Div(oneHundred).Round(2)
	inv.TotalAmount = afterDiscount.Add(inv.TaxAmount)
}

// BalanceDue is the remaining amount: total - paid. Negative on overpayment.
func (inv Invoice) BalanceDue() decimal.Decimal {
	return inv.TotalAmount.Sub(inv.PaidAmount)
}

// IsOverdue reports whether an unpaid invoice is past its due date. OVERDUE
// is derived for display only and never stored as the payment status.
func (inv Invoice) IsOverdue(now time.Time) bool {
	if inv.DueDate == nil {
		return false
	}
	switch inv.PaymentStatus {
	case PaymentPending, PaymentPartial:
		return inv.DueDate.Before(now)
	}
	return false
}

// MarkPaid settles the invoice in full. Returns ErrAlreadyPaid if it is
// already settled and ErrAlreadyCancelled for cancelled invoices.
func (inv *Invoice) MarkPaid(method PaymentMethod) error {
	if inv.PaymentStatus == PaymentPaid {
		return ErrAlreadyPaid
	}
	if inv.PaymentStatus == PaymentCancelled {
		return ErrAlreadyCancelled
	}
	inv.PaymentStatus = PaymentPaid
	inv.PaidAmount = inv.TotalAmount
	inv.PaymentMethod = &method
	return nil
}

// RecordPayment adds amount to the paid total and moves the status to PARTIAL
// or PAID. Overpayment is accepted; the method always reflects the latest
// payment. Cancelled invoices reject further payments.
func (inv *Invoice) RecordPayment(amount decimal.Decimal, method PaymentMethod) error {
	if inv.PaymentStatus == PaymentCancelled {
		return ErrAlreadyCancelled
	}
	inv.PaidAmount = inv.PaidAmount.Add(amount)
	inv.PaymentMethod = &method
	if inv.PaidAmount.GreaterThanOrEqual(inv.TotalAmount) {
		inv.PaymentStatus = PaymentPaid
	} else {
		inv.PaymentStatus = PaymentPartial
	}
	return nil
}

// Cancel moves the invoice to CANCELLED. Repeat cancellation is rejected so
// stock is never restored twice for the same invoice.
func (inv *Invoice) Cancel(now time.Time) error {
	if inv.PaymentStatus == PaymentCancelled {
		return ErrAlreadyCancelled
	}
	inv.PaymentStatus = PaymentCancelled
	inv.CancelledAt = &now
	return nil
}

// GenerateInvoiceNumber formats the next number as {prefix}-{seq:05d} and
// advances the shop's sequence. Persistence must bump the stored counter in
// the same transaction that creates the invoice; consumed numbers are never
// reused even when creation fails afterwards.
func (s *Shop) GenerateInvoiceNumber() string {
	number := fmt.Sprintf("%s-%05d", s.InvoicePrefix, s.NextInvoiceNumber)
	s.NextInvoiceNumber++
	return number
}

// FormatInvoiceNumber renders an already-allocated sequence value.
func FormatInvoiceNumber(prefix string, seq int64) string {
	return fmt.Sprintf("%s-%05d", prefix, seq)
}
