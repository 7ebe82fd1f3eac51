package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestCalculateLineTotal(t *testing.T) {
	item := InvoiceItem{
		Quantity:       3,
		UnitPrice:      d("49.99"),
		DiscountAmount: d("10.00"),
	}
	item.CalculateLineTotal()
	assert.True(t, item.LineTotal.Equal(d("139.97")), "got %s", item.LineTotal)
}

func TestCalculateTotals(t *testing.T) {
	t.Run("discount then tax", func(t *testing.T) {
		inv := Invoice{
			DiscountAmount: d("100"),
			TaxRate:        d("18"),
			Items: []InvoiceItem{
				{Quantity: 2, UnitPrice: d("500")},
				{Quantity: 1, UnitPrice: d("100")},
			},
		}
		for i := range inv.Items {
			inv.Items[i].CalculateLineTotal()
		}
		inv.CalculateTotals()

		assert.True(t, inv.Subtotal.Equal(d("1100")), "subtotal %s", inv.Subtotal)
		assert.True(t, inv.TaxAmount.Equal(d("180.00")), "tax %s", inv.TaxAmount)
		assert.True(t, inv.TotalAmount.Equal(d("1180.00")), "total %s", inv.TotalAmount)
	})

	t.Run("tax rounds half away from zero", func(t *testing.T) {
		inv := Invoice{
			TaxRate: d("18"),
			Items:   []InvoiceItem{{Quantity: 1, UnitPrice: d("0.25")}},
		}
		inv.Items[0].CalculateLineTotal()
		inv.CalculateTotals()
		// 0.25 * 18% = 0.045 -> 0.05
		assert.True(t, inv.TaxAmount.Equal(d("0.05")), "tax %s", inv.TaxAmount)
	})

	t.Run("discount beyond subtotal goes negative", func(t *testing.T) {
		inv := Invoice{
			DiscountAmount: d("200"),
			TaxRate:        d("10"),
			Items:          []InvoiceItem{{Quantity: 1, UnitPrice: d("100")}},
		}
		inv.Items[0].CalculateLineTotal()
		inv.CalculateTotals()

		assert.True(t, inv.TaxAmount.Equal(d("-10.00")), "tax %s", inv.TaxAmount)
		assert.True(t, inv.TotalAmount.Equal(d("-110.00")), "total %s", inv.TotalAmount)
	})

	t.Run("zero tax rate", func(t *testing.T) {
		inv := Invoice{
			Items: []InvoiceItem{{Quantity: 4, UnitPrice: d("25")}},
		}
		inv.Items[0].CalculateLineTotal()
		inv.CalculateTotals()
		assert.True(t, inv.TaxAmount.IsZero())
		assert.True(t, inv.TotalAmount.Equal(d("100")))
	})
}

func TestGenerateInvoiceNumber(t *testing.T) {
	shop := Shop{InvoicePrefix: "INV", NextInvoiceNumber: 1}

	assert.Equal(t, "INV-00001", shop.GenerateInvoiceNumber())
	assert.Equal(t, "INV-00002", shop.GenerateInvoiceNumber())
	assert.Equal(t, int64(3), shop.NextInvoiceNumber)

	shop.NextInvoiceNumber = 123456
	assert.Equal(t, "INV-123456", shop.GenerateInvoiceNumber(), "number grows past the padded width")

	assert.Equal(t, "ACME-00042", FormatInvoiceNumber("ACME", 42))
}

func TestMarkPaid(t *testing.T) {
	inv := Invoice{TotalAmount: d("500"), PaymentStatus: PaymentPending}

	require.NoError(t, inv.MarkPaid(MethodUPI))
	assert.Equal(t, PaymentPaid, inv.PaymentStatus)
	assert.True(t, inv.PaidAmount.Equal(d("500")))
	require.NotNil(t, inv.PaymentMethod)
	assert.Equal(t, MethodUPI, *inv.PaymentMethod)

	assert.ErrorIs(t, inv.MarkPaid(MethodCash), ErrAlreadyPaid)

	cancelled := Invoice{PaymentStatus: PaymentCancelled}
	assert.ErrorIs(t, cancelled.MarkPaid(MethodCash), ErrAlreadyCancelled)
}

func TestRecordPayment(t *testing.T) {
	inv := Invoice{TotalAmount: d("1000"), PaymentStatus: PaymentPending}

	require.NoError(t, inv.RecordPayment(d("400"), MethodCash))
	assert.Equal(t, PaymentPartial, inv.PaymentStatus)
	assert.True(t, inv.BalanceDue().Equal(d("600")))

	require.NoError(t, inv.RecordPayment(d("700"), MethodCard))
	assert.Equal(t, PaymentPaid, inv.PaymentStatus)
	assert.True(t, inv.BalanceDue().Equal(d("-100")), "overpayment leaves a negative balance")
	assert.Equal(t, MethodCard, *inv.PaymentMethod, "method reflects the latest payment")

	cancelled := Invoice{PaymentStatus: PaymentCancelled}
	assert.ErrorIs(t, cancelled.RecordPayment(d("10"), MethodCash), ErrAlreadyCancelled)
}

func TestCancel(t *testing.T) {
	now := time.Now()
	inv := Invoice{PaymentStatus: PaymentPending}

	require.NoError(t, inv.Cancel(now))
	assert.Equal(t, PaymentCancelled, inv.PaymentStatus)
	require.NotNil(t, inv.CancelledAt)
	assert.Equal(t, now, *inv.CancelledAt)

	assert.ErrorIs(t, inv.Cancel(now.Add(time.Hour)), ErrAlreadyCancelled)
}

func TestIsOverdue(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	assert.False(t, Invoice{PaymentStatus: PaymentPending}.IsOverdue(now), "no due date")
	assert.True(t, Invoice{PaymentStatus: PaymentPending, DueDate: &past}.IsOverdue(now))
	assert.True(t, Invoice{PaymentStatus: PaymentPartial, DueDate: &past}.IsOverdue(now))
	assert.False(t, Invoice{PaymentStatus: PaymentPending, DueDate: &future}.IsOverdue(now))
	assert.False(t, Invoice{PaymentStatus: PaymentPaid, DueDate: &past}.IsOverdue(now))
	assert.False(t, Invoice{PaymentStatus: PaymentCancelled, DueDate: &past}.IsOverdue(now))
}

func TestStockAdjustment(t *testing.T) {
	p := Product{TrackInventory: true, CurrentStock: 10, LowStockAlert: 3}

	p.ReduceStock(8)
	assert.Equal(t, 2, p.CurrentStock)
	assert.True(t, p.IsLowStock())

	p.AddStock(8)
	assert.Equal(t, 10, p.CurrentStock)
	assert.False(t, p.IsLowStock())

	untracked := Product{TrackInventory: false, CurrentStock: 5}
	untracked.ReduceStock(3)
	assert.Equal(t, 5, untracked.CurrentStock, "untracked products never change stock")
	assert.False(t, untracked.IsLowStock())
}

func TestReduceStockCanGoNegative(t *testing.T) {
	p := Product{TrackInventory: true, CurrentStock: 1}
	p.ReduceStock(5)
	assert.Equal(t, -4, p.CurrentStock)
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidPaymentStatus("PAID"))
	assert.False(t, ValidPaymentStatus("paid"))
	assert.False(t, ValidPaymentStatus(""))
	assert.True(t, ValidPaymentMethod("BANK_TRANSFER"))
	assert.False(t, ValidPaymentMethod("BITCOIN"))
}
