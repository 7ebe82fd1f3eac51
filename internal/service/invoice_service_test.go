package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomasmartinoa/billing-app/internal/domain"
	"github.com/thomasmartinoa/billing-app/internal/ports"
)

// fakeStores is an in-memory implementation of the store interfaces with the
// same atomicity guarantees as the SQL layer: Create allocates the sequence,
// decrements stock and bumps customer aggregates under one lock.
type fakeStores struct {
	mu        sync.Mutex
	shop      domain.Shop
	customers map[int64]*domain.Customer
	products  map[int64]*domain.Product
	invoices  map[int64]*domain.Invoice
	nextID    int64
}

func newFakeStores() *fakeStores {
	return &fakeStores{
		shop: domain.Shop{
			ID:                1,
			OwnerUserID:       10,
			ShopName:          "Test Shop",
			TaxRate:           decimal.NewFromInt(18),
			InvoicePrefix:     "INV",
			NextInvoiceNumber: 1,
		},
		customers: make(map[int64]*domain.Customer),
		products:  make(map[int64]*domain.Product),
		invoices:  make(map[int64]*domain.Invoice),
	}
}

func (f *fakeStores) GetByOwner(_ context.Context, ownerUserID int64) (*domain.Shop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ownerUserID != f.shop.OwnerUserID {
		return nil, ports.ErrNotFound
	}
	shop := f.shop
	return &shop, nil
}

type customerStore struct{ *fakeStores }

func (f customerStore) GetByID(_ context.Context, shopID, id int64) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[id]
	if !ok || c.ShopID != shopID {
		return nil, ports.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

type productStore struct{ *fakeStores }

func (f productStore) GetByID(_ context.Context, shopID, id int64) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok || p.ShopID != shopID {
		return nil, ports.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

type invoiceStore struct{ *fakeStores }

func (f invoiceStore) Create(_ context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	inv.InvoiceNumber = domain.FormatInvoiceNumber(f.shop.InvoicePrefix, f.shop.NextInvoiceNumber)
	f.shop.NextInvoiceNumber++

	f.nextID++
	inv.ID = f.nextID
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt

	for _, item := range inv.Items {
		if item.ProductID == nil {
			continue
		}
		if p, ok := f.products[*item.ProductID]; ok {
			p.ReduceStock(item.Quantity)
		}
	}
	if inv.CustomerID != nil {
		if c, ok := f.customers[*inv.CustomerID]; ok {
			c.TotalPurchases = c.TotalPurchases.Add(inv.TotalAmount)
			c.TotalInvoices++
		}
	}

	stored := *inv
	f.invoices[inv.ID] = &stored
	return inv, nil
}

func (f invoiceStore) GetByID(_ context.Context, shopID, id int64) (*domain.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok || inv.ShopID != shopID {
		return nil, ports.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f invoiceStore) List(_ context.Context, shopID int64, params ports.ListInvoicesParams) (*ports.InvoicePage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Invoice
	for _, inv := range f.invoices {
		if inv.ShopID != shopID {
			continue
		}
		if params.Status == nil && inv.CancelledAt != nil {
			continue
		}
		if params.Status != nil && inv.PaymentStatus != *params.Status {
			continue
		}
		out = append(out, *inv)
	}
	return &ports.InvoicePage{Invoices: out, TotalElements: int64(len(out))}, nil
}

func (f invoiceStore) UpdatePayment(_ context.Context, inv *domain.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.invoices[inv.ID]
	if !ok || stored.ShopID != inv.ShopID {
		return ports.ErrNotFound
	}
	stored.PaidAmount = inv.PaidAmount
	stored.PaymentStatus = inv.PaymentStatus
	stored.PaymentMethod = inv.PaymentMethod
	return nil
}

func (f invoiceStore) Cancel(_ context.Context, inv *domain.Invoice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.invoices[inv.ID]
	if !ok || stored.ShopID != inv.ShopID {
		return ports.ErrNotFound
	}
	if stored.CancelledAt != nil {
		return domain.ErrAlreadyCancelled
	}
	for _, item := range stored.Items {
		if item.ProductID == nil {
			continue
		}
		if p, ok := f.products[*item.ProductID]; ok {
			p.AddStock(item.Quantity)
		}
	}
	stored.PaymentStatus = inv.PaymentStatus
	stored.CancelledAt = inv.CancelledAt
	return nil
}

func newTestService(f *fakeStores) InvoiceService {
	return InvoiceService{
		Shops:     f,
		Customers: customerStore{f},
		Products:  productStore{f},
		Invoices:  invoiceStore{f},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func seedProduct(f *fakeStores, id int64, price string, stock int) {
	f.products[id] = &domain.Product{
		ID:             id,
		ShopID:         f.shop.ID,
		Name:           fmt.Sprintf("Product %d", id),
		Description:    "desc",
		Unit:           "pcs",
		SellingPrice:   dec(price),
		TrackInventory: true,
		CurrentStock:   stock,
	}
}

func TestCreateInvoice(t *testing.T) {
	f := newFakeStores()
	seedProduct(f, 1, "500.00", 10)
	seedProduct(f, 2, "100.00", 5)
	f.customers[7] = &domain.Customer{ID: 7, ShopID: 1, Name: "Asha"}
	svc := newTestService(f)

	customerID := int64(7)
	inv, err := svc.Create(context.Background(), 10, CreateInvoiceInput{
		CustomerID:     &customerID,
		DiscountAmount: dec("100"),
		Items: []InvoiceItemInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "INV-00001", inv.InvoiceNumber)
	assert.Equal(t, domain.PaymentPending, inv.PaymentStatus)
	assert.True(t, inv.Subtotal.Equal(dec("1100")), "subtotal %s", inv.Subtotal)
	assert.True(t, inv.TaxAmount.Equal(dec("180.00")), "tax %s", inv.TaxAmount)
	assert.True(t, inv.TotalAmount.Equal(dec("1180.00")), "total %s", inv.TotalAmount)

	// Snapshots carry the product's name and price at sale time.
	require.Len(t, inv.Items, 2)
	assert.Equal(t, "Product 1", inv.Items[0].ProductName)
	assert.True(t, inv.Items[0].UnitPrice.Equal(dec("500.00")))
	assert.Equal(t, "pcs", inv.Items[0].Unit)

	// Stock decremented for tracked products.
	assert.Equal(t, 8, f.products[1].CurrentStock)
	assert.Equal(t, 4, f.products[2].CurrentStock)

	// Customer aggregates bumped.
	assert.True(t, f.customers[7].TotalPurchases.Equal(dec("1180.00")))
	assert.Equal(t, int64(1), f.customers[7].TotalInvoices)
}

func TestCreateInvoicePriceOverride(t *testing.T) {
	f := newFakeStores()
	seedProduct(f, 1, "500.00", 10)
	svc := newTestService(f)

	override := dec("450.00")
	inv, err := svc.Create(context.Background(), 10, CreateInvoiceInput{
		Items: []InvoiceItemInput{{ProductID: 1, Quantity: 1, UnitPrice: &override}},
	})
	require.NoError(t, err)
	assert.True(t, inv.Items[0].UnitPrice.Equal(override))
	assert.True(t, inv.Subtotal.Equal(override))
}

func TestCreateInvoiceMarkAsPaid(t *testing.T) {
	f := newFakeStores()
	seedProduct(f, 1, "200.00", 3)
	svc := newTestService(f)

	method := domain.MethodCash
	inv, err := svc.Create(context.Background(), 10, CreateInvoiceInput{
		Items:         []InvoiceItemInput{{ProductID: 1, Quantity: 1}},
		PaymentMethod: &method,
		MarkAsPaid:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, inv.PaymentStatus)
	assert.True(t, inv.PaidAmount.Equal(inv.TotalAmount))
	assert.True(t, inv.BalanceDue().IsZero())
}

func TestCreateInvoiceValidation(t *testing.T) {
	f := newFakeStores()
	seedProduct(f, 1, "10.00", 1)
	svc := newTestService(f)

	_, err := svc.Create(context.Background(), 10, CreateInvoiceInput{})
	assert.ErrorIs(t, err, ErrNoItems)

	_, err = svc.Create(context.Background(), 10, CreateInvoiceInput{
		Items: []InvoiceItemInput{{ProductID: 1, Quantity: 0}},
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Create(context.Background(), 10, CreateInvoiceInput{
		Items: []InvoiceItemInput{{ProductID: 99, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestCreateInvoiceCrossTenant(t *testing.T) {
	f := newFakeStores()
	// Product exists but belongs to another shop.
	f.products[1] = &domain.Product{ID: 1, ShopID: 99, SellingPrice: dec("10")}
	svc := newTestService(f)

	_, err := svc.Create(context.Background(), 10, CreateInvoiceInput{
		Items: []InvoiceItemInput{{ProductID: 1, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ports.ErrNotFound, "cross-tenant reads look like missing records")

	// Unknown owner cannot reach anything either.
	_, err = svc.Get(context.Background(), 55, 1)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRecordPaymentTransitions(t *testing.T) {
	f := newFakeStores()
	seedProduct(f, 1, "1000.00", 2)
	svc := newTestService(f)
	ctx := context.Background()

	inv, err := svc.Create(ctx, 10, CreateInvoiceInput{
		Items: []InvoiceItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	inv, err = svc.RecordPayment(ctx, 10, inv.ID, dec("500"), domain.MethodUPI)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPartial, inv.PaymentStatus)

	inv, err = svc.RecordPayment(ctx, 10, inv.ID, dec("800"), domain.MethodCard)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, inv.PaymentStatus)
	assert.True(t, inv.BalanceDue().IsNegative(), "overpayment accepted")

	_, err = svc.MarkPaid(ctx, 10, inv.ID, domain.MethodCash)
	assert.ErrorIs(t, err, domain.ErrAlreadyPaid)
}

func TestCancelRestoresStockOnce(t *testing.T) {
	f := newFakeStores()
	seedProduct(f, 1, "50.00", 10)
	f.products[2] = &domain.Product{
		ID: 2, ShopID: 1, Name: "Service", Unit: "hr",
		SellingPrice: dec("200.00"), TrackInventory: false, CurrentStock: 0,
	}
	svc := newTestService(f)
	ctx := context.Background()

	inv, err := svc.Create(ctx, 10, CreateInvoiceInput{
		Items: []InvoiceItemInput{
			{ProductID: 1, Quantity: 4},
			{ProductID: 2, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, f.products[1].CurrentStock)
	assert.Equal(t, 0, f.products[2].CurrentStock, "untracked stock never moves")

	cancelled, err := svc.Cancel(ctx, 10, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCancelled, cancelled.PaymentStatus)
	assert.Equal(t, 10, f.products[1].CurrentStock, "stock restored")
	assert.Equal(t, 0, f.products[2].CurrentStock)

	_, err = svc.Cancel(ctx, 10, inv.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	assert.Equal(t, 10, f.products[1].CurrentStock, "repeat cancel never restores twice")
}

func TestCancelledInvoiceRejectsPayments(t *testing.T) {
	f := newFakeStores()
	seedProduct(f, 1, "50.00", 10)
	svc := newTestService(f)
	ctx := context.Background()

	inv, err := svc.Create(ctx, 10, CreateInvoiceInput{
		Items: []InvoiceItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, 10, inv.ID)
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, 10, inv.ID, dec("10"), domain.MethodCash)
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	_, err = svc.MarkPaid(ctx, 10, inv.ID, domain.MethodCash)
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
}

func TestListExcludesCancelledByDefault(t *testing.T) {
	f := newFakeStores()
	seedProduct(f, 1, "50.00", 100)
	svc := newTestService(f)
	ctx := context.Background()

	first, err := svc.Create(ctx, 10, CreateInvoiceInput{
		Items: []InvoiceItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, 10, CreateInvoiceInput{
		Items: []InvoiceItemInput{{ProductID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, 10, first.ID)
	require.NoError(t, err)

	page, err := svc.List(ctx, 10, ports.ListInvoicesParams{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalElements)

	status := domain.PaymentCancelled
	page, err = svc.List(ctx, 10, ports.ListInvoicesParams{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalElements, "explicit status filter surfaces cancelled invoices")

	// Cancelled invoices stay reachable by id.
	got, err := svc.Get(ctx, 10, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCancelled, got.PaymentStatus)
}

func TestConcurrentCreatesAllocateUniqueNumbers(t *testing.T) {
	f := newFakeStores()
	seedProduct(f, 1, "10.00", 1000)
	svc := newTestService(f)

	const n = 50
	numbers := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, err := svc.Create(context.Background(), 10, CreateInvoiceInput{
				Items: []InvoiceItemInput{{ProductID: 1, Quantity: 1}},
			})
			if err != nil {
				t.Error(err)
				return
			}
			numbers <- inv.InvoiceNumber
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for num := range numbers {
		assert.False(t, seen[num], "duplicate invoice number %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, 1000-n, f.products[1].CurrentStock)
}
