package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/thomasmartinoa/billing-app/internal/db"
	"github.com/thomasmartinoa/billing-app/internal/domain"
	"github.com/thomasmartinoa/billing-app/internal/ports"
)

// InvoiceRepository implements ports.InvoiceStore on Postgres.
type InvoiceRepository struct {
	DB *db.Postgres
}

// Create persists the invoice in one transaction: it allocates the shop's
// next sequence number (the UPDATE takes the shop row lock, so concurrent
// creates serialize and can never share a number), inserts the invoice and
// its items, decrements stock for tracked products and bumps the customer's
// purchase aggregates. A failed attempt rolls everything back; the skipped
// sequence value is an acceptable gap.
func (r InvoiceRepository) Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var seq int64
	var prefix string
	err = tx.QueryRow(ctx, `
		UPDATE shops
		SET next_invoice_number = next_invoice_number + 1, updated_at = now()
		WHERE id=$1 AND deleted_at IS NULL
		RETURNING next_invoice_number - 1, invoice_prefix
	`, inv.ShopID).Scan(&seq, &prefix)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("allocate invoice number: %w", err)
	}
	inv.InvoiceNumber = domain.FormatInvoiceNumber(prefix, seq)

	err = tx.QueryRow(ctx, `
		INSERT INTO invoices
		(shop_id, customer_id, invoice_number, invoice_date, due_date,
		 subtotal, discount_amount, discount_percentage, tax_rate, tax_amount,
		 total_amount, paid_amount, payment_status, payment_method, notes,
		 created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15, now(), now())
		RETURNING id, created_at, updated_at
	`, inv.ShopID, inv.CustomerID, inv.InvoiceNumber, inv.InvoiceDate, inv.DueDate,
		inv.Subtotal, inv.DiscountAmount, inv.DiscountPercentage, inv.TaxRate, inv.TaxAmount,
		inv.TotalAmount, inv.PaidAmount, inv.PaymentStatus, paymentMethodParam(inv.PaymentMethod), inv.Notes).
		Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}

	for i := range inv.Items {
		item := &inv.Items[i]
		item.InvoiceID = inv.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO invoice_items
			(invoice_id, product_id, product_name, description, quantity, unit,
			 unit_price, discount_amount, line_total, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now())
			RETURNING id, created_at
		`, item.InvoiceID, item.ProductID, item.ProductName, item.Description, item.Quantity,
			item.Unit, item.UnitPrice, item.DiscountAmount, item.LineTotal).
			Scan(&item.ID, &item.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert invoice item: %w", err)
		}

		// Oversell is permitted: no floor on current_stock.
		if item.ProductID != nil {
			_, err = tx.Exec(ctx, `
				UPDATE products
				SET current_stock = current_stock - $1, updated_at = now()
				WHERE id=$2 AND shop_id=$3 AND track_inventory AND deleted_at IS NULL
			`, item.Quantity, *item.ProductID, inv.ShopID)
			if err != nil {
				return nil, fmt.Errorf("reduce stock: %w", err)
			}
		}
	}

	if inv.CustomerID != nil {
		_, err = tx.Exec(ctx, `
			UPDATE customers
			SET total_invoices = total_invoices + 1,
				total_purchases = total_purchases + $1,
				updated_at = now()
			WHERE id=$2 AND shop_id=$3 AND deleted_at IS NULL
		`, inv.TotalAmount, *inv.CustomerID, inv.ShopID)
		if err != nil {
			return nil, fmt.Errorf("update customer aggregates: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return inv, nil
}

const invoiceColumns = `
	i.id, i.shop_id, i.customer_id, i.invoice_number, i.invoice_date, i.due_date,
	i.subtotal, i.discount_amount, i.discount_percentage, i.tax_rate, i.tax_amount,
	i.total_amount, i.paid_amount, i.payment_status, i.payment_method, i.notes,
	i.cancelled_at, i.created_at, i.updated_at`

func (r InvoiceRepository) GetByID(ctx context.Context, shopID, id int64) (*domain.Invoice, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT`+invoiceColumns+`
		FROM invoices i
		WHERE i.id=$1 AND i.shop_id=$2 AND i.deleted_at IS NULL
	`, id, shopID)

	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}

	if err := r.loadItems(ctx, map[int64]*domain.Invoice{inv.ID: inv}); err != nil {
		return nil, err
	}
	if err := r.loadCustomers(ctx, shopID, map[int64]*domain.Invoice{inv.ID: inv}); err != nil {
		return nil, err
	}
	return inv, nil
}

// List returns one page of the shop's invoices, newest invoice date first.
// Without an explicit status filter cancelled invoices are excluded; search
// matches invoice number or customer name case-insensitively.
func (r InvoiceRepository) List(ctx context.Context, shopID int64, params ports.ListInvoicesParams) (*ports.InvoicePage, error) {
	where := []string{"i.shop_id=$1", "i.deleted_at IS NULL"}
	args := []any{shopID}

	if params.Status != nil {
		args = append(args, string(*params.Status))
		where = append(where, fmt.Sprintf("i.payment_status=$%d", len(args)))
	} else {
		where = append(where, "i.cancelled_at IS NULL")
	}
	if s := strings.TrimSpace(params.Search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf(
			"(i.invoice_number ILIKE $%d OR EXISTS (SELECT 1 FROM customers c WHERE c.id = i.customer_id AND c.name ILIKE $%d))",
			len(args), len(args)))
	}
	if params.DateFrom != nil {
		args = append(args, *params.DateFrom)
		where = append(where, fmt.Sprintf("i.invoice_date >= $%d", len(args)))
	}
	if params.DateTo != nil {
		args = append(args, params.DateTo.AddDate(0, 0, 1))
		where = append(where, fmt.Sprintf("i.invoice_date < $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices i WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, err
	}

	args = append(args, params.Size, params.Page*params.Size)
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT`+invoiceColumns+`
		FROM invoices i
		WHERE `+cond+`
		ORDER BY i.invoice_date DESC, i.id DESC
		LIMIT $`+fmt.Sprint(len(args)-1)+` OFFSET $`+fmt.Sprint(len(args)),
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int64]*domain.Invoice)
	var invoices []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range invoices {
		byID[invoices[i].ID] = &invoices[i]
	}

	if err := r.loadItems(ctx, byID); err != nil {
		return nil, err
	}
	if err := r.loadCustomers(ctx, shopID, byID); err != nil {
		return nil, err
	}

	return &ports.InvoicePage{Invoices: invoices, TotalElements: total}, nil
}

// UpdatePayment persists paid amount, status and method after a payment
// operation. The row must still belong to the caller's shop.
func (r InvoiceRepository) UpdatePayment(ctx context.Context, inv *domain.Invoice) error {
	ct, err := r.DB.Pool.Exec(ctx, `
		UPDATE invoices
		SET paid_amount=$1, payment_status=$2, payment_method=$3, updated_at=now()
		WHERE id=$4 AND shop_id=$5 AND deleted_at IS NULL
	`, inv.PaidAmount, inv.PaymentStatus, paymentMethodParam(inv.PaymentMethod), inv.ID, inv.ShopID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// Cancel restores stock for every item whose product still tracks inventory
// and deactivates the invoice, all in one transaction. The customer's
// purchase aggregates are deliberately left untouched.
func (r InvoiceRepository) Cancel(ctx context.Context, inv *domain.Invoice) error {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE products p
		SET current_stock = p.current_stock + ii.quantity, updated_at = now()
		FROM invoice_items ii
		WHERE ii.invoice_id=$1
		  AND ii.product_id = p.id
		  AND p.shop_id=$2
		  AND p.track_inventory
		  AND p.deleted_at IS NULL
	`, inv.ID, inv.ShopID)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}

	ct, err := tx.Exec(ctx, `
		UPDATE invoices
		SET payment_status=$1, cancelled_at=now(), updated_at=now()
		WHERE id=$2 AND shop_id=$3 AND cancelled_at IS NULL AND deleted_at IS NULL
	`, domain.PaymentCancelled, inv.ID, inv.ShopID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrAlreadyCancelled
	}

	return tx.Commit(ctx)
}

func (r InvoiceRepository) loadItems(ctx context.Context, byID map[int64]*domain.Invoice) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	rows, err := r.DB.Pool.Query(ctx, `
		SELECT invoice_id, id, product_id, product_name, description, quantity, unit,
		       unit_price, discount_amount, line_total, created_at
		FROM invoice_items
		WHERE invoice_id = ANY($1)
		ORDER BY id ASC
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.InvoiceItem
		var invoiceID int64
		var productID pgtype.Int8
		if err := rows.Scan(&invoiceID, &it.ID, &productID, &it.ProductName, &it.Description,
			&it.Quantity, &it.Unit, &it.UnitPrice, &it.DiscountAmount, &it.LineTotal, &it.CreatedAt); err != nil {
			return err
		}
		if productID.Valid {
			it.ProductID = &productID.Int64
		}
		it.InvoiceID = invoiceID
		if inv, ok := byID[invoiceID]; ok {
			inv.Items = append(inv.Items, it)
		}
	}
	return rows.Err()
}

func (r InvoiceRepository) loadCustomers(ctx context.Context, shopID int64, byID map[int64]*domain.Invoice) error {
	need := make(map[int64][]*domain.Invoice)
	for _, inv := range byID {
		if inv.CustomerID != nil {
			need[*inv.CustomerID] = append(need[*inv.CustomerID], inv)
		}
	}
	if len(need) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(need))
	for id := range need {
		ids = append(ids, id)
	}

	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, shop_id, name, phone, email, address, gst_number,
		       total_purchases, total_invoices, created_at, updated_at
		FROM customers
		WHERE id = ANY($1) AND shop_id=$2
	`, ids, shopID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.ShopID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.GSTNumber,
			&c.TotalPurchases, &c.TotalInvoices, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return err
		}
		for _, inv := range need[c.ID] {
			cc := c
			inv.Customer = &cc
		}
	}
	return rows.Err()
}

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var inv domain.Invoice
	var customerID pgtype.Int8
	var dueDate, cancelledAt pgtype.Timestamptz
	var status string
	var method pgtype.Text
	if err := row.Scan(
		&inv.ID, &inv.ShopID, &customerID, &inv.InvoiceNumber, &inv.InvoiceDate, &dueDate,
		&inv.Subtotal, &inv.DiscountAmount, &inv.DiscountPercentage, &inv.TaxRate, &inv.TaxAmount,
		&inv.TotalAmount, &inv.PaidAmount, &status, &method, &inv.Notes,
		&cancelledAt, &inv.CreatedAt, &inv.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if customerID.Valid {
		inv.CustomerID = &customerID.Int64
	}
	if dueDate.Valid {
		d := dueDate.Time
		inv.DueDate = &d
	}
	if cancelledAt.Valid {
		c := cancelledAt.Time
		inv.CancelledAt = &c
	}
	inv.PaymentStatus = domain.PaymentStatus(status)
	if method.Valid {
		m := domain.PaymentMethod(method.String)
		inv.PaymentMethod = &m
	}
	return &inv, nil
}

func paymentMethodParam(m *domain.PaymentMethod) *string {
	if m == nil {
		return nil
	}
	s := string(*m)
	return &s
}
