package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/thomasmartinoa/billing-app/internal/db"
	"github.com/thomasmartinoa/billing-app/internal/domain"
	"github.com/thomasmartinoa/billing-app/internal/ports"
)

// CustomerRepository implements ports.CustomerStore plus the customer CRUD.
// The running purchase aggregates are written only by invoice creation.
type CustomerRepository struct {
	DB *db.Postgres
}

const customerColumns = `
	id, shop_id, name, phone, email, address, gst_number,
	total_purchases, total_invoices, created_at, updated_at`

func (r CustomerRepository) GetByID(ctx context.Context, shopID, id int64) (*domain.Customer, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT`+customerColumns+`
		FROM customers
		WHERE id=$1 AND shop_id=$2 AND deleted_at IS NULL
	`, id, shopID)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r CustomerRepository) List(ctx context.Context, shopID int64, page, size int, search string) ([]domain.Customer, int64, error) {
	where := []string{"shop_id=$1", "deleted_at IS NULL"}
	args := []any{shopID}
	if s := strings.TrimSpace(search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR phone ILIKE $%d)", len(args), len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, size, page*size)
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT`+customerColumns+`
		FROM customers
		WHERE `+cond+`
		ORDER BY name ASC, id ASC
		LIMIT $`+fmt.Sprint(len(args)-1)+` OFFSET $`+fmt.Sprint(len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []domain.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *c)
	}
	return items, total, rows.Err()
}

func (r CustomerRepository) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO customers
		(shop_id, name, phone, email, address, gst_number, total_purchases, total_invoices, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6, 0, 0, now(), now())
		RETURNING`+customerColumns+`
	`, c.ShopID, c.Name, c.Phone, c.Email, c.Address, c.GSTNumber)
	return scanCustomer(row)
}

func (r CustomerRepository) Update(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE customers
		SET name=$1, phone=$2, email=$3, address=$4, gst_number=$5, updated_at=now()
		WHERE id=$6 AND shop_id=$7 AND deleted_at IS NULL
		RETURNING`+customerColumns+`
	`, c.Name, c.Phone, c.Email, c.Address, c.GSTNumber, c.ID, c.ShopID)
	out, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func (r CustomerRepository) Delete(ctx context.Context, shopID, id int64) error {
	ct, err := r.DB.Pool.Exec(ctx, `
		UPDATE customers SET deleted_at = now() WHERE id=$1 AND shop_id=$2 AND deleted_at IS NULL
	`, id, shopID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	if err := row.Scan(
		&c.ID, &c.ShopID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.GSTNumber,
		&c.TotalPurchases, &c.TotalInvoices, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
