package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/thomasmartinoa/billing-app/internal/db"
	"github.com/thomasmartinoa/billing-app/internal/domain"
	"github.com/thomasmartinoa/billing-app/internal/ports"
)

// ProductRepository implements ports.ProductStore plus the product CRUD.
type ProductRepository struct {
	DB *db.Postgres
}

const productColumns = `
	id, shop_id, category_id, name, description, selling_price, cost_price,
	sku, barcode, unit, track_inventory, current_stock, low_stock_alert,
	image_url, created_at, updated_at`

func (r ProductRepository) GetByID(ctx context.Context, shopID, id int64) (*domain.Product, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT`+productColumns+`
		FROM products
		WHERE id=$1 AND shop_id=$2 AND deleted_at IS NULL
	`, id, shopID)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// List returns one page of products sorted by name, optionally filtered by a
// case-insensitive name/SKU substring.
func (r ProductRepository) List(ctx context.Context, shopID int64, page, size int, search string) ([]domain.Product, int64, error) {
	where := []string{"shop_id=$1", "deleted_at IS NULL"}
	args := []any{shopID}
	if s := strings.TrimSpace(search); s != "" {
		args = append(args, "%"+s+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d)", len(args), len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, size, page*size)
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT`+productColumns+`
		FROM products
		WHERE `+cond+`
		ORDER BY name ASC, id ASC
		LIMIT $`+fmt.Sprint(len(args)-1)+` OFFSET $`+fmt.Sprint(len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *p)
	}
	return items, total, rows.Err()
}

// ListLowStock returns tracked products at or below their alert level.
func (r ProductRepository) ListLowStock(ctx context.Context, shopID int64) ([]domain.Product, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT`+productColumns+`
		FROM products
		WHERE shop_id=$1 AND deleted_at IS NULL
		  AND track_inventory AND current_stock <= low_stock_alert
		ORDER BY current_stock ASC, name ASC
	`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

func (r ProductRepository) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO products
		(shop_id, category_id, name, description, selling_price, cost_price,
		 sku, barcode, unit, track_inventory, current_stock, low_stock_alert,
		 image_url, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13, now(), now())
		RETURNING`+productColumns+`
	`, p.ShopID, p.CategoryID, p.Name, p.Description, p.SellingPrice, p.CostPrice,
		p.SKU, p.Barcode, p.Unit, p.TrackInventory, p.CurrentStock, p.LowStockAlert, p.ImageURL)
	return scanProduct(row)
}

func (r ProductRepository) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE products
		SET category_id=$1, name=$2, description=$3, selling_price=$4, cost_price=$5,
			sku=$6, barcode=$7, unit=$8, track_inventory=$9, current_stock=$10,
			low_stock_alert=$11, image_url=$12, updated_at=now()
		WHERE id=$13 AND shop_id=$14 AND deleted_at IS NULL
		RETURNING`+productColumns+`
	`, p.CategoryID, p.Name, p.Description, p.SellingPrice, p.CostPrice,
		p.SKU, p.Barcode, p.Unit, p.TrackInventory, p.CurrentStock,
		p.LowStockAlert, p.ImageURL, p.ID, p.ShopID)
	out, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return out, nil
}

func (r ProductRepository) Delete(ctx context.Context, shopID, id int64) error {
	ct, err := r.DB.Pool.Exec(ctx, `
		UPDATE products SET deleted_at = now() WHERE id=$1 AND shop_id=$2 AND deleted_at IS NULL
	`, id, shopID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var categoryID pgtype.Int8
	var costPrice pgtype.Numeric
	if err := row.Scan(
		&p.ID, &p.ShopID, &categoryID, &p.Name, &p.Description, &p.SellingPrice, &costPrice,
		&p.SKU, &p.Barcode, &p.Unit, &p.TrackInventory, &p.CurrentStock, &p.LowStockAlert,
		&p.ImageURL, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if categoryID.Valid {
		p.CategoryID = &categoryID.Int64
	}
	if costPrice.Valid {
		cp := decimal.NewFromBigInt(costPrice.Int, costPrice.Exp)
		p.CostPrice = &cp
	}
	return &p, nil
}
