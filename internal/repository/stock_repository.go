package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/thomasmartinoa/billing-app/internal/db"
	"github.com/thomasmartinoa/billing-app/internal/domain"
	"github.com/thomasmartinoa/billing-app/internal/ports"
)

// StockRepository applies manual stock corrections to products and keeps the
// movement audit trail. Invoice creation and cancellation adjust stock through
// InvoiceRepository; this covers everything done by hand.
type StockRepository struct {
	DB *db.Postgres
}

type AdjustStockInput struct {
	ProductID int64
	Change    int
	Type      string
	Reason    string
}

func (r StockRepository) Adjust(ctx context.Context, shopID int64, in AdjustStockInput) (*domain.Product, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var current int
	err = tx.QueryRow(ctx, `
		SELECT current_stock
		FROM products
		WHERE id=$1 AND shop_id=$2 AND track_inventory AND deleted_at IS NULL
		FOR UPDATE
	`, in.ProductID, shopID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}

	change := in.Change
	switch strings.ToLower(strings.TrimSpace(in.Type)) {
	case "reduce":
		if change > 0 {
			change = -change
		}
	case "recount":
		// Change carries the absolute counted stock.
		if change < 0 {
			change = 0
		}
		change = change - current
	}
	remaining := current + change
	if remaining < 0 {
		remaining = 0
		change = remaining - current
	}

	row := tx.QueryRow(ctx, `
		UPDATE products
		SET current_stock=$1, updated_at=now()
		WHERE id=$2 AND shop_id=$3
		RETURNING`+productColumns+`
	`, remaining, in.ProductID, shopID)
	product, err := scanProduct(row)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO stock_movements (shop_id, product_id, change, remaining, movement_type, reason, created_at)
		VALUES ($1,$2,$3,$4,$5,$6, now())
	`, shopID, in.ProductID, change, remaining, in.Type, in.Reason); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return product, nil
}

func (r StockRepository) History(ctx context.Context, shopID, productID int64, limit int) ([]domain.StockMovement, error) {
	var exists bool
	if err := r.DB.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM products WHERE id=$1 AND shop_id=$2 AND deleted_at IS NULL
		)
	`, productID, shopID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ports.ErrNotFound
	}

	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, shop_id, product_id, change, remaining, movement_type, reason, created_at
		FROM stock_movements
		WHERE shop_id=$1 AND product_id=$2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, shopID, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.StockMovement
	for rows.Next() {
		var m domain.StockMovement
		if err := rows.Scan(&m.ID, &m.ShopID, &m.ProductID, &m.Change, &m.Remaining, &m.MovementType, &m.Reason, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
