package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/thomasmartinoa/billing-app/internal/db"
	"github.com/thomasmartinoa/billing-app/internal/domain"
	"github.com/thomasmartinoa/billing-app/internal/ports"
)

type CategoryRepository struct {
	DB *db.Postgres
}

func (r CategoryRepository) List(ctx context.Context, shopID int64) ([]domain.Category, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, shop_id, name, created_at, updated_at
		FROM categories
		WHERE deleted_at IS NULL AND shop_id=$1
		ORDER BY name ASC
	`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.ShopID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r CategoryRepository) Get(ctx context.Context, shopID, id int64) (*domain.Category, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT id, shop_id, name, created_at, updated_at
		FROM categories
		WHERE id=$1 AND shop_id=$2 AND deleted_at IS NULL
	`, id, shopID)
	var c domain.Category
	if err := row.Scan(&c.ID, &c.ShopID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r CategoryRepository) Create(ctx context.Context, shopID int64, name string) (*domain.Category, error) {
	var c domain.Category
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO categories (shop_id, name, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		RETURNING id, shop_id, name, created_at, updated_at
	`, shopID, name).Scan(&c.ID, &c.ShopID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r CategoryRepository) Update(ctx context.Context, shopID, id int64, name string) (*domain.Category, error) {
	var c domain.Category
	err := r.DB.Pool.QueryRow(ctx, `
		UPDATE categories
		SET name=$1, updated_at=now()
		WHERE id=$2 AND shop_id=$3 AND deleted_at IS NULL
		RETURNING id, shop_id, name, created_at, updated_at
	`, name, id, shopID).Scan(&c.ID, &c.ShopID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r CategoryRepository) Delete(ctx context.Context, shopID, id int64) error {
	ct, err := r.DB.Pool.Exec(ctx, `
		UPDATE categories SET deleted_at = now() WHERE id=$1 AND shop_id=$2 AND deleted_at IS NULL
	`, id, shopID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}
