package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/thomasmartinoa/billing-app/internal/db"
	"github.com/thomasmartinoa/billing-app/internal/domain"
	"github.com/thomasmartinoa/billing-app/internal/ports"
)

// ShopRepository implements ports.ShopStore. One shop per owner; the unique
// index on owner_user_id enforces it.
type ShopRepository struct {
	DB *db.Postgres
}

const shopColumns = `
	id, owner_user_id, shop_name, shop_type, tagline, address, phone_number,
	email, website, gst_number, currency, tax_rate, invoice_prefix,
	next_invoice_number, include_tax_in_price, terms_and_conditions,
	footer_note, created_at, updated_at`

func (r ShopRepository) GetByOwner(ctx context.Context, ownerUserID int64) (*domain.Shop, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT`+shopColumns+`
		FROM shops
		WHERE owner_user_id=$1 AND deleted_at IS NULL
	`, ownerUserID)
	shop, err := scanShop(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return shop, nil
}

func (r ShopRepository) Create(ctx context.Context, s domain.Shop) (*domain.Shop, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO shops
		(owner_user_id, shop_name, shop_type, tagline, address, phone_number,
		 email, website, gst_number, currency, tax_rate, invoice_prefix,
		 next_invoice_number, include_tax_in_price, terms_and_conditions,
		 footer_note, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, 1, $13,$14,$15, now(), now())
		RETURNING`+shopColumns+`
	`, s.OwnerUserID, s.ShopName, s.ShopType, s.Tagline, s.Address, s.PhoneNumber,
		s.Email, s.Website, s.GSTNumber, s.Currency, s.TaxRate, s.InvoicePrefix,
		s.IncludeTaxInPrice, s.TermsAndConditions, s.FooterNote)
	return scanShop(row)
}

// Update changes profile and billing settings. The invoice sequence is owned
// by invoice creation and never written here.
func (r ShopRepository) Update(ctx context.Context, s domain.Shop) (*domain.Shop, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		UPDATE shops
		SET shop_name=$1, shop_type=$2, tagline=$3, address=$4, phone_number=$5,
			email=$6, website=$7, gst_number=$8, currency=$9, tax_rate=$10,
			invoice_prefix=$11, include_tax_in_price=$12, terms_and_conditions=$13,
			footer_note=$14, updated_at=now()
		WHERE owner_user_id=$15 AND deleted_at IS NULL
		RETURNING`+shopColumns+`
	`, s.ShopName, s.ShopType, s.Tagline, s.Address, s.PhoneNumber,
		s.Email, s.Website, s.GSTNumber, s.Currency, s.TaxRate,
		s.InvoicePrefix, s.IncludeTaxInPrice, s.TermsAndConditions,
		s.FooterNote, s.OwnerUserID)
	shop, err := scanShop(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return shop, nil
}

func scanShop(row pgx.Row) (*domain.Shop, error) {
	var s domain.Shop
	if err := row.Scan(
		&s.ID, &s.OwnerUserID, &s.ShopName, &s.ShopType, &s.Tagline, &s.Address, &s.PhoneNumber,
		&s.Email, &s.Website, &s.GSTNumber, &s.Currency, &s.TaxRate, &s.InvoicePrefix,
		&s.NextInvoiceNumber, &s.IncludeTaxInPrice, &s.TermsAndConditions,
		&s.FooterNote, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
