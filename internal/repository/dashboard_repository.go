package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/thomasmartinoa/billing-app/internal/db"
)

type DashboardRepository struct {
	DB *db.Postgres
}

// DashboardStats aggregates a shop's headline numbers. Sales figures cover
// active, non-cancelled invoices only.
type DashboardStats struct {
	TotalCustomers  int64
	TotalProducts   int64
	TotalInvoices   int64
	LowStockCount   int64
	TotalSales      decimal.Decimal
	TodaySales      decimal.Decimal
	ThisMonthSales  decimal.Decimal
	PendingInvoices int64
	PaidInvoices    int64
}

func (r DashboardRepository) Stats(ctx context.Context, shopID int64) (DashboardStats, error) {
	var s DashboardStats

	err := r.DB.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM customers WHERE shop_id=$1 AND deleted_at IS NULL),
			(SELECT COUNT(*) FROM products  WHERE shop_id=$1 AND deleted_at IS NULL),
			(SELECT COUNT(*) FROM invoices  WHERE shop_id=$1 AND deleted_at IS NULL),
			(SELECT COUNT(*) FROM products
			   WHERE shop_id=$1 AND deleted_at IS NULL
			     AND track_inventory AND current_stock <= low_stock_alert)
	`, shopID).Scan(&s.TotalCustomers, &s.TotalProducts, &s.TotalInvoices, &s.LowStockCount)
	if err != nil {
		return s, err
	}

	err = r.DB.Pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(total_amount), 0),
			COALESCE(SUM(total_amount) FILTER (WHERE invoice_date::date = CURRENT_DATE), 0),
			COALESCE(SUM(total_amount) FILTER (WHERE invoice_date >= date_trunc('month', CURRENT_DATE)), 0),
			COUNT(*) FILTER (WHERE payment_status = 'PENDING'),
			COUNT(*) FILTER (WHERE payment_status = 'PAID')
		FROM invoices
		WHERE shop_id=$1 AND deleted_at IS NULL AND cancelled_at IS NULL
	`, shopID).Scan(&s.TotalSales, &s.TodaySales, &s.ThisMonthSales, &s.PendingInvoices, &s.PaidInvoices)
	return s, err
}
