package repository

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	domainRepo "github.com/sangkips/bookshop-pos/internal/domain/repository"
)

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB) domainRepo.ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) SalesTotals(ctx context.Context, from, to time.Time) (*domainRepo.SalesTotals, error) {
	var totals domainRepo.SalesTotals
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS bill_count,
			COALESCE(SUM(subtotal), 0) AS gross_sales,
			COALESCE(SUM(total), 0) AS net_sales,
			COALESCE(SUM(discount), 0) AS discount,
			COALESCE(SUM(tax), 0) AS tax,
			COALESCE(SUM(delivery_charge), 0) AS delivery_charge,
			COALESCE(SUM(units_consumed), 0) AS units_sold,
			COUNT(DISTINCT customer_id) AS unique_customers
		FROM bills
		WHERE status IN ? AND bill_date >= ? AND bill_date < ?
	`, domainRepo.SettledStatuses(), from, to).Scan(&totals).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "sales totals")
	}
	return &totals, nil
}

func (r *reportRepository) TopBooks(ctx context.Context, from, to time.Time, limit int) ([]domainRepo.TopBookResult, error) {
	var results []domainRepo.TopBookResult
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			bi.book_id AS book_id,
			MAX(bi.title) AS title,
			COALESCE(SUM(bi.quantity), 0) AS quantity_sold,
			COALESCE(SUM(bi.total), 0) AS revenue
		FROM bill_items bi
		JOIN bills b ON b.id = bi.bill_id
		WHERE b.status IN ? AND b.bill_date >= ? AND b.bill_date < ?
		GROUP BY bi.book_id
		ORDER BY quantity_sold DESC, revenue DESC
		LIMIT ?
	`, domainRepo.SettledStatuses(), from, to, limit).Scan(&results).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "top books")
	}
	return results, nil
}

func (r *reportRepository) SalesByCashier(ctx context.Context, from, to time.Time) ([]domainRepo.CashierSalesResult, error) {
	var results []domainRepo.CashierSalesResult
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			b.cashier_id AS cashier_id,
			u.full_name AS cashier_name,
			COUNT(*) AS bill_count,
			COALESCE(SUM(b.total), 0) AS total
		FROM bills b
		JOIN users u ON u.id = b.cashier_id
		WHERE b.status IN ? AND b.bill_date >= ? AND b.bill_date < ?
		GROUP BY b.cashier_id, u.full_name
		ORDER BY total DESC
	`, domainRepo.SettledStatuses(), from, to).Scan(&results).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "sales by cashier")
	}
	return results, nil
}
