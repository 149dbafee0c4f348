package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	"github.com/sangkips/bookshop-pos/internal/domain/repository"
	"github.com/sangkips/bookshop-pos/pkg/apperror"
	"github.com/sangkips/bookshop-pos/pkg/pagination"
)

// ReportPeriod selects the window a sales report covers
type ReportPeriod string

const (
	PeriodDaily   ReportPeriod = "daily"
	PeriodWeekly  ReportPeriod = "weekly"
	PeriodMonthly ReportPeriod = "monthly"
	PeriodYearly  ReportPeriod = "yearly"
)

const (
	topBooksLimit    = 10
	recentBillsLimit = 10
	trendDays        = 7
)

// ParseReportPeriod accepts daily, weekly, monthly or yearly in any case
func ParseReportPeriod(s string) (ReportPeriod, error) {
	switch p := ReportPeriod(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return p, nil
	}
	return "", apperror.NewFieldError("type", "must be one of daily, weekly, monthly, yearly")
}

// Range returns [from, to) of the period containing t. Weeks start on Monday.
func (p ReportPeriod) Range(t time.Time) (time.Time, time.Time) {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	switch p {
	case PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		from := day.AddDate(0, 0, -offset)
		return from, from.AddDate(0, 0, 7)
	case PeriodMonthly:
		from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		return from, from.AddDate(0, 1, 0)
	case PeriodYearly:
		from := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
		return from, from.AddDate(1, 0, 0)
	default:
		return day, day.AddDate(0, 0, 1)
	}
}

// SalesReport summarises settled bills over a period
type SalesReport struct {
	Period      ReportPeriod                    `json:"period"`
	From        time.Time                       `json:"from"`
	To          time.Time                       `json:"to"`
	Totals      repository.SalesTotals          `json:"totals"`
	TopBooks    []repository.TopBookResult      `json:"top_books"`
	ByCashier   []repository.CashierSalesResult `json:"by_cashier"`
	RecentBills []entity.Bill                   `json:"recent_bills"`
}

// DailySalesPoint is one day of the dashboard trend
type DailySalesPoint struct {
	Date      string          `json:"date"`
	BillCount int64           `json:"bill_count"`
	Sales     decimal.Decimal `json:"sales"`
}

// DashboardStats represents dashboard statistics
type DashboardStats struct {
	TodayBills         int64                           `json:"today_bills"`
	TodaySales         decimal.Decimal                 `json:"today_sales"`
	TodayCustomers     int64                           `json:"today_customers"`
	LowStockCount      int64                           `json:"low_stock_count"`
	LowStockThreshold  int                             `json:"low_stock_threshold"`
	PendingCollections int64                           `json:"pending_collections"`
	PendingBills       int64                           `json:"pending_bills"`
	CashierTotals      []repository.CashierSalesResult `json:"cashier_totals"`
	DailySalesData     []DailySalesPoint               `json:"daily_sales_data"`
}

// ReportService builds sales reports and the dashboard
type ReportService struct {
	reportRepo repository.ReportRepository
	billRepo   repository.BillRepository
	bookRepo   repository.BookRepository
	settings   *SettingsService
	now        func() time.Time
}

// NewReportService creates a new report service
func NewReportService(
	reportRepo repository.ReportRepository,
	billRepo repository.BillRepository,
	bookRepo repository.BookRepository,
	settings *SettingsService,
) *ReportService {
	return &ReportService{
		reportRepo: reportRepo,
		billRepo:   billRepo,
		bookRepo:   bookRepo,
		settings:   settings,
		now:        time.Now,
	}
}

func (s *ReportService) Daily(ctx context.Context) (*SalesReport, error) {
	return s.Report(ctx, PeriodDaily)
}

func (s *ReportService) Weekly(ctx context.Context) (*SalesReport, error) {
	return s.Report(ctx, PeriodWeekly)
}

func (s *ReportService) Monthly(ctx context.Context) (*SalesReport, error) {
	return s.Report(ctx, PeriodMonthly)
}

func (s *ReportService) Yearly(ctx context.Context) (*SalesReport, error) {
	return s.Report(ctx, PeriodYearly)
}

// Report builds the sales report of the current period
func (s *ReportService) Report(ctx context.Context, period ReportPeriod) (*SalesReport, error) {
	from, to := period.Range(s.now())

	totals, err := s.reportRepo.SalesTotals(ctx, from, to)
	if err != nil {
		return nil, persistenceError(err)
	}
	topBooks, err := s.reportRepo.TopBooks(ctx, from, to, topBooksLimit)
	if err != nil {
		return nil, persistenceError(err)
	}
	byCashier, err := s.reportRepo.SalesByCashier(ctx, from, to)
	if err != nil {
		return nil, persistenceError(err)
	}

	// bill_date filters are inclusive at both ends
	end := to.Add(-time.Nanosecond)
	recent, _, err := s.billRepo.List(ctx, &repository.BillFilterParams{
		BillFilter: repository.BillFilter{
			Statuses:  repository.SettledStatuses(),
			StartDate: &from,
			EndDate:   &end,
		},
		Pagination: &pagination.PaginationParams{Page: 1, PerPage: recentBillsLimit},
		SortBy:     "bill_date",
		SortOrder:  "desc",
	})
	if err != nil {
		return nil, persistenceError(err)
	}

	return &SalesReport{
		Period:      period,
		From:        from,
		To:          to,
		Totals:      *totals,
		TopBooks:    nonNil(topBooks),
		ByCashier:   nonNil(byCashier),
		RecentBills: nonNil(recent),
	}, nil
}

// Dashboard returns today's figures and a seven day sales trend
func (s *ReportService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	now := s.now()
	from, to := PeriodDaily.Range(now)

	today, err := s.reportRepo.SalesTotals(ctx, from, to)
	if err != nil {
		return nil, persistenceError(err)
	}
	cashiers, err := s.reportRepo.SalesByCashier(ctx, from, to)
	if err != nil {
		return nil, persistenceError(err)
	}

	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.bookRepo.CountLowStock(ctx, snap.LowStockThreshold)
	if err != nil {
		return nil, persistenceError(err)
	}

	pendingCollections, err := s.billRepo.CountByStatus(ctx,
		enum.BillStatusCollectionRequest, enum.BillStatusAdminReview, enum.BillStatusApproved, enum.BillStatusBilling)
	if err != nil {
		return nil, persistenceError(err)
	}
	pendingBills, err := s.billRepo.CountByStatus(ctx, enum.BillStatusPending, enum.BillStatusProcessing)
	if err != nil {
		return nil, persistenceError(err)
	}

	stats := &DashboardStats{
		TodayBills:         today.BillCount,
		TodaySales:         today.NetSales,
		TodayCustomers:     today.UniqueCustomers,
		LowStockCount:      lowStock,
		LowStockThreshold:  snap.LowStockThreshold,
		PendingCollections: pendingCollections,
		PendingBills:       pendingBills,
		CashierTotals:      nonNil(cashiers),
		DailySalesData:     make([]DailySalesPoint, 0, trendDays),
	}

	for i := trendDays - 1; i >= 0; i-- {
		dayFrom, dayTo := PeriodDaily.Range(now.AddDate(0, 0, -i))
		totals, err := s.reportRepo.SalesTotals(ctx, dayFrom, dayTo)
		if err != nil {
			return nil, persistenceError(err)
		}
		stats.DailySalesData = append(stats.DailySalesData, DailySalesPoint{
			Date:      dayFrom.Format("Jan 02"),
			BillCount: totals.BillCount,
			Sales:     totals.NetSales,
		})
	}

	return stats, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
