package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	domainRepo "github.com/sangkips/bookshop-pos/internal/domain/repository"
)

var billSortColumns = map[string]bool{
	"bill_date": true, "total": true, "bill_number": true, "created_at": true,
}

type billRepository struct {
	db *gorm.DB
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *gorm.DB) domainRepo.BillRepository {
	return &billRepository{db: db}
}

func (r *billRepository) Create(ctx context.Context, bill *entity.Bill, effects domainRepo.BillEffects) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyEffects(tx, bill.CustomerID, effects); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(bill).Error; err != nil {
			return err
		}
		if len(bill.Items) == 0 {
			return nil
		}
		for i := range bill.Items {
			bill.Items[i].BillID = bill.ID
		}
		return tx.Omit(clause.Associations).Create(&bill.Items).Error
	})
	return wrapBillError(err, "create bill")
}

func (r *billRepository) UpdateStatus(ctx context.Context, bill *entity.Bill, from enum.BillStatus, effects domainRepo.BillEffects) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.Bill{}).
			Where("id = ? AND status = ?", bill.ID, from).
			Updates(map[string]interface{}{
				"status":            bill.Status,
				"status_changed_at": bill.StatusChangedAt,
				"cashier_id":        bill.CashierID,
				"payment_method":    bill.PaymentMethod,
				"subtotal":          bill.Subtotal,
				"discount":          bill.Discount,
				"tax":               bill.Tax,
				"delivery_charge":   bill.DeliveryCharge,
				"total":             bill.Total,
				"units_consumed":    bill.UnitsConsumed,
				"discount_policy":   bill.DiscountPolicy,
				"notes":             bill.Notes,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return &domainRepo.StaleStatusError{BillID: bill.ID, Expected: from}
		}
		for _, item := range bill.Items {
			if item.ID == uuid.Nil {
				continue
			}
			if err := tx.Model(&entity.BillItem{}).
				Where("id = ?", item.ID).
				Updates(map[string]interface{}{"unit_price": item.UnitPrice, "total": item.Total}).Error; err != nil {
				return err
			}
		}
		return applyEffects(tx, bill.CustomerID, effects)
	})
	return wrapBillError(err, "update bill status")
}

func applyEffects(tx *gorm.DB, customerID uuid.UUID, effects domainRepo.BillEffects) error {
	if err := decrementStock(tx, effects.DecrementStock); err != nil {
		return err
	}
	if err := incrementStock(tx, effects.IncrementStock); err != nil {
		return err
	}
	if effects.CustomerUnits == 0 {
		return nil
	}
	return tx.Model(&entity.User{}).
		Where("id = ?", customerID).
		Update("units_consumed", gorm.Expr("units_consumed + ?", effects.CustomerUnits)).Error
}

// wrapBillError keeps domain errors intact so callers can inspect them
func wrapBillError(err error, msg string) error {
	var shortage *domainRepo.InsufficientStockError
	var stale *domainRepo.StaleStatusError
	if err == nil || errors.As(err, &shortage) || errors.As(err, &stale) {
		return err
	}
	return pkgerrors.Wrap(err, msg)
}

func (r *billRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *billRepository) GetByNumber(ctx context.Context, number string) (*entity.Bill, error) {
	return r.findOne(ctx, "bill_number = ?", number)
}

func (r *billRepository) findOne(ctx context.Context, query string, arg interface{}) (*entity.Bill, error) {
	var bill entity.Bill
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Cashier").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where(query, arg).
		First(&bill).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "get bill")
	}
	return &bill, nil
}

func billFilterScope(f domainRepo.BillFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(SearchScope(f.Search, "bill_number"), DateRangeScope("bill_date", f.StartDate, f.EndDate))
		if f.CustomerID != nil {
			db = db.Where("customer_id = ?", *f.CustomerID)
		}
		if f.CashierID != nil {
			db = db.Where("cashier_id = ?", *f.CashierID)
		}
		if len(f.Statuses) > 0 {
			db = db.Where("status IN ?", f.Statuses)
		}
		return db
	}
}

func (r *billRepository) List(ctx context.Context, params *domainRepo.BillFilterParams) ([]entity.Bill, int64, error) {
	var bills []entity.Bill
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Bill{}).Scopes(billFilterScope(params.BillFilter))
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(err, "count bills")
	}

	err := query.Scopes(PaginateScope(params.Pagination)).
		Preload("Customer").
		Preload("Cashier").
		Order(orderClause(params.SortBy, params.SortOrder, billSortColumns, "bill_date")).
		Find(&bills).Error
	return bills, total, pkgerrors.Wrap(err, "list bills")
}

// ListWithCursor walks bills newest first
func (r *billRepository) ListWithCursor(ctx context.Context, params *domainRepo.BillCursorFilterParams) ([]entity.Bill, error) {
	var bills []entity.Bill

	params.Cursor.Validate()
	cursor, err := params.Cursor.Decode()
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).Model(&entity.Bill{}).Scopes(billFilterScope(params.BillFilter))
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	err = query.Limit(params.Cursor.Limit + 1).
		Preload("Customer").
		Preload("Cashier").
		Order("created_at DESC, id DESC").
		Find(&bills).Error
	return bills, pkgerrors.Wrap(err, "list bills with cursor")
}

func (r *billRepository) CountByStatus(ctx context.Context, statuses ...enum.BillStatus) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&entity.Bill{})
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	err := query.Count(&count).Error
	return count, pkgerrors.Wrap(err, "count bills by status")
}

func (r *billRepository) CustomerStats(ctx context.Context, customerID uuid.UUID) (*domainRepo.CustomerStats, error) {
	stats := domainRepo.CustomerStats{CustomerID: customerID}
	err := r.db.WithContext(ctx).Model(&entity.Bill{}).
		Select("COUNT(*) AS bill_count, COALESCE(SUM(total), 0) AS total_spent, MAX(bill_date) AS last_bill_at").
		Where("customer_id = ? AND status IN ?", customerID, domainRepo.SettledStatuses()).
		Scan(&stats).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "customer stats")
	}

	var customer entity.User
	err = r.db.WithContext(ctx).Select("units_consumed").First(&customer, "id = ?", customerID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(err, "customer units")
	}
	stats.UnitsConsumed = customer.UnitsConsumed
	return &stats, nil
}
