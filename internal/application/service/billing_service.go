package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/sangkips/bookshop-pos/internal/domain/billing"
	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	"github.com/sangkips/bookshop-pos/internal/domain/order"
	"github.com/sangkips/bookshop-pos/internal/domain/payment"
	"github.com/sangkips/bookshop-pos/internal/domain/pricing"
	"github.com/sangkips/bookshop-pos/internal/domain/repository"
	"github.com/sangkips/bookshop-pos/pkg/apperror"
	"github.com/sangkips/bookshop-pos/pkg/pagination"
)

// BillingService rings up walk-in sales
type BillingService struct {
	billRepo      repository.BillRepository
	bookRepo      repository.BookRepository
	userRepo      repository.UserRepository
	settings      *SettingsService
	numbers       billing.NumberGenerator
	observers     *order.Manager
	gateway       payment.Gateway
	defaultPolicy string
	now           func() time.Time
}

// BillingOptions holds the optional collaborators of BillingService
type BillingOptions struct {
	// Gateway serves THIRD_PARTY payments. Nil disables them.
	Gateway payment.Gateway
	// DefaultPolicy applies when a request names no discount policy
	DefaultPolicy string
}

// NewBillingService creates a new billing service
func NewBillingService(
	billRepo repository.BillRepository,
	bookRepo repository.BookRepository,
	userRepo repository.UserRepository,
	settings *SettingsService,
	numbers billing.NumberGenerator,
	observers *order.Manager,
	opts BillingOptions,
) *BillingService {
	return &BillingService{
		billRepo:      billRepo,
		bookRepo:      bookRepo,
		userRepo:      userRepo,
		settings:      settings,
		numbers:       numbers,
		observers:     observers,
		gateway:       opts.Gateway,
		defaultPolicy: opts.DefaultPolicy,
		now:           time.Now,
	}
}

// CartItem is one requested line
type CartItem struct {
	BookID          uuid.UUID
	Quantity        int
	DiscountPercent decimal.Decimal
}

// CheckoutInput represents a sale at the till
type CheckoutInput struct {
	CustomerID      uuid.UUID
	CashierID       uuid.UUID
	Items           []CartItem
	PaymentMethod   string
	PaymentDetails  payment.Details
	DiscountPolicy  string
	// ManualDiscount is granted by the cashier on top of the policy discount
	ManualDiscount  *ManualDiscount
	IsDelivery      bool
	DeliveryAddress string
	Notes           string
}

// ManualDiscount is a PERCENTAGE or FIXED reduction
type ManualDiscount struct {
	Type  string
	Value decimal.Decimal
}

// PayInput settles a held bill
type PayInput struct {
	BillID         uuid.UUID
	CashierID      uuid.UUID
	PaymentMethod  string
	PaymentDetails payment.Details
}

// Quote prices a cart without storing anything or touching stock
func (s *BillingService) Quote(ctx context.Context, input *CheckoutInput) (*entity.Bill, error) {
	builder, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}
	return builder.WithBillNumber("QUOTE").Build()
}

// Checkout charges the customer and stores a PAID bill. Stock and the
// customer's units consumed change in the same transaction.
func (s *BillingService) Checkout(ctx context.Context, input *CheckoutInput) (*entity.Bill, error) {
	method, err := payment.New(input.PaymentMethod, input.PaymentDetails, s.gateway)
	if err != nil {
		return nil, err
	}
	input.PaymentMethod = method.MethodName()

	builder, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}
	bill, err := builder.Build()
	if err != nil {
		return nil, err
	}

	events := &eventBuffer{}
	sale, err := order.NewSaleContext(bill, order.WithNotifier(events), order.WithClock(s.now))
	if err != nil {
		return nil, err
	}
	if err := s.settle(ctx, sale, method); err != nil {
		return nil, err
	}

	effects := repository.BillEffects{
		DecrementStock: stockChanges(bill.Items),
		CustomerUnits:  bill.UnitsConsumed,
	}
	if err := s.billRepo.Create(ctx, bill, effects); err != nil {
		return nil, billWriteError(err, itemTitles(bill.Items))
	}
	events.flush(ctx, s.observers)

	log.WithFields(log.Fields{
		"bill_number": bill.BillNumber,
		"total":       bill.Total.StringFixed(2),
		"method":      bill.PaymentMethod,
		"cashier_id":  bill.CashierID,
	}).Info("checkout completed")
	return bill, nil
}

// Hold stores a PENDING bill and reserves its stock for later payment
func (s *BillingService) Hold(ctx context.Context, input *CheckoutInput) (*entity.Bill, error) {
	builder, err := s.prepare(ctx, input)
	if err != nil {
		return nil, err
	}
	bill, err := builder.WithStatus(enum.BillStatusPending).Build()
	if err != nil {
		return nil, err
	}

	if err := s.billRepo.Create(ctx, bill, repository.BillEffects{DecrementStock: stockChanges(bill.Items)}); err != nil {
		return nil, billWriteError(err, itemTitles(bill.Items))
	}
	log.WithFields(log.Fields{"bill_number": bill.BillNumber, "total": bill.Total.StringFixed(2)}).Info("bill held")
	return bill, nil
}

// Pay settles a held bill. A declined payment leaves it PENDING.
func (s *BillingService) Pay(ctx context.Context, input *PayInput) (*entity.Bill, error) {
	bill, err := s.GetBill(ctx, input.BillID)
	if err != nil {
		return nil, err
	}
	method, err := payment.New(input.PaymentMethod, input.PaymentDetails, s.gateway)
	if err != nil {
		return nil, err
	}
	if input.CashierID != uuid.Nil {
		bill.CashierID = input.CashierID
	}

	events := &eventBuffer{}
	sale, err := order.NewSaleContext(bill, order.WithNotifier(events), order.WithClock(s.now))
	if err != nil {
		return nil, err
	}
	from := bill.Status
	if err := s.settle(ctx, sale, method); err != nil {
		return nil, err
	}
	bill.PaymentMethod = method.MethodName()

	if err := s.billRepo.UpdateStatus(ctx, bill, from, repository.BillEffects{CustomerUnits: bill.UnitsConsumed}); err != nil {
		return nil, billWriteError(err, itemTitles(bill.Items))
	}
	events.flush(ctx, s.observers)

	log.WithFields(log.Fields{"bill_number": bill.BillNumber, "method": bill.PaymentMethod}).Info("held bill paid")
	return bill, nil
}

// settle walks a pending sale through processing to completion around the charge
func (s *BillingService) settle(ctx context.Context, sale *order.Context[order.SaleState], method payment.Method) error {
	if _, err := sale.Process(ctx); err != nil {
		return err
	}
	if !method.ProcessPayment(sale.Bill().Total) {
		log.WithFields(log.Fields{
			"bill_number": sale.Bill().BillNumber,
			"method":      method.Description(),
		}).Warn("payment declined")
		return apperror.ErrPaymentDeclined
	}
	_, err := sale.Complete(ctx)
	return err
}

// Cancel voids a held sale. Paid bills cannot be cancelled.
func (s *BillingService) Cancel(ctx context.Context, billID uuid.UUID, actor Actor) (*entity.Bill, error) {
	bill, err := s.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}

	events := &eventBuffer{}
	sale, err := order.NewSaleContext(bill, order.WithNotifier(events), order.WithClock(s.now))
	if err != nil {
		return nil, err
	}
	from := bill.Status
	result, err := sale.Cancel(ctx)
	if err != nil {
		return nil, err
	}
	if result.NoOp {
		return bill, nil
	}

	if err := s.billRepo.UpdateStatus(ctx, bill, from, repository.BillEffects{}); err != nil {
		return nil, billWriteError(err, itemTitles(bill.Items))
	}
	events.flush(ctx, s.observers)

	log.WithFields(log.Fields{"bill_number": bill.BillNumber, "by": actor.ID}).Info("bill cancelled")
	return bill, nil
}

// prepare loads everything a cart refers to and returns a priced builder
func (s *BillingService) prepare(ctx context.Context, input *CheckoutInput) (*billing.Builder, error) {
	if len(input.Items) == 0 {
		return nil, apperror.NewFieldError("items", "at least one item is required")
	}

	customer, err := loadCustomer(ctx, s.userRepo, input.CustomerID)
	if err != nil {
		return nil, err
	}
	cashier, err := loadStaff(ctx, s.userRepo, input.CashierID)
	if err != nil {
		return nil, err
	}
	books, err := loadBooks(ctx, s.bookRepo, input.Items)
	if err != nil {
		return nil, err
	}
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	policy, err := resolvePolicy(input.DiscountPolicy, s.defaultPolicy)
	if err != nil {
		return nil, err
	}
	if input.ManualDiscount != nil {
		manual, err := pricing.NewDiscount(pricing.DiscountType(input.ManualDiscount.Type), input.ManualDiscount.Value)
		if err != nil {
			return nil, err
		}
		policy = pricing.WithManualDiscount(policy, manual)
	}

	builder := billing.NewDefault(s.numbers).
		WithBillDate(s.now()).
		WithCustomer(customer).
		WithCashier(cashier).
		WithPaymentMethod(input.PaymentMethod).
		WithDelivery(input.IsDelivery, input.DeliveryAddress).
		WithNotes(input.Notes).
		WithPricing(snap, policy)
	if strings.TrimSpace(input.PaymentMethod) == "" {
		builder.WithPaymentMethod(payment.MethodCash)
	}
	for _, item := range input.Items {
		builder.AddItem(books[item.BookID], item.Quantity, item.DiscountPercent)
	}
	return builder, nil
}

// GetBill retrieves a bill with customer, cashier and items
func (s *BillingService) GetBill(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	bill, err := s.billRepo.GetByID(ctx, id)
	if err != nil {
		return nil, persistenceError(err)
	}
	if bill == nil {
		return nil, apperror.NewNotFoundError("Bill")
	}
	return bill, nil
}

// GetBillByNumber retrieves a bill by its number
func (s *BillingService) GetBillByNumber(ctx context.Context, number string) (*entity.Bill, error) {
	bill, err := s.billRepo.GetByNumber(ctx, strings.TrimSpace(number))
	if err != nil {
		return nil, persistenceError(err)
	}
	if bill == nil {
		return nil, apperror.NewNotFoundError("Bill")
	}
	return bill, nil
}

// ListBills lists bills newest first
func (s *BillingService) ListBills(ctx context.Context, params *repository.BillFilterParams) (*pagination.PaginatedResult[entity.Bill], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	bills, total, err := s.billRepo.List(ctx, params)
	if err != nil {
		return nil, persistenceError(err)
	}
	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(bills, pag), nil
}

// ListBillsWithCursor lists bills with keyset pagination
func (s *BillingService) ListBillsWithCursor(ctx context.Context, params *repository.BillCursorFilterParams) (*pagination.CursorPaginatedResult[entity.Bill], error) {
	if params.Cursor == nil {
		params.Cursor = &pagination.CursorParams{}
	}
	params.Cursor.Validate()
	if _, err := params.Cursor.Decode(); err != nil {
		return nil, apperror.NewBadRequestError("Invalid cursor")
	}

	bills, err := s.billRepo.ListWithCursor(ctx, params)
	if err != nil {
		return nil, persistenceError(err)
	}
	return pagination.NewCursorPage(bills, params.Cursor.Limit, func(b entity.Bill) (string, time.Time) {
		return b.ID.String(), b.CreatedAt
	}), nil
}

// Summary renders the plain text summary of a bill
func (s *BillingService) Summary(ctx context.Context, id uuid.UUID) (string, error) {
	bill, err := s.GetBill(ctx, id)
	if err != nil {
		return "", err
	}
	return billing.Summary(bill), nil
}

func resolvePolicy(name, fallback string) (pricing.Policy, error) {
	if strings.TrimSpace(name) == "" {
		name = fallback
	}
	return pricing.PolicyByName(name)
}

func loadCustomer(ctx context.Context, repo repository.UserRepository, id uuid.UUID) (*entity.User, error) {
	if id == uuid.Nil {
		return nil, apperror.NewFieldError("customer_id", "is required")
	}
	customer, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, persistenceError(err)
	}
	if customer == nil || !customer.IsCustomer() {
		return nil, apperror.NewNotFoundError("Customer")
	}
	if !customer.IsActive {
		return nil, apperror.NewFieldError("customer_id", "customer account is inactive")
	}
	return customer, nil
}

func loadStaff(ctx context.Context, repo repository.UserRepository, id uuid.UUID) (*entity.User, error) {
	if id == uuid.Nil {
		return nil, apperror.NewFieldError("cashier_id", "is required")
	}
	user, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, persistenceError(err)
	}
	if user == nil || !user.Role.IsStaff() || !user.IsActive {
		return nil, apperror.NewFieldError("cashier_id", "must be an active staff account")
	}
	return user, nil
}

// loadBooks fetches every book of the cart in one query and checks it can be sold
func loadBooks(ctx context.Context, repo repository.BookRepository, items []CartItem) (map[uuid.UUID]*entity.Book, error) {
	ids := make([]uuid.UUID, 0, len(items))
	wanted := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if _, seen := wanted[item.BookID]; !seen {
			ids = append(ids, item.BookID)
		}
		wanted[item.BookID] += item.Quantity
	}

	found, err := repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, persistenceError(err)
	}
	books := make(map[uuid.UUID]*entity.Book, len(found))
	for i := range found {
		books[found[i].ID] = &found[i]
	}

	var fieldErrors []apperror.FieldError
	for i, id := range ids {
		field := fmt.Sprintf("items[%d].book_id", i)
		book, ok := books[id]
		switch {
		case !ok:
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: field, Message: "book " + id.String() + " not found"})
		case !book.IsActive:
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: field, Message: book.Title + " is no longer sold"})
		case wanted[id] > 0 && !book.InStock(wanted[id]):
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   field,
				Message: fmt.Sprintf("only %d copies of %s in stock", book.Quantity, book.Title),
			})
		}
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}
	return books, nil
}
