// Package billing assembles validated bills.
package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	"github.com/sangkips/bookshop-pos/internal/domain/payment"
	"github.com/sangkips/bookshop-pos/internal/domain/pricing"
	"github.com/sangkips/bookshop-pos/pkg/apperror"
)

var hundred = decimal.NewFromInt(100)

// Builder accumulates the parts of a bill. It is not safe for concurrent use.
//
// Totals come from one of two places: the pricing engine when WithPricing was
// called, otherwise the explicit adjustments given to WithTotals.
type Builder struct {
	bill     entity.Bill
	items    []entity.BillItem
	customer *entity.User
	cashier  *entity.User

	discount       decimal.Decimal
	tax            decimal.Decimal
	deliveryCharge decimal.Decimal

	priced     bool
	snapshot   pricing.Snapshot
	policy     pricing.Policy
	allowEmpty bool
}

// NewBuilder returns an empty builder
func NewBuilder() *Builder {
	return &Builder{
		discount:       decimal.Zero,
		tax:            decimal.Zero,
		deliveryCharge: decimal.Zero,
	}
}

// NewDefault returns a builder stamped with a fresh bill number, the current
// time, PENDING status and CASH payment.
func NewDefault(gen NumberGenerator) *Builder {
	return NewBuilder().
		WithBillNumber(gen.Next()).
		WithBillDate(time.Now()).
		WithStatus(enum.BillStatusPending).
		WithPaymentMethod(payment.MethodCash)
}

func (b *Builder) WithBillNumber(number string) *Builder {
	b.bill.BillNumber = strings.TrimSpace(number)
	return b
}

func (b *Builder) WithBillDate(date time.Time) *Builder {
	b.bill.BillDate = date
	return b
}

func (b *Builder) WithCustomer(customer *entity.User) *Builder {
	b.customer = customer
	return b
}

func (b *Builder) WithCashier(cashier *entity.User) *Builder {
	b.cashier = cashier
	return b
}

// AddItem appends a line for book. The title and price are captured now.
func (b *Builder) AddItem(book *entity.Book, quantity int, discountPercent decimal.Decimal) *Builder {
	item := entity.BillItem{
		Quantity:        quantity,
		DiscountPercent: discountPercent,
	}
	if book != nil {
		snapshot := *book
		item.BookID = book.ID
		item.Title = book.Title
		item.UnitPrice = book.Price
		item.Book = &snapshot
	}
	b.items = append(b.items, item)
	return b
}

// AddLine appends a line whose price was captured elsewhere, e.g. when
// rebuilding a stored bill.
func (b *Builder) AddLine(item entity.BillItem) *Builder {
	b.items = append(b.items, item)
	return b
}

// RemoveItem drops every line for bookID
func (b *Builder) RemoveItem(bookID uuid.UUID) *Builder {
	kept := b.items[:0]
	for _, item := range b.items {
		if item.BookID != bookID {
			kept = append(kept, item)
		}
	}
	b.items = kept
	return b
}

func (b *Builder) WithPaymentMethod(method string) *Builder {
	b.bill.PaymentMethod = strings.ToUpper(strings.TrimSpace(method))
	return b
}

func (b *Builder) WithStatus(status enum.BillStatus) *Builder {
	b.bill.Status = status
	return b
}

// WithDelivery marks the bill for delivery to address. The charge is
// taken from the pricing snapshot or from WithTotals.
func (b *Builder) WithDelivery(isDelivery bool, address string) *Builder {
	b.bill.IsDelivery = isDelivery
	b.bill.DeliveryAddress = strings.TrimSpace(address)
	return b
}

func (b *Builder) WithNotes(notes string) *Builder {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		b.bill.Notes = nil
		return b
	}
	b.bill.Notes = &notes
	return b
}

// WithTotals sets explicit adjustments used when no pricing is configured
func (b *Builder) WithTotals(discount, tax, deliveryCharge decimal.Decimal) *Builder {
	b.discount = discount
	b.tax = tax
	b.deliveryCharge = deliveryCharge
	return b
}

// WithPricing makes CalculateTotals run the pricing engine
func (b *Builder) WithPricing(snap pricing.Snapshot, policy pricing.Policy) *Builder {
	b.priced = true
	b.snapshot = snap
	b.policy = policy
	return b
}

// AllowEmpty permits building a bill with no lines
func (b *Builder) AllowEmpty() *Builder {
	b.allowEmpty = true
	return b
}

// Items returns a copy of the current lines
func (b *Builder) Items() []entity.BillItem {
	return append([]entity.BillItem(nil), b.items...)
}

// CalculateTotals recomputes line totals, the subtotal and the bill total
// from the current lines. Calling it repeatedly gives the same result.
func (b *Builder) CalculateTotals() error {
	if b.priced {
		return b.priceWithEngine()
	}

	subtotal := decimal.Zero
	units := 0
	for i := range b.items {
		b.items[i].Total = lineTotal(b.items[i])
		subtotal = subtotal.Add(b.items[i].Total)
		units += b.items[i].Quantity
	}
	delivery := decimal.Zero
	if b.bill.IsDelivery {
		delivery = b.deliveryCharge
	}

	b.bill.Subtotal = subtotal
	b.bill.Discount = b.discount
	b.bill.Tax = b.tax
	b.bill.DeliveryCharge = delivery
	b.bill.Total = pricing.Total(subtotal, b.discount, b.tax, delivery)
	b.bill.UnitsConsumed = units
	return nil
}

func (b *Builder) priceWithEngine() error {
	req := pricing.Request{
		Lines:           make([]pricing.Line, len(b.items)),
		PaymentMethod:   b.bill.PaymentMethod,
		IsDelivery:      b.bill.IsDelivery,
		DeliveryAddress: b.bill.DeliveryAddress,
		Snapshot:        b.snapshot,
		Policy:          b.policy,
		AllowEmpty:      b.allowEmpty,
	}
	if b.customer != nil {
		req.Customer = pricing.Customer{ID: b.customer.ID, UnitsConsumed: b.customer.UnitsConsumed}
	}
	for i, item := range b.items {
		req.Lines[i] = pricing.Line{
			BookID:          item.BookID,
			Title:           item.Title,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
		}
	}

	totals, err := pricing.ComputeBill(req)
	if err != nil {
		return err
	}
	for i := range b.items {
		b.items[i].Total = totals.LineTotals[i]
	}
	b.bill.Subtotal = totals.Subtotal
	b.bill.Discount = totals.Discount
	b.bill.Tax = totals.Tax
	b.bill.DeliveryCharge = totals.DeliveryCharge
	b.bill.Total = totals.Total
	b.bill.UnitsConsumed = totals.Units
	b.bill.PaymentMethod = totals.PaymentMethod
	b.bill.DiscountPolicy = totals.Policy
	return nil
}

// Build validates the bill and returns a copy detached from the builder.
// Missing identity fields are reported before any totals are computed.
func (b *Builder) Build() (*entity.Bill, error) {
	if err := b.validateHeader(); err != nil {
		return nil, err
	}
	if err := b.validateItems(); err != nil {
		return nil, err
	}
	if err := b.CalculateTotals(); err != nil {
		return nil, err
	}

	bill := b.bill
	bill.CustomerID = b.customer.ID
	bill.CashierID = b.cashier.ID
	bill.Customer = b.customer
	bill.Cashier = b.cashier
	bill.Items = b.items
	if bill.BillDate.IsZero() {
		bill.BillDate = time.Now()
	}
	if bill.StatusChangedAt.IsZero() {
		bill.StatusChangedAt = bill.BillDate
	}
	return bill.Clone(), nil
}

func (b *Builder) validateHeader() error {
	var fieldErrors []apperror.FieldError
	if b.bill.BillNumber == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "bill_number", Message: "is required"})
	}
	if b.customer == nil || b.customer.ID == uuid.Nil {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "customer", Message: "is required"})
	}
	if b.cashier == nil || b.cashier.ID == uuid.Nil {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "cashier", Message: "is required"})
	}
	if b.bill.PaymentMethod == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "payment_method", Message: "is required"})
	}
	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}

func (b *Builder) validateItems() error {
	var fieldErrors []apperror.FieldError
	if len(b.items) == 0 && !b.allowEmpty {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "items", Message: "at least one item is required"})
	}
	for _, item := range b.items {
		switch {
		case item.BookID == uuid.Nil:
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: "items.book_id", Message: "is required"})
		case item.Quantity <= 0:
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: "items.quantity", Message: "must be greater than zero"})
		case item.UnitPrice.IsNegative():
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: "items.unit_price", Message: "must not be negative"})
		case item.DiscountPercent.IsNegative() || item.DiscountPercent.GreaterThan(hundred):
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: "items.discount_percent", Message: "must be between 0 and 100"})
		}
	}
	if b.bill.IsDelivery && b.bill.DeliveryAddress == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "delivery_address", Message: "is required for delivery"})
	}
	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}

func lineTotal(item entity.BillItem) decimal.Decimal {
	return pricing.Line{
		Quantity:        item.Quantity,
		UnitPrice:       item.UnitPrice,
		DiscountPercent: item.DiscountPercent,
	}.Total()
}
