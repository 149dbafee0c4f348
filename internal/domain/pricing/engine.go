// Package pricing turns a cart into bill totals. It performs no I/O.
package pricing

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sangkips/bookshop-pos/internal/domain/payment"
	"github.com/sangkips/bookshop-pos/pkg/apperror"
)

// Line is one book on a bill.
type Line struct {
	BookID          uuid.UUID
	Title           string
	Quantity        int
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
}

// Total is quantity × unit price less the line's own discount.
func (l Line) Total() decimal.Decimal {
	gross := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
	if l.DiscountPercent.IsZero() {
		return gross
	}
	return gross.Sub(gross.Mul(l.DiscountPercent).Div(hundred))
}

// Customer is what pricing needs to know about the buyer.
type Customer struct {
	ID            uuid.UUID
	UnitsConsumed int
}

// Request is everything ComputeBill needs.
type Request struct {
	Customer        Customer
	Lines           []Line
	PaymentMethod   string
	IsDelivery      bool
	DeliveryAddress string
	Snapshot        Snapshot
	Policy          Policy
	// AllowEmpty lets draft bills be priced without lines.
	AllowEmpty bool
}

// Totals is the outcome of pricing a bill.
type Totals struct {
	Subtotal       decimal.Decimal   `json:"subtotal"`
	Discount       decimal.Decimal   `json:"discount"`
	Tax            decimal.Decimal   `json:"tax"`
	DeliveryCharge decimal.Decimal   `json:"delivery_charge"`
	Total          decimal.Decimal   `json:"total"`
	Units          int               `json:"units"`
	PaymentMethod  string            `json:"payment_method"`
	Policy         string            `json:"discount_policy"`
	LineTotals     []decimal.Decimal `json:"line_totals"`
}

// ComputeBill prices a cart:
//
//	subtotal = Σ line totals
//	discount = policy(subtotal, customer units + bill units)
//	tax      = (subtotal - discount) × tax rate
//	total    = subtotal - discount + tax + delivery charge
func ComputeBill(req Request) (Totals, error) {
	if err := validate(req); err != nil {
		return Totals{}, err
	}

	totals := Totals{
		Subtotal:       decimal.Zero,
		DeliveryCharge: decimal.Zero,
		PaymentMethod:  normalizeMethod(req.PaymentMethod),
		Policy:         req.Policy.Name(),
		LineTotals:     make([]decimal.Decimal, len(req.Lines)),
	}
	for i, line := range req.Lines {
		lineTotal := line.Total()
		totals.LineTotals[i] = lineTotal
		totals.Subtotal = totals.Subtotal.Add(lineTotal)
		totals.Units += line.Quantity
	}

	discount, err := req.Policy.Discount(totals.Subtotal, req.Customer.UnitsConsumed+totals.Units, req.Snapshot)
	if err != nil {
		return Totals{}, err
	}
	totals.Discount = discount
	totals.Tax = totals.Subtotal.Sub(discount).Mul(req.Snapshot.TaxRate)
	if req.IsDelivery {
		totals.DeliveryCharge = req.Snapshot.DeliveryCharge
	}
	totals.Total = Total(totals.Subtotal, totals.Discount, totals.Tax, totals.DeliveryCharge)

	return totals, nil
}

// Total applies the bill invariant.
func Total(subtotal, discount, tax, deliveryCharge decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(discount).Add(tax).Add(deliveryCharge)
}

func normalizeMethod(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return payment.MethodCash
	}
	return name
}

func validate(req Request) error {
	var fieldErrors []apperror.FieldError
	add := func(field, message string) {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: field, Message: message})
	}

	if req.Policy == nil {
		add("discount_policy", "a discount policy is required")
	}
	if len(req.Lines) == 0 && !req.AllowEmpty {
		add("items", "at least one item is required")
	}
	for i, line := range req.Lines {
		prefix := fmt.Sprintf("items[%d]", i)
		if line.Quantity <= 0 {
			add(prefix+".quantity", "must be greater than zero")
		}
		if line.UnitPrice.IsNegative() {
			add(prefix+".unit_price", "must not be negative")
		}
		if line.DiscountPercent.IsNegative() || line.DiscountPercent.GreaterThan(hundred) {
			add(prefix+".discount_percent", "must be between 0 and 100")
		}
	}
	if !payment.Known(normalizeMethod(req.PaymentMethod)) {
		add("payment_method", fmt.Sprintf("unsupported payment method %q", req.PaymentMethod))
	}
	if req.IsDelivery && strings.TrimSpace(req.DeliveryAddress) == "" {
		add("delivery_address", "is required for delivery")
	}
	if req.Customer.UnitsConsumed < 0 {
		add("customer.units_consumed", "must not be negative")
	}
	if req.Snapshot.TaxRate.IsNegative() || req.Snapshot.DeliveryCharge.IsNegative() {
		add("configuration", "tax rate and delivery charge must not be negative")
	}

	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}
