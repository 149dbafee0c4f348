package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sangkips/bookshop-pos/pkg/apperror"
)

var hundred = decimal.NewFromInt(100)

// DiscountType selects how a Discount turns an amount into a reduction.
type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
	DiscountNone       DiscountType = "NONE"
)

// Discount computes the reduction applied to an amount.
type Discount interface {
	Calculate(amount decimal.Decimal) (decimal.Decimal, error)
	Type() DiscountType
	Description() string
}

// NewDiscount builds a discount of the given type.
// Percentages must lie in [0,100] and fixed amounts must not be negative.
func NewDiscount(kind DiscountType, value decimal.Decimal) (Discount, error) {
	switch DiscountType(strings.ToUpper(string(kind))) {
	case DiscountPercentage:
		if value.IsNegative() || value.GreaterThan(hundred) {
			return nil, apperror.NewFieldError("discount", "percentage must be between 0 and 100")
		}
		return percentageDiscount{percent: value}, nil
	case DiscountFixed:
		if value.IsNegative() {
			return nil, apperror.NewFieldError("discount", "fixed discount must not be negative")
		}
		return fixedDiscount{amount: value}, nil
	case DiscountNone, "":
		return noDiscount{}, nil
	default:
		return nil, apperror.NewFieldError("discount", fmt.Sprintf("unknown discount type %q", kind))
	}
}

type percentageDiscount struct {
	percent decimal.Decimal
}

func (d percentageDiscount) Calculate(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, apperror.NewFieldError("amount", "must not be negative")
	}
	return amount.Mul(d.percent).Div(hundred), nil
}

func (percentageDiscount) Type() DiscountType { return DiscountPercentage }

func (d percentageDiscount) Description() string {
	return d.percent.String() + "% discount"
}

type fixedDiscount struct {
	amount decimal.Decimal
}

func (d fixedDiscount) Calculate(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, apperror.NewFieldError("amount", "must not be negative")
	}
	return decimal.Min(d.amount, amount), nil
}

func (fixedDiscount) Type() DiscountType { return DiscountFixed }

func (d fixedDiscount) Description() string {
	return d.amount.StringFixed(2) + " off"
}

type noDiscount struct{}

func (noDiscount) Calculate(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, apperror.NewFieldError("amount", "must not be negative")
	}
	return decimal.Zero, nil
}

func (noDiscount) Type() DiscountType  { return DiscountNone }
func (noDiscount) Description() string { return "no discount" }
