package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sangkips/bookshop-pos/pkg/apperror"
)

// Names of the discount policies a caller can select
const (
	PolicyTiered = "tiered"
	PolicyFlat   = "flat"
)

// Policy decides the bill level discount.
// units is the number of units that count towards loyalty tiers.
type Policy interface {
	Name() string
	Discount(subtotal decimal.Decimal, units int, snap Snapshot) (decimal.Decimal, error)
}

// PolicyByName resolves a policy. There is no default: callers must choose.
func PolicyByName(name string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PolicyTiered:
		return TieredPolicy{}, nil
	case PolicyFlat:
		return DefaultFlatPolicy(), nil
	case "":
		return nil, apperror.NewFieldError("discount_policy", "a discount policy is required (tiered or flat)")
	default:
		return nil, apperror.NewFieldError("discount_policy", fmt.Sprintf("unknown discount policy %q", name))
	}
}

// TieredPolicy applies the rate of the highest configured tier the units reach.
type TieredPolicy struct{}

func (TieredPolicy) Name() string { return PolicyTiered }

func (TieredPolicy) Discount(subtotal decimal.Decimal, units int, snap Snapshot) (decimal.Decimal, error) {
	if units < 0 {
		return decimal.Zero, apperror.NewFieldError("units", "must not be negative")
	}
	rate := decimal.Zero
	for _, tier := range snap.Tiers {
		if units >= tier.Threshold {
			rate = tier.Rate
		}
	}
	d, err := NewDiscount(DiscountPercentage, rate.Mul(hundred))
	if err != nil {
		return decimal.Zero, err
	}
	return d.Calculate(subtotal)
}

// FlatPolicy takes Percent off any subtotal strictly above Threshold.
type FlatPolicy struct {
	Threshold decimal.Decimal
	Percent   decimal.Decimal
}

// DefaultFlatPolicy is 5% off subtotals over 100.
func DefaultFlatPolicy() FlatPolicy {
	return FlatPolicy{Threshold: decimal.NewFromInt(100), Percent: decimal.NewFromInt(5)}
}

func (FlatPolicy) Name() string { return PolicyFlat }

func (p FlatPolicy) Discount(subtotal decimal.Decimal, _ int, _ Snapshot) (decimal.Decimal, error) {
	percent := decimal.Zero
	if subtotal.GreaterThan(p.Threshold) {
		percent = p.Percent
	}
	d, err := NewDiscount(DiscountPercentage, percent)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Calculate(subtotal)
}

// WithManualDiscount stacks a discount granted at the till on top of policy.
// It applies to what is left after the policy discount, so the bill discount
// never exceeds the subtotal.
func WithManualDiscount(policy Policy, manual Discount) Policy {
	if manual == nil || manual.Type() == DiscountNone {
		return policy
	}
	return manualPolicy{base: policy, manual: manual}
}

type manualPolicy struct {
	base   Policy
	manual Discount
}

func (p manualPolicy) Name() string { return p.base.Name() }

func (p manualPolicy) Discount(subtotal decimal.Decimal, units int, snap Snapshot) (decimal.Decimal, error) {
	discount, err := p.base.Discount(subtotal, units, snap)
	if err != nil {
		return decimal.Zero, err
	}
	extra, err := p.manual.Calculate(subtotal.Sub(discount))
	if err != nil {
		return decimal.Zero, err
	}
	return discount.Add(extra), nil
}
