// Package payment models the ways a customer can settle a bill.
package payment

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/sangkips/bookshop-pos/pkg/apperror"
)

// Method names as stored on a bill
const (
	MethodCash       = "CASH"
	MethodCard       = "CARD"
	MethodUPI        = "UPI"
	MethodThirdParty = "THIRD_PARTY"
	// MethodCollection labels a collection request that has not been billed yet
	MethodCollection = "COLLECTION"
)

// Method is the capability every payment variant provides.
// ProcessPayment never talks to the network; gateway integration lives behind Gateway.
type Method interface {
	ProcessPayment(amount decimal.Decimal) bool
	MethodName() string
	Description() string
}

// Details carries the transient credentials a method may need at checkout.
type Details struct {
	CardNumber string `json:"card_number,omitempty"`
	CardType   string `json:"card_type,omitempty"`
	UPIID      string `json:"upi_id,omitempty"`
}

// Cash accepts any positive amount.
type Cash struct{}

func (Cash) ProcessPayment(amount decimal.Decimal) bool { return amount.IsPositive() }
func (Cash) MethodName() string                         { return MethodCash }
func (Cash) Description() string                        { return "Cash Payment" }

// Card is a card payment identified by its number.
type Card struct {
	Number string
	Type   string
}

// NewCard builds a card payment. The card type defaults to CARD.
func NewCard(number, cardType string) *Card {
	cardType = strings.ToUpper(strings.TrimSpace(cardType))
	if cardType == "" {
		cardType = "CARD"
	}
	return &Card{Number: strings.ReplaceAll(number, " ", ""), Type: cardType}
}

func (c *Card) ProcessPayment(amount decimal.Decimal) bool {
	return amount.IsPositive() && validCardNumber(c.Number)
}

func (c *Card) MethodName() string { return MethodCard }

func (c *Card) Description() string {
	return fmt.Sprintf("%s Card Payment (%s)", c.Type, MaskCardNumber(c.Number))
}

func validCardNumber(number string) bool {
	if len(number) < 4 {
		return false
	}
	for _, r := range number {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// MaskCardNumber hides everything but the last four digits.
func MaskCardNumber(number string) string {
	if len(number) < 4 {
		return "****"
	}
	return "**** **** **** " + number[len(number)-4:]
}

// UPI pays to a virtual payment address of the form local@provider.
type UPI struct {
	ID string
}

func (u *UPI) ProcessPayment(amount decimal.Decimal) bool {
	return amount.IsPositive() && ValidUPIID(u.ID)
}

func (u *UPI) MethodName() string  { return MethodUPI }
func (u *UPI) Description() string { return "Pay via UPI to " + u.ID }

// ValidUPIID reports whether id has exactly one @ with text on both sides and no spaces.
func ValidUPIID(id string) bool {
	if id == "" || strings.ContainsFunc(id, unicode.IsSpace) {
		return false
	}
	local, provider, found := strings.Cut(id, "@")
	if !found || local == "" || provider == "" {
		return false
	}
	return !strings.Contains(provider, "@")
}

// Gateway is an external payment provider.
type Gateway interface {
	Name() string
	Charge(amount decimal.Decimal) bool
}

// ThirdParty hands the amount to a Gateway and reports its answer.
type ThirdParty struct {
	Gateway Gateway
}

func (t *ThirdParty) ProcessPayment(amount decimal.Decimal) bool {
	if t.Gateway == nil || !amount.IsPositive() {
		return false
	}
	return t.Gateway.Charge(amount)
}

func (t *ThirdParty) MethodName() string { return MethodThirdParty }

func (t *ThirdParty) Description() string {
	if t.Gateway == nil {
		return "Third-party Payment"
	}
	return "Third-party Payment via " + t.Gateway.Name()
}

// New builds the method named by name. Names are case-insensitive.
// gateway is only consulted for THIRD_PARTY and may be nil otherwise.
func New(name string, details Details, gateway Gateway) (Method, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case MethodCash, "":
		return Cash{}, nil
	case MethodCard:
		if details.CardNumber == "" {
			return nil, apperror.NewFieldError("card_number", "card number is required")
		}
		return NewCard(details.CardNumber, details.CardType), nil
	case MethodUPI:
		if details.UPIID == "" {
			return nil, apperror.NewFieldError("upi_id", "UPI id is required")
		}
		return &UPI{ID: strings.TrimSpace(details.UPIID)}, nil
	case MethodThirdParty:
		if gateway == nil {
			return nil, apperror.NewFieldError("payment_method", "no third-party gateway is configured")
		}
		return &ThirdParty{Gateway: gateway}, nil
	default:
		return nil, apperror.NewFieldError("payment_method", fmt.Sprintf("unsupported payment method %q", name))
	}
}

// Known reports whether name is a payment method a bill may carry.
func Known(name string) bool {
	switch name {
	case MethodCash, MethodCard, MethodUPI, MethodThirdParty, MethodCollection:
		return true
	}
	return false
}
