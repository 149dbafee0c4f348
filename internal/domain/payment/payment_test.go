package payment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/bookshop-pos/pkg/apperror"
)

type stubGateway struct {
	approve bool
	charged []decimal.Decimal
}

func (g *stubGateway) Name() string { return "StubPay" }

func (g *stubGateway) Charge(amount decimal.Decimal) bool {
	g.charged = append(g.charged, amount)
	return g.approve
}

func TestCash(t *testing.T) {
	assert.False(t, Cash{}.ProcessPayment(decimal.Zero))
	assert.False(t, Cash{}.ProcessPayment(decimal.NewFromInt(-5)))
	assert.True(t, Cash{}.ProcessPayment(decimal.RequireFromString("0.01")))
	assert.Equal(t, MethodCash, Cash{}.MethodName())
}

func TestCard(t *testing.T) {
	hundred := decimal.NewFromInt(100)

	assert.False(t, NewCard("123", "VISA").ProcessPayment(hundred))
	assert.False(t, NewCard("12ab5678", "VISA").ProcessPayment(hundred))
	assert.False(t, NewCard("4111111111111111", "VISA").ProcessPayment(decimal.Zero))
	assert.True(t, NewCard("4111 1111 1111 1234", "visa").ProcessPayment(hundred))
	assert.True(t, NewCard("1234", "").ProcessPayment(hundred))
}

func TestCardDescriptionMasksNumber(t *testing.T) {
	card := NewCard("4111111111111234", "mastercard")

	desc := card.Description()
	assert.Equal(t, "MASTERCARD Card Payment (**** **** **** 1234)", desc)
	assert.NotContains(t, desc, "41111111")
	assert.Equal(t, "****", MaskCardNumber("12"))
}

func TestUPI(t *testing.T) {
	hundred := decimal.NewFromInt(100)

	assert.True(t, (&UPI{ID: "test@upi"}).ProcessPayment(hundred))
	assert.False(t, (&UPI{ID: "test@upi"}).ProcessPayment(decimal.Zero))
	assert.False(t, (&UPI{ID: "invalid-upi"}).ProcessPayment(hundred))
	assert.False(t, (&UPI{ID: ""}).ProcessPayment(hundred))

	for _, id := range []string{"@upi", "test@", "a@b@c", "te st@upi"} {
		assert.False(t, ValidUPIID(id), id)
	}
	assert.Equal(t, "Pay via UPI to test@upi", (&UPI{ID: "test@upi"}).Description())
}

func TestThirdPartyDelegatesToGateway(t *testing.T) {
	gw := &stubGateway{approve: true}
	method := &ThirdParty{Gateway: gw}

	assert.True(t, method.ProcessPayment(decimal.NewFromInt(42)))
	require.Len(t, gw.charged, 1)
	assert.True(t, gw.charged[0].Equal(decimal.NewFromInt(42)))

	assert.False(t, method.ProcessPayment(decimal.Zero))
	assert.Len(t, gw.charged, 1)

	gw.approve = false
	assert.False(t, method.ProcessPayment(decimal.NewFromInt(1)))
	assert.Equal(t, "Third-party Payment via StubPay", method.Description())
}

func TestNew(t *testing.T) {
	m, err := New("", Details{}, nil)
	require.NoError(t, err)
	assert.Equal(t, MethodCash, m.MethodName())

	m, err = New("card", Details{CardNumber: "4111111111111111", CardType: "visa"}, nil)
	require.NoError(t, err)
	assert.Equal(t, MethodCard, m.MethodName())

	m, err = New("UPI", Details{UPIID: " shop@bank "}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Pay via UPI to shop@bank", m.Description())

	_, err = New("CARD", Details{}, nil)
	assert.True(t, apperror.IsValidation(err))

	_, err = New("THIRD_PARTY", Details{}, nil)
	assert.True(t, apperror.IsValidation(err))

	_, err = New("BITCOIN", Details{}, nil)
	assert.True(t, apperror.IsValidation(err))
}
