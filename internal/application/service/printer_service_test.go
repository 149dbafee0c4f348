package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/pkg/apperror"
	"github.com/sangkips/bookshop-pos/pkg/printer"
)

func TestFormatReceipt(t *testing.T) {
	out := string(FormatReceipt(&entity.Receipt{
		Header:        entity.ReceiptHeader{CompanyName: "Page One", Phone: "011 234 5678"},
		BillNumber:    "BILL-0001",
		Date:          "2024-03-14 10:30",
		Cashier:       "Till One",
		AccountNumber: "ACC-000001",
		PaymentMethod: "CARD",
		Items: []entity.ReceiptItem{
			{Title: "Go in Action", Quantity: 2, UnitPrice: dec("10.99"), Total: dec("21.98")},
			{Title: "SICP", Quantity: 1, UnitPrice: dec("40"), DiscountPercent: dec("10"), Total: dec("36")},
		},
		Subtotal:       dec("57.98"),
		Discount:       dec("2.899"),
		Tax:            dec("5.5081"),
		DeliveryCharge: dec("5"),
		Total:          dec("65.5891"),
	}, 42))

	for _, want := range []string{
		"Page One", "011 234 5678", "BILL-0001", "Till One", "ACC-000001", "CARD",
		"@ 10.99 each", "less 10%", "-2.90", "5.51", "Delivery:", "65.59",
		"Thank you for shopping with us!",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Customer:")
}

func TestPrintBill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.settings.set(entity.SettingCompanyName, "Page One")
	f.settings.set(entity.SettingReceiptFooter, "See you soon")

	bill, err := f.billingSvc.Checkout(ctx, f.checkoutInput())
	require.NoError(t, err)

	rec := &printer.Recorder{}
	svc := NewPrinterService(rec, f.bills, f.settingsSvc, 32)

	receipt, err := svc.PrintBill(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, bill.BillNumber, receipt.BillNumber)
	assert.Equal(t, "Page One", receipt.Header.CompanyName)
	assert.Len(t, receipt.Items, 2)
	require.Len(t, rec.Jobs, 1)
	assert.Contains(t, string(rec.Jobs[0]), "See you soon")

	_, err = svc.PrintBill(ctx, uuid.New())
	assert.Equal(t, http.StatusNotFound, apperror.GetAppError(err).Code)

	rec.Err = errors.New("paper out")
	receipt, err = svc.PrintBill(ctx, bill.ID)
	assert.Error(t, err)
	assert.NotNil(t, receipt)
	assert.False(t, svc.Status().Connected)
}

func TestPrinterStatusAndTestPrint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	status := NewPrinterService(nil, f.bills, f.settingsSvc, 32).Status()
	assert.False(t, status.Configured)
	assert.Equal(t, "none", status.Type)

	rec := &printer.Recorder{}
	svc := NewPrinterService(rec, f.bills, f.settingsSvc, 32)
	assert.True(t, svc.Status().Configured)

	receipt, err := svc.TestPrint(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bookshop", receipt.Header.CompanyName)
	assert.True(t, dec("20").Equal(receipt.Total))
	assert.Len(t, rec.Jobs, 1)
}
