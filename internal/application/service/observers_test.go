package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	"github.com/sangkips/bookshop-pos/internal/domain/order"
)

func TestEmailObserver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bill, err := f.billingSvc.Checkout(ctx, f.checkoutInput())
	require.NoError(t, err)
	event := order.Event{
		BillID:     bill.ID,
		BillNumber: bill.BillNumber,
		CustomerID: f.customer.ID,
		From:       enum.BillStatusProcessing,
		Status:     enum.BillStatusPaid,
		Message:    "Order completed",
	}

	mailer := &fakeMailer{}
	obs := NewEmailObserver(mailer, f.users, f.bills)
	require.NoError(t, obs.Update(ctx, event))
	assert.Empty(t, mailer.sent)

	mailer.enabled = true
	require.NoError(t, obs.Update(ctx, event))
	notice, ok := mailer.sent["nimal@example.com"]
	require.True(t, ok)
	assert.Equal(t, bill.BillNumber, notice.BillNumber)
	assert.Equal(t, "PAID", notice.Status)
	assert.Equal(t, "41.77", notice.Total)
	assert.Equal(t, "Nimal Perera", notice.CustomerName)

	mailer.err = errors.New("smtp down")
	assert.Error(t, obs.Update(ctx, event))

	event.CustomerID = uuid.Nil
	assert.NoError(t, obs.Update(ctx, event))
}

func TestEmailObserverCopiesAdminOnNewCollectionRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mailer := &fakeMailer{enabled: true}
	obs := NewEmailObserver(mailer, f.users, f.bills).WithAdminCopy("owner@example.com")

	paid := order.Event{CustomerID: f.customer.ID, From: enum.BillStatusProcessing, Status: enum.BillStatusPaid}
	require.NoError(t, obs.Update(ctx, paid))
	assert.NotContains(t, mailer.sent, "owner@example.com")

	submitted := order.Event{CustomerID: f.customer.ID, Status: enum.BillStatusCollectionRequest}
	require.NoError(t, obs.Update(ctx, submitted))
	assert.Equal(t, "COLLECTION_REQUEST", mailer.sent["owner@example.com"].Status)
}

func TestInventoryObserverRestockDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bill, err := f.billingSvc.Hold(ctx, f.checkoutInput())
	require.NoError(t, err)

	event := order.Event{BillID: bill.ID, From: enum.BillStatusPending, Status: enum.BillStatusCancelled}
	obs := NewInventoryObserver(f.bills, f.books, f.settingsSvc).WithRestockDefault(false)
	require.NoError(t, obs.Update(ctx, event))
	assert.Equal(t, 8, f.books.stock(f.goBook.ID))

	obs.WithRestockDefault(true)
	require.NoError(t, obs.Update(ctx, event))
	assert.Equal(t, 10, f.books.stock(f.goBook.ID))
}

func TestInventoryObserverOnlyRestoresHeldStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bill, err := f.billingSvc.Hold(ctx, f.checkoutInput())
	require.NoError(t, err)
	require.Equal(t, 8, f.books.stock(f.goBook.ID))

	obs := NewInventoryObserver(f.bills, f.books, f.settingsSvc)
	event := order.Event{BillID: bill.ID, From: enum.BillStatusCollectionRequest, Status: enum.BillStatusCancelled}
	require.NoError(t, obs.Update(ctx, event))
	assert.Equal(t, 8, f.books.stock(f.goBook.ID))

	f.settings.set(entity.SettingAutoRestockEnabled, "false")
	event.From = enum.BillStatusPending
	require.NoError(t, obs.Update(ctx, event))
	assert.Equal(t, 8, f.books.stock(f.goBook.ID))

	f.settings.set(entity.SettingAutoRestockEnabled, "true")
	require.NoError(t, obs.Update(ctx, event))
	assert.Equal(t, 10, f.books.stock(f.goBook.ID))
	assert.Equal(t, 3, f.books.stock(f.algoBook.ID))
}

func TestAuditObserverLogsTransition(t *testing.T) {
	logger, hook := test.NewNullLogger()
	obs := NewAuditObserver(logger)

	require.NoError(t, obs.Update(context.Background(), order.Event{
		BillNumber: "BILL-1",
		From:       enum.BillStatusApproved,
		Status:     enum.BillStatusBilling,
		Message:    "Order is being billed",
	}))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.InfoLevel, entry.Level)
	assert.Equal(t, "Order is being billed", entry.Message)
	assert.Equal(t, "APPROVED", entry.Data["from"])
	assert.Equal(t, "BILLING", entry.Data["status"])
}
