package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	"github.com/sangkips/bookshop-pos/internal/domain/payment"
	"github.com/sangkips/bookshop-pos/internal/domain/pricing"
	"github.com/sangkips/bookshop-pos/internal/domain/repository"
	"github.com/sangkips/bookshop-pos/pkg/apperror"
)

func (f *fixture) submit(t *testing.T, input SubmitInput) *entity.Bill {
	t.Helper()
	if input.Items == nil {
		input.Items = f.cart()
	}
	bill, err := f.collectionSvc.Submit(context.Background(), f.actor(f.customer), input)
	require.NoError(t, err)
	return bill
}

func TestSubmitStoresUnpricedRequest(t *testing.T) {
	f := newFixture(t)

	bill := f.submit(t, SubmitInput{Notes: "pick up Friday"})

	assert.Equal(t, enum.BillStatusCollectionRequest, bill.Status)
	assert.Equal(t, payment.MethodCollection, bill.PaymentMethod)
	assert.Equal(t, f.customer.ID, bill.CustomerID)
	assert.True(t, dec("37.97").Equal(bill.Subtotal))
	assert.True(t, bill.Tax.IsZero())
	assert.True(t, dec("37.97").Equal(bill.Total))
	require.NotNil(t, bill.Notes)
	assert.Equal(t, "pick up Friday", *bill.Notes)

	assert.NotNil(t, f.bills.stored(bill.ID))
	assert.Equal(t, 10, f.books.stock(f.goBook.ID))
	assert.Equal(t, 0, f.users.units(f.customer.ID))
}

func TestSubmitNotifiesObservers(t *testing.T) {
	f := newFixture(t)
	mailer := &fakeMailer{enabled: true}
	f.manager.Register(NewEmailObserver(mailer, f.users, f.bills).WithAdminCopy("owner@example.com"))

	bill := f.submit(t, SubmitInput{Notes: "pick up Friday"})

	require.Len(t, f.observer.events, 1)
	event := f.observer.events[0]
	assert.Equal(t, enum.BillStatusCollectionRequest, event.Status)
	assert.Equal(t, bill.ID, event.BillID)
	assert.Equal(t, f.customer.ID, event.CustomerID)
	assert.Equal(t, "Collection request submitted: pick up Friday", event.Message)

	assert.Equal(t, bill.BillNumber, mailer.sent["nimal@example.com"].BillNumber)
	assert.Equal(t, "COLLECTION_REQUEST", mailer.sent["owner@example.com"].Status)
}

func TestCustomerCannotSubmitForSomeoneElse(t *testing.T) {
	f := newFixture(t)

	bill, err := f.collectionSvc.Submit(context.Background(), f.actor(f.customer), SubmitInput{
		CustomerID: uuid.New(),
		Items:      f.cart(),
	})
	require.NoError(t, err)
	assert.Equal(t, f.customer.ID, bill.CustomerID)
}

func TestStaffSubmitsOnBehalfOfCustomer(t *testing.T) {
	f := newFixture(t)

	bill, err := f.collectionSvc.Submit(context.Background(), f.actor(f.cashier), SubmitInput{
		CustomerID: f.customer.ID,
		Items:      f.cart(),
	})
	require.NoError(t, err)
	assert.Equal(t, f.customer.ID, bill.CustomerID)
	assert.Equal(t, f.cashier.ID, bill.CashierID)
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.collectionSvc.Submit(ctx, f.actor(f.customer), SubmitInput{})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.collectionSvc.Submit(ctx, f.actor(f.customer), SubmitInput{Items: f.cart(), DiscountPolicy: "bogus"})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.collectionSvc.Submit(ctx, f.actor(f.customer), SubmitInput{Items: f.cart(), IsDelivery: true})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.collectionSvc.Submit(ctx, f.actor(f.customer), SubmitInput{
		Items: []CartItem{{BookID: f.algoBook.ID, Quantity: 4}},
	})
	assert.True(t, apperror.IsValidation(err))

	assert.Empty(t, f.bills.bills)
}

func TestCollectionHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.submit(t, SubmitInput{IsDelivery: true, DeliveryAddress: "12 Galle Road"})

	got, err := f.collectionSvc.Process(ctx, bill.ID, f.actor(f.cashier), ProcessInput{})
	require.NoError(t, err)
	assert.Equal(t, enum.BillStatusAdminReview, got.Status)

	got, err = f.collectionSvc.Process(ctx, bill.ID, f.actor(f.admin), ProcessInput{})
	require.NoError(t, err)
	assert.Equal(t, enum.BillStatusApproved, got.Status)
	assert.Equal(t, 10, f.books.stock(f.goBook.ID))

	// a card request cannot be billed without the card
	_, err = f.collectionSvc.Process(ctx, bill.ID, f.actor(f.cashier), ProcessInput{PaymentMethod: "card"})
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, enum.BillStatusApproved, f.bills.stored(bill.ID).Status)
	assert.Equal(t, 10, f.books.stock(f.goBook.ID))

	card := payment.Details{CardNumber: "4111111111111111", CardType: "visa"}
	got, err = f.collectionSvc.Process(ctx, bill.ID, f.actor(f.cashier), ProcessInput{PaymentMethod: "card", PaymentDetails: card})
	require.NoError(t, err)
	assert.Equal(t, enum.BillStatusBilling, got.Status)
	assert.Equal(t, payment.MethodCard, got.PaymentMethod)
	assert.Equal(t, f.cashier.ID, got.CashierID)
	assert.Equal(t, pricing.PolicyTiered, got.DiscountPolicy)
	assert.True(t, dec("3.797").Equal(got.Tax))
	assert.True(t, dec("5").Equal(got.DeliveryCharge))
	assert.True(t, dec("46.767").Equal(got.Total))
	assert.Equal(t, 8, f.books.stock(f.goBook.ID))
	assert.Equal(t, 2, f.books.stock(f.algoBook.ID))
	assert.Equal(t, 0, f.users.units(f.customer.ID))

	stored := f.bills.stored(bill.ID)
	assert.True(t, dec("46.767").Equal(stored.Total))
	require.Len(t, stored.Items, 2)
	assert.True(t, dec("21.98").Equal(stored.Items[0].Total))

	got, err = f.collectionSvc.Complete(ctx, bill.ID, f.actor(f.cashier), card)
	require.NoError(t, err)
	assert.Equal(t, enum.BillStatusCompleted, got.Status)
	assert.Equal(t, 3, f.users.units(f.customer.ID))

	assert.Equal(t, []enum.BillStatus{
		enum.BillStatusCollectionRequest,
		enum.BillStatusAdminReview,
		enum.BillStatusApproved,
		enum.BillStatusBilling,
		enum.BillStatusCompleted,
	}, f.observer.statuses())

	// completing twice changes nothing
	_, err = f.collectionSvc.Complete(ctx, bill.ID, f.actor(f.cashier), payment.Details{})
	require.NoError(t, err)
	assert.Equal(t, 3, f.users.units(f.customer.ID))
	assert.Len(t, f.observer.events, 5)
}

func (f *fixture) approve(t *testing.T, bill *entity.Bill) {
	t.Helper()
	for _, actor := range []*entity.User{f.cashier, f.admin} {
		_, err := f.collectionSvc.Process(context.Background(), bill.ID, f.actor(actor), ProcessInput{})
		require.NoError(t, err)
	}
}

func TestBillingChecksPaymentDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.submit(t, SubmitInput{})
	f.approve(t, bill)

	_, err := f.collectionSvc.Process(ctx, bill.ID, f.actor(f.cashier), ProcessInput{PaymentMethod: "UPI"})
	assert.True(t, apperror.IsValidation(err))
	_, err = f.collectionSvc.Process(ctx, bill.ID, f.actor(f.cashier), ProcessInput{PaymentMethod: "THIRD_PARTY"})
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, enum.BillStatusApproved, f.bills.stored(bill.ID).Status)
	assert.Equal(t, 10, f.books.stock(f.goBook.ID))

	got, err := f.collectionSvc.Process(ctx, bill.ID, f.actor(f.cashier), ProcessInput{
		PaymentMethod:  "upi",
		PaymentDetails: payment.Details{UPIID: "nimal@bank"},
	})
	require.NoError(t, err)
	assert.Equal(t, payment.MethodUPI, got.PaymentMethod)
	assert.Equal(t, enum.BillStatusBilling, got.Status)
}

func TestDeclinedPaymentKeepsRequestInBilling(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.submit(t, SubmitInput{})
	f.approve(t, bill)

	upi := payment.Details{UPIID: "nimal@bank"}
	_, err := f.collectionSvc.Process(ctx, bill.ID, f.actor(f.cashier), ProcessInput{PaymentMethod: "UPI", PaymentDetails: upi})
	require.NoError(t, err)

	_, err = f.collectionSvc.Complete(ctx, bill.ID, f.actor(f.cashier), payment.Details{})
	assert.True(t, apperror.IsValidation(err))
	_, err = f.collectionSvc.Complete(ctx, bill.ID, f.actor(f.cashier), payment.Details{UPIID: "not an id"})
	assert.Equal(t, http.StatusPaymentRequired, apperror.GetAppError(err).Code)
	_, err = f.collectionSvc.Process(ctx, bill.ID, f.actor(f.cashier), ProcessInput{})
	assert.True(t, apperror.IsValidation(err))

	assert.Equal(t, enum.BillStatusBilling, f.bills.stored(bill.ID).Status)
	assert.Equal(t, 0, f.users.units(f.customer.ID))

	got, err := f.collectionSvc.Complete(ctx, bill.ID, f.actor(f.cashier), upi)
	require.NoError(t, err)
	assert.Equal(t, enum.BillStatusCompleted, got.Status)
	assert.Equal(t, 3, f.users.units(f.customer.ID))
}

func TestThirdPartyGatewayDecides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.collectionSvc.WithGateway(declineGateway{})
	bill := f.submit(t, SubmitInput{})
	f.approve(t, bill)

	_, err := f.collectionSvc.Process(ctx, bill.ID, f.actor(f.cashier), ProcessInput{PaymentMethod: "THIRD_PARTY"})
	require.NoError(t, err)
	_, err = f.collectionSvc.Complete(ctx, bill.ID, f.actor(f.cashier), payment.Details{})
	assert.Equal(t, http.StatusPaymentRequired, apperror.GetAppError(err).Code)
	assert.Equal(t, enum.BillStatusBilling, f.bills.stored(bill.ID).Status)
}

func TestBillingUsesPolicyChosenAtSubmit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.submit(t, SubmitInput{
		Items:          []CartItem{{BookID: f.goBook.ID, Quantity: 10}},
		DiscountPolicy: "flat",
	})

	for _, actor := range []*entity.User{f.cashier, f.admin, f.cashier} {
		_, err := f.collectionSvc.Process(ctx, bill.ID, f.actor(actor), ProcessInput{})
		require.NoError(t, err)
	}
	stored := f.bills.stored(bill.ID)
	assert.Equal(t, enum.BillStatusBilling, stored.Status)
	assert.Equal(t, pricing.PolicyFlat, stored.DiscountPolicy)
	assert.Equal(t, payment.MethodCash, stored.PaymentMethod)
	// 109.90 is over 100: 5% off
	assert.True(t, dec("5.495").Equal(stored.Discount), stored.Discount.String())
}

func TestCollectionRoleRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.submit(t, SubmitInput{})

	_, err := f.collectionSvc.Process(ctx, bill.ID, f.actor(f.customer), ProcessInput{})
	assert.Equal(t, http.StatusForbidden, apperror.GetAppError(err).Code)

	other := &entity.User{Username: "other", FullName: "Other", Role: enum.RoleCustomer, IsActive: true}
	require.NoError(t, f.users.Create(ctx, other))
	_, err = f.collectionSvc.Cancel(ctx, bill.ID, f.actor(other))
	assert.Equal(t, http.StatusNotFound, apperror.GetAppError(err).Code)

	_, err = f.collectionSvc.Process(ctx, bill.ID, f.actor(f.cashier), ProcessInput{})
	require.NoError(t, err)

	// review decisions belong to administrators
	_, err = f.collectionSvc.Process(ctx, bill.ID, f.actor(f.cashier), ProcessInput{})
	assert.Equal(t, http.StatusForbidden, apperror.GetAppError(err).Code)
	_, err = f.collectionSvc.Cancel(ctx, bill.ID, f.actor(f.cashier))
	assert.Equal(t, http.StatusForbidden, apperror.GetAppError(err).Code)

	// the customer may no longer withdraw once under review
	_, err = f.collectionSvc.Cancel(ctx, bill.ID, f.actor(f.customer))
	assert.Equal(t, http.StatusForbidden, apperror.GetAppError(err).Code)

	assert.Equal(t, enum.BillStatusAdminReview, f.bills.stored(bill.ID).Status)
}

func TestCustomerWithdrawsRequest(t *testing.T) {
	f := newFixture(t)
	bill := f.submit(t, SubmitInput{})

	got, err := f.collectionSvc.Cancel(context.Background(), bill.ID, f.actor(f.customer))
	require.NoError(t, err)
	assert.Equal(t, enum.BillStatusCancelled, got.Status)
	assert.Equal(t, []enum.BillStatus{enum.BillStatusCollectionRequest, enum.BillStatusCancelled}, f.observer.statuses())
	assert.Equal(t, enum.BillStatusCollectionRequest, f.observer.events[1].From)
}

func TestAdminRejectsRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.submit(t, SubmitInput{})

	_, err := f.collectionSvc.Process(ctx, bill.ID, f.actor(f.admin), ProcessInput{})
	require.NoError(t, err)
	got, err := f.collectionSvc.Cancel(ctx, bill.ID, f.actor(f.admin))
	require.NoError(t, err)
	assert.Equal(t, enum.BillStatusRejected, got.Status)

	_, err = f.collectionSvc.Process(ctx, bill.ID, f.actor(f.admin), ProcessInput{})
	assert.True(t, apperror.IsIllegalTransition(err))
}

func TestCollectionIllegalActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.submit(t, SubmitInput{})

	_, err := f.collectionSvc.Complete(ctx, bill.ID, f.actor(f.admin), payment.Details{})
	require.True(t, apperror.IsIllegalTransition(err))
	assert.Equal(t, enum.BillStatusCollectionRequest, f.bills.stored(bill.ID).Status)

	for _, actor := range []*entity.User{f.cashier, f.admin} {
		_, err := f.collectionSvc.Process(ctx, bill.ID, f.actor(actor), ProcessInput{})
		require.NoError(t, err)
	}
	// approved requests can no longer be cancelled
	_, err = f.collectionSvc.Cancel(ctx, bill.ID, f.actor(f.admin))
	assert.True(t, apperror.IsIllegalTransition(err))

	_, err = f.collectionSvc.Process(ctx, bill.ID, f.actor(f.cashier), ProcessInput{PaymentMethod: payment.MethodCollection})
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, enum.BillStatusApproved, f.bills.stored(bill.ID).Status)
}

func TestBillingWithoutStockIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bill := f.submit(t, SubmitInput{})

	for _, actor := range []*entity.User{f.cashier, f.admin} {
		_, err := f.collectionSvc.Process(ctx, bill.ID, f.actor(actor), ProcessInput{})
		require.NoError(t, err)
	}
	_, err := f.books.AdjustStock(ctx, f.algoBook.ID, -3)
	require.NoError(t, err)

	_, err = f.collectionSvc.Process(ctx, bill.ID, f.actor(f.cashier), ProcessInput{})
	require.Error(t, err)
	appErr := apperror.GetAppError(err)
	assert.Equal(t, http.StatusConflict, appErr.Code)
	assert.Contains(t, appErr.Message, "The Go Programming Language")

	assert.Equal(t, enum.BillStatusApproved, f.bills.stored(bill.ID).Status)
	assert.Equal(t, 10, f.books.stock(f.goBook.ID))
	assert.Len(t, f.observer.events, 3)
}

func TestSubmitCommandUndo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var cmd Command = f.collectionSvc.NewSubmitCommand(f.actor(f.customer), SubmitInput{Items: f.cart()})
	require.Error(t, cmd.Undo(ctx))

	require.NoError(t, cmd.Execute(ctx))
	require.Error(t, cmd.Execute(ctx))

	submit := cmd.(*SubmitCommand)
	id := submit.Bill().ID
	assert.Equal(t, enum.BillStatusCollectionRequest, f.bills.stored(id).Status)

	require.NoError(t, cmd.Undo(ctx))
	assert.Equal(t, enum.BillStatusCancelled, f.bills.stored(id).Status)
	assert.Equal(t, enum.BillStatusCancelled, submit.Bill().Status)
	assert.Equal(t, []enum.BillStatus{enum.BillStatusCollectionRequest, enum.BillStatusCancelled}, f.observer.statuses())
}

func TestListRequestsOnlyReturnsCollectionBills(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	request := f.submit(t, SubmitInput{})
	_, err := f.billingSvc.Checkout(ctx, f.checkoutInput())
	require.NoError(t, err)

	page, err := f.collectionSvc.ListRequests(ctx, &repository.BillFilterParams{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, request.ID, page.Items[0].ID)

	_, err = f.collectionSvc.ListRequests(ctx, &repository.BillFilterParams{
		BillFilter: repository.BillFilter{Statuses: []enum.BillStatus{enum.BillStatusPaid}},
	})
	assert.True(t, apperror.IsValidation(err))
}

func TestGetRequestRejectsSales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sale, err := f.billingSvc.Checkout(ctx, f.checkoutInput())
	require.NoError(t, err)

	_, err = f.collectionSvc.GetRequest(ctx, sale.ID)
	assert.Equal(t, http.StatusNotFound, apperror.GetAppError(err).Code)
}
