package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sangkips/bookshop-pos/internal/application/service"
	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	"github.com/sangkips/bookshop-pos/internal/domain/payment"
	"github.com/sangkips/bookshop-pos/internal/domain/repository"
	"github.com/sangkips/bookshop-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/bookshop-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/bookshop-pos/pkg/apperror"
	"github.com/sangkips/bookshop-pos/pkg/pagination"
)

// BillHandler handles sales at the till
type BillHandler struct {
	billingService *service.BillingService
	printerService *service.PrinterService
}

// NewBillHandler creates a new bill handler
func NewBillHandler(billingService *service.BillingService, printerService *service.PrinterService) *BillHandler {
	return &BillHandler{billingService: billingService, printerService: printerService}
}

func checkoutInput(req *request.CheckoutRequest, actor service.Actor) *service.CheckoutInput {
	input := &service.CheckoutInput{
		CustomerID:      req.CustomerID,
		CashierID:       actor.ID,
		Items:           cartItems(req.Items),
		PaymentMethod:   req.PaymentMethod,
		PaymentDetails:  paymentDetails(req.PaymentDetails),
		DiscountPolicy:  req.DiscountPolicy,
		IsDelivery:      req.IsDelivery,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
	}
	if req.ManualDiscount != nil {
		input.ManualDiscount = &service.ManualDiscount{Type: req.ManualDiscount.Type, Value: req.ManualDiscount.Value}
	}
	return input
}

func paymentDetails(req request.PaymentDetailsRequest) payment.Details {
	return payment.Details{CardNumber: req.CardNumber, CardType: req.CardType, UPIID: req.UPIID}
}

// Quote prices a cart without storing it
// @Summary Quote Bill
// @Tags bills
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.CheckoutRequest true "Cart"
// @Success 200 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /bills/quote [post]
func (h *BillHandler) Quote(c *gin.Context) {
	actor, ok := CurrentActor(c)
	if !ok {
		return
	}
	var req request.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	bill, err := h.billingService.Quote(c.Request.Context(), checkoutInput(&req, actor))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill quoted successfully", bill)
}

// Checkout rings up and settles a sale
// @Summary Checkout
// @Tags bills
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "Idempotency key"
// @Param request body request.CheckoutRequest true "Cart and payment"
// @Success 201 {object} response.APIResponse
// @Failure 402 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /bills [post]
func (h *BillHandler) Checkout(c *gin.Context) {
	actor, ok := CurrentActor(c)
	if !ok {
		return
	}
	var req request.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	bill, err := h.billingService.Checkout(c.Request.Context(), checkoutInput(&req, actor))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Bill created successfully", bill)
}

// Hold stores a priced sale as PENDING to be paid later
// @Summary Hold Bill
// @Tags bills
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.CheckoutRequest true "Cart"
// @Success 201 {object} response.APIResponse
// @Router /bills/hold [post]
func (h *BillHandler) Hold(c *gin.Context) {
	actor, ok := CurrentActor(c)
	if !ok {
		return
	}
	var req request.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	bill, err := h.billingService.Hold(c.Request.Context(), checkoutInput(&req, actor))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Bill held successfully", bill)
}

// Pay settles a held bill
// @Summary Pay Held Bill
// @Tags bills
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Bill ID"
// @Param request body request.PayRequest true "Payment"
// @Success 200 {object} response.APIResponse
// @Failure 402 {object} response.APIResponse
// @Router /bills/{id}/pay [post]
func (h *BillHandler) Pay(c *gin.Context) {
	actor, ok := CurrentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req request.PayRequest
	if !bindJSON(c, &req) {
		return
	}

	bill, err := h.billingService.Pay(c.Request.Context(), &service.PayInput{
		BillID:         id,
		CashierID:      actor.ID,
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: paymentDetails(req.PaymentDetails),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill paid successfully", bill)
}

// List handles listing bills. Customers only see their own.
// Passing cursor or limit switches to keyset pagination.
// @Summary List Bills
// @Tags bills
// @Security BearerAuth
// @Produce json
// @Param status query []string false "Bill status" collectionFormat(multi)
// @Param customer_id query string false "Customer ID"
// @Param cashier_id query string false "Cashier ID"
// @Param start_date query string false "YYYY-MM-DD"
// @Param end_date query string false "YYYY-MM-DD"
// @Param search query string false "Bill number"
// @Param cursor query string false "Cursor"
// @Param limit query int false "Cursor page size"
// @Success 200 {object} response.APIResponse
// @Router /bills [get]
func (h *BillHandler) List(c *gin.Context) {
	actor, ok := CurrentActor(c)
	if !ok {
		return
	}
	filter, err := billFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if actor.Role == enum.RoleCustomer {
		filter.CustomerID = &actor.ID
	}

	if c.Query("cursor") != "" || c.Query("limit") != "" {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "15"))
		result, err := h.billingService.ListBillsWithCursor(c.Request.Context(), &repository.BillCursorFilterParams{
			BillFilter: filter,
			Cursor:     &pagination.CursorParams{Cursor: c.Query("cursor"), Limit: limit},
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		response.SuccessWithCursor(c, "Bills retrieved successfully", result)
		return
	}

	result, err := h.billingService.ListBills(c.Request.Context(), &repository.BillFilterParams{
		BillFilter: filter,
		Pagination: pageParams(c),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Bills retrieved successfully", result)
}

// visibleBill loads a bill and hides other customers' bills behind a 404
func (h *BillHandler) visibleBill(c *gin.Context) (*entity.Bill, bool) {
	actor, ok := CurrentActor(c)
	if !ok {
		return nil, false
	}
	id, ok := pathID(c)
	if !ok {
		return nil, false
	}

	bill, err := h.billingService.GetBill(c.Request.Context(), id)
	if err == nil && actor.Role == enum.RoleCustomer && bill.CustomerID != actor.ID {
		err = apperror.NewNotFoundError("Bill")
	}
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return bill, true
}

// Get handles getting a single bill with its items
// @Summary Get Bill
// @Tags bills
// @Security BearerAuth
// @Produce json
// @Param id path string true "Bill ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /bills/{id} [get]
func (h *BillHandler) Get(c *gin.Context) {
	bill, ok := h.visibleBill(c)
	if !ok {
		return
	}

	response.OK(c, "Bill retrieved successfully", bill)
}

// Summary renders the plain text summary of a bill
// @Summary Bill Summary
// @Tags bills
// @Security BearerAuth
// @Produce json
// @Param id path string true "Bill ID"
// @Success 200 {object} response.APIResponse
// @Router /bills/{id}/summary [get]
func (h *BillHandler) Summary(c *gin.Context) {
	bill, ok := h.visibleBill(c)
	if !ok {
		return
	}

	summary, err := h.billingService.Summary(c.Request.Context(), bill.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill summary generated successfully", gin.H{
		"bill_number": bill.BillNumber,
		"summary":     summary,
	})
}

// Cancel voids a held bill
// @Summary Cancel Bill
// @Tags bills
// @Security BearerAuth
// @Produce json
// @Param id path string true "Bill ID"
// @Success 200 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /bills/{id}/cancel [post]
func (h *BillHandler) Cancel(c *gin.Context) {
	actor, ok := CurrentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	bill, err := h.billingService.Cancel(c.Request.Context(), id, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Bill cancelled successfully", bill)
}

// Print sends the bill's receipt to the receipt printer.
// The rendered receipt is returned even when the printer fails.
// @Summary Print Bill
// @Tags bills
// @Security BearerAuth
// @Produce json
// @Param id path string true "Bill ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /bills/{id}/print [post]
func (h *BillHandler) Print(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	receipt, err := h.printerService.PrintBill(c.Request.Context(), id)
	if err != nil && receipt == nil {
		response.Error(c, err)
		return
	}
	if err != nil {
		response.OK(c, "Receipt rendered but not printed", gin.H{
			"receipt": receipt,
			"warning": err.Error(),
		})
		return
	}

	response.OK(c, "Receipt sent to printer", gin.H{
		"receipt": receipt,
	})
}
