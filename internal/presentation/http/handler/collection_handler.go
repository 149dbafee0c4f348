package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sangkips/bookshop-pos/internal/application/service"
	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	"github.com/sangkips/bookshop-pos/internal/domain/repository"
	"github.com/sangkips/bookshop-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/bookshop-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/bookshop-pos/pkg/apperror"
)

// CollectionHandler handles collection requests: books a customer asks to
// have put aside, reviewed by an admin and billed at the counter.
type CollectionHandler struct {
	collectionService *service.CollectionService
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(collectionService *service.CollectionService) *CollectionHandler {
	return &CollectionHandler{collectionService: collectionService}
}

// Submit stores a new collection request.
// Customers always submit for themselves; staff must name the customer.
// @Summary Submit Collection Request
// @Tags collection-requests
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param Idempotency-Key header string true "Idempotency key"
// @Param request body request.SubmitCollectionRequest true "Requested books"
// @Success 201 {object} response.APIResponse
// @Router /collection-requests [post]
func (h *CollectionHandler) Submit(c *gin.Context) {
	actor, ok := CurrentActor(c)
	if !ok {
		return
	}
	var req request.SubmitCollectionRequest
	if !bindJSON(c, &req) {
		return
	}

	input := service.SubmitInput{
		Items:           cartItems(req.Items),
		IsDelivery:      req.IsDelivery,
		DeliveryAddress: req.DeliveryAddress,
		DiscountPolicy:  req.DiscountPolicy,
		Notes:           req.Notes,
	}
	switch {
	case actor.Role == enum.RoleCustomer:
		input.CustomerID = actor.ID
	case req.CustomerID != nil:
		input.CustomerID = *req.CustomerID
	default:
		response.Error(c, apperror.NewFieldError("customer_id", "is required"))
		return
	}

	bill, err := h.collectionService.Submit(c.Request.Context(), actor, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Collection request submitted successfully", bill)
}

// List handles listing collection requests. Customers only see their own.
// @Summary List Collection Requests
// @Tags collection-requests
// @Security BearerAuth
// @Produce json
// @Param status query []string false "Status" collectionFormat(multi)
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(15)
// @Success 200 {object} response.APIResponse
// @Router /collection-requests [get]
func (h *CollectionHandler) List(c *gin.Context) {
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

	result, err := h.collectionService.ListRequests(c.Request.Context(), &repository.BillFilterParams{
		BillFilter: filter,
		Pagination: pageParams(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Collection requests retrieved successfully", result)
}

// Get returns one collection request
// @Summary Get Collection Request
// @Tags collection-requests
// @Security BearerAuth
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /collection-requests/{id} [get]
func (h *CollectionHandler) Get(c *gin.Context) {
	actor, ok := CurrentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	bill, err := h.collectionService.GetRequest(c.Request.Context(), id)
	if err == nil && actor.Role == enum.RoleCustomer && bill.CustomerID != actor.ID {
		err = apperror.NewNotFoundError("Collection request")
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Collection request retrieved successfully", bill)
}

// Process moves a request one step forward
// @Summary Process Collection Request
// @Tags collection-requests
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body request.ProcessCollectionRequest false "Billing options"
// @Success 200 {object} response.APIResponse
// @Failure 403 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /collection-requests/{id}/process [post]
func (h *CollectionHandler) Process(c *gin.Context) {
	actor, ok := CurrentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req request.ProcessCollectionRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	bill, err := h.collectionService.Process(c.Request.Context(), id, actor, service.ProcessInput{
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: paymentDetails(req.PaymentDetails),
		DiscountPolicy: req.DiscountPolicy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Collection request moved to "+bill.Status.String(), bill)
}

// Cancel withdraws or rejects a request
// @Summary Cancel Collection Request
// @Tags collection-requests
// @Security BearerAuth
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.APIResponse
// @Router /collection-requests/{id}/cancel [post]
func (h *CollectionHandler) Cancel(c *gin.Context) {
	h.transition(c, h.collectionService.Cancel)
}

// Complete hands a billed request over to the customer
// @Summary Complete Collection Request
// @Tags collection-requests
// @Security BearerAuth
// @Produce json
// @Accept json
// @Param id path string true "Request ID"
// @Param request body request.CompleteCollectionRequest false "Payment details"
// @Success 200 {object} response.APIResponse
// @Failure 402 {object} response.APIResponse
// @Router /collection-requests/{id}/complete [post]
func (h *CollectionHandler) Complete(c *gin.Context) {
	actor, ok := CurrentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req request.CompleteCollectionRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	bill, err := h.collectionService.Complete(c.Request.Context(), id, actor, paymentDetails(req.PaymentDetails))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Collection request moved to "+bill.Status.String(), bill)
}

type transitionFunc func(ctx context.Context, billID uuid.UUID, actor service.Actor) (*entity.Bill, error)

func (h *CollectionHandler) transition(c *gin.Context, fn transitionFunc) {
	actor, ok := CurrentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	bill, err := fn(c.Request.Context(), id, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Collection request moved to "+bill.Status.String(), bill)
}
