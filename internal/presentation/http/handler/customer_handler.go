package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sangkips/bookshop-pos/internal/application/service"
	"github.com/sangkips/bookshop-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/bookshop-pos/internal/presentation/http/dto/response"
)

// CustomerHandler handles customer-related HTTP requests
type CustomerHandler struct {
	customerService *service.CustomerService
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// List handles listing customers
// @Summary List Customers
// @Tags customers
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(15)
// @Param search query string false "Name, account number, email or phone"
// @Param include_inactive query bool false "Include deactivated customers"
// @Success 200 {object} response.APIResponse
// @Router /customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	result, err := h.customerService.ListCustomers(
		c.Request.Context(),
		pageParams(c),
		c.Query("search"),
		c.Query("include_inactive") == "true",
	)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Customers retrieved successfully", result)
}

// Get handles getting a single customer
// @Summary Get Customer
// @Tags customers
// @Security BearerAuth
// @Produce json
// @Param id path string true "Customer ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /customers/{id} [get]
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	customer, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer retrieved successfully", customer)
}

// GetByAccount looks a customer up by account number, as typed at the till
// @Summary Get Customer By Account Number
// @Tags customers
// @Security BearerAuth
// @Produce json
// @Param account path string true "Account number"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /customers/account/{account} [get]
func (h *CustomerHandler) GetByAccount(c *gin.Context) {
	customer, err := h.customerService.GetByAccountNumber(c.Request.Context(), c.Param("account"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer retrieved successfully", customer)
}

// Create handles registering a customer
// @Summary Create Customer
// @Tags customers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.CreateCustomerRequest true "Customer data"
// @Success 201 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req request.CreateCustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customerService.CreateCustomer(c.Request.Context(), &service.CreateCustomerInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Customer created successfully", customer)
}

// Update handles updating a customer
// @Summary Update Customer
// @Tags customers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Customer ID"
// @Param request body request.UpdateCustomerRequest true "Customer data"
// @Success 200 {object} response.APIResponse
// @Router /customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req request.UpdateCustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customerService.UpdateCustomer(c.Request.Context(), &service.UpdateCustomerInput{
		ID:       id,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		IsActive: req.IsActive,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer updated successfully", customer)
}

// Delete deactivates a customer. Their bills are kept.
// @Summary Deactivate Customer
// @Tags customers
// @Security BearerAuth
// @Param id path string true "Customer ID"
// @Success 200 {object} response.APIResponse
// @Router /customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.customerService.DeactivateCustomer(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer deactivated successfully", nil)
}

// Stats returns a customer's purchase history summary
// @Summary Customer Purchase Stats
// @Tags customers
// @Security BearerAuth
// @Produce json
// @Param id path string true "Customer ID"
// @Success 200 {object} response.APIResponse
// @Router /customers/{id}/stats [get]
func (h *CustomerHandler) Stats(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	stats, err := h.customerService.PurchaseStats(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Customer stats retrieved successfully", stats)
}
