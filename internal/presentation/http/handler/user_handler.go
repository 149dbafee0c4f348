package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sangkips/bookshop-pos/internal/application/service"
	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	"github.com/sangkips/bookshop-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/bookshop-pos/internal/presentation/http/dto/response"
	"github.com/sangkips/bookshop-pos/pkg/apperror"
)

// UserHandler handles staff account HTTP requests
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List handles listing staff accounts with pagination
// @Summary List Users
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(15)
// @Param search query string false "Search query"
// @Param role query string false "ADMIN or CASHIER"
// @Success 200 {object} response.APIResponse
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	input := &service.ListUsersInput{
		Pagination:      pageParams(c),
		Search:          c.Query("search"),
		IncludeInactive: c.Query("include_inactive") == "true",
	}
	if raw := c.Query("role"); raw != "" {
		role, err := enum.ParseUserRole(raw)
		if err != nil {
			response.Error(c, apperror.NewFieldError("role", err.Error()))
			return
		}
		input.Role = &role
	}

	result, err := h.userService.ListUsers(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Users retrieved successfully", result)
}

// Get handles getting a single staff account
// @Summary Get User
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "User retrieved successfully", user)
}

// Create handles creating a staff account
// @Summary Create User
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.CreateUserRequest true "User data"
// @Success 201 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req request.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := enum.ParseUserRole(req.Role)
	if err != nil {
		response.Error(c, apperror.NewFieldError("role", err.Error()))
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), &service.CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		Role:     role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "User created successfully", user)
}

// Update handles updating a staff account
// @Summary Update User
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body request.UpdateUserRequest true "User data"
// @Success 200 {object} response.APIResponse
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req request.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	input := &service.UpdateUserInput{
		ID:       id,
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
		IsActive: req.IsActive,
		Password: req.Password,
	}
	if req.Role != nil {
		role, err := enum.ParseUserRole(*req.Role)
		if err != nil {
			response.Error(c, apperror.NewFieldError("role", err.Error()))
			return
		}
		input.Role = &role
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "User updated successfully", user)
}

// Delete deactivates a staff account
// @Summary Deactivate User
// @Tags users
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.APIResponse
// @Failure 400 {object} response.APIResponse
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	actor, ok := CurrentActor(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.userService.DeactivateUser(c.Request.Context(), id, actor.ID); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "User deactivated successfully", nil)
}
