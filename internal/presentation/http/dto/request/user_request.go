package request

// CreateUserRequest creates a staff account
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Password string `json:"password" binding:"required,min=6"`
	Email    string `json:"email" binding:"omitempty,email"`
	FullName string `json:"full_name" binding:"required,max=255"`
	Phone    string `json:"phone" binding:"omitempty,max=50"`
	Role     string `json:"role" binding:"required,oneof=ADMIN CASHIER admin cashier"`
}

// UpdateUserRequest changes a staff account. Omitted fields are left alone.
type UpdateUserRequest struct {
	Email    *string `json:"email" binding:"omitempty,email"`
	FullName *string `json:"full_name" binding:"omitempty,max=255"`
	Phone    *string `json:"phone" binding:"omitempty,max=50"`
	Role     *string `json:"role" binding:"omitempty,oneof=ADMIN CASHIER admin cashier"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password" binding:"omitempty,min=6"`
}

// CreateCustomerRequest registers a customer
type CreateCustomerRequest struct {
	FullName string `json:"full_name" binding:"required,max=255"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone" binding:"omitempty,max=50"`
	Address  string `json:"address"`
	Username string `json:"username" binding:"omitempty,min=3,max=100"`
	Password string `json:"password" binding:"omitempty,min=6"`
}

// UpdateCustomerRequest changes a customer. The account number is fixed.
type UpdateCustomerRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,max=255"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Phone    *string `json:"phone" binding:"omitempty,max=50"`
	Address  *string `json:"address"`
	IsActive *bool   `json:"is_active"`
}
